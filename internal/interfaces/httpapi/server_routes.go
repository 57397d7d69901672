package httpapi

import (
	"net/http"

	"github.com/riskibarqy/contest-awards/internal/platform/metrics"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsManager *metrics.Manager) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsManager == nil {
		return
	}

	mux.Handle("GET /metrics", metricsManager.Handler())
}

func registerSubmissionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/submissions", handler.UploadSubmission)
	mux.HandleFunc("POST /v1/submissions/preview", handler.PreviewSubmission)
	mux.HandleFunc("GET /v1/submissions", handler.ListSubmissions)
	mux.HandleFunc("GET /v1/submissions/{submissionID}", handler.GetSubmission)
}

func registerLeaderboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leaderboard", handler.SeasonLeaderboard)
	mux.HandleFunc("GET /v1/leaderboard/all-time", handler.AllTimeLeaderboard)
	mux.HandleFunc("GET /v1/years", handler.ListYears)
	mux.HandleFunc("GET /v1/members/{callsign}", handler.GetMemberHistory)
	mux.HandleFunc("GET /v1/contests", handler.ListContests)
	mux.HandleFunc("GET /v1/contests/{year}/{contestKey}", handler.GetContestResults)
	mux.HandleFunc("GET /v1/highlights", handler.GetHighlights)
	mux.HandleFunc("GET /v1/stats", handler.GetSeasonStats)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/admin/imports", handler.ImportSubmissions)
	mux.HandleFunc("POST /v1/admin/recompute", handler.Recompute)
	mux.HandleFunc("GET /v1/admin/scoring-method", handler.GetScoringMethod)
	mux.HandleFunc("PUT /v1/admin/scoring-method", handler.SetScoringMethod)
	mux.HandleFunc("DELETE /v1/admin/contest-data", handler.ClearContestData)
	mux.HandleFunc("GET /v1/admin/members", handler.ListMembers)
	mux.HandleFunc("PUT /v1/admin/members", handler.UpsertMembers)
	mux.HandleFunc("POST /v1/admin/roster", handler.ImportRoster)
}
