package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) SeasonLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SeasonLeaderboard")
	defer span.End()

	year, err := parseYearParam(r.URL.Query().Get("year"), true)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.leaderboardService.Season(ctx, year)
	if err != nil {
		h.logger.WarnContext(ctx, "season leaderboard failed", "year", year, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entries)
}

func (h *Handler) AllTimeLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AllTimeLeaderboard")
	defer span.End()

	entries, err := h.leaderboardService.AllTime(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "all-time leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entries)
}

func (h *Handler) ListYears(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListYears")
	defer span.End()

	years, err := h.leaderboardService.Years(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list years failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, years)
}

func (h *Handler) GetMemberHistory(w http.ResponseWriter, r *http.Request) {
	callsign := strings.TrimSpace(r.PathValue("callsign"))
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMemberHistory", attribute.String("member.callsign", callsign))
	defer span.End()

	year, err := parseYearParam(r.URL.Query().Get("year"), false)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	history, err := h.leaderboardService.MemberHistory(ctx, callsign, year)
	if err != nil {
		h.logger.WarnContext(ctx, "member history failed", "callsign", callsign, "year", year, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, history)
}

func (h *Handler) GetContestResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetContestResults")
	defer span.End()

	year, err := parseYearParam(r.PathValue("year"), true)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	key := submission.ContestKey{Year: year, Contest: strings.TrimSpace(r.PathValue("contestKey"))}

	results, err := h.leaderboardService.ContestResults(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "contest results failed", "contest", key.String(), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, contestResultsToDTO(results))
}

func (h *Handler) GetSeasonStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonStats")
	defer span.End()

	year, err := parseYearParam(r.URL.Query().Get("year"), true)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stats, err := h.leaderboardService.Stats(ctx, year)
	if err != nil {
		h.logger.WarnContext(ctx, "season stats failed", "year", year, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stats)
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSubmissions")
	defer span.End()

	query := r.URL.Query()
	year, err := parseYearParam(query.Get("year"), false)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	filter := usecase.SubmissionFilter{Year: year, Member: query.Get("member")}

	rows, err := h.leaderboardService.ListSubmissions(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list submissions failed", "year", year, "member", filter.Member, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) ListContests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListContests")
	defer span.End()

	contests, err := h.leaderboardService.Contests(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list contests failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, contests)
}

func (h *Handler) GetHighlights(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetHighlights")
	defer span.End()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a number", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	highlights, err := h.leaderboardService.Highlights(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "highlights failed", "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, highlights)
}
