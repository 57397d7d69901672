package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/usecase"
)

func (h *Handler) ImportSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportSubmissions")
	defer span.End()

	content, fileName, err := h.readUpload(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.ImportCSV(ctx, strings.NewReader(content))
	if err != nil {
		h.logger.WarnContext(ctx, "import submissions failed", "file_name", fileName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// Recompute rebuilds one contest when year and contest are given, otherwise
// every contest with an active submission.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Recompute")
	defer span.End()

	var req recomputeRequest
	if r.ContentLength != 0 {
		decoder := sonic.ConfigDefault.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	req.Contest = strings.TrimSpace(req.Contest)
	if req.Year == 0 && req.Contest == "" {
		summary, err := h.scoringService.RecomputeAll(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "recompute all failed", "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, recomputeSummaryToDTO(summary))
		return
	}

	key := submission.ContestKey{Year: req.Year, Contest: strings.ToUpper(req.Contest)}
	result, err := h.scoringService.RecomputeBaseline(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "recompute contest failed", "contest", key.String(), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, recomputeResultToDTO(result))
}

func (h *Handler) GetScoringMethod(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetScoringMethod")
	defer span.End()

	method, err := h.scoringService.CurrentMethod(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get scoring method failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoringMethodDTO{Method: string(method)})
}

func (h *Handler) SetScoringMethod(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetScoringMethod")
	defer span.End()

	var req scoringMethodRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.scoringService.SetScoringMethod(ctx, req.Method)
	if err != nil {
		h.logger.ErrorContext(ctx, "set scoring method failed", "method", req.Method, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, recomputeSummaryToDTO(summary))
}

func (h *Handler) ClearContestData(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearContestData")
	defer span.End()

	if err := h.submissionService.ClearAll(ctx); err != nil {
		h.logger.ErrorContext(ctx, "clear contest data failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMembers")
	defer span.End()

	items, err := h.memberService.ListActive(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list members failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]memberDTO, 0, len(items))
	for _, item := range items {
		out = append(out, memberToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) UpsertMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertMembers")
	defer span.End()

	var req upsertMembersRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]member.Member, 0, len(req.Members))
	for _, record := range req.Members {
		items = append(items, memberFromRecord(record))
	}

	count, err := h.memberService.UpsertMany(ctx, items)
	if err != nil {
		h.logger.WarnContext(ctx, "upsert members failed", "members", len(items), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"upserted": count})
}

// ImportRoster replaces the roster with an uploaded CSV export.
func (h *Handler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportRoster")
	defer span.End()

	content, fileName, err := h.readUpload(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.memberService.ImportRosterCSV(ctx, strings.NewReader(content))
	if err != nil {
		h.logger.WarnContext(ctx, "import roster failed", "file_name", fileName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
