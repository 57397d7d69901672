package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/contest-awards/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) UploadSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UploadSubmission")
	defer span.End()

	content, fileName, err := h.readUpload(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.submissionService.Upload(ctx, usecase.UploadInput{Content: content, FileName: fileName})
	if err != nil {
		h.logger.WarnContext(ctx, "upload submission failed", "file_name", fileName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, uploadResultToDTO(result))
}

// PreviewSubmission reports what an upload would score without storing it.
func (h *Handler) PreviewSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviewSubmission")
	defer span.End()

	content, fileName, err := h.readUpload(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.submissionService.Preview(ctx, usecase.UploadInput{Content: content, FileName: fileName})
	if err != nil {
		h.logger.InfoContext(ctx, "preview submission failed", "file_name", fileName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, previewResultToDTO(result))
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID := strings.TrimSpace(r.PathValue("submissionID"))
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSubmission", attribute.String("submission.id", submissionID))
	defer span.End()

	item, err := h.submissionService.Get(ctx, submissionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get submission failed", "submission_id", submissionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, submissionToDTO(item))
}
