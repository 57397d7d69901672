package httpapi

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/riskibarqy/contest-awards/internal/usecase"
)

const defaultUploadMaxBytes int64 = 5 << 20

type Handler struct {
	submissionService  *usecase.SubmissionService
	scoringService     *usecase.ScoringService
	importService      *usecase.ImportService
	leaderboardService *usecase.LeaderboardService
	memberService      *usecase.MemberService
	uploadMaxBytes     int64
	logger             *logging.Logger
	validator          *validator.Validate
}

type HandlerConfig struct {
	UploadMaxBytes int64
}

func NewHandler(
	submissionService *usecase.SubmissionService,
	scoringService *usecase.ScoringService,
	importService *usecase.ImportService,
	leaderboardService *usecase.LeaderboardService,
	memberService *usecase.MemberService,
	cfg HandlerConfig,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = defaultUploadMaxBytes
	}

	return &Handler{
		submissionService:  submissionService,
		scoringService:     scoringService,
		importService:      importService,
		leaderboardService: leaderboardService,
		memberService:      memberService,
		uploadMaxBytes:     cfg.UploadMaxBytes,
		logger:             logger.Named("httpapi"),
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// readUpload returns the request body as text. A multipart form is accepted
// when the payload is sent in the "file" field.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.uploadMaxBytes); err != nil {
			return "", "", fmt.Errorf("%w: invalid multipart payload: %w", usecase.ErrInvalidInput, err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("%w: multipart field \"file\" is required", usecase.ErrInvalidInput)
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			return "", "", fmt.Errorf("%w: read uploaded file: %w", usecase.ErrInvalidInput, err)
		}
		return string(raw), header.Filename, nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return "", "", fmt.Errorf("%w: read request body: %w", usecase.ErrInvalidInput, err)
	}
	return string(raw), "", nil
}

func parseYearParam(raw string, required bool) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: year is required", usecase.ErrInvalidInput)
		}
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 2100 {
		return 0, fmt.Errorf("%w: year must be a four digit year", usecase.ErrInvalidInput)
	}
	return year, nil
}
