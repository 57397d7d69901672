package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/cabrillo"
	"github.com/riskibarqy/contest-awards/internal/domain/eligibility"
	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/platform/id"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/riskibarqy/contest-awards/internal/platform/metrics"
	"github.com/sourcegraph/conc/panics"
)

const notifyTimeout = 10 * time.Second

type UploadInput struct {
	Content  string
	FileName string
}

type SubmitResult struct {
	Submission submission.Submission    `json:"submission"`
	Replaced   *submission.Submission   `json:"replaced,omitempty"`
	Points     []scoring.OperatorPoints `json:"points"`
	Baseline   RecomputeResult          `json:"baseline"`
}

type UploadResult struct {
	SubmitResult
	Log              cabrillo.Log `json:"log"`
	ExclusionWarning string       `json:"exclusionWarning,omitempty"`
}

// PreviewResult is what an upload would earn against the contest as it is
// stored now. Nothing is written.
type PreviewResult struct {
	Log              cabrillo.Log
	MemberOperators  []string
	ExclusionWarning string
	NormalizedPoints float64
	CurrentMaxPoints float64
	Replaces         bool
}

// NormalizedPoints is the per-member value of the stored submission.
func (r SubmitResult) NormalizedPoints() float64 {
	if len(r.Points) == 0 {
		return 0
	}
	return r.Points[0].NormalizedPoints
}

// SubmissionService keeps at most one active submission per
// (season, contest, callsign) and recomputes the contest after each write.
type SubmissionService struct {
	parser         *cabrillo.Parser
	memberRepo     member.Repository
	submissionRepo submission.Repository
	scoringRepo    scoring.Repository
	scoring        *ScoringService
	notifier       SubmissionNotifier
	idGen          id.Generator
	metrics        *metrics.Manager
	logger         *logging.Logger
	now            func() time.Time
}

func NewSubmissionService(
	memberRepo member.Repository,
	submissionRepo submission.Repository,
	scoringRepo scoring.Repository,
	scoringSvc *ScoringService,
	notifier SubmissionNotifier,
	idGen id.Generator,
	metricsManager *metrics.Manager,
	logger *logging.Logger,
) *SubmissionService {
	if notifier == nil {
		notifier = NewNoopSubmissionNotifier()
	}
	if idGen == nil {
		idGen = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SubmissionService{
		parser:         cabrillo.NewParser(),
		memberRepo:     memberRepo,
		submissionRepo: submissionRepo,
		scoringRepo:    scoringRepo,
		scoring:        scoringSvc,
		notifier:       notifier,
		idGen:          idGen,
		metrics:        metricsManager,
		logger:         logger.Named("submission"),
		now:            time.Now,
	}
}

// Upload is the interactive path: parse, validate against the live roster,
// store and recompute. A failed validation stores nothing.
func (s *SubmissionService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Upload")
	defer span.End()

	if strings.TrimSpace(input.Content) == "" {
		return UploadResult{}, fmt.Errorf("%w: log content is required", ErrInvalidInput)
	}

	log, err := s.parser.Parse(input.Content)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	roster, err := s.loadRoster(ctx)
	if err != nil {
		return UploadResult{}, err
	}

	validation := eligibility.Validate(validationInput(log), roster)
	if !validation.Valid {
		s.metrics.ObserveSubmission(string(submission.StatusRejected), string(submission.SourceUpload))
		s.logger.InfoContext(ctx, "submission rejected",
			"callsign", log.Callsign,
			"contest", log.ContestKey,
			"year", log.ContestYear,
			"reason", validation.Reason,
		)
		return UploadResult{Log: log}, fmt.Errorf("%w: %s", ErrRejected, validation.Reason)
	}

	result, err := s.Submit(ctx, log, validation, submission.SourceUpload)
	if err != nil {
		return UploadResult{}, err
	}

	s.notifyAsync(ctx, result.Submission)

	return UploadResult{
		SubmitResult:     result,
		Log:              log,
		ExclusionWarning: validation.ExclusionWarning,
	}, nil
}

// Preview parses and validates like Upload, then reports the points the log
// would earn with the active set of its contest. Rejections return ErrRejected.
func (s *SubmissionService) Preview(ctx context.Context, input UploadInput) (PreviewResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Preview")
	defer span.End()

	if strings.TrimSpace(input.Content) == "" {
		return PreviewResult{}, fmt.Errorf("%w: log content is required", ErrInvalidInput)
	}
	log, err := s.parser.Parse(input.Content)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	roster, err := s.loadRoster(ctx)
	if err != nil {
		return PreviewResult{}, err
	}

	validation := eligibility.Validate(validationInput(log), roster)
	if !validation.Valid {
		return PreviewResult{}, fmt.Errorf("%w: %s", ErrRejected, validation.Reason)
	}

	item, err := s.newSubmission(log, validation, submission.SourceUpload)
	if err != nil {
		return PreviewResult{}, err
	}
	item.ID = ""

	_, replaces, err := s.submissionRepo.GetActiveByNaturalKey(ctx, item.Key(), item.Callsign)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("get active submission: %w", err)
	}
	points, err := s.scoring.ComputeNormalizedPoints(ctx, item)
	if err != nil {
		return PreviewResult{}, err
	}
	maxPoints, err := s.scoring.CalculateMaxPoints(ctx, item.Key())
	if err != nil {
		return PreviewResult{}, err
	}

	return PreviewResult{
		Log:              log,
		MemberOperators:  item.MemberOperators,
		ExclusionWarning: validation.ExclusionWarning,
		NormalizedPoints: points,
		CurrentMaxPoints: maxPoints,
		Replaces:         replaces,
	}, nil
}

// Submit stores log as the single active submission of its natural key,
// deactivating any previous one, and recomputes the contest in the same
// transaction. An invalid validation is stored as accepted with its reason.
func (s *SubmissionService) Submit(ctx context.Context, log cabrillo.Log, validation eligibility.Result, source submission.Source) (SubmitResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Submit", contestAttrs(log.ContestYear, log.ContestKey)...)
	defer span.End()

	item, err := s.newSubmission(log, validation, source)
	if err != nil {
		return SubmitResult{}, err
	}
	key := item.Key()

	unlock := s.scoring.lockContest(key)
	defer unlock()

	existing, found, err := s.submissionRepo.GetActiveByNaturalKey(ctx, key, item.Callsign)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get active submission: %w", err)
	}

	change := scoring.ContestChange{Insert: &item}
	var replaced *submission.Submission
	if found {
		change.PreviousID = existing.ID
		existing.IsActive = false
		replaced = &existing
	}

	// The replace and the rebuild commit together; a failure leaves the
	// previous submission and its points in place.
	recompute, err := s.scoring.rebuild(ctx, key, change)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("store submission: %w", err)
	}

	points := make([]scoring.OperatorPoints, 0, len(item.MemberOperators))
	for _, row := range recompute.rows {
		if row.SubmissionID == item.ID {
			points = append(points, row)
		}
	}
	recompute.rows = nil

	s.metrics.ObserveSubmission(string(item.Status), string(source))
	s.logger.InfoContext(ctx, "submission stored",
		"submission_id", item.ID,
		"callsign", item.Callsign,
		"contest", item.ContestKey,
		"year", item.SeasonYear,
		"source", source,
		"replaced", replaced != nil,
	)

	return SubmitResult{
		Submission: item,
		Replaced:   replaced,
		Points:     points,
		Baseline:   recompute,
	}, nil
}

func (s *SubmissionService) Get(ctx context.Context, submissionID string) (submission.Submission, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return submission.Submission{}, fmt.Errorf("%w: submission id is required", ErrInvalidInput)
	}

	item, exists, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	if !exists {
		return submission.Submission{}, fmt.Errorf("%w: submission=%s", ErrNotFound, submissionID)
	}
	return item, nil
}

// ClearAll removes every submission, baseline and operator points row.
// Members and the scoring method are kept.
func (s *SubmissionService) ClearAll(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.ClearAll")
	defer span.End()

	if err := s.scoringRepo.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	if err := s.submissionRepo.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear submissions: %w", err)
	}
	s.logger.WarnContext(ctx, "all contest data cleared")
	return nil
}

func (s *SubmissionService) loadRoster(ctx context.Context) (eligibility.Roster, error) {
	members, err := s.memberRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", ErrDependencyUnavailable, err)
	}
	return eligibility.BuildRoster(members), nil
}

func (s *SubmissionService) newSubmission(log cabrillo.Log, validation eligibility.Result, source submission.Source) (submission.Submission, error) {
	if log.ContestKey == "" || log.Callsign == "" {
		return submission.Submission{}, fmt.Errorf("%w: contest and callsign are required", ErrInvalidInput)
	}

	submissionID, err := s.idGen.NewID()
	if err != nil {
		return submission.Submission{}, fmt.Errorf("generate submission id: %w", err)
	}

	total := validation.TotalOperators
	if total < 1 {
		total = eligibility.TotalOperators(log.Operators)
	}

	item := submission.Submission{
		ID:                 submissionID,
		SeasonYear:         log.ContestYear,
		ContestYear:        log.ContestYear,
		ContestKey:         log.ContestKey,
		Mode:               log.Mode,
		Callsign:           log.Callsign,
		CategoryOperator:   log.CategoryOperator,
		ClaimedScore:       log.ClaimedScore,
		Operators:          append([]string(nil), log.Operators...),
		MemberOperators:    append([]string(nil), validation.MemberOperators...),
		ExcludedOperators:  append([]string(nil), validation.ExcludedOperators...),
		EffectiveOperators: validation.EffectiveOperators,
		TotalOperators:     total,
		Club:               log.Club,
		Status:             submission.StatusAccepted,
		Source:             source,
		SubmittedAt:        s.now().UTC(),
		IsActive:           true,
	}
	if !validation.Valid {
		item.RejectReason = validation.Reason
		item.MemberOperators = nil
	}
	return item, nil
}

// notifyAsync publishes one notice per member operator without blocking or
// failing the submission.
func (s *SubmissionService) notifyAsync(ctx context.Context, item submission.Submission) {
	if len(item.MemberOperators) == 0 {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()

		var catcher panics.Catcher
		catcher.Try(func() {
			for _, call := range item.MemberOperators {
				err := s.notifier.NotifySubmission(notifyCtx, SubmissionNotice{
					OperatorCallsign: call,
					StationCallsign:  item.Callsign,
					Contest:          item.ContestKey,
					Year:             item.SeasonYear,
					ClaimedScore:     item.ClaimedScore,
					Status:           string(item.Status),
					SubmissionID:     item.ID,
				})
				if err != nil {
					s.metrics.ObserveNotification("failed")
					s.logger.WarnContext(notifyCtx, "submission notification failed",
						"submission_id", item.ID,
						"operator", call,
						"error", err,
					)
					continue
				}
				s.metrics.ObserveNotification("sent")
			}
		})
		if recovered := catcher.Recovered(); recovered != nil {
			s.logger.ErrorContext(notifyCtx, "submission notifier panicked",
				"submission_id", item.ID,
				"error", recovered.AsError(),
			)
		}
	}()
}

func validationInput(log cabrillo.Log) eligibility.Input {
	return eligibility.Input{
		Callsign:         log.Callsign,
		Operators:        log.Operators,
		Club:             log.Club,
		CategoryOperator: log.CategoryOperator,
		ContestYear:      log.ContestYear,
	}
}
