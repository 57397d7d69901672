package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/riskibarqy/contest-awards/internal/platform/metrics"
	"github.com/riskibarqy/contest-awards/internal/platform/resilience"
)

const (
	defaultRecomputeWorkers = 4
	recomputeMethodUnknown  = "unknown"
)

type ScoringServiceConfig struct {
	MaxWorkers int
}

// RecomputeResult describes one (year, contest) rebuild.
type RecomputeResult struct {
	Year                 int            `json:"year"`
	ContestKey           string         `json:"contestKey"`
	Method               scoring.Method `json:"method"`
	Submissions          int            `json:"submissions"`
	Rows                 int            `json:"rows"`
	HighestSingleClaimed float64        `json:"highestSingleClaimed"`
	MaxPoints            float64        `json:"maxPoints"`
	Skipped              bool           `json:"skipped"`
	Error                string         `json:"error,omitempty"`

	rows []scoring.OperatorPoints
}

type RecomputeSummary struct {
	Method     scoring.Method    `json:"method"`
	KeyCount   int               `json:"keyCount"`
	Recomputed int               `json:"recomputed"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Results    []RecomputeResult `json:"results"`
}

// ScoringService owns baseline recomputation. Every write to the operator
// points of one contest key happens under that key's lock.
type ScoringService struct {
	submissionRepo submission.Repository
	scoringRepo    scoring.Repository
	locks          *resilience.KeyedMutex
	metrics        *metrics.Manager
	logger         *logging.Logger
	maxWorkers     int
	now            func() time.Time
}

func NewScoringService(
	submissionRepo submission.Repository,
	scoringRepo scoring.Repository,
	cfg ScoringServiceConfig,
	metricsManager *metrics.Manager,
	logger *logging.Logger,
) *ScoringService {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultRecomputeWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		submissionRepo: submissionRepo,
		scoringRepo:    scoringRepo,
		locks:          &resilience.KeyedMutex{},
		metrics:        metricsManager,
		logger:         logger.Named("scoring"),
		maxWorkers:     cfg.MaxWorkers,
		now:            time.Now,
	}
}

// CurrentMethod returns the configured method, fixed when none was stored.
func (s *ScoringService) CurrentMethod(ctx context.Context) (scoring.Method, error) {
	method, ok, err := s.scoringRepo.GetScoringMethod(ctx)
	if err != nil {
		return "", fmt.Errorf("get scoring method: %w", err)
	}
	if !ok {
		return scoring.DefaultMethod, nil
	}
	return method, nil
}

func (s *ScoringService) CalculateMaxPoints(ctx context.Context, key submission.ContestKey) (float64, error) {
	method, err := s.CurrentMethod(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.submissionRepo.CountActiveByContest(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("count active submissions: %w", err)
	}
	return scoring.CalculateMaxPoints(method, count), nil
}

// RecomputeBaseline rebuilds the baseline and every operator points row of
// one contest. An empty active set leaves stored data untouched.
func (s *ScoringService) RecomputeBaseline(ctx context.Context, key submission.ContestKey) (RecomputeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.RecomputeBaseline", contestAttrs(key.Year, key.Contest)...)
	defer span.End()

	if err := validateContestKey(key); err != nil {
		return RecomputeResult{}, err
	}

	unlock := s.lockContest(key)
	defer unlock()

	return s.rebuild(ctx, key, scoring.ContestChange{})
}

func (s *ScoringService) lockContest(key submission.ContestKey) func() {
	return s.locks.Lock(key.String())
}

// rebuild commits change and the recomputed contest together. The repository
// reads the method and the active set inside its transaction. The caller
// holds the contest lock.
func (s *ScoringService) rebuild(ctx context.Context, key submission.ContestKey, change scoring.ContestChange) (RecomputeResult, error) {
	started := s.now()
	result := RecomputeResult{Year: key.Year, ContestKey: key.Contest}

	calculatedAt := started.UTC()
	rebuilt, err := s.scoringRepo.RebuildContest(ctx, key, change, func(active []submission.Submission, method scoring.Method) (scoring.Baseline, []scoring.OperatorPoints) {
		return scoring.BuildContestScores(key, active, method, calculatedAt)
	})
	if err != nil {
		s.metrics.ObserveRecompute(recomputeMethodUnknown, time.Since(started), err)
		if errors.Is(err, submission.ErrActiveExists) || errors.Is(err, submission.ErrNotActive) {
			return result, fmt.Errorf("%w: rebuild contest key=%s: %v", ErrConflict, key, err)
		}
		return result, fmt.Errorf("rebuild contest key=%s: %w", key, err)
	}
	s.metrics.ObserveRecompute(string(rebuilt.Method), time.Since(started), nil)

	result.Method = rebuilt.Method
	result.Submissions = rebuilt.Active
	result.Skipped = rebuilt.Skipped
	if rebuilt.Skipped {
		return result, nil
	}
	result.Rows = len(rebuilt.Rows)
	result.HighestSingleClaimed = rebuilt.Baseline.HighestSingleClaimed
	result.MaxPoints = rebuilt.Baseline.MaxPoints
	result.rows = rebuilt.Rows

	s.logger.DebugContext(ctx, "contest recomputed",
		"year", key.Year,
		"contest", key.Contest,
		"method", result.Method,
		"submissions", result.Submissions,
		"rows", result.Rows,
	)
	return result, nil
}

// ComputeNormalizedPoints previews the points each member operator of item
// would receive, using the current active set of its contest. item is
// counted as active when it is not stored yet.
func (s *ScoringService) ComputeNormalizedPoints(ctx context.Context, item submission.Submission) (float64, error) {
	if item.Status != submission.StatusAccepted || len(item.MemberOperators) == 0 {
		return 0, nil
	}

	method, err := s.CurrentMethod(ctx)
	if err != nil {
		return 0, err
	}

	active, err := s.submissionRepo.ListActiveByContest(ctx, item.Key())
	if err != nil {
		return 0, fmt.Errorf("list active submissions: %w", err)
	}

	present := false
	for i := range active {
		if active[i].ID == item.ID && item.ID != "" {
			present = true
			break
		}
		if active[i].Callsign == item.Callsign {
			active = append(active[:i:i], active[i+1:]...)
			break
		}
	}
	if !present {
		item.IsActive = true
		active = append(active, item)
	}

	reference := scoring.ReferenceScore(active)
	maxPoints := scoring.CalculateMaxPoints(method, len(active))
	return scoring.NormalizePoints(item.Rate(), reference, maxPoints), nil
}

// SetScoringMethod stores the method and rescales every contest with it.
func (s *ScoringService) SetScoringMethod(ctx context.Context, raw string) (RecomputeSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.SetScoringMethod")
	defer span.End()

	method, err := scoring.ParseMethod(raw)
	if err != nil {
		return RecomputeSummary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.scoringRepo.SetScoringMethod(ctx, method); err != nil {
		return RecomputeSummary{}, fmt.Errorf("set scoring method: %w", err)
	}

	s.logger.InfoContext(ctx, "scoring method changed", "method", method)
	return s.RecomputeAll(ctx)
}

func (s *ScoringService) RecomputeAll(ctx context.Context) (RecomputeSummary, error) {
	keys, err := s.submissionRepo.ListContestKeys(ctx)
	if err != nil {
		return RecomputeSummary{}, fmt.Errorf("list contest keys: %w", err)
	}
	return s.RecomputeKeys(ctx, keys)
}

// RecomputeKeys rebuilds each distinct key once on a bounded worker pool.
// Summary.Method is the method stored when the batch started; each rebuild
// reads the method again inside its own transaction.
func (s *ScoringService) RecomputeKeys(ctx context.Context, keys []submission.ContestKey) (RecomputeSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.RecomputeKeys")
	defer span.End()

	keys = uniqueContestKeys(keys)
	method, err := s.CurrentMethod(ctx)
	if err != nil {
		return RecomputeSummary{}, err
	}

	summary := RecomputeSummary{Method: method, KeyCount: len(keys)}
	if len(keys) == 0 {
		return summary, nil
	}

	workerCount := s.maxWorkers
	if workerCount > len(keys) {
		workerCount = len(keys)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RecomputeSummary{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		results = make([]RecomputeResult, 0, len(keys))
		errs    []error
		workers sync.WaitGroup
	)
	for _, key := range keys {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			unlock := s.lockContest(key)
			result, err := s.rebuild(ctx, key, scoring.ContestChange{})
			unlock()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Error = err.Error()
				errs = append(errs, err)
			}
			result.rows = nil
			results = append(results, result)
		}); err != nil {
			workers.Done()
			return RecomputeSummary{}, fmt.Errorf("submit recompute to worker pool: %w", err)
		}
	}
	workers.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Year != results[j].Year {
			return results[i].Year > results[j].Year
		}
		return results[i].ContestKey < results[j].ContestKey
	})
	for _, result := range results {
		switch {
		case result.Error != "":
			summary.Failed++
		case result.Skipped:
			summary.Skipped++
		default:
			summary.Recomputed++
		}
	}
	summary.Results = results

	if len(errs) > 0 {
		s.logger.WarnContext(ctx, "recompute finished with failures", "failed", len(errs), "keys", len(keys))
		return summary, errors.Join(errs...)
	}
	return summary, nil
}

func validateContestKey(key submission.ContestKey) error {
	if key.Year <= 0 || key.Contest == "" {
		return fmt.Errorf("%w: contest year and key are required", ErrInvalidInput)
	}
	return nil
}

func uniqueContestKeys(keys []submission.ContestKey) []submission.ContestKey {
	seen := make(map[submission.ContestKey]struct{}, len(keys))
	out := make([]submission.ContestKey, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
