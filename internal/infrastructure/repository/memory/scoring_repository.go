package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
)

// ScoringRepository keeps baselines and points in maps and reads active
// submissions from the repository it was built with. RebuildContest swaps a
// whole contest under one lock, so readers never see a partial set.
type ScoringRepository struct {
	mu          sync.RWMutex
	submissions *SubmissionRepository
	baselines   map[submission.ContestKey]scoring.Baseline
	points      map[submission.ContestKey][]scoring.OperatorPoints
	method      scoring.Method
}

func NewScoringRepository(submissions *SubmissionRepository) *ScoringRepository {
	if submissions == nil {
		submissions = NewSubmissionRepository()
	}
	return &ScoringRepository{
		submissions: submissions,
		baselines:   make(map[submission.ContestKey]scoring.Baseline),
		points:      make(map[submission.ContestKey][]scoring.OperatorPoints),
	}
}

func (r *ScoringRepository) GetBaseline(_ context.Context, key submission.ContestKey) (scoring.Baseline, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	baseline, ok := r.baselines[key]
	return baseline, ok, nil
}

func (r *ScoringRepository) RebuildContest(_ context.Context, key submission.ContestKey, change scoring.ContestChange, build scoring.ContestBuilder) (scoring.ContestRebuild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active, err := r.submissions.applyContestChange(key, change.PreviousID, change.Insert)
	if err != nil {
		return scoring.ContestRebuild{}, err
	}

	method := r.method
	if method == "" {
		method = scoring.DefaultMethod
	}
	result := scoring.ContestRebuild{Method: method, Active: len(active)}
	if len(active) == 0 {
		result.Skipped = true
		return result, nil
	}

	baseline, rows := build(active, method)
	r.baselines[key] = baseline
	r.points[key] = append([]scoring.OperatorPoints(nil), rows...)
	result.Baseline = baseline
	result.Rows = rows
	return result, nil
}

func (r *ScoringRepository) ListOperatorPointsByContest(_ context.Context, key submission.ContestKey) ([]scoring.OperatorPoints, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]scoring.OperatorPoints(nil), r.points[key]...), nil
}

func (r *ScoringRepository) ListOperatorPointsBySeason(_ context.Context, year int) ([]scoring.OperatorPoints, error) {
	return r.collect(func(row scoring.OperatorPoints) bool { return row.SeasonYear == year }), nil
}

func (r *ScoringRepository) ListOperatorPointsByMember(_ context.Context, callsign string) ([]scoring.OperatorPoints, error) {
	return r.collect(func(row scoring.OperatorPoints) bool { return row.MemberCallsign == callsign }), nil
}

func (r *ScoringRepository) ListAllOperatorPoints(_ context.Context) ([]scoring.OperatorPoints, error) {
	return r.collect(func(scoring.OperatorPoints) bool { return true }), nil
}

func (r *ScoringRepository) GetScoringMethod(_ context.Context) (scoring.Method, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.method, r.method != "", nil
}

func (r *ScoringRepository) SetScoringMethod(_ context.Context, method scoring.Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.method = method
	return nil
}

// ClearAll drops baselines and points. The scoring method is kept.
func (r *ScoringRepository) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baselines = make(map[submission.ContestKey]scoring.Baseline)
	r.points = make(map[submission.ContestKey][]scoring.OperatorPoints)
	return nil
}

func (r *ScoringRepository) collect(keep func(scoring.OperatorPoints) bool) []scoring.OperatorPoints {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scoring.OperatorPoints, 0)
	for _, rows := range r.points {
		for _, row := range rows {
			if keep(row) {
				out = append(out, row)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeasonYear != out[j].SeasonYear {
			return out[i].SeasonYear > out[j].SeasonYear
		}
		if out[i].ContestKey != out[j].ContestKey {
			return out[i].ContestKey < out[j].ContestKey
		}
		if out[i].SubmissionID != out[j].SubmissionID {
			return out[i].SubmissionID < out[j].SubmissionID
		}
		return out[i].MemberCallsign < out[j].MemberCallsign
	})
	return out
}
