package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/contest-awards/internal/domain/submission"
)

type SubmissionRepository struct {
	mu     sync.RWMutex
	items  map[string]submission.Submission
	orders []string
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{items: make(map[string]submission.Submission)}
}

// Replace checks every precondition before touching state, so a failed
// replace leaves the previous row active. The one-active-row rule mirrors the
// unique partial index of the postgres schema.
func (r *SubmissionRepository) Replace(_ context.Context, previousID string, item submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.replaceLocked(previousID, item)
}

func (r *SubmissionRepository) replaceLocked(previousID string, item submission.Submission) error {
	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("submission %s already exists", item.ID)
	}
	if previousID != "" {
		previous, ok := r.items[previousID]
		if !ok || !previous.IsActive {
			return fmt.Errorf("%w: id=%s", submission.ErrNotActive, previousID)
		}
	}
	if item.IsActive {
		for _, id := range r.orders {
			other := r.items[id]
			if id != previousID && other.IsActive && other.Key() == item.Key() && other.Callsign == item.Callsign {
				return fmt.Errorf("%w: %s %s", submission.ErrActiveExists, item.Key(), item.Callsign)
			}
		}
	}

	if previousID != "" {
		previous := r.items[previousID]
		previous.IsActive = false
		r.items[previousID] = previous
	}
	r.items[item.ID] = cloneSubmission(item)
	r.orders = append(r.orders, item.ID)
	return nil
}

func (r *SubmissionRepository) GetByID(_ context.Context, id string) (submission.Submission, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return submission.Submission{}, false, nil
	}
	return cloneSubmission(item), true, nil
}

func (r *SubmissionRepository) GetActiveByNaturalKey(_ context.Context, key submission.ContestKey, callsign string) (submission.Submission, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		item := r.items[id]
		if item.IsActive && item.Key() == key && item.Callsign == callsign {
			return cloneSubmission(item), true, nil
		}
	}
	return submission.Submission{}, false, nil
}

func (r *SubmissionRepository) ListActiveByContest(_ context.Context, key submission.ContestKey) ([]submission.Submission, error) {
	return r.filter(func(item submission.Submission) bool {
		return item.IsActive && item.Key() == key
	}), nil
}

// applyContestChange replaces a submission and returns the active set of key
// under one lock.
func (r *SubmissionRepository) applyContestChange(key submission.ContestKey, previousID string, insert *submission.Submission) ([]submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if insert != nil {
		if err := r.replaceLocked(previousID, *insert); err != nil {
			return nil, err
		}
	}

	out := make([]submission.Submission, 0)
	for _, id := range r.orders {
		if item := r.items[id]; item.IsActive && item.Key() == key {
			out = append(out, cloneSubmission(item))
		}
	}
	return out, nil
}

func (r *SubmissionRepository) ListActive(_ context.Context) ([]submission.Submission, error) {
	return r.filter(func(item submission.Submission) bool { return item.IsActive }), nil
}

func (r *SubmissionRepository) CountActiveByContest(ctx context.Context, key submission.ContestKey) (int, error) {
	items, err := r.ListActiveByContest(ctx, key)
	return len(items), err
}

func (r *SubmissionRepository) ListContestKeys(_ context.Context) ([]submission.ContestKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[submission.ContestKey]struct{})
	out := make([]submission.ContestKey, 0)
	for _, id := range r.orders {
		item := r.items[id]
		if !item.IsActive {
			continue
		}
		if _, ok := seen[item.Key()]; ok {
			continue
		}
		seen[item.Key()] = struct{}{}
		out = append(out, item.Key())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Contest < out[j].Contest
	})
	return out, nil
}

func (r *SubmissionRepository) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]submission.Submission)
	r.orders = nil
	return nil
}

func (r *SubmissionRepository) filter(keep func(submission.Submission) bool) []submission.Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]submission.Submission, 0)
	for _, id := range r.orders {
		if item := r.items[id]; keep(item) {
			out = append(out, cloneSubmission(item))
		}
	}
	return out
}

func cloneSubmission(item submission.Submission) submission.Submission {
	item.Operators = append([]string(nil), item.Operators...)
	item.MemberOperators = append([]string(nil), item.MemberOperators...)
	item.ExcludedOperators = append([]string(nil), item.ExcludedOperators...)
	return item
}
