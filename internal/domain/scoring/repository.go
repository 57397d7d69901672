package scoring

import (
	"context"

	"github.com/riskibarqy/contest-awards/internal/domain/submission"
)

// ContestBuilder derives the baseline and point rows of one contest from its
// active submissions and the stored scoring method.
type ContestBuilder func(active []submission.Submission, method Method) (Baseline, []OperatorPoints)

// ContestChange is a submission write committed together with a rebuild.
// A nil Insert rebuilds only.
type ContestChange struct {
	PreviousID string
	Insert     *submission.Submission
}

// ContestRebuild reports what RebuildContest committed. Skipped is set when
// the contest had no active submission and the stored baseline was kept.
type ContestRebuild struct {
	Method   Method
	Active   int
	Baseline Baseline
	Rows     []OperatorPoints
	Skipped  bool
}

type Repository interface {
	GetBaseline(ctx context.Context, key submission.ContestKey) (Baseline, bool, error)
	// RebuildContest applies change, reads the scoring method and the active
	// submissions of key, then upserts the baseline and swaps every point row
	// of key with what build returns. All of it runs in one transaction that
	// holds the contest lock.
	RebuildContest(ctx context.Context, key submission.ContestKey, change ContestChange, build ContestBuilder) (ContestRebuild, error)

	ListOperatorPointsByContest(ctx context.Context, key submission.ContestKey) ([]OperatorPoints, error)
	ListOperatorPointsBySeason(ctx context.Context, year int) ([]OperatorPoints, error)
	ListOperatorPointsByMember(ctx context.Context, callsign string) ([]OperatorPoints, error)
	ListAllOperatorPoints(ctx context.Context) ([]OperatorPoints, error)

	GetScoringMethod(ctx context.Context) (Method, bool, error)
	SetScoringMethod(ctx context.Context, method Method) error

	ClearAll(ctx context.Context) error
}
