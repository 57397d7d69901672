package submission

import "context"

type Repository interface {
	// Replace stores item as the active row of its natural key. A non-empty
	// previousID is deactivated in the same transaction; nothing is written
	// when either step fails.
	Replace(ctx context.Context, previousID string, item Submission) error
	GetByID(ctx context.Context, id string) (Submission, bool, error)
	GetActiveByNaturalKey(ctx context.Context, key ContestKey, callsign string) (Submission, bool, error)
	ListActiveByContest(ctx context.Context, key ContestKey) ([]Submission, error)
	ListActive(ctx context.Context) ([]Submission, error)
	CountActiveByContest(ctx context.Context, key ContestKey) (int, error)
	ListContestKeys(ctx context.Context) ([]ContestKey, error)
	ClearAll(ctx context.Context) error
}
