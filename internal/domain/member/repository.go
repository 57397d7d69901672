package member

import "context"

type Repository interface {
	ListActive(ctx context.Context) ([]Member, error)
	GetByCallsign(ctx context.Context, callsign string) (Member, bool, error)
	UpsertMany(ctx context.Context, members []Member) error
	// ReplaceAll upserts members and deactivates every other active member in
	// one transaction. It returns how many members were deactivated.
	ReplaceAll(ctx context.Context, members []Member) (int, error)
}
