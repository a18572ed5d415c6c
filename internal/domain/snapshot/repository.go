package snapshot

import "context"

// Repository persists team snapshots keyed by user id.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (TeamSnapshot, bool, error)
	// Save replaces the user's snapshot and its leagues in one unit.
	Save(ctx context.Context, snap TeamSnapshot) error
}
