package user

import "context"

// Directory resolves which upstream fantasy team a user has linked.
type Directory interface {
	// FindTeamID returns false when the user exists without a linked team
	// or does not exist at all.
	FindTeamID(ctx context.Context, userID string) (int64, bool, error)
	ListLinkedUserIDs(ctx context.Context) ([]string, error)
}
