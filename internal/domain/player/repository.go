package player

import (
	"context"
	"errors"
)

// Filter narrows catalog reads. Zero values mean no constraint.
type Filter struct {
	ClubExternalID int64
	Position       Position
	Search         string
	MinMinutes     int
}

// Repository describes player and club persistence needs from use cases.
type Repository interface {
	// UpsertCatalog writes clubs then players atomically. Players whose club
	// is not in the stored club set fail the whole write.
	UpsertCatalog(ctx context.Context, clubs []Club, players []Player) error
	ListClubs(ctx context.Context) ([]Club, error)
	List(ctx context.Context, filter Filter) ([]Player, error)
	GetByExternalIDs(ctx context.Context, externalIDs []int64) ([]Player, error)
}

// ErrUnknownClub is returned by UpsertCatalog when a player references a
// club that is neither stored nor part of the same write.
var ErrUnknownClub = errors.New("player references unknown club")
