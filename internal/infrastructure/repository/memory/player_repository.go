package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	clubs   map[int64]player.Club
	players map[int64]player.Player
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{
		clubs:   make(map[int64]player.Club),
		players: make(map[int64]player.Player),
	}
}

func (r *PlayerRepository) UpsertCatalog(_ context.Context, clubs []player.Club, players []player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[int64]struct{}, len(r.clubs)+len(clubs))
	for id := range r.clubs {
		known[id] = struct{}{}
	}
	for _, club := range clubs {
		known[club.ExternalID] = struct{}{}
	}
	for _, p := range players {
		if _, ok := known[p.ClubExternalID]; !ok {
			return fmt.Errorf("%w: player=%d club=%d", player.ErrUnknownClub, p.ExternalID, p.ClubExternalID)
		}
	}

	for _, club := range clubs {
		r.clubs[club.ExternalID] = club
	}
	for _, p := range players {
		r.players[p.ExternalID] = clonePlayer(p)
	}
	return nil
}

func (r *PlayerRepository) ListClubs(_ context.Context) ([]player.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Club, 0, len(r.clubs))
	for _, club := range r.clubs {
		out = append(out, club)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (r *PlayerRepository) List(_ context.Context, filter player.Filter) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]player.Player, 0, len(r.players))
	for _, p := range r.players {
		if filter.ClubExternalID > 0 && p.ClubExternalID != filter.ClubExternalID {
			continue
		}
		if filter.Position != "" && p.Position != filter.Position {
			continue
		}
		if filter.MinMinutes > 0 && p.Stats.Minutes < filter.MinMinutes {
			continue
		}
		if search != "" && !matchesName(p, search) {
			continue
		}
		out = append(out, clonePlayer(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (r *PlayerRepository) GetByExternalIDs(_ context.Context, externalIDs []int64) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(externalIDs))
	for _, id := range externalIDs {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		out = append(out, clonePlayer(p))
	}
	return out, nil
}

func matchesName(p player.Player, lowered string) bool {
	if strings.Contains(strings.ToLower(p.DisplayName), lowered) {
		return true
	}
	return p.FullName != nil && strings.Contains(strings.ToLower(*p.FullName), lowered)
}

func clonePlayer(p player.Player) player.Player {
	copied := p
	copied.RawPayload = append([]byte(nil), p.RawPayload...)
	return copied
}
