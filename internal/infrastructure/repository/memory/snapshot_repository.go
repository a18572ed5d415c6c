package memory

import (
	"context"
	"sync"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
)

type SnapshotRepository struct {
	mu    sync.RWMutex
	items map[string]snapshot.TeamSnapshot
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{items: make(map[string]snapshot.TeamSnapshot)}
}

func (r *SnapshotRepository) GetByUserID(_ context.Context, userID string) (snapshot.TeamSnapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.items[userID]
	if !ok {
		return snapshot.TeamSnapshot{}, false, nil
	}
	return cloneSnapshot(snap), true, nil
}

func (r *SnapshotRepository) Save(_ context.Context, snap snapshot.TeamSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[snap.UserID] = cloneSnapshot(snap)
	return nil
}

func cloneSnapshot(s snapshot.TeamSnapshot) snapshot.TeamSnapshot {
	copied := s
	copied.RawPayload = append([]byte(nil), s.RawPayload...)
	copied.Leagues = append([]snapshot.LeagueMembership(nil), s.Leagues...)
	return copied
}
