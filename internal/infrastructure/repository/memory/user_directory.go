package memory

import (
	"context"
	"sort"
	"sync"
)

// UserDirectory maps user ids to linked team ids. A zero team id means the
// user exists but has not linked a team.
type UserDirectory struct {
	mu    sync.RWMutex
	teams map[string]int64
}

func NewUserDirectory(links map[string]int64) *UserDirectory {
	teams := make(map[string]int64, len(links))
	for userID, teamID := range links {
		teams[userID] = teamID
	}
	return &UserDirectory{teams: teams}
}

func (d *UserDirectory) Link(userID string, teamID int64) {
	d.mu.Lock()
	d.teams[userID] = teamID
	d.mu.Unlock()
}

func (d *UserDirectory) FindTeamID(_ context.Context, userID string) (int64, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	teamID, ok := d.teams[userID]
	if !ok || teamID <= 0 {
		return 0, false, nil
	}
	return teamID, true, nil
}

func (d *UserDirectory) ListLinkedUserIDs(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.teams))
	for userID, teamID := range d.teams {
		if teamID > 0 {
			out = append(out, userID)
		}
	}
	sort.Strings(out)
	return out, nil
}
