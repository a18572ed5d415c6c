package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
)

type stubSnapshotSource struct {
	snap snapshot.TeamSnapshot
	err  error
}

func (s stubSnapshotSource) GetFresh(context.Context, string) (snapshot.TeamSnapshot, error) {
	return s.snap, s.err
}

func TestSquadProjector_CurrentSquad(t *testing.T) {
	t.Parallel()

	provider, _, catalog := newCatalogFixture(t, stubCatalogState{minMinutes: 60})
	provider.picks = ExternalPicks{
		Event: 5,
		Bank:  15,
		Value: 1002,
		Picks: []ExternalPick{
			{Element: 11, Position: 12, Multiplier: 0},
			{Element: 13, Position: 2, Multiplier: 2, IsCaptain: true},
			{Element: 999, Position: 3, Multiplier: 1},
			{Element: 10, Position: 1, Multiplier: 1, IsViceCaptain: true},
		},
	}
	provider.live = ExternalLive{Points: map[int64]int{10: 6, 13: 12}}

	syncedAt := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	source := stubSnapshotSource{snap: snapshot.TeamSnapshot{
		UserID:          "user-1",
		ExternalTeamID:  77,
		CurrentGameweek: ptr(int64(5)),
		LastSyncedAt:    syncedAt,
	}}

	projector := NewSquadProjector(source, provider, catalog, testLogger())
	squad, err := projector.CurrentSquad(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("current squad: %v", err)
	}

	if squad.GameweekID != 5 || squad.Bank != 15 || squad.Value != 1002 {
		t.Fatalf("unexpected squad header: %+v", squad)
	}
	if len(squad.Starting) != 2 || len(squad.Bench) != 1 {
		t.Fatalf("unexpected partition: starting=%d bench=%d", len(squad.Starting), len(squad.Bench))
	}
	if squad.Starting[0].ExternalID != 10 || squad.Starting[1].ExternalID != 13 {
		t.Fatalf("starting not ordered by slot: %d %d", squad.Starting[0].ExternalID, squad.Starting[1].ExternalID)
	}
	if !squad.Starting[1].Pick.IsCaptain || squad.Starting[1].GameweekPoints != 12 {
		t.Fatalf("unexpected captain row: %+v", squad.Starting[1])
	}
	bench := squad.Bench[0]
	if bench.ExternalID != 11 || bench.Pick.IsStarting || bench.GameweekPoints != 0 {
		t.Fatalf("unexpected bench row: %+v", bench)
	}
	if !squad.LastSyncedAt.Equal(syncedAt) {
		t.Fatalf("unexpected last synced at: %s", squad.LastSyncedAt)
	}
	if len(squad.Players()) != 3 {
		t.Fatalf("expected 3 players, got=%d", len(squad.Players()))
	}
}

func TestSquadProjector_CurrentSquad_UnknownGameweek(t *testing.T) {
	t.Parallel()

	provider, _, catalog := newCatalogFixture(t, stubCatalogState{minMinutes: 60})
	source := stubSnapshotSource{snap: snapshot.TeamSnapshot{UserID: "user-1", ExternalTeamID: 77}}

	projector := NewSquadProjector(source, provider, catalog, testLogger())
	_, err := projector.CurrentSquad(t.Context(), "user-1")
	if !errors.Is(err, ErrCurrentGameweekUnknown) {
		t.Fatalf("expected ErrCurrentGameweekUnknown, got %v", err)
	}
	if got := provider.picksCalls.Load(); got != 0 {
		t.Fatalf("expected no picks fetch, got=%d", got)
	}
}

func TestSquadProjector_CurrentSquad_PropagatesSnapshotError(t *testing.T) {
	t.Parallel()

	provider, _, catalog := newCatalogFixture(t, stubCatalogState{minMinutes: 60})
	source := stubSnapshotSource{err: ErrNoLinkedTeam}

	projector := NewSquadProjector(source, provider, catalog, testLogger())
	_, err := projector.CurrentSquad(t.Context(), "user-1")
	if !errors.Is(err, ErrNoLinkedTeam) {
		t.Fatalf("expected ErrNoLinkedTeam, got %v", err)
	}
}
