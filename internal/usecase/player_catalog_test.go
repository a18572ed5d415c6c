package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	"github.com/jeromehjj/fpl-playmaker/internal/infrastructure/repository/memory"
	playermock "github.com/jeromehjj/fpl-playmaker/internal/mocks/domain/player"
	"github.com/stretchr/testify/mock"
)

type stubCatalogState struct {
	minMinutes int
	difficulty map[int64]gameweek.DifficultySums
	err        error
}

func (s stubCatalogState) MinMinutesForPer90(context.Context) (int, error) {
	return s.minMinutes, s.err
}

func (s stubCatalogState) UpcomingDifficulty(context.Context) (map[int64]gameweek.DifficultySums, error) {
	return s.difficulty, s.err
}

func catalogBootstrap() ExternalBootstrap {
	return ExternalBootstrap{
		Clubs: testClubs(),
		Players: []ExternalPlayer{
			externalPlayer(10, 1, "Raya", 1, 55, 40, 900),
			externalPlayer(11, 1, "Saka", 3, 100, 60, 800),
			externalPlayer(12, 2, "Mitoma", 3, 65, 30, 500),
			externalPlayer(13, 3, "Palmer", 3, 105, 70, 900),
			externalPlayer(14, 3, "Jackson", 4, 80, 0, 0),
		},
	}
}

func newCatalogFixture(t *testing.T, state stubCatalogState) (*stubProvider, *memory.PlayerRepository, *PlayerCatalog) {
	t.Helper()

	provider := &stubProvider{bootstrap: catalogBootstrap()}
	repo := memory.NewPlayerRepository()
	catalog := NewPlayerCatalog(repo, provider, state, testLogger())
	if _, err := catalog.BulkSync(t.Context()); err != nil {
		t.Fatalf("bulk sync: %v", err)
	}
	return provider, repo, catalog
}

func TestPlayerCatalog_BulkSync(t *testing.T) {
	t.Parallel()

	_, repo, _ := newCatalogFixture(t, stubCatalogState{minMinutes: 60})

	clubs, err := repo.ListClubs(t.Context())
	if err != nil {
		t.Fatalf("list clubs: %v", err)
	}
	if len(clubs) != 3 {
		t.Fatalf("expected 3 clubs, got=%d", len(clubs))
	}
	items, err := repo.List(t.Context(), player.Filter{})
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 players, got=%d", len(items))
	}
	if items[0].Position != player.PositionGoalkeeper || items[4].Position != player.PositionForward {
		t.Fatalf("unexpected positions: %s %s", items[0].Position, items[4].Position)
	}
}

func TestPlayerCatalog_BulkSync_IntegrityAbortWritesNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ExternalBootstrap)
	}{
		{
			name: "unknown club",
			mutate: func(b *ExternalBootstrap) {
				b.Players = append(b.Players, externalPlayer(99, 42, "Ghost", 3, 50, 0, 0))
			},
		},
		{
			name: "unknown element type",
			mutate: func(b *ExternalBootstrap) {
				b.Players = append(b.Players, externalPlayer(99, 1, "Manager", 5, 50, 0, 0))
			},
		},
		{
			name: "blank display name",
			mutate: func(b *ExternalBootstrap) {
				b.Players = append(b.Players, externalPlayer(99, 1, "  ", 3, 50, 0, 0))
			},
		},
		{
			name: "negative price",
			mutate: func(b *ExternalBootstrap) {
				b.Players = append(b.Players, externalPlayer(99, 2, "Debt", 3, -5, 0, 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bootstrap := catalogBootstrap()
			tt.mutate(&bootstrap)
			repo := memory.NewPlayerRepository()
			catalog := NewPlayerCatalog(repo, &stubProvider{bootstrap: bootstrap}, stubCatalogState{}, testLogger())

			_, err := catalog.BulkSync(t.Context())
			if !errors.Is(err, ErrDataIntegrity) {
				t.Fatalf("expected ErrDataIntegrity, got %v", err)
			}
			items, err := repo.List(t.Context(), player.Filter{})
			if err != nil {
				t.Fatalf("list players: %v", err)
			}
			if len(items) != 0 {
				t.Fatalf("expected nothing written, got=%d players", len(items))
			}
		})
	}
}

func TestPlayerCatalog_BulkSync_RepositoryUnknownClubIsIntegrity(t *testing.T) {
	t.Parallel()

	repo := playermock.NewRepository(t)
	repo.
		On("UpsertCatalog", mock.Anything, mock.Anything, mock.Anything).
		Return(player.ErrUnknownClub).
		Once()

	catalog := NewPlayerCatalog(repo, &stubProvider{bootstrap: catalogBootstrap()}, stubCatalogState{}, testLogger())
	_, err := catalog.BulkSync(t.Context())
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestPlayerCatalog_BulkSync_UpstreamFailure(t *testing.T) {
	t.Parallel()

	repo := playermock.NewRepository(t)
	provider := &stubProvider{bootstrapErr: ErrUpstreamUnavailable}
	catalog := NewPlayerCatalog(repo, provider, stubCatalogState{}, testLogger())

	_, err := catalog.BulkSync(t.Context())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestPlayerCatalog_List_SyncsEmptyMirrorOnce(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{bootstrap: catalogBootstrap()}
	catalog := NewPlayerCatalog(memory.NewPlayerRepository(), provider, stubCatalogState{minMinutes: 60}, testLogger())

	for i := 0; i < 2; i++ {
		result, err := catalog.List(t.Context(), ListPlayersInput{})
		if err != nil {
			t.Fatalf("list #%d: %v", i, err)
		}
		if result.Total != 5 {
			t.Fatalf("list #%d: expected 5 players, got=%d", i, result.Total)
		}
	}
	if got := provider.bootstrapCalls.Load(); got != 1 {
		t.Fatalf("expected one bootstrap fetch, got=%d", got)
	}
}

func TestPlayerCatalog_List_EmptyMirrorSyncFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{bootstrapErr: ErrUpstreamUnavailable}
	catalog := NewPlayerCatalog(memory.NewPlayerRepository(), provider, stubCatalogState{}, testLogger())

	if _, err := catalog.List(t.Context(), ListPlayersInput{}); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestPlayerCatalog_List_DefaultsToPriceDesc(t *testing.T) {
	t.Parallel()

	_, _, catalog := newCatalogFixture(t, stubCatalogState{minMinutes: 60})

	result, err := catalog.List(t.Context(), ListPlayersInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Limit != 50 || result.Total != 5 {
		t.Fatalf("unexpected paging: limit=%d total=%d", result.Limit, result.Total)
	}
	if result.Items[0].DisplayName != "Palmer" || result.Items[4].DisplayName != "Raya" {
		t.Fatalf("unexpected order: first=%s last=%s", result.Items[0].DisplayName, result.Items[4].DisplayName)
	}
	if result.Items[0].ClubShortName != "CHE" {
		t.Fatalf("unexpected club short name: %s", result.Items[0].ClubShortName)
	}
}

func TestPlayerCatalog_List_NullsLastInBothDirections(t *testing.T) {
	t.Parallel()

	_, _, catalog := newCatalogFixture(t, stubCatalogState{minMinutes: 60})

	for _, direction := range []string{"asc", "desc"} {
		result, err := catalog.List(t.Context(), ListPlayersInput{Sort: string(SortPointsPerNinety), Direction: direction})
		if err != nil {
			t.Fatalf("list %s: %v", direction, err)
		}
		last := result.Items[len(result.Items)-1]
		if last.DisplayName != "Jackson" || last.Metrics.PointsPerNinety != nil {
			t.Fatalf("expected player without per-90 last for %s, got=%s", direction, last.DisplayName)
		}
	}
}

func TestPlayerCatalog_List_FiltersAndPaging(t *testing.T) {
	t.Parallel()

	_, _, catalog := newCatalogFixture(t, stubCatalogState{minMinutes: 60})

	result, err := catalog.List(t.Context(), ListPlayersInput{Position: "MID", Sort: "totalPoints", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 3 || len(result.Items) != 2 {
		t.Fatalf("unexpected page: total=%d items=%d", result.Total, len(result.Items))
	}
	if result.Items[0].DisplayName != "Saka" || result.Items[1].DisplayName != "Mitoma" {
		t.Fatalf("unexpected page order: %s %s", result.Items[0].DisplayName, result.Items[1].DisplayName)
	}

	searched, err := catalog.List(t.Context(), ListPlayersInput{Search: "pAL"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if searched.Total != 1 || searched.Items[0].ExternalID != 13 {
		t.Fatalf("unexpected search result: %+v", searched.Items)
	}

	clamped, err := catalog.List(t.Context(), ListPlayersInput{Limit: 1000})
	if err != nil {
		t.Fatalf("clamp: %v", err)
	}
	if clamped.Limit != 200 {
		t.Fatalf("expected limit clamped to 200, got=%d", clamped.Limit)
	}
}

func TestPlayerCatalog_List_InvalidInput(t *testing.T) {
	t.Parallel()

	repo := playermock.NewRepository(t)
	catalog := NewPlayerCatalog(repo, &stubProvider{}, stubCatalogState{}, testLogger())

	inputs := []ListPlayersInput{
		{Sort: "height"},
		{Position: "KEEPER"},
		{Direction: "sideways"},
		{MinMinutes: -1},
	}
	for _, in := range inputs {
		if _, err := catalog.List(t.Context(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
}

func TestPlayerCatalog_List_AttachesDifficulty(t *testing.T) {
	t.Parallel()

	state := stubCatalogState{
		minMinutes: 60,
		difficulty: map[int64]gameweek.DifficultySums{
			3: {Next3: ptr(6), Next5: ptr(11)},
		},
	}
	_, _, catalog := newCatalogFixture(t, state)

	result, err := catalog.List(t.Context(), ListPlayersInput{ClubID: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, item := range result.Items {
		if item.NextThreeDifficulty == nil || *item.NextThreeDifficulty != 6 {
			t.Fatalf("unexpected next3 for %s: %v", item.DisplayName, item.NextThreeDifficulty)
		}
	}

	others, err := catalog.List(t.Context(), ListPlayersInput{ClubID: 1})
	if err != nil {
		t.Fatalf("list club 1: %v", err)
	}
	if others.Items[0].NextFiveDifficulty != nil {
		t.Fatalf("expected nil difficulty for club without fixtures")
	}
}
