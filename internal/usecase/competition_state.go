package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/cache"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultScheduleTTL = 12 * time.Hour

	difficultyLookahead   = 5
	defaultTickerEvents   = 5
	maxTickerEvents       = 10
	defaultLookaheadFetch = 4

	scheduleCacheKey = "bootstrap"
)

// scheduleView is the part of the bootstrap payload the tracker keeps.
type scheduleView struct {
	gameweeks []gameweek.Gameweek
	clubs     map[int64]player.Club
}

type CompetitionStateConfig struct {
	TTL              time.Duration
	LookaheadWorkers int
	Logger           *logging.Logger
	// Now overrides the cache clock; tests use it to expire entries.
	Now func() time.Time
}

// CompetitionStateTracker caches gameweeks and fixtures and derives the
// competition phase from them. Build one per process and share it.
type CompetitionStateTracker struct {
	provider FPLProvider
	schedule *cache.TTL[string, scheduleView]
	fixtures *cache.TTL[int64, []gameweek.Fixture]
	workers  int
	logger   *logging.Logger
}

func NewCompetitionStateTracker(provider FPLProvider, cfg CompetitionStateConfig) *CompetitionStateTracker {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultScheduleTTL
	}
	workers := cfg.LookaheadWorkers
	if workers <= 0 {
		workers = defaultLookaheadFetch
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &CompetitionStateTracker{
		provider: provider,
		schedule: cache.NewTTL[string, scheduleView](ttl, cache.WithClock(cfg.Now)),
		fixtures: cache.NewTTL[int64, []gameweek.Fixture](ttl, cache.WithClock(cfg.Now)),
		workers:  workers,
		logger:   logger.Named("competition_state"),
	}
}

// Gameweeks returns all gameweeks ordered by id.
func (t *CompetitionStateTracker) Gameweeks(ctx context.Context) ([]gameweek.Gameweek, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionStateTracker.Gameweeks")
	defer span.End()

	view, err := t.loadSchedule(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return append([]gameweek.Gameweek(nil), view.gameweeks...), nil
}

// Fixtures returns the fixtures of one gameweek.
func (t *CompetitionStateTracker) Fixtures(ctx context.Context, gameweekID int64) ([]gameweek.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionStateTracker.Fixtures")
	defer span.End()

	if gameweekID <= 0 {
		return nil, fmt.Errorf("%w: gameweek id must be > 0", ErrInvalidInput)
	}

	items, err := t.fixtures.GetOrLoad(ctx, gameweekID, func(ctx context.Context) ([]gameweek.Fixture, error) {
		fetched, err := t.provider.FetchFixtures(ctx, gameweekID)
		if err != nil {
			return nil, fmt.Errorf("fetch fixtures gameweek=%d: %w", gameweekID, err)
		}
		t.logger.DebugContext(ctx, "fixtures cache refreshed", "gameweek", gameweekID, "count", len(fetched))
		return fetched, nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return append([]gameweek.Fixture(nil), items...), nil
}

// ClassifyPhase derives the phase of gameweekID at now.
func (t *CompetitionStateTracker) ClassifyPhase(ctx context.Context, gameweekID int64, now time.Time) (gameweek.Phase, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionStateTracker.ClassifyPhase")
	defer span.End()

	view, err := t.loadSchedule(ctx)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}

	gw, ok := gameweek.Find(view.gameweeks, gameweekID)
	if !ok {
		return gameweek.ClassifyPhase(nil, nil, now), nil
	}

	// Fixtures only matter once the deadline passed and the round is open.
	var fixtures []gameweek.Fixture
	if !now.Before(gw.Deadline) && !gw.Finished {
		fixtures, err = t.Fixtures(ctx, gameweekID)
		if err != nil {
			recordSpanError(span, err)
			return "", err
		}
	}

	return gameweek.ClassifyPhase(&gw, fixtures, now), nil
}

func (t *CompetitionStateTracker) MaxStaleness(phase gameweek.Phase) time.Duration {
	return gameweek.MaxStaleness(phase)
}

func (t *CompetitionStateTracker) MinMinutesForPer90(ctx context.Context) (int, error) {
	items, err := t.Gameweeks(ctx)
	if err != nil {
		return 0, err
	}
	return gameweek.MinMinutesForPer90(items), nil
}

// UpcomingDifficulty returns next-3 and next-5 difficulty sums per club.
// Clubs without upcoming fixtures are absent from the map.
func (t *CompetitionStateTracker) UpcomingDifficulty(ctx context.Context) (map[int64]gameweek.DifficultySums, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionStateTracker.UpcomingDifficulty")
	defer span.End()

	fixtures, _, err := t.lookahead(ctx, difficultyLookahead)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return gameweek.SumUpcomingDifficulty(fixtures), nil
}

type FixtureTicker struct {
	Gameweeks []int64
	Rows      []FixtureTickerRow
}

type FixtureTickerRow struct {
	ClubID        int64
	ClubName      string
	ClubShortName string
	Fixtures      []FixtureTickerCell
}

type FixtureTickerCell struct {
	Gameweek          int64
	Kickoff           *time.Time
	OpponentID        int64
	OpponentShortName string
	IsHome            bool
	Difficulty        int
}

// FixtureTicker lays out upcoming fixtures per club over numEvents
// gameweeks, clamped to [1, 10]; zero means 5.
func (t *CompetitionStateTracker) FixtureTicker(ctx context.Context, numEvents int) (FixtureTicker, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionStateTracker.FixtureTicker")
	defer span.End()

	if numEvents == 0 {
		numEvents = defaultTickerEvents
	}
	numEvents = min(max(numEvents, 1), maxTickerEvents)

	fixtures, view, err := t.lookahead(ctx, numEvents)
	if err != nil {
		recordSpanError(span, err)
		return FixtureTicker{}, err
	}

	out := FixtureTicker{Gameweeks: gameweek.UpcomingWindow(view.gameweeks, numEvents)}
	for _, row := range gameweek.BuildTicker(fixtures) {
		club := view.clubs[row.ClubID]
		tickerRow := FixtureTickerRow{
			ClubID:        row.ClubID,
			ClubName:      club.Name,
			ClubShortName: club.ShortName,
			Fixtures:      make([]FixtureTickerCell, 0, len(row.Fixtures)),
		}
		for _, f := range row.Fixtures {
			tickerRow.Fixtures = append(tickerRow.Fixtures, FixtureTickerCell{
				Gameweek:          f.Event,
				Kickoff:           f.Kickoff,
				OpponentID:        f.OpponentID,
				OpponentShortName: view.clubs[f.OpponentID].ShortName,
				IsHome:            f.IsHome,
				Difficulty:        f.Difficulty,
			})
		}
		out.Rows = append(out.Rows, tickerRow)
	}
	return out, nil
}

// lookahead loads the fixtures of the next n gameweeks in parallel.
func (t *CompetitionStateTracker) lookahead(ctx context.Context, n int) ([]gameweek.Fixture, scheduleView, error) {
	view, err := t.loadSchedule(ctx)
	if err != nil {
		return nil, scheduleView{}, err
	}

	window := gameweek.UpcomingWindow(view.gameweeks, n)
	if len(window) == 0 {
		return nil, view, nil
	}

	p := pool.NewWithResults[[]gameweek.Fixture]().
		WithContext(ctx).
		WithMaxGoroutines(t.workers).
		WithCancelOnError()
	for _, gameweekID := range window {
		p.Go(func(ctx context.Context) ([]gameweek.Fixture, error) {
			return t.Fixtures(ctx, gameweekID)
		})
	}

	batches, err := p.Wait()
	if err != nil {
		return nil, view, err
	}

	var out []gameweek.Fixture
	for _, batch := range batches {
		out = append(out, batch...)
	}
	return out, view, nil
}

func (t *CompetitionStateTracker) loadSchedule(ctx context.Context) (scheduleView, error) {
	return t.schedule.GetOrLoad(ctx, scheduleCacheKey, func(ctx context.Context) (scheduleView, error) {
		bootstrap, err := t.provider.FetchBootstrap(ctx)
		if err != nil {
			return scheduleView{}, fmt.Errorf("fetch bootstrap: %w", err)
		}

		gameweeks := append([]gameweek.Gameweek(nil), bootstrap.Gameweeks...)
		gameweek.SortByID(gameweeks)

		clubs := make(map[int64]player.Club, len(bootstrap.Clubs))
		for _, club := range bootstrap.Clubs {
			clubs[club.ExternalID] = club
		}

		t.logger.InfoContext(ctx, "gameweek cache refreshed", "gameweeks", len(gameweeks), "clubs", len(clubs))
		return scheduleView{gameweeks: gameweeks, clubs: clubs}, nil
	})
}
