package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
)

type stubProvider struct {
	mu sync.Mutex

	bootstrap    ExternalBootstrap
	bootstrapErr error
	entries      map[int64]ExternalEntry
	entryErr     error
	picks        ExternalPicks
	picksErr     error
	live         ExternalLive
	fixtures     map[int64][]gameweek.Fixture
	fixturesErr  error

	bootstrapCalls atomic.Int32
	entryCalls     atomic.Int32
	picksCalls     atomic.Int32
	fixtureCalls   atomic.Int32
}

func (s *stubProvider) FetchBootstrap(context.Context) (ExternalBootstrap, error) {
	s.bootstrapCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bootstrapErr != nil {
		return ExternalBootstrap{}, s.bootstrapErr
	}
	return s.bootstrap, nil
}

func (s *stubProvider) FetchEntry(_ context.Context, teamID int64) (ExternalEntry, error) {
	s.entryCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryErr != nil {
		return ExternalEntry{}, s.entryErr
	}
	entry, ok := s.entries[teamID]
	if !ok {
		return ExternalEntry{}, fmt.Errorf("%w: entry %d not stubbed", ErrUpstreamUnavailable, teamID)
	}
	return entry, nil
}

func (s *stubProvider) FetchPicks(context.Context, int64, int64) (ExternalPicks, error) {
	s.picksCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.picks, s.picksErr
}

func (s *stubProvider) FetchLive(context.Context, int64) (ExternalLive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live, nil
}

func (s *stubProvider) FetchFixtures(_ context.Context, gameweekID int64) ([]gameweek.Fixture, error) {
	s.fixtureCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixturesErr != nil {
		return nil, s.fixturesErr
	}
	return s.fixtures[gameweekID], nil
}

func (s *stubProvider) setEntry(entry ExternalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[int64]ExternalEntry)
	}
	s.entries[entry.ID] = entry
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func ptr[T any](v T) *T {
	return &v
}

func testLogger() *logging.Logger {
	return logging.NewNop()
}

func fixture(id, event, home, away int64, homeDiff, awayDiff int) gameweek.Fixture {
	return gameweek.Fixture{
		ID:             id,
		Event:          ptr(event),
		HomeClubID:     home,
		AwayClubID:     away,
		HomeDifficulty: homeDiff,
		AwayDifficulty: awayDiff,
	}
}

func testClubs() []player.Club {
	return []player.Club{
		{ExternalID: 1, Name: "Arsenal", ShortName: "ARS"},
		{ExternalID: 2, Name: "Brighton", ShortName: "BHA"},
		{ExternalID: 3, Name: "Chelsea", ShortName: "CHE"},
	}
}

func externalPlayer(id, clubID int64, name string, elementType, cost, points, minutes int) ExternalPlayer {
	return ExternalPlayer{
		ID:          id,
		ClubID:      clubID,
		WebName:     name,
		ElementType: elementType,
		NowCost:     cost,
		Stats: player.Stats{
			TotalPoints:   points,
			Minutes:       minutes,
			PointsPerGame: "0.0",
		},
		Raw: []byte(`{}`),
	}
}
