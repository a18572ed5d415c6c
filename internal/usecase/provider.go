package usecase

import (
	"context"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
)

// FPLProvider reads the upstream fantasy API. Failures are reported as
// ErrUpstreamUnavailable.
type FPLProvider interface {
	FetchBootstrap(ctx context.Context) (ExternalBootstrap, error)
	FetchEntry(ctx context.Context, teamID int64) (ExternalEntry, error)
	FetchPicks(ctx context.Context, teamID, gameweekID int64) (ExternalPicks, error)
	FetchLive(ctx context.Context, gameweekID int64) (ExternalLive, error)
	FetchFixtures(ctx context.Context, gameweekID int64) ([]gameweek.Fixture, error)
}

type ExternalBootstrap struct {
	Gameweeks []gameweek.Gameweek
	Clubs     []player.Club
	Players   []ExternalPlayer
}

// ExternalPlayer is one bootstrap element. Raw keeps the upstream object
// as received.
type ExternalPlayer struct {
	ID          int64
	ClubID      int64
	WebName     string
	FirstName   string
	SecondName  string
	ElementType int
	NowCost     int
	Stats       player.Stats
	Raw         []byte
}

type ExternalEntry struct {
	ID                int64
	Name              string
	ManagerFirstName  string
	ManagerLastName   string
	Region            *string
	RegionCode        *string
	OverallPoints     *int64
	OverallRank       *int64
	GameweekPoints    *int64
	GameweekRank      *int64
	CurrentGameweek   *int64
	ClassicLeagues    []ExternalLeague
	HeadToHeadLeagues []ExternalLeague
	Raw               []byte
}

type ExternalLeague struct {
	ID                  int64
	Name                string
	ShortName           *string
	Scoring             string
	LeagueType          string
	Closed              bool
	EntryCanAdmin       bool
	EntryCanLeave       bool
	EntryRank           *int64
	EntryLastRank       *int64
	RankCount           *int64
	EntryPercentileRank *int64
}

type ExternalPicks struct {
	Event int64
	Bank  int
	Value int
	Picks []ExternalPick
}

type ExternalPick struct {
	Element       int64
	Position      int
	Multiplier    int
	IsCaptain     bool
	IsViceCaptain bool
}

// ExternalLive maps player id to live total points for a gameweek.
type ExternalLive struct {
	Points map[int64]int
}
