package snapshot

import (
	"fmt"
	"time"
)

type Scoring string

const (
	ScoringClassic Scoring = "classic"
	ScoringH2H     Scoring = "h2h"
)

// ScoringFromCode maps the upstream scoring code; anything but "h" is classic.
func ScoringFromCode(code string) Scoring {
	if code == "h" {
		return ScoringH2H
	}
	return ScoringClassic
}

type LeagueKind string

const (
	LeagueKindStandard   LeagueKind = "standard"
	LeagueKindInvitation LeagueKind = "invitation"
	LeagueKindCup        LeagueKind = "cup"
	LeagueKindUnknown    LeagueKind = "unknown"
)

func LeagueKindFromCode(code string) LeagueKind {
	switch code {
	case "s":
		return LeagueKindStandard
	case "x":
		return LeagueKindInvitation
	case "c":
		return LeagueKindCup
	default:
		return LeagueKindUnknown
	}
}

// LeagueMembership is one league a team belongs to. Category records which
// upstream list (classic or h2h) the row came from.
type LeagueMembership struct {
	ExternalLeagueID    int64
	Name                string
	ShortName           *string
	Scoring             Scoring
	Kind                LeagueKind
	RawKind             string
	Category            Scoring
	Closed              bool
	IsAdmin             bool
	CanLeave            bool
	EntryRank           *int64
	EntryLastRank       *int64
	RankCount           *int64
	EntryPercentileRank *int64
}

// TeamSnapshot is the last fetched summary of a user's fantasy team.
// There is at most one per user and it is replaced as a whole.
type TeamSnapshot struct {
	UserID          string
	ExternalTeamID  int64
	Name            string
	ManagerName     string
	Region          *string
	RegionCode      *string
	OverallPoints   *int64
	OverallRank     *int64
	GameweekPoints  *int64
	GameweekRank    *int64
	CurrentGameweek *int64
	LastSyncedAt    time.Time
	RawPayload      []byte
	Leagues         []LeagueMembership
}

func (s TeamSnapshot) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("snapshot user id is required")
	}
	if s.ExternalTeamID <= 0 {
		return fmt.Errorf("snapshot external team id must be > 0")
	}
	if s.LastSyncedAt.IsZero() {
		return fmt.Errorf("snapshot last synced time is required")
	}
	return nil
}
