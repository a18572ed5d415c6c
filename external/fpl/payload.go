package fpl

import (
	"encoding/json"
	"time"
)

type bootstrapEnvelope struct {
	Events   []eventPayload    `json:"events"`
	Teams    []teamPayload     `json:"teams"`
	Elements []json.RawMessage `json:"elements"`
}

type eventPayload struct {
	ID           int64     `json:"id"`
	DeadlineTime time.Time `json:"deadline_time"`
	Finished     bool      `json:"finished"`
	DataChecked  bool      `json:"data_checked"`
}

type teamPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// elementPayload is the subset of a bootstrap element the mirror reads.
// The whole object is kept raw alongside it.
type elementPayload struct {
	ID                       int64  `json:"id"`
	Team                     int64  `json:"team"`
	WebName                  string `json:"web_name"`
	FirstName                string `json:"first_name"`
	SecondName               string `json:"second_name"`
	ElementType              int    `json:"element_type"`
	NowCost                  int    `json:"now_cost"`
	TotalPoints              int    `json:"total_points"`
	Minutes                  int    `json:"minutes"`
	PointsPerGame            string `json:"points_per_game"`
	Status                   string `json:"status"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
	ChanceOfPlayingThisRound *int   `json:"chance_of_playing_this_round"`
}

type entryPayload struct {
	ID                       int64          `json:"id"`
	Name                     string         `json:"name"`
	PlayerFirstName          string         `json:"player_first_name"`
	PlayerLastName           string         `json:"player_last_name"`
	PlayerRegionName         *string        `json:"player_region_name"`
	PlayerRegionISOCodeShort *string        `json:"player_region_iso_code_short"`
	SummaryOverallPoints     *int64         `json:"summary_overall_points"`
	SummaryOverallRank       *int64         `json:"summary_overall_rank"`
	SummaryEventPoints       *int64         `json:"summary_event_points"`
	SummaryEventRank         *int64         `json:"summary_event_rank"`
	CurrentEvent             *int64         `json:"current_event"`
	Leagues                  leaguesPayload `json:"leagues"`
}

type leaguesPayload struct {
	Classic []leaguePayload `json:"classic"`
	H2H     []leaguePayload `json:"h2h"`
}

type leaguePayload struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	ShortName           *string `json:"short_name"`
	Scoring             string  `json:"scoring"`
	LeagueType          string  `json:"league_type"`
	Closed              bool    `json:"closed"`
	EntryCanAdmin       bool    `json:"entry_can_admin"`
	EntryCanLeave       bool    `json:"entry_can_leave"`
	EntryRank           *int64  `json:"entry_rank"`
	EntryLastRank       *int64  `json:"entry_last_rank"`
	RankCount           *int64  `json:"rank_count"`
	EntryPercentileRank *int64  `json:"entry_percentile_rank"`
}

type picksEnvelope struct {
	EntryHistory entryHistoryPayload `json:"entry_history"`
	Picks        []pickPayload       `json:"picks"`
}

type entryHistoryPayload struct {
	Event int64 `json:"event"`
	Bank  int   `json:"bank"`
	Value int   `json:"value"`
}

type pickPayload struct {
	Element       int64 `json:"element"`
	Position      int   `json:"position"`
	Multiplier    int   `json:"multiplier"`
	IsCaptain     bool  `json:"is_captain"`
	IsViceCaptain bool  `json:"is_vice_captain"`
}

type liveEnvelope struct {
	Elements []liveElementPayload `json:"elements"`
}

type liveElementPayload struct {
	ID    int64 `json:"id"`
	Stats struct {
		TotalPoints int `json:"total_points"`
	} `json:"stats"`
}

type fixturePayload struct {
	ID              int64      `json:"id"`
	Event           *int64     `json:"event"`
	KickoffTime     *time.Time `json:"kickoff_time"`
	Started         *bool      `json:"started"`
	Finished        bool       `json:"finished"`
	Minutes         *int       `json:"minutes"`
	TeamH           int64      `json:"team_h"`
	TeamA           int64      `json:"team_a"`
	TeamHDifficulty int        `json:"team_h_difficulty"`
	TeamADifficulty int        `json:"team_a_difficulty"`
}
