package postgres

import (
	"database/sql"
	"time"
)

type teamSnapshotTableModel struct {
	UserID          string         `db:"user_id"`
	ExternalTeamID  int64          `db:"external_team_id"`
	Name            string         `db:"name"`
	ManagerName     string         `db:"manager_name"`
	Region          sql.NullString `db:"region"`
	RegionCode      sql.NullString `db:"region_code"`
	OverallPoints   sql.NullInt64  `db:"overall_points"`
	OverallRank     sql.NullInt64  `db:"overall_rank"`
	GameweekPoints  sql.NullInt64  `db:"gameweek_points"`
	GameweekRank    sql.NullInt64  `db:"gameweek_rank"`
	CurrentGameweek sql.NullInt64  `db:"current_gameweek"`
	LastSyncedAt    time.Time      `db:"last_synced_at"`
	RawPayload      string         `db:"raw_payload"`
}

type leagueTableModel struct {
	UserID              string         `db:"user_id"`
	Category            string         `db:"category"`
	ExternalLeagueID    int64          `db:"external_league_id"`
	SortOrder           int            `db:"sort_order"`
	Name                string         `db:"name"`
	ShortName           sql.NullString `db:"short_name"`
	Scoring             string         `db:"scoring"`
	Kind                string         `db:"kind"`
	RawKind             string         `db:"raw_kind"`
	Closed              bool           `db:"closed"`
	IsAdmin             bool           `db:"is_admin"`
	CanLeave            bool           `db:"can_leave"`
	EntryRank           sql.NullInt64  `db:"entry_rank"`
	EntryLastRank       sql.NullInt64  `db:"entry_last_rank"`
	RankCount           sql.NullInt64  `db:"rank_count"`
	EntryPercentileRank sql.NullInt64  `db:"entry_percentile_rank"`
}
