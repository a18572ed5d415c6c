package postgres

import (
	"context"
	"fmt"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
	qb "github.com/jeromehjj/fpl-playmaker/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

const teamSnapshotUpsertSuffix = `ON CONFLICT (user_id) DO UPDATE SET
    external_team_id = EXCLUDED.external_team_id,
    name = EXCLUDED.name,
    manager_name = EXCLUDED.manager_name,
    region = EXCLUDED.region,
    region_code = EXCLUDED.region_code,
    overall_points = EXCLUDED.overall_points,
    overall_rank = EXCLUDED.overall_rank,
    gameweek_points = EXCLUDED.gameweek_points,
    gameweek_rank = EXCLUDED.gameweek_rank,
    current_gameweek = EXCLUDED.current_gameweek,
    last_synced_at = EXCLUDED.last_synced_at,
    raw_payload = EXCLUDED.raw_payload,
    updated_at = NOW()`

var teamSnapshotSelectColumns = []string{
	"user_id",
	"external_team_id",
	"name",
	"manager_name",
	"region",
	"region_code",
	"overall_points",
	"overall_rank",
	"gameweek_points",
	"gameweek_rank",
	"current_gameweek",
	"last_synced_at",
	"raw_payload::text AS raw_payload",
}

type SnapshotRepository struct {
	db *sqlx.DB
}

var _ snapshot.Repository = (*SnapshotRepository)(nil)

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) GetByUserID(ctx context.Context, userID string) (snapshot.TeamSnapshot, bool, error) {
	query, args, err := qb.Select(teamSnapshotSelectColumns...).From("fpl_teams").
		Where(qb.Eq("user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return snapshot.TeamSnapshot{}, false, fmt.Errorf("build get team snapshot query: %w", err)
	}

	var row teamSnapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return snapshot.TeamSnapshot{}, false, nil
		}
		return snapshot.TeamSnapshot{}, false, fmt.Errorf("get team snapshot user=%s: %w", userID, err)
	}

	leagueQuery, leagueArgs, err := qb.Select(qb.Columns(leagueTableModel{})...).From("fpl_leagues").
		Where(qb.Eq("user_id", userID)).
		OrderBy("sort_order").
		ToSQL()
	if err != nil {
		return snapshot.TeamSnapshot{}, false, fmt.Errorf("build list leagues query: %w", err)
	}

	var leagueRows []leagueTableModel
	if err := r.db.SelectContext(ctx, &leagueRows, leagueQuery, leagueArgs...); err != nil {
		return snapshot.TeamSnapshot{}, false, fmt.Errorf("list leagues user=%s: %w", userID, err)
	}

	out := snapshot.TeamSnapshot{
		UserID:          row.UserID,
		ExternalTeamID:  row.ExternalTeamID,
		Name:            row.Name,
		ManagerName:     row.ManagerName,
		Region:          nullStringPtr(row.Region),
		RegionCode:      nullStringPtr(row.RegionCode),
		OverallPoints:   nullInt64Ptr(row.OverallPoints),
		OverallRank:     nullInt64Ptr(row.OverallRank),
		GameweekPoints:  nullInt64Ptr(row.GameweekPoints),
		GameweekRank:    nullInt64Ptr(row.GameweekRank),
		CurrentGameweek: nullInt64Ptr(row.CurrentGameweek),
		LastSyncedAt:    row.LastSyncedAt.UTC(),
		RawPayload:      []byte(row.RawPayload),
		Leagues:         make([]snapshot.LeagueMembership, 0, len(leagueRows)),
	}
	for _, l := range leagueRows {
		out.Leagues = append(out.Leagues, snapshot.LeagueMembership{
			ExternalLeagueID:    l.ExternalLeagueID,
			Name:                l.Name,
			ShortName:           nullStringPtr(l.ShortName),
			Scoring:             snapshot.Scoring(l.Scoring),
			Kind:                snapshot.LeagueKind(l.Kind),
			RawKind:             l.RawKind,
			Category:            snapshot.Scoring(l.Category),
			Closed:              l.Closed,
			IsAdmin:             l.IsAdmin,
			CanLeave:            l.CanLeave,
			EntryRank:           nullInt64Ptr(l.EntryRank),
			EntryLastRank:       nullInt64Ptr(l.EntryLastRank),
			RankCount:           nullInt64Ptr(l.RankCount),
			EntryPercentileRank: nullInt64Ptr(l.EntryPercentileRank),
		})
	}
	return out, true, nil
}

// Save upserts the team row and replaces every league row in one transaction.
func (r *SnapshotRepository) Save(ctx context.Context, snap snapshot.TeamSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save team snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	teamRow := teamSnapshotTableModel{
		UserID:          snap.UserID,
		ExternalTeamID:  snap.ExternalTeamID,
		Name:            snap.Name,
		ManagerName:     snap.ManagerName,
		Region:          stringPtrToNull(snap.Region),
		RegionCode:      stringPtrToNull(snap.RegionCode),
		OverallPoints:   int64PtrToNull(snap.OverallPoints),
		OverallRank:     int64PtrToNull(snap.OverallRank),
		GameweekPoints:  int64PtrToNull(snap.GameweekPoints),
		GameweekRank:    int64PtrToNull(snap.GameweekRank),
		CurrentGameweek: int64PtrToNull(snap.CurrentGameweek),
		LastSyncedAt:    snap.LastSyncedAt.UTC(),
		RawPayload:      jsonbText(snap.RawPayload),
	}
	query, args, err := qb.InsertModels("fpl_teams", []teamSnapshotTableModel{teamRow}, teamSnapshotUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert team snapshot query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team snapshot user=%s: %w", snap.UserID, err)
	}

	clearQuery, clearArgs, err := qb.DeleteFrom("fpl_leagues").Where(qb.Eq("user_id", snap.UserID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build clear leagues query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear leagues user=%s: %w", snap.UserID, err)
	}

	if len(snap.Leagues) > 0 {
		rows := make([]leagueTableModel, 0, len(snap.Leagues))
		for i, l := range snap.Leagues {
			rows = append(rows, leagueTableModel{
				UserID:              snap.UserID,
				Category:            string(l.Category),
				ExternalLeagueID:    l.ExternalLeagueID,
				SortOrder:           i,
				Name:                l.Name,
				ShortName:           stringPtrToNull(l.ShortName),
				Scoring:             string(l.Scoring),
				Kind:                string(l.Kind),
				RawKind:             l.RawKind,
				Closed:              l.Closed,
				IsAdmin:             l.IsAdmin,
				CanLeave:            l.CanLeave,
				EntryRank:           int64PtrToNull(l.EntryRank),
				EntryLastRank:       int64PtrToNull(l.EntryLastRank),
				RankCount:           int64PtrToNull(l.RankCount),
				EntryPercentileRank: int64PtrToNull(l.EntryPercentileRank),
			})
		}
		for _, batch := range chunk(rows, upsertChunkSize) {
			query, args, err := qb.InsertModels("fpl_leagues", batch, "")
			if err != nil {
				return fmt.Errorf("build insert leagues query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert leagues user=%s: %w", snap.UserID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save team snapshot tx: %w", err)
	}
	return nil
}
