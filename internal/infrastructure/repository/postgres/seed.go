package postgres

import (
	"context"
	"fmt"
	"sort"

	qb "github.com/jeromehjj/fpl-playmaker/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

const userLinkUpsertSuffix = `ON CONFLICT (user_id) DO UPDATE SET
    fpl_team_id = EXCLUDED.fpl_team_id,
    updated_at = NOW()`

type userLinkModel struct {
	UserID    string `db:"user_id"`
	FPLTeamID int64  `db:"fpl_team_id"`
}

// SeedUserLinks writes configured user to team links. Existing links are
// overwritten so the configuration stays authoritative.
func SeedUserLinks(ctx context.Context, db *sqlx.DB, links map[string]int64) error {
	rows := userLinkRows(links)
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, batch := range chunk(rows, upsertChunkSize) {
		query, args, err := qb.InsertModels("fpl_users", batch, userLinkUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build seed user links query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed user links: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

// userLinkRows orders links by user id so repeated seeds lock rows in the
// same order.
func userLinkRows(links map[string]int64) []userLinkModel {
	rows := make([]userLinkModel, 0, len(links))
	for userID, teamID := range links {
		rows = append(rows, userLinkModel{UserID: userID, FPLTeamID: teamID})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows
}
