package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/user"
	qb "github.com/jeromehjj/fpl-playmaker/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type UserDirectory struct {
	db *sqlx.DB
}

var _ user.Directory = (*UserDirectory)(nil)

func NewUserDirectory(db *sqlx.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (r *UserDirectory) FindTeamID(ctx context.Context, userID string) (int64, bool, error) {
	query, args, err := qb.Select("fpl_team_id").From("fpl_users").
		Where(qb.Eq("user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build find team id query: %w", err)
	}

	var teamID sql.NullInt64
	if err := r.db.GetContext(ctx, &teamID, query, args...); err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("find team id user=%s: %w", userID, err)
	}
	if !teamID.Valid || teamID.Int64 <= 0 {
		return 0, false, nil
	}
	return teamID.Int64, true, nil
}

func (r *UserDirectory) ListLinkedUserIDs(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("user_id").From("fpl_users").
		Where(qb.Expr("fpl_team_id > 0")).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list linked users query: %w", err)
	}

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list linked users: %w", err)
	}
	return out, nil
}
