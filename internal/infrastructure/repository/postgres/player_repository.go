package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	qb "github.com/jeromehjj/fpl-playmaker/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	clubUpsertSuffix = `ON CONFLICT (external_id) DO UPDATE SET
    name = EXCLUDED.name,
    short_name = EXCLUDED.short_name,
    updated_at = NOW()`

	playerUpsertSuffix = `ON CONFLICT (external_id) DO UPDATE SET
    club_external_id = EXCLUDED.club_external_id,
    display_name = EXCLUDED.display_name,
    full_name = EXCLUDED.full_name,
    position = EXCLUDED.position,
    price = EXCLUDED.price,
    total_points = EXCLUDED.total_points,
    minutes = EXCLUDED.minutes,
    points_per_game = EXCLUDED.points_per_game,
    status = EXCLUDED.status,
    chance_of_playing_next = EXCLUDED.chance_of_playing_next,
    chance_of_playing_this = EXCLUDED.chance_of_playing_this,
    raw_payload = EXCLUDED.raw_payload,
    updated_at = NOW()`
)

var playerSelectColumns = []string{
	"external_id",
	"club_external_id",
	"display_name",
	"full_name",
	"position",
	"price",
	"total_points",
	"minutes",
	"points_per_game",
	"status",
	"chance_of_playing_next",
	"chance_of_playing_this",
	"raw_payload::text AS raw_payload",
}

type PlayerRepository struct {
	db *sqlx.DB
}

var _ player.Repository = (*PlayerRepository)(nil)

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) UpsertCatalog(ctx context.Context, clubs []player.Club, players []player.Player) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert catalog: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clubRows := make([]clubTableModel, 0, len(clubs))
	for _, c := range clubs {
		clubRows = append(clubRows, clubTableModel{
			ExternalID: c.ExternalID,
			Name:       c.Name,
			ShortName:  c.ShortName,
		})
	}
	for _, batch := range chunk(clubRows, upsertChunkSize) {
		query, args, err := qb.InsertModels("fpl_clubs", batch, clubUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert clubs query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert clubs: %w", err)
		}
	}

	playerRows := make([]playerTableModel, 0, len(players))
	for _, p := range players {
		playerRows = append(playerRows, toPlayerTableModel(p))
	}
	for _, batch := range chunk(playerRows, upsertChunkSize) {
		query, args, err := qb.InsertModels("fpl_players", batch, playerUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert players query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: %v", player.ErrUnknownClub, err)
			}
			return fmt.Errorf("upsert players: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert catalog tx: %w", err)
	}
	return nil
}

func (r *PlayerRepository) ListClubs(ctx context.Context) ([]player.Club, error) {
	query, args, err := qb.Select(qb.Columns(clubTableModel{})...).From("fpl_clubs").
		OrderBy("external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list clubs query: %w", err)
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}

	out := make([]player.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, player.Club{
			ExternalID: row.ExternalID,
			Name:       row.Name,
			ShortName:  row.ShortName,
		})
	}
	return out, nil
}

func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	conditions := make([]qb.Condition, 0, 4)
	if filter.ClubExternalID > 0 {
		conditions = append(conditions, qb.Eq("club_external_id", filter.ClubExternalID))
	}
	if filter.Position != "" {
		conditions = append(conditions, qb.Eq("position", string(filter.Position)))
	}
	if filter.MinMinutes > 0 {
		conditions = append(conditions, qb.Gte("minutes", filter.MinMinutes))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, qb.ContainsAny(search, "display_name", "full_name"))
	}

	query, args, err := qb.Select(playerSelectColumns...).From("fpl_players").
		Where(conditions...).
		OrderBy("external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players query: %w", err)
	}

	return r.selectPlayers(ctx, query, args)
}

func (r *PlayerRepository) GetByExternalIDs(ctx context.Context, externalIDs []int64) ([]player.Player, error) {
	if len(externalIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select(playerSelectColumns...).From("fpl_players").
		Where(qb.Expr("external_id = ANY(?)", pq.Array(externalIDs))).
		OrderBy("external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get players by ids query: %w", err)
	}

	return r.selectPlayers(ctx, query, args)
}

func (r *PlayerRepository) selectPlayers(ctx context.Context, query string, args []any) ([]player.Player, error) {
	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, player.Player{
			ExternalID:     row.ExternalID,
			ClubExternalID: row.ClubExternalID,
			DisplayName:    row.DisplayName,
			FullName:       nullStringPtr(row.FullName),
			Position:       player.Position(row.Position),
			Price:          row.Price,
			Stats: player.Stats{
				TotalPoints:         row.TotalPoints,
				Minutes:             row.Minutes,
				PointsPerGame:       row.PointsPerGame,
				Status:              row.Status,
				ChanceOfPlayingNext: nullInt32ToIntPtr(row.ChanceOfPlayingNext),
				ChanceOfPlayingThis: nullInt32ToIntPtr(row.ChanceOfPlayingThis),
			},
			RawPayload: []byte(row.RawPayload),
		})
	}
	return out, nil
}

func toPlayerTableModel(p player.Player) playerTableModel {
	return playerTableModel{
		ExternalID:          p.ExternalID,
		ClubExternalID:      p.ClubExternalID,
		DisplayName:         p.DisplayName,
		FullName:            stringPtrToNull(p.FullName),
		Position:            string(p.Position),
		Price:               p.Price,
		TotalPoints:         p.Stats.TotalPoints,
		Minutes:             p.Stats.Minutes,
		PointsPerGame:       p.Stats.PointsPerGame,
		Status:              p.Stats.Status,
		ChanceOfPlayingNext: intPtrToNull(p.Stats.ChanceOfPlayingNext),
		ChanceOfPlayingThis: intPtrToNull(p.Stats.ChanceOfPlayingThis),
		RawPayload:          jsonbText(p.RawPayload),
	}
}
