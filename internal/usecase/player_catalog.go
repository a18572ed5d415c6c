package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"golang.org/x/sync/singleflight"
)

type PlayerSort string

const (
	SortPrice            PlayerSort = "price"
	SortTotalPoints      PlayerSort = "totalPoints"
	SortPointsPerGame    PlayerSort = "pointsPerGame"
	SortMinutes          PlayerSort = "minutes"
	SortPointsPerMillion PlayerSort = "pointsPerMillion"
	SortPointsPerNinety  PlayerSort = "pointsPerNinety"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListPlayersInput filters and orders a catalog page. Direction defaults
// to desc and Sort to price.
type ListPlayersInput struct {
	ClubID     int64  `validate:"gte=0"`
	Position   string `validate:"omitempty,oneof=GK DEF MID FWD"`
	Search     string `validate:"max=64"`
	MinMinutes int    `validate:"gte=0"`
	Sort       string `validate:"omitempty,oneof=price totalPoints pointsPerGame minutes pointsPerMillion pointsPerNinety"`
	Direction  string `validate:"omitempty,oneof=asc desc ASC DESC"`
	Limit      int
	Offset     int
}

// CatalogPlayer is a player with its read-side metrics.
type CatalogPlayer struct {
	ExternalID          int64
	ClubID              int64
	ClubShortName       string
	DisplayName         string
	FullName            *string
	Position            player.Position
	Price               int
	Metrics             player.Metrics
	NextThreeDifficulty *int
	NextFiveDifficulty  *int
}

type ListPlayersResult struct {
	Items  []CatalogPlayer
	Total  int
	Limit  int
	Offset int
}

type BulkSyncResult struct {
	Clubs   int
	Players int
}

type catalogState interface {
	MinMinutesForPer90(ctx context.Context) (int, error)
	UpcomingDifficulty(ctx context.Context) (map[int64]gameweek.DifficultySums, error)
}

// PlayerCatalog mirrors upstream players and clubs and serves them with
// derived metrics. Reads against an empty mirror run BulkSync first.
type PlayerCatalog struct {
	players  player.Repository
	provider FPLProvider
	state    catalogState
	validate *validator.Validate
	logger   *logging.Logger

	primed atomic.Bool
	flight singleflight.Group
}

func NewPlayerCatalog(players player.Repository, provider FPLProvider, state catalogState, logger *logging.Logger) *PlayerCatalog {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerCatalog{
		players:  players,
		provider: provider,
		state:    state,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("player_catalog"),
	}
}

// BulkSync mirrors every club and player from the bootstrap payload.
// A player pointing at an unknown club or position aborts the run before
// anything is written.
func (c *PlayerCatalog) BulkSync(ctx context.Context) (BulkSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerCatalog.BulkSync")
	defer span.End()

	bootstrap, err := c.provider.FetchBootstrap(ctx)
	if err != nil {
		recordSpanError(span, err)
		return BulkSyncResult{}, fmt.Errorf("fetch bootstrap: %w", err)
	}

	clubIDs := make(map[int64]struct{}, len(bootstrap.Clubs))
	for _, club := range bootstrap.Clubs {
		clubIDs[club.ExternalID] = struct{}{}
	}

	players := make([]player.Player, 0, len(bootstrap.Players))
	for _, item := range bootstrap.Players {
		if _, ok := clubIDs[item.ClubID]; !ok {
			err := fmt.Errorf("%w: player=%d references unknown club=%d", ErrDataIntegrity, item.ID, item.ClubID)
			recordSpanError(span, err)
			return BulkSyncResult{}, err
		}
		position, ok := player.PositionFromElementType(item.ElementType)
		if !ok {
			err := fmt.Errorf("%w: player=%d has unknown element type=%d", ErrDataIntegrity, item.ID, item.ElementType)
			recordSpanError(span, err)
			return BulkSyncResult{}, err
		}

		p := player.Player{
			ExternalID:     item.ID,
			ClubExternalID: item.ClubID,
			DisplayName:    item.WebName,
			FullName:       player.JoinFullName(item.FirstName, item.SecondName),
			Position:       position,
			Price:          item.NowCost,
			Stats:          item.Stats,
			RawPayload:     item.Raw,
		}
		if err := p.Validate(); err != nil {
			err = fmt.Errorf("%w: player=%d: %w", ErrDataIntegrity, item.ID, err)
			recordSpanError(span, err)
			return BulkSyncResult{}, err
		}
		players = append(players, p)
	}

	if err := c.players.UpsertCatalog(ctx, bootstrap.Clubs, players); err != nil {
		if errors.Is(err, player.ErrUnknownClub) {
			err = fmt.Errorf("%w: %w", ErrDataIntegrity, err)
		}
		recordSpanError(span, err)
		return BulkSyncResult{}, fmt.Errorf("upsert catalog: %w", err)
	}

	c.primed.Store(true)
	c.logger.InfoContext(ctx, "player catalog synced", "clubs", len(bootstrap.Clubs), "players", len(players))
	return BulkSyncResult{Clubs: len(bootstrap.Clubs), Players: len(players)}, nil
}

// List returns one page of the catalog.
func (c *PlayerCatalog) List(ctx context.Context, in ListPlayersInput) (ListPlayersResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerCatalog.List")
	defer span.End()

	if err := c.validate.StructCtx(ctx, in); err != nil {
		return ListPlayersResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	in.Limit = clampLimit(in.Limit)
	in.Offset = max(in.Offset, 0)

	ranked, err := c.ranked(ctx, in)
	if err != nil {
		recordSpanError(span, err)
		return ListPlayersResult{}, err
	}

	start := min(in.Offset, len(ranked))
	end := min(start+in.Limit, len(ranked))
	return ListPlayersResult{
		Items:  ranked[start:end],
		Total:  len(ranked),
		Limit:  in.Limit,
		Offset: in.Offset,
	}, nil
}

// ensureSynced runs one BulkSync when the mirror holds no clubs yet.
func (c *PlayerCatalog) ensureSynced(ctx context.Context) error {
	if c.primed.Load() {
		return nil
	}

	clubs, err := c.players.ListClubs(ctx)
	if err != nil {
		return fmt.Errorf("list clubs: %w", err)
	}
	if len(clubs) > 0 {
		c.primed.Store(true)
		return nil
	}

	_, err, _ = c.flight.Do("bulk_sync", func() (any, error) {
		if c.primed.Load() {
			return nil, nil
		}
		c.logger.InfoContext(ctx, "player catalog empty, running bulk sync")
		return c.BulkSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("initial catalog sync: %w", err)
	}
	return nil
}

// ranked returns every matching player in sort order, without paging.
func (c *PlayerCatalog) ranked(ctx context.Context, in ListPlayersInput) ([]CatalogPlayer, error) {
	if err := c.ensureSynced(ctx); err != nil {
		return nil, err
	}
	minMinutes, err := c.state.MinMinutesForPer90(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve per-90 threshold: %w", err)
	}
	difficulty, err := c.state.UpcomingDifficulty(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve upcoming difficulty: %w", err)
	}

	items, err := c.players.List(ctx, player.Filter{
		ClubExternalID: in.ClubID,
		Position:       player.Position(in.Position),
		Search:         strings.TrimSpace(in.Search),
		MinMinutes:     in.MinMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	clubs, err := c.clubShortNames(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CatalogPlayer, 0, len(items))
	for _, item := range items {
		out = append(out, toCatalogPlayer(item, clubs, difficulty, minMinutes))
	}

	sortCatalog(out, PlayerSort(in.Sort), !strings.EqualFold(in.Direction, "asc"))
	return out, nil
}

// enrich attaches metrics to players loaded by id.
func (c *PlayerCatalog) enrich(ctx context.Context, ids []int64) (map[int64]CatalogPlayer, error) {
	if err := c.ensureSynced(ctx); err != nil {
		return nil, err
	}
	minMinutes, err := c.state.MinMinutesForPer90(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve per-90 threshold: %w", err)
	}
	difficulty, err := c.state.UpcomingDifficulty(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve upcoming difficulty: %w", err)
	}
	items, err := c.players.GetByExternalIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get players by ids: %w", err)
	}
	clubs, err := c.clubShortNames(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]CatalogPlayer, len(items))
	for _, item := range items {
		out[item.ExternalID] = toCatalogPlayer(item, clubs, difficulty, minMinutes)
	}
	return out, nil
}

func (c *PlayerCatalog) clubShortNames(ctx context.Context) (map[int64]string, error) {
	clubs, err := c.players.ListClubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	out := make(map[int64]string, len(clubs))
	for _, club := range clubs {
		out[club.ExternalID] = club.ShortName
	}
	return out, nil
}

func toCatalogPlayer(p player.Player, clubs map[int64]string, difficulty map[int64]gameweek.DifficultySums, minMinutes int) CatalogPlayer {
	sums := difficulty[p.ClubExternalID]
	return CatalogPlayer{
		ExternalID:          p.ExternalID,
		ClubID:              p.ClubExternalID,
		ClubShortName:       clubs[p.ClubExternalID],
		DisplayName:         p.DisplayName,
		FullName:            p.FullName,
		Position:            p.Position,
		Price:               p.Price,
		Metrics:             player.ComputeMetrics(p, minMinutes),
		NextThreeDifficulty: sums.Next3,
		NextFiveDifficulty:  sums.Next5,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

// sortCatalog orders by key, nulls last in either direction, then by
// display name ascending.
func sortCatalog(items []CatalogPlayer, key PlayerSort, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, aok := sortValue(items[i], key)
		b, bok := sortValue(items[j], key)
		if aok != bok {
			return aok
		}
		if aok && a != b {
			if desc {
				return a > b
			}
			return a < b
		}
		return items[i].DisplayName < items[j].DisplayName
	})
}

func sortValue(p CatalogPlayer, key PlayerSort) (float64, bool) {
	switch key {
	case SortTotalPoints:
		return float64(p.Metrics.TotalPoints), true
	case SortPointsPerGame:
		return p.Metrics.PointsPerGame, true
	case SortMinutes:
		return float64(p.Metrics.Minutes), true
	case SortPointsPerMillion:
		return derefFloat(p.Metrics.PointsPerMillion)
	case SortPointsPerNinety:
		return derefFloat(p.Metrics.PointsPerNinety)
	default:
		return float64(p.Price), true
	}
}

func derefFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
