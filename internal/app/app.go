package app

import (
	"context"
	"fmt"

	"github.com/jeromehjj/fpl-playmaker/external/fpl"
	"github.com/jeromehjj/fpl-playmaker/internal/config"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/user"
	"github.com/jeromehjj/fpl-playmaker/internal/infrastructure/repository/memory"
	"github.com/jeromehjj/fpl-playmaker/internal/infrastructure/repository/postgres"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/resilience"
	"github.com/jeromehjj/fpl-playmaker/internal/usecase"
	"github.com/jmoiron/sqlx"
)

// App holds the use cases of one process. Build it once; the competition
// state caches live as long as it does.
type App struct {
	Config    config.Config
	State     *usecase.CompetitionStateTracker
	Snapshots *usecase.SnapshotCache
	Catalog   *usecase.PlayerCatalog
	Squads    *usecase.SquadProjector
	Transfers *usecase.TransferAdvisor
	Refresher *usecase.SnapshotRefresher
	db        *sqlx.DB
	logger    *logging.Logger
}

type repositories struct {
	users     user.Directory
	snapshots snapshot.Repository
	players   player.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	provider := fpl.NewClient(fpl.ClientConfig{
		BaseURL:           cfg.FPLBaseURL,
		UserAgent:         cfg.FPLUserAgent,
		Timeout:           cfg.FPLTimeout,
		MaxRetries:        cfg.FPLMaxRetries,
		RetryBackoff:      cfg.FPLRetryBackoff,
		RateLimitInterval: cfg.FPLRateLimitInterval,
		Logger:            logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	return wire(cfg, repos, provider, db, logger), nil
}

func wire(cfg config.Config, repos repositories, provider usecase.FPLProvider, db *sqlx.DB, logger *logging.Logger) *App {
	state := usecase.NewCompetitionStateTracker(provider, usecase.CompetitionStateConfig{
		TTL:    cfg.ScheduleCacheTTL,
		Logger: logger,
	})
	snapshots := usecase.NewSnapshotCache(repos.users, repos.snapshots, provider, state, logger)
	catalog := usecase.NewPlayerCatalog(repos.players, provider, state, logger)
	squads := usecase.NewSquadProjector(snapshots, provider, catalog, logger)

	return &App{
		Config:    cfg,
		State:     state,
		Snapshots: snapshots,
		Catalog:   catalog,
		Squads:    squads,
		Transfers: usecase.NewTransferAdvisor(squads, catalog, logger),
		Refresher: usecase.NewSnapshotRefresher(snapshots, repos.users, logger),
		db:        db,
		logger:    logger,
	}
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		if err := postgres.SeedUserLinks(ctx, db, cfg.UserTeamLinks); err != nil {
			_ = db.Close()
			return repositories{}, nil, fmt.Errorf("seed user links: %w", err)
		}
		target := parseDBTarget(cfg.DBURL)
		logger.Debug("using postgres repositories", "db", target.name, "host", target.host)
		return repositories{
			users:     postgres.NewUserDirectory(db),
			snapshots: postgres.NewSnapshotRepository(db),
			players:   postgres.NewPlayerRepository(db),
		}, db, nil
	case config.DBDriverMemory, "":
		logger.Debug("using in-memory repositories", "linked_users", len(cfg.UserTeamLinks))
		return repositories{
			users:     memory.NewUserDirectory(cfg.UserTeamLinks),
			snapshots: memory.NewSnapshotRepository(),
			players:   memory.NewPlayerRepository(),
		}, nil, nil
	default:
		return repositories{}, nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}
