package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jeromehjj/fpl-playmaker/db"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
)

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m      *migrate.Migrate
	logger *logging.Logger
}

// MigrationVersion is the schema state; Version is 0 when nothing was applied.
type MigrationVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func NewMigrator(dbURL string, logger *logging.Logger) (*Migrator, error) {
	if strings.TrimSpace(dbURL) == "" {
		return nil, fmt.Errorf("DB_URL is required for migrations")
	}
	if logger == nil {
		logger = logging.Default()
	}

	migrationsDir, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("access embedded migrations: %w", err)
	}
	source, err := iofs.New(migrationsDir, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateDBURL(dbURL))
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &Migrator{m: m, logger: logger.Named("migrator")}, nil
}

func (mg *Migrator) Up() error {
	return mg.handle(mg.m.Up(), "migrations applied")
}

// Down rolls back steps migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("down steps must be > 0")
	}
	return mg.handle(mg.m.Steps(-steps), "migrations rolled back", "steps", steps)
}

func (mg *Migrator) Goto(target uint) error {
	return mg.handle(mg.m.Migrate(target), "migrated to version", "version", target)
}

func (mg *Migrator) Force(version int) error {
	if version < 0 {
		return fmt.Errorf("version must be >= 0")
	}
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	mg.logger.Info("forced migration version", "version", version)
	return nil
}

func (mg *Migrator) Version() (MigrationVersion, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationVersion{}, nil
	}
	if err != nil {
		return MigrationVersion{}, fmt.Errorf("read migration version: %w", err)
	}
	return MigrationVersion{Version: version, Dirty: dirty}, nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) handle(err error, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("no migration changes")
		return nil
	}
	if err != nil {
		return err
	}
	mg.logger.Info(msg, args...)
	return nil
}

// migrateDBURL maps the postgresql:// alias onto the scheme the migrate
// postgres driver registers.
func migrateDBURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "postgresql://"); ok {
		return "postgres://" + rest
	}
	return raw
}
