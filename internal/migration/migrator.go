package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/config"
	"github.com/obratech/pedidos/internal/database"
)

const migrationsDir = "db/migrations/sql"

// Migrator applies and rolls back the SQL migrations shipped with the
// binary. All operations run against the writer pool.
type Migrator struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a goose-backed migrator for the configured dialect.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}
	return &Migrator{db: conns.Writer, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	err := goose.UpContext(ctx, m.db.DB, migrationsDir)
	switch {
	case nothingToDo(err):
		m.logger.Info("no migrations to apply")
		return nil
	case err != nil:
		return err
	}
	m.logger.Info("migrations applied")
	return nil
}

// Down rolls back migrations. Steps <= 0 means one step; all overrides
// steps and rewinds to the initial state.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		err := goose.DownToContext(ctx, m.db.DB, migrationsDir, 0)
		switch {
		case nothingToDo(err):
			m.logger.Info("no migrations to rollback")
			return nil
		case err != nil:
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		err := goose.DownContext(ctx, m.db.DB, migrationsDir)
		switch {
		case nothingToDo(err):
			m.logger.Info("no migrations to rollback")
			return nil
		case err != nil:
			return err
		}
	}
	m.logger.Info("migrations rolled back", zap.Int("steps", steps))
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func nothingToDo(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}
