package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obratech/pedidos/internal/config"
)

// Connections carries the writer and reader handles. Repositories route
// mutations through Writer and list/get queries through Reader; with a
// single DSN both point at the same pool.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New opens the configured pools and ties their lifetime to the Fx app.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	db := cfg.Database

	writer, err := open(db, db.WriterDSN)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader := writer
	if db.ReaderDSN != db.WriterDSN {
		if reader, err = open(db, db.ReaderDSN); err != nil {
			return nil, fmt.Errorf("open reader: %w", err)
		}
	}

	conns := &Connections{Writer: writer, Reader: reader}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for role, handle := range conns.pools() {
				if err := ping(ctx, handle); err != nil {
					return fmt.Errorf("ping %s: %w", role, err)
				}
			}
			logger.Info("database connected", zap.String("driver", db.Driver))
			return nil
		},
		OnStop: func(context.Context) error {
			var firstErr error
			for role, handle := range conns.pools() {
				if err := handle.Close(); err != nil && firstErr == nil {
					firstErr = fmt.Errorf("close %s: %w", role, err)
				}
			}
			return firstErr
		},
	})

	return conns, nil
}

// pools enumerates distinct handles keyed by role, deduplicating the
// shared-pool case.
func (c *Connections) pools() map[string]*bun.DB {
	out := map[string]*bun.DB{"writer": c.Writer}
	if c.Reader != c.Writer {
		out["reader"] = c.Reader
	}
	return out
}

func open(cfg config.Database, dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	var (
		sqldb *sql.DB
		dial  schema.Dialect
		err   error
	)
	switch cfg.Driver {
	case "postgres":
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		dial = pgdialect.New()
	case "mysql":
		sqldb, err = sql.Open("mysql", dsn)
		dial = mysqldialect.New()
	case "sqlite":
		sqldb, err = sql.Open("sqlite3", dsn)
		dial = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	return bun.NewDB(sqldb, dial), nil
}

func ping(ctx context.Context, db *bun.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.DB.PingContext(pingCtx)
}
