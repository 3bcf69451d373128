package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shandysiswandi/hirelens/migrations"
)

func (a *App) initMigration() {
	if a.dbConn == nil || !a.config.GetBool("database.migrate_on_start") {
		return
	}

	db := stdlib.OpenDBFromPool(a.dbConn)
	defer db.Close()

	if err := migrations.Up(a.ctx, db); err != nil {
		fatal("failed to run migrations", "error", err)
	}
	slog.Info("database migrations applied")
}

// Migrate runs a single migration command ("up", "down" or "status") against
// the database configured at configPath.
func Migrate(ctx context.Context, configPath, command string) error {
	cfg, err := loadConfig(configPath, false)
	if err != nil {
		return err
	}

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return migrations.Run(ctx, db, command)
}
