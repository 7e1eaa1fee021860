package repository

import (
	"context"
	"database/sql"
	"embed"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies the embedded goose migrations up to the latest version.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int64("version", current).Msg("current schema version")

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return err
	}

	current, err = goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int64("version", current).Msg("schema migrated")

	return nil
}
