// Package migrate applies the embedded SQL migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"aigym/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Up runs all pending migrations for the tables of one environment prefix.
// Each prefix keeps its own goose version table.
func Up(ctx context.Context, dsn, tablePrefix string) error {
	return run(ctx, dsn, tablePrefix, func(db *sql.DB) error {
		return goose.UpContext(ctx, db, ".")
	})
}

// Reset rolls every migration back. Used by the seed tool's -drop-tables.
func Reset(ctx context.Context, dsn, tablePrefix string) error {
	return run(ctx, dsn, tablePrefix, func(db *sql.DB) error {
		return goose.ResetContext(ctx, db, ".")
	})
}

func run(ctx context.Context, dsn, tablePrefix string, fn func(db *sql.DB) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	// ENVSUB in the SQL files reads the prefix from the environment
	if err := os.Setenv("TABLE_PREFIX", tablePrefix); err != nil {
		return err
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(VersionTable(tablePrefix))
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return fn(db)
}

// VersionTable is the goose bookkeeping table for a prefix
func VersionTable(tablePrefix string) string {
	return tablePrefix + "goose_db_version"
}
