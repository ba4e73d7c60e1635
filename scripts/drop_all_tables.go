// Drops every content table of one environment prefix, including the goose
// version table.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"aigym/internal/config"
	"aigym/internal/migrate"
	"aigym/internal/repository/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.SupabaseDBURL == "" {
		log.Fatal("SUPABASE_DB_URL environment variable is required")
	}
	if cfg.Environment == "prod" {
		log.Fatal("BLOCKED: refusing to drop production tables")
	}

	db, err := sql.Open("pgx", cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	tables := postgres.NewTableNames(cfg.TablePrefix)
	names := append(tables.Documents(), tables.AutoSaveSnapshots, migrate.VersionTable(cfg.TablePrefix))

	var stmts []string
	for _, name := range names {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+name+" CASCADE;")
	}

	if _, err := db.ExecContext(context.Background(), strings.Join(stmts, "\n")); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("All tables dropped successfully (prefix: %s)\n", cfg.TablePrefix)
}
