package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"aigym/internal/auth"
	"aigym/internal/config"
	"aigym/internal/domain/services"
	"aigym/internal/migrate"
	"aigym/internal/repository/postgres"
	postgresContent "aigym/internal/repository/postgres/content"
	serviceContent "aigym/internal/service/content"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Roll back every migration before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only migrate the schema, don't seed content")
	clearData := flag.Bool("clear-data", false, "Delete all content and snapshots (keep schema)")
	demoEmail := flag.String("demo-user", "", "Provision a confirmed admin account with this email")
	demoPassword := flag.String("demo-password", "changeme123", "Password for -demo-user")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// Destructive operations never run against production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: -drop-tables and -clear-data are not allowed in production")
	}

	logger, closeLog := config.NewLogger(cfg, "seed")
	defer closeLog()

	ctx := context.Background()
	logger.Info("seed starting",
		"environment", cfg.Environment,
		"table_prefix", cfg.TablePrefix,
		"drop_tables", *dropTables,
		"schema_only", *schemaOnly,
		"clear_data", *clearData,
	)

	if *dropTables {
		if err := migrate.Reset(ctx, cfg.SupabaseDBURL, cfg.TablePrefix); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		logger.Info("tables dropped")
	}

	if err := migrate.Up(ctx, cfg.SupabaseDBURL, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("schema ready")

	if *schemaOnly {
		return
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *clearData {
		if err := clearContent(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("content cleared")
		return
	}

	userID := cfg.DevUserID
	if *demoEmail != "" {
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			log.Fatalf("-demo-user needs SUPABASE_URL and SUPABASE_KEY")
		}
		admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey, logger)
		id, err := admin.EnsureUser(ctx, *demoEmail, *demoPassword, "admin")
		if err != nil {
			log.Fatalf("Failed to provision demo user: %v", err)
		}
		userID = id
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	contentService := serviceContent.NewContentService(
		postgresContent.NewContentRepository(repoConfig),
		postgresContent.NewSnapshotRepository(repoConfig),
		postgres.NewTransactionManager(pool, logger),
		logger,
	)

	if err := clearContent(ctx, pool, tables); err != nil {
		logger.Warn("could not clear existing content", "error", err)
	}

	created := 0
	docs := seedDocuments()
	for _, doc := range docs {
		saved, err := contentService.Create(ctx, &services.CreateContentRequest{Document: doc, UserID: userID})
		if err != nil {
			logger.Error("seed document failed", "title", doc.Title, "repository_type", doc.RepositoryType, "error", err)
			continue
		}
		created++
		logger.Info("seeded document",
			"id", saved.ID,
			"repository_type", saved.RepositoryType,
			"title", saved.Title,
			"pages", len(saved.Content.Pages),
		)
	}

	logger.Info("seed complete", slog.Int("created", created), slog.Int("total", len(docs)))
}

// clearContent empties every document table and the snapshot table
func clearContent(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range append(tables.Documents(), tables.AutoSaveSnapshots) {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
