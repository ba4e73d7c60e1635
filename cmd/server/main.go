package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aigym/internal/auth"
	"aigym/internal/config"
	"aigym/internal/handler"
	"aigym/internal/middleware"
	"aigym/internal/migrate"
	"aigym/internal/repository/postgres"
	postgresContent "aigym/internal/repository/postgres/content"
	serviceContent "aigym/internal/service/content"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog := config.NewLogger(cfg, "server")
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schema first so a fresh environment can serve immediately
	if err := migrate.Up(ctx, cfg.SupabaseDBURL, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	contentRepo := postgresContent.NewContentRepository(repoConfig)
	snapshotRepo := postgresContent.NewSnapshotRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	contentService := serviceContent.NewContentService(contentRepo, snapshotRepo, txManager, logger)
	functionsHandler := handler.NewFunctionsHandler(contentService, logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", functionsHandler.HealthCheck)
	mux.HandleFunc("POST /functions/v1/{function}", functionsHandler.Invoke)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	switch {
	case cfg.SupabaseJWKSURL != "":
		jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, cfg.SupabaseURL+"/auth/v1", logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	case cfg.Environment != "prod" && cfg.DevUserID != "":
		logger.Warn("DEV MODE: authentication disabled, all requests run as fixed user", "user_id", cfg.DevUserID)
		h = middleware.DevAuthMiddleware(cfg.DevUserID)(h)
	default:
		log.Fatalf("SUPABASE_URL is required to verify access tokens")
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "apikey", "x-client-info"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
