package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"aigym/internal/domain/models/content"
	"aigym/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   repositories.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Wods              string
	Blocks            string
	Programs          string
	ContentItems      string
	AutoSaveSnapshots string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Wods:              fmt.Sprintf("%swods", prefix),
		Blocks:            fmt.Sprintf("%sworkout_blocks", prefix),
		Programs:          fmt.Sprintf("%sprograms", prefix),
		ContentItems:      fmt.Sprintf("%scontent_items", prefix),
		AutoSaveSnapshots: fmt.Sprintf("%sauto_save_snapshots", prefix),
	}
}

// For returns the table holding documents of repository type t. Every type
// without a table of its own lives in content_items, keyed by repository_type.
func (t *TableNames) For(repositoryType content.RepositoryType) string {
	switch repositoryType {
	case content.RepositoryWods:
		return t.Wods
	case content.RepositoryBlocks:
		return t.Blocks
	case content.RepositoryPrograms:
		return t.Programs
	default:
		return t.ContentItems
	}
}

// Documents lists the document tables in a fixed order
func (t *TableNames) Documents() []string {
	return []string{t.Wods, t.Blocks, t.Programs, t.ContentItems}
}

// CreateConnectionPool creates a new pgx connection pool with automatic PgBouncer compatibility.
//
// Supabase's transaction pooler (port 6543) does not support prepared
// statements, so on that port the pool switches to QueryExecModeCacheDescribe,
// which keeps the extended protocol needed to encode JSONB arguments.
// An explicit default_query_exec_mode in the URL takes precedence.
//
// Table prefixes are interpolated with fmt.Sprintf before statements reach
// the server, so each environment gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
// This enables repositories to automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool repositories.DBTX) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
