package content

import (
	"context"
	"fmt"
	"log/slog"

	models "aigym/internal/domain/models/content"
	"aigym/internal/domain/repositories"
	"aigym/internal/repository/postgres"
)

// PostgresSnapshotRepository implements the SnapshotRepository interface
type PostgresSnapshotRepository struct {
	pool   repositories.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewSnapshotRepository creates a new auto-save snapshot repository
func NewSnapshotRepository(config *postgres.RepositoryConfig) repositories.SnapshotRepository {
	return &PostgresSnapshotRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append stores a snapshot
func (r *PostgresSnapshotRepository) Append(ctx context.Context, snapshot *models.Snapshot) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (content_id, session_id, snapshot_data, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.AutoSaveSnapshots)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		snapshot.ContentID,
		snapshot.SessionID,
		snapshot.Data,
		snapshot.Metadata,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return nil
}

// Prune deletes all but the newest keep snapshots of one session
func (r *PostgresSnapshotRepository) Prune(ctx context.Context, contentID, sessionID string, keep int) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE content_id = $1 AND session_id = $2
		  AND id NOT IN (
		      SELECT id FROM %[1]s
		      WHERE content_id = $1 AND session_id = $2
		      ORDER BY created_at DESC, id DESC
		      LIMIT $3
		  )
	`, r.tables.AutoSaveSnapshots)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, contentID, sessionID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	return result.RowsAffected(), nil
}

// List returns snapshots newest first
func (r *PostgresSnapshotRepository) List(ctx context.Context, contentID, sessionID string) ([]models.Snapshot, error) {
	var query string
	var args []interface{}

	if sessionID != "" {
		query = fmt.Sprintf(`
			SELECT id, content_id, session_id, snapshot_data, metadata, created_at
			FROM %s
			WHERE content_id = $1 AND session_id = $2
			ORDER BY created_at DESC, id DESC
		`, r.tables.AutoSaveSnapshots)
		args = []interface{}{contentID, sessionID}
	} else {
		query = fmt.Sprintf(`
			SELECT id, content_id, session_id, snapshot_data, metadata, created_at
			FROM %s
			WHERE content_id = $1
			ORDER BY created_at DESC, id DESC
		`, r.tables.AutoSaveSnapshots)
		args = []interface{}{contentID}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []models.Snapshot{}
	for rows.Next() {
		var s models.Snapshot
		if err := rows.Scan(&s.ID, &s.ContentID, &s.SessionID, &s.Data, &s.Metadata, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}
