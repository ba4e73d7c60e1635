package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aigym/internal/config"
	"aigym/internal/domain"
	models "aigym/internal/domain/models/content"
	"aigym/internal/domain/repositories"
	"aigym/internal/repository/postgres"
)

// documentColumns is the select list shared by every document query; scanDocument reads it back
const documentColumns = `id, workspace_id, repository_type, title, description, status, tags,
		content, metadata, created_by, updated_by, created_at, updated_at, version`

// PostgresContentRepository implements the ContentRepository interface
type PostgresContentRepository struct {
	pool   repositories.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewContentRepository creates a new content repository
func NewContentRepository(config *postgres.RepositoryConfig) repositories.ContentRepository {
	return &PostgresContentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a document. An empty id lets the database assign one.
func (r *PostgresContentRepository) Create(ctx context.Context, doc *models.ContentDocument) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, workspace_id, repository_type, title, description, status, tags,
		                content, metadata, created_by, updated_by)
		VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, version, created_at, updated_at
	`, r.tables.For(doc.RepositoryType))

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.WorkspaceID,
		doc.RepositoryType,
		doc.Title,
		doc.Description,
		doc.Status,
		tagsOrEmpty(doc.Tags),
		doc.Content,
		doc.Metadata,
		doc.CreatedBy,
		doc.UpdatedBy,
	).Scan(&doc.ID, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("%s '%s' already exists", doc.RepositoryType, doc.ID),
				ResourceType: string(doc.RepositoryType),
				ResourceID:   doc.ID,
			}
		}
		if constraint, ok := postgres.IsPgCheckViolation(err); ok {
			return domain.NewValidationError(constraint, "rejected by the database")
		}
		return fmt.Errorf("create %s: %w", doc.RepositoryType, err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresContentRepository) GetByID(ctx context.Context, repositoryType models.RepositoryType, id string) (*models.ContentDocument, error) {
	return r.get(ctx, repositoryType, id, "")
}

// GetForUpdate retrieves a document with a row lock. Only meaningful inside ExecTx.
func (r *PostgresContentRepository) GetForUpdate(ctx context.Context, repositoryType models.RepositoryType, id string) (*models.ContentDocument, error) {
	return r.get(ctx, repositoryType, id, " FOR UPDATE")
}

func (r *PostgresContentRepository) get(ctx context.Context, repositoryType models.RepositoryType, id, lock string) (*models.ContentDocument, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND repository_type = $2%s
	`, documentColumns, r.tables.For(repositoryType), lock)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id, repositoryType))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", repositoryType, id)}
		}
		return nil, fmt.Errorf("get %s: %w", repositoryType, err)
	}

	return doc, nil
}

// List returns documents most recently updated first
func (r *PostgresContentRepository) List(ctx context.Context, repositoryType models.RepositoryType, filters models.ListFilters) ([]models.ContentDocument, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE repository_type = $1`, documentColumns, r.tables.For(repositoryType))

	args := []interface{}{repositoryType}
	paramIndex := 2

	if filters.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, filters.Status)
		paramIndex++
	}
	if filters.WorkspaceID != "" {
		query += fmt.Sprintf(` AND workspace_id = $%d`, paramIndex)
		args = append(args, filters.WorkspaceID)
		paramIndex++
	}
	if filters.FolderID != "" {
		query += fmt.Sprintf(` AND metadata->>'folder_id' = $%d`, paramIndex)
		args = append(args, filters.FolderID)
		paramIndex++
	}
	if len(filters.Tags) > 0 {
		query += fmt.Sprintf(` AND tags @> $%d`, paramIndex)
		args = append(args, filters.Tags)
		paramIndex++
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		query += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, paramIndex, paramIndex)
		args = append(args, "%"+escapeLike(search)+"%")
		paramIndex++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = config.DefaultListLimit
	}
	if limit > config.MaxListLimit {
		limit = config.MaxListLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query += ` ORDER BY updated_at DESC, id`
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", repositoryType, err)
	}
	defer rows.Close()

	docs := []models.ContentDocument{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", repositoryType, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", repositoryType, err)
	}

	return docs, nil
}

// Update writes every editable field, guarded by the version in doc.
// On success doc carries the new version and updated_at.
func (r *PostgresContentRepository) Update(ctx context.Context, doc *models.ContentDocument) error {
	table := r.tables.For(doc.RepositoryType)
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, status = $3, tags = $4, content = $5, metadata = $6,
		    workspace_id = $7, updated_by = $8, version = version + 1, updated_at = NOW()
		WHERE id = $9 AND repository_type = $10 AND version = $11
		RETURNING version, updated_at
	`, table)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Title,
		doc.Description,
		doc.Status,
		tagsOrEmpty(doc.Tags),
		doc.Content,
		doc.Metadata,
		doc.WorkspaceID,
		doc.UpdatedBy,
		doc.ID,
		doc.RepositoryType,
		doc.Version,
	).Scan(&doc.Version, &doc.UpdatedAt)

	if err == nil {
		return nil
	}
	if constraint, ok := postgres.IsPgCheckViolation(err); ok {
		return domain.NewValidationError(constraint, "rejected by the database")
	}
	if !postgres.IsPgNoRowsError(err) {
		return fmt.Errorf("update %s: %w", doc.RepositoryType, err)
	}

	// nothing matched: either the row is gone or its version moved on
	current, getErr := r.GetByID(ctx, doc.RepositoryType, doc.ID)
	if getErr != nil {
		return getErr
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("%s %s is at version %d, not %d", doc.RepositoryType, doc.ID, current.Version, doc.Version),
		ResourceType: string(doc.RepositoryType),
		ResourceID:   doc.ID,
	}
}

// Delete removes a document
func (r *PostgresContentRepository) Delete(ctx context.Context, repositoryType models.RepositoryType, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND repository_type = $2
	`, r.tables.For(repositoryType))

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, repositoryType)
	if err != nil {
		return fmt.Errorf("delete %s: %w", repositoryType, err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", repositoryType, id)}
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*models.ContentDocument, error) {
	var doc models.ContentDocument
	err := row.Scan(
		&doc.ID,
		&doc.WorkspaceID,
		&doc.RepositoryType,
		&doc.Title,
		&doc.Description,
		&doc.Status,
		&doc.Tags,
		&doc.Content,
		&doc.Metadata,
		&doc.CreatedBy,
		&doc.UpdatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.Version,
	)
	if err != nil {
		return nil, err
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return &doc, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
