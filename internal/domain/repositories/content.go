package repositories

import (
	"context"

	"aigym/internal/domain/models/content"
)

// ContentRepository defines data access for content documents. The
// repository type selects the backing table.
type ContentRepository interface {
	// Create inserts doc and fills in the server-assigned id, version and timestamps
	Create(ctx context.Context, doc *content.ContentDocument) error

	// GetByID retrieves a document
	GetByID(ctx context.Context, repositoryType content.RepositoryType, id string) (*content.ContentDocument, error)

	// GetForUpdate retrieves a document and locks its row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, repositoryType content.RepositoryType, id string) (*content.ContentDocument, error)

	// List returns documents matching the filters, most recently updated first
	List(ctx context.Context, repositoryType content.RepositoryType, filters content.ListFilters) ([]content.ContentDocument, error)

	// Update overwrites the editable fields of doc when the stored version still
	// equals doc.Version, then increments the version and refreshes doc
	Update(ctx context.Context, doc *content.ContentDocument) error

	// Delete removes a document
	Delete(ctx context.Context, repositoryType content.RepositoryType, id string) error
}

// SnapshotRepository defines data access for auto-save snapshots
type SnapshotRepository interface {
	// Append stores a snapshot and fills in its id and created_at
	Append(ctx context.Context, snapshot *content.Snapshot) error

	// Prune keeps the newest keep snapshots of a session and returns how many were removed
	Prune(ctx context.Context, contentID, sessionID string, keep int) (int64, error)

	// List returns snapshots newest first. An empty sessionID lists every session.
	List(ctx context.Context, contentID, sessionID string) ([]content.Snapshot, error)
}
