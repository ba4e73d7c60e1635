package services

import (
	"context"

	"aigym/internal/domain/models/content"
)

// ContentService handles content document business logic behind the content functions
type ContentService interface {
	// Get retrieves one document
	Get(ctx context.Context, repositoryType content.RepositoryType, id string) (*content.ContentDocument, error)

	// List returns documents matching the filters
	List(ctx context.Context, repositoryType content.RepositoryType, filters content.ListFilters) ([]content.ContentDocument, error)

	// Create stores a new document at version 1
	Create(ctx context.Context, req *CreateContentRequest) (*content.ContentDocument, error)

	// Update applies a partial update and increments the version
	Update(ctx context.Context, req *UpdateContentRequest) (*content.ContentDocument, error)

	// Delete removes a document
	Delete(ctx context.Context, repositoryType content.RepositoryType, id string) error

	// AutoSave stores a snapshot of an editing session without touching the document
	AutoSave(ctx context.Context, req *AutoSaveRequest) (*content.Snapshot, error)

	// ListSnapshots returns a document's snapshots newest first
	ListSnapshots(ctx context.Context, contentID, sessionID string) ([]content.Snapshot, error)
}

// CreateContentRequest is a create call made by UserID
type CreateContentRequest struct {
	Document *content.ContentDocument
	UserID   string
}

// UpdateContentRequest is a partial update. A nil ExpectedVersion means last writer wins.
type UpdateContentRequest struct {
	RepositoryType  content.RepositoryType
	ID              string
	Fields          content.UpdateFields
	ExpectedVersion *int
	UserID          string
}

// AutoSaveRequest carries one auto-save snapshot
type AutoSaveRequest struct {
	ContentID string
	SessionID string
	Data      content.SnapshotData
	Metadata  content.SnapshotMetadata
	UserID    string
}
