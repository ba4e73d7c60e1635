package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aigym/internal/config"
	"aigym/internal/domain"
	models "aigym/internal/domain/models/content"
	"aigym/internal/domain/repositories"
	"aigym/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Row defaults the flat tables have always applied on insert
const (
	defaultDurationMinutes = 30
	defaultDifficultyLevel = "beginner"
	defaultBlockCategory   = "general"
)

// contentService implements the ContentService interface
type contentService struct {
	docRepo      repositories.ContentRepository
	snapshotRepo repositories.SnapshotRepository
	txManager    repositories.TransactionManager
	logger       *slog.Logger
	now          func() time.Time
}

// NewContentService creates a new content service
func NewContentService(
	docRepo repositories.ContentRepository,
	snapshotRepo repositories.SnapshotRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.ContentService {
	return &contentService{
		docRepo:      docRepo,
		snapshotRepo: snapshotRepo,
		txManager:    txManager,
		logger:       logger,
		now:          time.Now,
	}
}

// Get retrieves one document
func (s *contentService) Get(ctx context.Context, repositoryType models.RepositoryType, id string) (*models.ContentDocument, error) {
	if err := validateKey(repositoryType, id); err != nil {
		return nil, err
	}
	return s.docRepo.GetByID(ctx, repositoryType, id)
}

// List returns documents matching the filters
func (s *contentService) List(ctx context.Context, repositoryType models.RepositoryType, filters models.ListFilters) ([]models.ContentDocument, error) {
	if !repositoryType.Valid() {
		return nil, domain.NewValidationError("repository_type", "unknown repository type %q", repositoryType)
	}
	err := validation.ValidateStruct(&filters,
		validation.Field(&filters.Status, validation.In(models.StatusDraft, models.StatusPublished, models.StatusArchived)),
		validation.Field(&filters.Limit, validation.Min(0)),
		validation.Field(&filters.Offset, validation.Min(0)),
	)
	if err != nil {
		return nil, &domain.ValidationError{Field: "filters", Message: err.Error()}
	}
	return s.docRepo.List(ctx, repositoryType, filters)
}

// Create stores a new document. The server owns id, version and timestamps.
func (s *contentService) Create(ctx context.Context, req *services.CreateContentRequest) (*models.ContentDocument, error) {
	if req.Document == nil {
		return nil, domain.NewValidationError("document", "is required")
	}

	doc := req.Document.Clone()
	if doc.IsPlaceholder() {
		doc.ID = ""
	}
	if doc.Status == "" {
		doc.Status = models.StatusDraft
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	applyRowDefaults(doc)
	doc.CreatedBy = req.UserID
	doc.UpdatedBy = req.UserID
	doc.Version = 0

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("content created",
		"id", doc.ID,
		"repository_type", doc.RepositoryType,
		"user_id", req.UserID,
	)

	return doc, nil
}

// Update applies a partial update under a row lock. With an expected version
// a stale caller gets a ConflictError; without one the last writer wins.
func (s *contentService) Update(ctx context.Context, req *services.UpdateContentRequest) (*models.ContentDocument, error) {
	if err := validateKey(req.RepositoryType, req.ID); err != nil {
		return nil, err
	}
	if req.Fields.IsEmpty() {
		return nil, domain.NewValidationError("updates", "at least one field is required")
	}

	var updated *models.ContentDocument
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		doc, err := s.docRepo.GetForUpdate(txCtx, req.RepositoryType, req.ID)
		if err != nil {
			return err
		}

		if req.ExpectedVersion != nil && *req.ExpectedVersion != doc.Version {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("%s %s is at version %d, not %d", req.RepositoryType, req.ID, doc.Version, *req.ExpectedVersion),
				ResourceType: string(req.RepositoryType),
				ResourceID:   req.ID,
			}
		}

		req.Fields.Apply(doc)
		doc.UpdatedBy = req.UserID
		if err := doc.Validate(); err != nil {
			return err
		}

		if err := s.docRepo.Update(txCtx, doc); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("content updated",
		"id", updated.ID,
		"repository_type", updated.RepositoryType,
		"version", updated.Version,
		"user_id", req.UserID,
	)

	return updated, nil
}

// Delete removes a document
func (s *contentService) Delete(ctx context.Context, repositoryType models.RepositoryType, id string) error {
	if err := validateKey(repositoryType, id); err != nil {
		return err
	}
	if err := s.docRepo.Delete(ctx, repositoryType, id); err != nil {
		return err
	}

	s.logger.Info("content deleted",
		"id", id,
		"repository_type", repositoryType,
	)

	return nil
}

// AutoSave appends a snapshot and prunes the session to its newest entries
func (s *contentService) AutoSave(ctx context.Context, req *services.AutoSaveRequest) (*models.Snapshot, error) {
	if req.ContentID == "" || strings.HasPrefix(req.ContentID, models.TempIDPrefix) {
		return nil, domain.NewValidationError("content_id", "a saved document is required")
	}
	if req.SessionID == "" {
		return nil, domain.NewValidationError("session_id", "is required")
	}
	body := models.Body{Pages: req.Data.Pages, Settings: req.Data.Settings}
	if err := body.Validate(); err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		ContentID: req.ContentID,
		SessionID: req.SessionID,
		Data:      req.Data,
		Metadata:  req.Metadata,
	}
	if snapshot.Data.Pages == nil {
		snapshot.Data.Pages = []models.Page{}
	}
	if snapshot.Metadata.Timestamp.IsZero() {
		snapshot.Metadata.Timestamp = s.now().UTC()
	}
	if snapshot.Metadata.UserID == "" {
		snapshot.Metadata.UserID = req.UserID
	}

	var pruned int64
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.snapshotRepo.Append(txCtx, snapshot); err != nil {
			return err
		}
		n, err := s.snapshotRepo.Prune(txCtx, req.ContentID, req.SessionID, config.MaxSnapshotsPerSession)
		if err != nil {
			return err
		}
		pruned = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("auto-save stored",
		"content_id", req.ContentID,
		"session_id", req.SessionID,
		"snapshot_id", snapshot.ID,
		"pruned", pruned,
	)

	return snapshot, nil
}

// ListSnapshots returns snapshots newest first
func (s *contentService) ListSnapshots(ctx context.Context, contentID, sessionID string) ([]models.Snapshot, error) {
	if contentID == "" {
		return nil, domain.NewValidationError("content_id", "is required")
	}
	return s.snapshotRepo.List(ctx, contentID, sessionID)
}

func validateKey(repositoryType models.RepositoryType, id string) error {
	if !repositoryType.Valid() {
		return domain.NewValidationError("repository_type", "unknown repository type %q", repositoryType)
	}
	if id == "" {
		return domain.NewValidationError("id", "is required")
	}
	return nil
}

// applyRowDefaults fills the column defaults of the wods, workout_blocks and programs tables
func applyRowDefaults(doc *models.ContentDocument) {
	switch doc.RepositoryType {
	case models.RepositoryWods, models.RepositoryBlocks, models.RepositoryPrograms:
	default:
		return
	}
	if doc.Metadata.EstimatedDurationMinutes == 0 {
		doc.Metadata.EstimatedDurationMinutes = defaultDurationMinutes
	}
	if doc.Metadata.DifficultyLevel == "" {
		doc.Metadata.DifficultyLevel = defaultDifficultyLevel
	}
	if doc.RepositoryType == models.RepositoryBlocks {
		if doc.Content.BlockDetails == nil {
			doc.Content.BlockDetails = &models.BlockDetails{}
		}
		if doc.Content.BlockDetails.BlockCategory == "" {
			doc.Content.BlockDetails.BlockCategory = defaultBlockCategory
		}
	}
}
