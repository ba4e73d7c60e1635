package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
)

type decoder func(r *row, t content.RepositoryType) (*content.ContentDocument, error)

// decoders holds the adapter for each repository type. Types not listed use decodeItem.
var decoders = map[content.RepositoryType]decoder{
	content.RepositoryWods:     decodeFlat,
	content.RepositoryPrograms: decodeFlat,
	content.RepositoryBlocks:   decodeBlock,
}

// Decode turns one raw row into the canonical document for repository type t.
// Rows missing an id or title, rows of another repository type and rows whose
// blocks fail payload decoding are rejected with a ValidationError.
func Decode(t content.RepositoryType, raw json.RawMessage) (*content.ContentDocument, error) {
	if !t.Valid() {
		return nil, domain.NewValidationError("repository_type", "unknown repository type %q", t)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("%s row not found", t)}
	}

	var r row
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, asValidation(err)
	}
	if r.ID == "" {
		return nil, domain.NewValidationError("id", "is required")
	}
	if r.Title == nil || *r.Title == "" {
		return nil, domain.NewValidationError("title", "is required")
	}

	decode, ok := decoders[t]
	if !ok {
		decode = decodeItem
	}
	doc, err := decode(&r, t)
	if err != nil {
		return nil, err
	}
	if err := doc.Content.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeList decodes a JSON array of rows. One bad row rejects the whole list.
func DecodeList(t content.RepositoryType, raw json.RawMessage) ([]content.ContentDocument, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []content.ContentDocument{}, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, domain.NewValidationError("data", "expected a list of rows: %v", err)
	}

	docs := make([]content.ContentDocument, 0, len(rows))
	for i, raw := range rows {
		doc, err := Decode(t, raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func decodeFlat(r *row, t content.RepositoryType) (*content.ContentDocument, error) {
	// Flat tables imply the type; a row that names another one is misrouted
	if r.RepositoryType != "" && r.RepositoryType != t {
		return nil, domain.NewValidationError("repository_type", "row is %q, expected %q", r.RepositoryType, t)
	}

	doc := header(r, t)
	if r.Content != nil {
		doc.Content = *r.Content
	} else {
		doc.Content.Pages = r.Pages
		if r.Settings != nil {
			doc.Content.Settings = *r.Settings
		}
	}

	doc.Metadata = content.Metadata{
		ThumbnailURL:             r.ThumbnailURL,
		EstimatedDurationMinutes: r.EstimatedDurationMinutes,
		DifficultyLevel:          r.DifficultyLevel,
		FolderID:                 r.FolderID,
	}
	if r.Metadata != nil {
		doc.Metadata = *r.Metadata
	}
	doc.Content.BlockDetails = nil
	return doc, nil
}

func decodeBlock(r *row, t content.RepositoryType) (*content.ContentDocument, error) {
	doc, err := decodeFlat(r, t)
	if err != nil {
		return nil, err
	}

	details := &content.BlockDetails{
		Instructions:    r.Instructions,
		EquipmentNeeded: r.EquipmentNeeded,
		BlockCategory:   r.BlockCategory,
	}
	if r.Content != nil && r.Content.BlockDetails != nil {
		details = r.Content.BlockDetails
	}
	doc.Content.BlockDetails = details
	return doc, nil
}

func decodeItem(r *row, t content.RepositoryType) (*content.ContentDocument, error) {
	// content_items is shared between types, so the column is mandatory
	if r.RepositoryType == "" {
		return nil, domain.NewValidationError("repository_type", "is required")
	}
	if !r.RepositoryType.Valid() {
		return nil, domain.NewValidationError("repository_type", "unknown repository type %q", r.RepositoryType)
	}
	if r.RepositoryType != t {
		return nil, domain.NewValidationError("repository_type", "row is %q, expected %q", r.RepositoryType, t)
	}

	doc := header(r, t)
	if r.Content != nil {
		doc.Content = *r.Content
		doc.Content.BlockDetails = nil
	}
	if r.Metadata != nil {
		doc.Metadata = *r.Metadata
	}
	return doc, nil
}

// header copies the columns shared by every row shape
func header(r *row, t content.RepositoryType) *content.ContentDocument {
	doc := &content.ContentDocument{
		ID:             r.ID,
		WorkspaceID:    r.WorkspaceID,
		RepositoryType: t,
		Title:          *r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Tags:           r.Tags,
		CreatedBy:      r.CreatedBy,
		UpdatedBy:      r.UpdatedBy,
		Version:        1,
	}
	if doc.Status == "" {
		doc.Status = content.StatusDraft
	}
	if r.Version != nil {
		doc.Version = *r.Version
	}
	if r.CreatedAt != nil {
		doc.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		doc.UpdatedAt = *r.UpdatedAt
	}
	return doc
}

// asValidation keeps block decoding errors as they are and wraps JSON shape errors
func asValidation(err error) error {
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return domain.NewValidationError("data", "malformed row: %v", err)
}
