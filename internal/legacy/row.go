// Package legacy converts between the per-repository row shapes returned by the
// content functions and the canonical ContentDocument.
//
// wods, blocks and programs rows are flat: pages, settings and the listing
// attributes sit at the top level next to the title. Every other repository
// type is stored in the shared content_items table, whose rows already carry
// nested content and metadata objects plus a repository_type column.
package legacy

import (
	"time"

	"aigym/internal/domain/models/content"
)

// row is the union of every column any repository row may carry
type row struct {
	ID             string                 `json:"id"`
	WorkspaceID    string                 `json:"workspace_id,omitempty"`
	RepositoryType content.RepositoryType `json:"repository_type,omitempty"`
	Title          *string                `json:"title"`
	Description    string                 `json:"description"`
	Status         content.Status         `json:"status,omitempty"`
	Tags           []string               `json:"tags"`
	CreatedBy      string                 `json:"created_by,omitempty"`
	UpdatedBy      string                 `json:"updated_by,omitempty"`
	CreatedAt      *time.Time             `json:"created_at,omitempty"`
	UpdatedAt      *time.Time             `json:"updated_at,omitempty"`
	Version        *int                   `json:"version,omitempty"`

	// nested shape (content_items)
	Content  *content.Body     `json:"content,omitempty"`
	Metadata *content.Metadata `json:"metadata,omitempty"`

	// flat shape (wods, blocks, programs)
	Pages                    []content.Page    `json:"pages,omitempty"`
	Settings                 *content.Settings `json:"settings,omitempty"`
	ThumbnailURL             string            `json:"thumbnail_url,omitempty"`
	EstimatedDurationMinutes int               `json:"estimated_duration_minutes,omitempty"`
	DifficultyLevel          string            `json:"difficulty_level,omitempty"`
	FolderID                 string            `json:"folder_id,omitempty"`

	// workout block columns
	Instructions    string   `json:"instructions,omitempty"`
	EquipmentNeeded []string `json:"equipment_needed,omitempty"`
	BlockCategory   string   `json:"block_category,omitempty"`
}

// flatRow is what the wods, workout-blocks and programs functions return
type flatRow struct {
	ID                       string                 `json:"id"`
	WorkspaceID              string                 `json:"workspace_id,omitempty"`
	RepositoryType           content.RepositoryType `json:"repository_type"`
	Title                    string                 `json:"title"`
	Description              string                 `json:"description"`
	Status                   content.Status         `json:"status"`
	Tags                     []string               `json:"tags"`
	Pages                    []content.Page         `json:"pages"`
	Settings                 content.Settings       `json:"settings"`
	ThumbnailURL             string                 `json:"thumbnail_url"`
	EstimatedDurationMinutes int                    `json:"estimated_duration_minutes"`
	DifficultyLevel          string                 `json:"difficulty_level"`
	FolderID                 string                 `json:"folder_id,omitempty"`
	CreatedBy                string                 `json:"created_by,omitempty"`
	UpdatedBy                string                 `json:"updated_by,omitempty"`
	CreatedAt                time.Time              `json:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at"`
	Version                  int                    `json:"version"`

	*content.BlockDetails
}

// itemRow is what content-management-api returns for every other repository type
type itemRow struct {
	ID             string                 `json:"id"`
	WorkspaceID    string                 `json:"workspace_id,omitempty"`
	RepositoryType content.RepositoryType `json:"repository_type"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Status         content.Status         `json:"status"`
	Tags           []string               `json:"tags"`
	Content        content.Body           `json:"content"`
	Metadata       content.Metadata       `json:"metadata"`
	CreatedBy      string                 `json:"created_by,omitempty"`
	UpdatedBy      string                 `json:"updated_by,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

// isFlat reports whether rows of t use the flat legacy layout
func isFlat(t content.RepositoryType) bool {
	switch t {
	case content.RepositoryWods, content.RepositoryBlocks, content.RepositoryPrograms:
		return true
	}
	return false
}

func emptyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func pagesOrEmpty(pages []content.Page) []content.Page {
	if pages == nil {
		return []content.Page{}
	}
	return pages
}
