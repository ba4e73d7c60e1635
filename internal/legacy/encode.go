package legacy

import (
	"encoding/json"
	"fmt"

	"aigym/internal/domain/models/content"
)

// Encode writes a document in the row shape of its repository type.
// Decode(doc.RepositoryType, Encode(doc)) yields doc again.
func Encode(doc *content.ContentDocument) (json.RawMessage, error) {
	if doc == nil {
		return json.RawMessage("null"), nil
	}
	if !doc.RepositoryType.Valid() {
		return nil, fmt.Errorf("encode: unknown repository type %q", doc.RepositoryType)
	}

	if !isFlat(doc.RepositoryType) {
		body := doc.Content
		body.BlockDetails = nil
		return json.Marshal(itemRow{
			ID:             doc.ID,
			WorkspaceID:    doc.WorkspaceID,
			RepositoryType: doc.RepositoryType,
			Title:          doc.Title,
			Description:    doc.Description,
			Status:         doc.Status,
			Tags:           emptyTags(doc.Tags),
			Content:        body,
			Metadata:       doc.Metadata,
			CreatedBy:      doc.CreatedBy,
			UpdatedBy:      doc.UpdatedBy,
			CreatedAt:      doc.CreatedAt,
			UpdatedAt:      doc.UpdatedAt,
			Version:        doc.Version,
		})
	}

	out := flatRow{
		ID:                       doc.ID,
		WorkspaceID:              doc.WorkspaceID,
		RepositoryType:           doc.RepositoryType,
		Title:                    doc.Title,
		Description:              doc.Description,
		Status:                   doc.Status,
		Tags:                     emptyTags(doc.Tags),
		Pages:                    pagesOrEmpty(doc.Content.Pages),
		Settings:                 doc.Content.Settings,
		ThumbnailURL:             doc.Metadata.ThumbnailURL,
		EstimatedDurationMinutes: doc.Metadata.EstimatedDurationMinutes,
		DifficultyLevel:          doc.Metadata.DifficultyLevel,
		FolderID:                 doc.Metadata.FolderID,
		CreatedBy:                doc.CreatedBy,
		UpdatedBy:                doc.UpdatedBy,
		CreatedAt:                doc.CreatedAt,
		UpdatedAt:                doc.UpdatedAt,
		Version:                  doc.Version,
	}
	if doc.RepositoryType == content.RepositoryBlocks {
		details := content.BlockDetails{}
		if doc.Content.BlockDetails != nil {
			details = *doc.Content.BlockDetails
		}
		out.BlockDetails = &details
	}
	return json.Marshal(out)
}

// EncodeList encodes documents as a JSON array of rows
func EncodeList(docs []content.ContentDocument) (json.RawMessage, error) {
	rows := make([]json.RawMessage, 0, len(docs))
	for i := range docs {
		raw, err := Encode(&docs[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, raw)
	}
	return json.Marshal(rows)
}
