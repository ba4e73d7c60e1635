package content

import (
	"errors"
	"fmt"

	"aigym/internal/config"
	"aigym/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks a canonical document. Server-assigned fields (id, version,
// timestamps) are not required so the same rules serve create requests.
func (d *ContentDocument) Validate() error {
	err := validation.ValidateStruct(d,
		validation.Field(&d.RepositoryType, validation.Required, validation.By(func(interface{}) error {
			if !d.RepositoryType.Valid() {
				return fmt.Errorf("unknown repository type %q", d.RepositoryType)
			}
			return nil
		})),
		validation.Field(&d.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&d.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&d.Status, validation.In(StatusDraft, StatusPublished, StatusArchived)),
		validation.Field(&d.Tags, validation.Length(0, config.MaxTags)),
		validation.Field(&d.Version, validation.Min(0)),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return d.Content.Validate()
}

// Validate checks page and block structure
func (b *Body) Validate() error {
	if len(b.Pages) > config.MaxPages {
		return domain.NewValidationError("content.pages", "at most %d pages allowed", config.MaxPages)
	}
	if b.Settings.Difficulty < 0 || b.Settings.Difficulty > 5 {
		return domain.NewValidationError("content.settings.difficulty", "must be between 1 and 5")
	}

	pageIDs := make(map[string]bool, len(b.Pages))
	for i := range b.Pages {
		page := &b.Pages[i]
		if page.ID == "" {
			return domain.NewValidationError(fmt.Sprintf("content.pages[%d].id", i), "is required")
		}
		if pageIDs[page.ID] {
			return domain.NewValidationError(fmt.Sprintf("content.pages[%d].id", i), "duplicate page id %q", page.ID)
		}
		pageIDs[page.ID] = true

		if len(page.Blocks) > config.MaxBlocksPerPage {
			return domain.NewValidationError(fmt.Sprintf("content.pages[%d].blocks", i), "at most %d blocks allowed", config.MaxBlocksPerPage)
		}
		blockIDs := make(map[string]bool, len(page.Blocks))
		for j := range page.Blocks {
			block := &page.Blocks[j]
			field := fmt.Sprintf("content.pages[%d].blocks[%d]", i, j)
			if block.ID == "" {
				return domain.NewValidationError(field+".id", "is required")
			}
			if blockIDs[block.ID] {
				return domain.NewValidationError(field+".id", "duplicate block id %q", block.ID)
			}
			blockIDs[block.ID] = true
			if !block.Type.Valid() {
				return domain.NewValidationError(field+".type", "unknown block type %q", block.Type)
			}
			if block.PageID != "" && block.PageID != page.ID {
				return domain.NewValidationError(field+".pageId", "block belongs to page %q", block.PageID)
			}
			if block.Data != nil {
				if block.Data.Kind() != block.Type {
					return domain.NewValidationError(field+".data", "payload kind %q does not match block type", block.Data.Kind())
				}
				if err := block.Data.Validate(); err != nil {
					var verr *domain.ValidationError
					if errors.As(err, &verr) {
						return err
					}
					return domain.NewValidationError(field+".data", "%v", err)
				}
			}
		}
	}
	return nil
}
