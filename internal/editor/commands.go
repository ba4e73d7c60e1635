package editor

import (
	"context"
	"strings"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
)

// Exec applies one line-oriented edit to the open document:
//
//	title <text>
//	description <text>
//	block <kind>     appends a block to the first page, adding a page if there is none
//	save
//
// Edits only mark the store dirty; auto-save and the explicit save do the rest.
func (e *Editor) Exec(ctx context.Context, line string) error {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	if verb == "" {
		return nil
	}
	if e.State() != Ready {
		return ErrNotReady
	}

	switch verb {
	case "title":
		if arg == "" {
			return domain.NewValidationError("title", "is required")
		}
		e.store.UpdateContent(content.UpdateFields{Title: &arg})
	case "description":
		e.store.UpdateContent(content.UpdateFields{Description: &arg})
	case "block":
		page := e.firstPage()
		if page == "" {
			added, ok := e.store.AddPage("Page 1")
			if !ok {
				return ErrNotReady
			}
			page = added
		}
		b, err := e.AddBlockOfKind(page, content.BlockType(arg))
		if err != nil {
			return err
		}
		e.logger.Info("block added", "block_id", b.ID, "type", b.Type, "page_id", page)
	case "save":
		_, err := e.Save(ctx)
		return err
	default:
		return domain.NewValidationError("command", "unknown command %q", verb)
	}
	return nil
}

func (e *Editor) firstPage() string {
	state := e.store.State()
	if state.PageData == nil || len(state.PageData.Pages) == 0 {
		return ""
	}
	return state.PageData.Pages[0].ID
}
