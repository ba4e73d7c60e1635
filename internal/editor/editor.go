package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"aigym/internal/catalog"
	"aigym/internal/domain"
	"aigym/internal/domain/models/content"

	"github.com/google/uuid"
)

// LoadState is where the editor is in its lifecycle
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Ready
	LoadError
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case LoadError:
		return "load_error"
	default:
		return "unknown"
	}
}

var (
	// ErrNotReady is returned by operations that need a loaded document
	ErrNotReady = errors.New("editor has no loaded document")
	// ErrNothingToRetry is returned by Retry when the last open did not fail
	ErrNothingToRetry = errors.New("no failed load to retry")
	// ErrSuperseded is returned by Open and Save when Close or another Open
	// replaced the document before the call finished
	ErrSuperseded = errors.New("superseded by another document")
)

// OpenOptions selects the document to edit. Without an ID a new placeholder
// document of RepositoryType is created in memory.
type OpenOptions struct {
	ID             string
	RepositoryType content.RepositoryType
	Title          string
	WorkspaceID    string
}

// Editor is the content editor shell: it loads or synthesizes the document,
// runs the auto-saver while the document is open and resets everything on close.
type Editor struct {
	store   *Store
	saver   *AutoSaver
	api     ContentAPI
	catalog *catalog.Registry
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	state    LoadState
	loadErr  error
	lastOpen OpenOptions
	gen      uint64
}

// NewEditor wires a store, the content API and the block catalog.
// autoSaveInterval <= 0 uses the default interval.
func NewEditor(store *Store, api ContentAPI, blocks *catalog.Registry, logger *slog.Logger, autoSaveInterval time.Duration) *Editor {
	return &Editor{
		store:   store,
		saver:   NewAutoSaver(store, api, logger, autoSaveInterval),
		api:     api,
		catalog: blocks,
		logger:  logger,
		now:     time.Now,
	}
}

// Store returns the editor's state store
func (e *Editor) Store() *Store { return e.store }

// AutoSaver returns the editor's auto-saver
func (e *Editor) AutoSaver() *AutoSaver { return e.saver }

// State returns the lifecycle state
func (e *Editor) State() LoadState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LoadErr returns the error of the last failed load
func (e *Editor) LoadErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// Open loads a document, or creates a placeholder when opts has no ID, and
// starts auto-saving it. A failed fetch leaves the editor in LoadError with
// nothing loaded.
func (e *Editor) Open(ctx context.Context, opts OpenOptions) error {
	if !opts.RepositoryType.Valid() {
		return domain.NewValidationError("repository_type", "unknown repository type %q", opts.RepositoryType)
	}

	e.saver.Stop()

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.state = Loading
	e.loadErr = nil
	e.lastOpen = opts
	e.mu.Unlock()

	// the previous document goes away now, so a failed load never leaves it editable
	e.store.ResetEditor()
	e.store.SetLoading(true)
	e.store.GenerateSessionID()

	var doc *content.ContentDocument
	var err error
	if opts.ID == "" {
		doc = e.placeholder(opts)
	} else {
		doc, err = e.api.GetByID(ctx, opts.ID, opts.RepositoryType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		// closed or reopened while fetching; the result belongs to nobody
		e.logger.Debug("discarding superseded load", "id", opts.ID)
		return ErrSuperseded
	}

	e.store.SetLoading(false)
	if err != nil {
		e.state = LoadError
		e.loadErr = err
		e.store.SetError(loadErrorMessage(err))
		e.logger.Warn("failed to load content", "id", opts.ID, "repository_type", opts.RepositoryType, "error", err)
		return err
	}

	e.store.SetCurrentContent(doc)
	e.state = Ready
	e.saver.Start()
	e.logger.Info("content opened",
		"id", doc.ID,
		"repository_type", doc.RepositoryType,
		"version", doc.Version,
		"session_id", e.store.SessionID(),
	)
	return nil
}

// Retry repeats the last open after a failed load
func (e *Editor) Retry(ctx context.Context) error {
	e.mu.Lock()
	state, opts := e.state, e.lastOpen
	e.mu.Unlock()

	if state != LoadError {
		return ErrNothingToRetry
	}
	e.store.ClearMessages()
	return e.Open(ctx, opts)
}

// Save is the user's explicit save
func (e *Editor) Save(ctx context.Context) (*content.ContentDocument, error) {
	if e.State() != Ready {
		return nil, ErrNotReady
	}
	return e.saver.ManualSave(ctx)
}

// Close stops auto-saving and resets the store. Requests still in flight
// complete but their results are discarded.
func (e *Editor) Close() {
	e.mu.Lock()
	e.gen++
	e.state = Idle
	e.loadErr = nil
	e.mu.Unlock()

	e.saver.Stop()
	e.store.ResetEditor()
}

// AddBlockOfKind appends a block with the catalog defaults for kind to a page
func (e *Editor) AddBlockOfKind(pageID string, kind content.BlockType) (content.Block, error) {
	if e.State() != Ready {
		return content.Block{}, ErrNotReady
	}
	block, err := e.catalog.NewBlock(kind, pageID)
	if err != nil {
		return content.Block{}, domain.NewValidationError("type", "%v", err)
	}
	if !e.store.AddBlock(pageID, block) {
		return content.Block{}, &domain.NotFoundError{Message: fmt.Sprintf("page %q not found", pageID)}
	}
	return block, nil
}

// placeholder builds the in-memory document for a new item
func (e *Editor) placeholder(opts OpenOptions) *content.ContentDocument {
	title := opts.Title
	if title == "" {
		title = "Untitled " + string(opts.RepositoryType)
	}
	now := e.now().UTC()
	return &content.ContentDocument{
		ID:             content.TempIDPrefix + strconv.FormatInt(now.UnixMilli(), 10),
		WorkspaceID:    opts.WorkspaceID,
		RepositoryType: opts.RepositoryType,
		Title:          title,
		Status:         content.StatusDraft,
		Content: content.Body{
			Pages: []content.Page{{
				ID:     "page-" + uuid.NewString(),
				Title:  "Page 1",
				Blocks: []content.Block{},
			}},
			Settings: content.Settings{AutoSaveEnabled: true},
		},
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func loadErrorMessage(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "Content not found"
	}
	return "Failed to load content: " + err.Error()
}
