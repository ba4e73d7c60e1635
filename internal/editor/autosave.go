package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"aigym/internal/config"
	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
)

// ContentAPI is the part of the content client the editor uses
type ContentAPI interface {
	GetByID(ctx context.Context, id string, repositoryType content.RepositoryType) (*content.ContentDocument, error)
	Create(ctx context.Context, doc *content.ContentDocument) (*content.ContentDocument, error)
	Update(ctx context.Context, id string, repositoryType content.RepositoryType, fields content.UpdateFields) (*content.ContentDocument, error)
	AutoSave(ctx context.Context, contentID, sessionID string, data content.SnapshotData, meta content.SnapshotMetadata) error
}

// AutoSaveStatus describes the background auto-save activity
type AutoSaveStatus struct {
	IsAutoSaving bool
	LastAttempt  time.Time
	LastSuccess  time.Time
	LastError    error
	Saves        int
	Failures     int
}

// AutoSaver turns the store's dirty flag into periodic snapshot saves and
// performs the authoritative manual save.
type AutoSaver struct {
	store    *Store
	api      ContentAPI
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	ticking atomic.Bool
	saveMu  sync.Mutex // one manual save at a time

	statusMu sync.Mutex
	status   AutoSaveStatus

	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}
}

// NewAutoSaver creates a stopped auto-saver. interval <= 0 uses the default.
func NewAutoSaver(store *Store, api ContentAPI, logger *slog.Logger, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = config.DefaultAutoSaveInterval
	}
	return &AutoSaver{
		store:    store,
		api:      api,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the tick loop in the background. Calling Start twice is a no-op.
func (a *AutoSaver) Start() {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.stop != nil {
		return
	}
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.loop(a.stop, a.done)
}

// Stop halts the loop and waits for a running tick to finish.
// Unsaved edits stay in the store.
func (a *AutoSaver) Stop() {
	a.runMu.Lock()
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	a.runMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the loop is active
func (a *AutoSaver) Running() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.stop != nil
}

func (a *AutoSaver) loop(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ticker.C:
			// failures are recorded in Status; auto-save never surfaces them
			_ = a.Tick(ctx)
		case <-stop:
			return
		}
	}
}

// Tick saves a snapshot when the document is dirty. Clean documents,
// placeholder documents and overlapping ticks make no call. A tick never
// clears the dirty flag.
func (a *AutoSaver) Tick(ctx context.Context) error {
	draft, ok := a.store.Draft()
	if !ok || !draft.Dirty {
		return nil
	}
	doc := draft.Document
	if doc.IsPlaceholder() {
		a.logger.Debug("skipping auto-save of unsaved document", "id", doc.ID)
		return nil
	}
	if !a.ticking.CompareAndSwap(false, true) {
		a.logger.Debug("auto-save already running, skipping tick", "id", doc.ID)
		return nil
	}
	defer a.ticking.Store(false)

	started := a.now()
	a.statusMu.Lock()
	a.status.IsAutoSaving = true
	a.status.LastAttempt = started
	a.statusMu.Unlock()

	err := a.api.AutoSave(ctx, doc.ID, draft.SessionID,
		content.SnapshotData{Pages: doc.Content.Pages, Settings: doc.Content.Settings},
		content.SnapshotMetadata{Timestamp: started.UTC(), Version: doc.Version, UserID: doc.UpdatedBy},
	)

	a.statusMu.Lock()
	a.status.IsAutoSaving = false
	if err != nil {
		a.status.LastError = err
		a.status.Failures++
	} else {
		a.status.LastError = nil
		a.status.LastSuccess = a.now()
		a.status.Saves++
	}
	a.statusMu.Unlock()

	if err != nil {
		a.logger.Warn("auto-save failed", "id", doc.ID, "session_id", draft.SessionID, "error", err)
		return err
	}
	a.logger.Debug("auto-saved", "id", doc.ID, "session_id", draft.SessionID, "revision", draft.Revision)
	return nil
}

// Status returns the auto-save activity so far
func (a *AutoSaver) Status() AutoSaveStatus {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	return a.status
}

// ManualSave performs the authoritative save whatever the dirty flag says.
// Placeholder documents are created, others updated. On success the returned
// canonical fields are merged and dirty is cleared unless edits arrived in
// the meantime; on failure the error message is set and edits are kept.
// A save that completes after its document was closed or replaced changes
// nothing locally and returns ErrSuperseded.
func (a *AutoSaver) ManualSave(ctx context.Context) (*content.ContentDocument, error) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	draft, ok := a.store.Draft()
	if !ok {
		return nil, domain.NewValidationError("document", "nothing is loaded")
	}
	doc := draft.Document

	var saved *content.ContentDocument
	var err error
	if doc.IsPlaceholder() {
		saved, err = a.api.Create(ctx, doc)
	} else {
		saved, err = a.api.Update(ctx, doc.ID, doc.RepositoryType, updateFieldsOf(doc))
	}
	if err != nil {
		a.logger.Error("save failed", "id", doc.ID, "repository_type", doc.RepositoryType, "error", err)
		if a.store.Loaded(draft) {
			a.store.SetError(saveErrorMessage(err))
		}
		return nil, err
	}

	if !a.store.Loaded(draft) {
		// the editor moved on to another document while the save was in flight
		a.logger.Info("save finished after the document was closed",
			"id", saved.ID,
			"repository_type", saved.RepositoryType,
			"version", saved.Version,
		)
		return nil, ErrSuperseded
	}
	clean := a.store.CommitSave(draft, saved)
	a.store.SetSuccessMessage("Content saved successfully")
	a.logger.Info("content saved",
		"id", saved.ID,
		"repository_type", saved.RepositoryType,
		"version", saved.Version,
		"clean", clean,
	)
	return saved, nil
}

// updateFieldsOf sends every editable field, which makes the update a full overwrite
func updateFieldsOf(doc *content.ContentDocument) content.UpdateFields {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	body := doc.Content
	fields := content.UpdateFields{
		Title:       &doc.Title,
		Description: &doc.Description,
		Content:     &body,
		Metadata:    &doc.Metadata,
		Tags:        tags,
	}
	if doc.Status != "" {
		fields.Status = &doc.Status
	}
	return fields
}

func saveErrorMessage(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Cannot save: " + verr.Error()
	case errors.Is(err, domain.ErrConflict):
		return "Someone else changed this content. Reload to see their version."
	case errors.Is(err, domain.ErrTimeout):
		return "Saving timed out. Your changes are kept, try again."
	default:
		return "Failed to save content: " + err.Error()
	}
}
