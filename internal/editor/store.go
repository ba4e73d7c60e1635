// Package editor holds the in-progress editing session: the state store, the
// auto-save loop and the shell that loads and saves documents.
package editor

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"aigym/internal/config"
	"aigym/internal/domain/models/content"

	"github.com/google/uuid"
)

// PageData is the editable projection of the current document
type PageData struct {
	ID               string
	Title            string
	Description      string
	Status           content.Status
	TargetRepository content.RepositoryType
	Pages            []content.Page
	Settings         content.Settings
}

func (p *PageData) clone() *PageData {
	if p == nil {
		return nil
	}
	out := *p
	out.Pages = content.ClonePages(p.Pages)
	out.Settings = p.Settings.Clone()
	return &out
}

func (p *PageData) page(pageID string) *content.Page {
	for i := range p.Pages {
		if p.Pages[i].ID == pageID {
			return &p.Pages[i]
		}
	}
	return nil
}

// RepositoryPopup is the content picker opened from a reference block
type RepositoryPopup struct {
	RepositoryType content.RepositoryType
	BlockID        string
}

// State is a copy of everything the store holds
type State struct {
	CurrentContent *content.ContentDocument
	PageData       *PageData
	SelectedBlock  *content.Block
	IsDirty        bool
	IsEditing      bool
	SessionID      string
	LastSaved      time.Time

	ActiveLeftMenu  string
	ShowRightPanel  bool
	RepositoryPopup *RepositoryPopup
	ShowPreview     bool
	Error           string
	SuccessMessage  string
	Loading         bool

	// Revision increases on every edit
	Revision uint64
}

// Store owns one editing session. All methods are safe for concurrent use;
// readers get deep copies.
type Store struct {
	mu     sync.Mutex
	state  State
	logger *slog.Logger

	messageTTL time.Duration
	now        func() time.Time

	errorGen     uint64
	successGen   uint64
	errorTimer   *time.Timer
	successTimer *time.Timer

	// loadGen changes whenever a document is loaded or dropped, so results
	// of saves started against an earlier document can be recognized
	loadGen uint64
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithMessageTTL sets how long error and success messages stay visible
func WithMessageTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.messageTTL = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store with a fresh session id
func NewStore(logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		logger:     logger,
		messageTTL: config.DefaultMessageTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.SessionID = uuid.NewString()
	return s
}

// State returns a deep copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	out := s.state
	out.CurrentContent = s.state.CurrentContent.Clone()
	out.PageData = s.state.PageData.clone()
	if s.state.SelectedBlock != nil {
		block := s.state.SelectedBlock.Clone()
		out.SelectedBlock = &block
	}
	if s.state.RepositoryPopup != nil {
		popup := *s.state.RepositoryPopup
		out.RepositoryPopup = &popup
	}
	return out
}

// IsDirty reports whether there are unsaved edits
func (s *Store) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsDirty
}

// Revision returns the edit counter
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Revision
}

// SessionID returns the id scoping this session's auto-save snapshots
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// GenerateSessionID starts a new snapshot scope and returns its id
func (s *Store) GenerateSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SessionID = uuid.NewString()
	return s.state.SessionID
}

// SetCurrentContent loads a document for editing. The store starts clean.
// A nil document behaves like ResetEditor without touching UI flags.
func (s *Store) SetCurrentContent(doc *content.ContentDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Revision++
	s.loadGen++
	s.state.SelectedBlock = nil
	s.state.ShowRightPanel = false
	s.state.IsDirty = false

	if doc == nil {
		s.state.CurrentContent = nil
		s.state.PageData = nil
		s.state.IsEditing = false
		return
	}

	s.state.CurrentContent = doc.Clone()
	s.state.PageData = derivePageData(s.state.CurrentContent)
	s.state.IsEditing = true
}

// UpdateContent merges fields into the current document and marks it dirty
func (s *Store) UpdateContent(fields content.UpdateFields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentContent == nil {
		return false
	}
	fields.Apply(s.state.CurrentContent)
	s.state.PageData = derivePageData(s.state.CurrentContent)
	s.refreshSelectionLocked()
	s.touchLocked()
	return true
}

// SetPageData replaces the editable projection and marks the document dirty
func (s *Store) SetPageData(data PageData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentContent == nil {
		return false
	}
	s.state.PageData = data.clone()
	s.refreshSelectionLocked()
	s.syncContentLocked()
	s.touchLocked()
	return true
}

// AddPage appends an empty page and returns its id
func (s *Store) AddPage(title string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.PageData == nil {
		return "", false
	}
	id := "page-" + uuid.NewString()
	s.state.PageData.Pages = append(s.state.PageData.Pages, content.Page{
		ID:     id,
		Title:  title,
		Blocks: []content.Block{},
		Order:  len(s.state.PageData.Pages),
	})
	s.syncContentLocked()
	s.touchLocked()
	return id, true
}

// RemovePage deletes a page and re-densifies page order
func (s *Store) RemovePage(pageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.PageData == nil || s.state.PageData.page(pageID) == nil {
		return false
	}
	s.state.PageData.Pages = slices.DeleteFunc(s.state.PageData.Pages, func(p content.Page) bool {
		return p.ID == pageID
	})
	for i := range s.state.PageData.Pages {
		s.state.PageData.Pages[i].Order = i
	}
	if s.state.SelectedBlock != nil && s.state.SelectedBlock.PageID == pageID {
		s.clearSelectionLocked()
	}
	s.syncContentLocked()
	s.touchLocked()
	return true
}

// AddBlock appends block to a page with order equal to its position.
// Unknown pages, unknown kinds and duplicate ids leave the store untouched.
func (s *Store) AddBlock(pageID string, block content.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.pageLocked(pageID)
	if page == nil || block.ID == "" || !block.Type.Valid() {
		return false
	}
	if slices.ContainsFunc(page.Blocks, func(b content.Block) bool { return b.ID == block.ID }) {
		return false
	}
	if block.Data != nil && block.Data.Kind() != block.Type {
		return false
	}

	added := block.Clone()
	if added.Data == nil {
		added.Data, _ = content.NewBlockData(added.Type)
	}
	added.PageID = pageID
	added.Order = len(page.Blocks)
	page.Blocks = append(page.Blocks, added)

	s.syncContentLocked()
	s.touchLocked()
	return true
}

// UpdateBlock merges patch into one block
func (s *Store) UpdateBlock(pageID, blockID string, patch content.BlockPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	block := s.blockLocked(pageID, blockID)
	if block == nil {
		return false
	}
	updated := block.Clone()
	if !patch.Apply(&updated) {
		return false
	}
	*block = updated

	s.refreshSelectionLocked()
	s.syncContentLocked()
	s.touchLocked()
	return true
}

// RemoveBlock deletes one block and re-densifies order on its page
func (s *Store) RemoveBlock(pageID, blockID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.pageLocked(pageID)
	if page == nil || s.blockLocked(pageID, blockID) == nil {
		return false
	}
	page.Blocks = slices.DeleteFunc(page.Blocks, func(b content.Block) bool { return b.ID == blockID })
	for i := range page.Blocks {
		page.Blocks[i].Order = i
	}
	if s.state.SelectedBlock != nil && s.state.SelectedBlock.ID == blockID {
		s.clearSelectionLocked()
	}

	s.syncContentLocked()
	s.touchLocked()
	return true
}

// ReorderBlocks rewrites a page to exactly the given id sequence.
// ids must be a permutation of the page's block ids.
func (s *Store) ReorderBlocks(pageID string, ids []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.pageLocked(pageID)
	if page == nil || len(ids) != len(page.Blocks) {
		return false
	}

	byID := make(map[string]content.Block, len(page.Blocks))
	for _, b := range page.Blocks {
		byID[b.ID] = b
	}
	reordered := make([]content.Block, 0, len(ids))
	for i, id := range ids {
		b, ok := byID[id]
		if !ok {
			return false
		}
		delete(byID, id) // repeated ids fail on the second lookup
		b.Order = i
		reordered = append(reordered, b)
	}
	page.Blocks = reordered

	s.refreshSelectionLocked()
	s.syncContentLocked()
	s.touchLocked()
	return true
}

// SetLastSaved is the save-completion signal: it clears dirty and records t
func (s *Store) SetLastSaved(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsDirty = false
	s.state.LastSaved = t
}

// CommitSave reconciles an authoritative save of draft. A save of a document
// that is no longer loaded is discarded. Otherwise the server-owned fields
// (id, version, timestamps, authorship) are merged, and dirty is cleared only
// if nothing was edited while the save was in flight. It reports whether the
// store is now clean.
func (s *Store) CommitSave(draft Draft, saved *content.ContentDocument) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.CurrentContent
	if current == nil || saved == nil {
		return false
	}
	if s.loadGen != draft.LoadGen || current.ID != draft.Document.ID {
		s.logger.Debug("discarding save of a document no longer loaded",
			"saved_id", saved.ID,
			"current_id", current.ID,
		)
		return false
	}
	rev := draft.Revision
	current.ID = saved.ID
	current.Version = saved.Version
	current.WorkspaceID = saved.WorkspaceID
	current.CreatedAt = saved.CreatedAt
	current.UpdatedAt = saved.UpdatedAt
	current.CreatedBy = saved.CreatedBy
	current.UpdatedBy = saved.UpdatedBy
	if s.state.PageData != nil {
		s.state.PageData.ID = saved.ID
	}

	if s.state.Revision != rev {
		s.logger.Debug("edits arrived during save, staying dirty", "saved_revision", rev, "revision", s.state.Revision)
		return false
	}
	s.state.IsDirty = false
	s.state.LastSaved = s.now()
	return true
}

// ResetEditor drops the document and all UI state. The session id is kept.
func (s *Store) ResetEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimersLocked()
	s.errorGen++
	s.successGen++
	s.loadGen++

	s.state = State{
		SessionID: s.state.SessionID,
		Revision:  s.state.Revision + 1,
	}
}

// SetSelectedBlock selects a block; the right panel follows the selection
func (s *Store) SetSelectedBlock(block *content.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if block == nil {
		s.clearSelectionLocked()
		return
	}
	selected := block.Clone()
	s.state.SelectedBlock = &selected
	s.state.ShowRightPanel = true
}

// SetActiveLeftMenu opens a sidebar menu; empty closes it
func (s *Store) SetActiveLeftMenu(menu string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActiveLeftMenu = menu
}

// SetShowRightPanel toggles the block settings panel
func (s *Store) SetShowRightPanel(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowRightPanel = show
}

// SetRepositoryPopup opens the content picker; nil closes it
func (s *Store) SetRepositoryPopup(popup *RepositoryPopup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if popup == nil {
		s.state.RepositoryPopup = nil
		return
	}
	p := *popup
	s.state.RepositoryPopup = &p
}

// SetShowPreview toggles the preview
func (s *Store) SetShowPreview(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowPreview = show
}

// SetLoading sets the loading flag
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = loading
}

// SetError shows an error message that clears itself after the message TTL
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorGen++
	s.state.Error = msg
	if s.errorTimer != nil {
		s.errorTimer.Stop()
		s.errorTimer = nil
	}
	if msg == "" {
		return
	}
	gen := s.errorGen
	s.errorTimer = time.AfterFunc(s.messageTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.errorGen == gen {
			s.state.Error = ""
		}
	})
}

// SetSuccessMessage shows a success message that clears itself after the message TTL
func (s *Store) SetSuccessMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.successGen++
	s.state.SuccessMessage = msg
	if s.successTimer != nil {
		s.successTimer.Stop()
		s.successTimer = nil
	}
	if msg == "" {
		return
	}
	gen := s.successGen
	s.successTimer = time.AfterFunc(s.messageTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.successGen == gen {
			s.state.SuccessMessage = ""
		}
	})
}

// ClearMessages hides both messages now
func (s *Store) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimersLocked()
	s.errorGen++
	s.successGen++
	s.state.Error = ""
	s.state.SuccessMessage = ""
}

func (s *Store) stopTimersLocked() {
	if s.errorTimer != nil {
		s.errorTimer.Stop()
		s.errorTimer = nil
	}
	if s.successTimer != nil {
		s.successTimer.Stop()
		s.successTimer = nil
	}
}

// ResetUIState closes menus, popups and the preview
func (s *Store) ResetUIState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActiveLeftMenu = ""
	s.state.RepositoryPopup = nil
	s.state.ShowPreview = false
}

// Draft is what a save sends: the document as edited, the revision it
// reflects and the load it belongs to
type Draft struct {
	Document  *content.ContentDocument
	Revision  uint64
	LoadGen   uint64
	Dirty     bool
	SessionID string
}

// Draft returns the current document for saving, or false when nothing is loaded
func (s *Store) Draft() (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentContent == nil {
		return Draft{}, false
	}
	return Draft{
		Document:  s.state.CurrentContent.Clone(),
		Revision:  s.state.Revision,
		LoadGen:   s.loadGen,
		Dirty:     s.state.IsDirty,
		SessionID: s.state.SessionID,
	}, true
}

// Loaded reports whether the load a draft was taken from is still the current one
func (s *Store) Loaded(draft Draft) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentContent != nil && s.loadGen == draft.LoadGen
}

func (s *Store) touchLocked() {
	s.state.IsDirty = true
	s.state.Revision++
}

func (s *Store) pageLocked(pageID string) *content.Page {
	if s.state.PageData == nil {
		return nil
	}
	return s.state.PageData.page(pageID)
}

func (s *Store) blockLocked(pageID, blockID string) *content.Block {
	page := s.pageLocked(pageID)
	if page == nil {
		return nil
	}
	for i := range page.Blocks {
		if page.Blocks[i].ID == blockID {
			return &page.Blocks[i]
		}
	}
	return nil
}

func (s *Store) clearSelectionLocked() {
	s.state.SelectedBlock = nil
	s.state.ShowRightPanel = false
}

// refreshSelectionLocked keeps the selected block in step with its page copy
func (s *Store) refreshSelectionLocked() {
	selected := s.state.SelectedBlock
	if selected == nil {
		return
	}
	block := s.blockLocked(selected.PageID, selected.ID)
	if block == nil {
		s.clearSelectionLocked()
		return
	}
	fresh := block.Clone()
	s.state.SelectedBlock = &fresh
}

// syncContentLocked writes the edited projection back into the current document
func (s *Store) syncContentLocked() {
	doc, data := s.state.CurrentContent, s.state.PageData
	if doc == nil || data == nil {
		return
	}
	doc.Title = data.Title
	doc.Description = data.Description
	if data.Status != "" {
		doc.Status = data.Status
	}
	doc.Content.Pages = content.ClonePages(data.Pages)
	doc.Content.Settings = data.Settings.Clone()
}

func derivePageData(doc *content.ContentDocument) *PageData {
	pages := content.ClonePages(doc.Content.Pages)
	for i := range pages {
		if pages[i].Blocks == nil {
			pages[i].Blocks = []content.Block{}
		}
		for j := range pages[i].Blocks {
			if pages[i].Blocks[j].PageID == "" {
				pages[i].Blocks[j].PageID = pages[i].ID
			}
		}
	}
	return &PageData{
		ID:               doc.ID,
		Title:            doc.Title,
		Description:      doc.Description,
		Status:           doc.Status,
		TargetRepository: doc.RepositoryType,
		Pages:            pages,
		Settings:         doc.Content.Settings.Clone(),
	}
}
