package editor

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"aigym/internal/domain/models/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadedDoc() *content.ContentDocument {
	return &content.ContentDocument{
		ID:             "wod-1",
		RepositoryType: content.RepositoryWods,
		Title:          "Fran",
		Status:         content.StatusDraft,
		Version:        1,
		Content: content.Body{Pages: []content.Page{
			{ID: "p1", Title: "Main", Blocks: []content.Block{
				{ID: "b1", Type: content.BlockSectionHeader, Order: 0, PageID: "p1", Data: &content.SectionHeaderData{Text: "Warmup", Level: "h2"}},
				{ID: "b2", Type: content.BlockRichText, Order: 1, PageID: "p1", Data: &content.RichTextData{Content: "Row 500m"}},
				{ID: "b3", Type: content.BlockExercise, Order: 2, PageID: "p1", Data: &content.ExerciseData{Name: "Thruster", Reps: 21}},
			}},
			{ID: "p2", Title: "Notes", Blocks: []content.Block{}},
		}},
	}
}

func newLoadedStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	s := NewStore(testLogger(), opts...)
	s.SetCurrentContent(loadedDoc())
	return s
}

func blockIDs(s *Store, pageID string) []string {
	st := s.State()
	for _, p := range st.PageData.Pages {
		if p.ID == pageID {
			ids := make([]string, len(p.Blocks))
			for i, b := range p.Blocks {
				ids[i] = b.ID
			}
			return ids
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func TestNewStore_StartsIdleWithSession(t *testing.T) {
	s := NewStore(testLogger())
	st := s.State()

	assert.Nil(t, st.CurrentContent)
	assert.Nil(t, st.PageData)
	assert.False(t, st.IsDirty)
	assert.False(t, st.IsEditing)
	assert.NotEmpty(t, st.SessionID)
}

func TestSetCurrentContent_LoadsClean(t *testing.T) {
	s := NewStore(testLogger())
	s.AddBlock("p1", content.Block{ID: "x", Type: content.BlockDivision}) // nothing loaded, ignored

	s.SetCurrentContent(loadedDoc())
	st := s.State()

	assert.True(t, st.IsEditing)
	assert.False(t, st.IsDirty)
	require.NotNil(t, st.PageData)
	assert.Equal(t, "wod-1", st.PageData.ID)
	assert.Equal(t, "Fran", st.PageData.Title)
	assert.Equal(t, content.RepositoryWods, st.PageData.TargetRepository)
	assert.Len(t, st.PageData.Pages, 2)
}

func TestSetCurrentContent_CopiesInput(t *testing.T) {
	doc := loadedDoc()
	s := NewStore(testLogger())
	s.SetCurrentContent(doc)

	doc.Title = "changed outside"
	doc.Content.Pages[0].Blocks[0].Data.(*content.SectionHeaderData).Text = "changed outside"

	st := s.State()
	assert.Equal(t, "Fran", st.CurrentContent.Title)
	assert.Equal(t, "Warmup", st.PageData.Pages[0].Blocks[0].Data.(*content.SectionHeaderData).Text)
}

func TestState_ReturnsCopies(t *testing.T) {
	s := newLoadedStore(t)
	st := s.State()
	st.PageData.Pages[0].Blocks[0].Title = "mutated"
	st.CurrentContent.Title = "mutated"

	again := s.State()
	assert.Equal(t, "", again.PageData.Pages[0].Blocks[0].Title)
	assert.Equal(t, "Fran", again.CurrentContent.Title)
}

func TestMutations_MarkDirtyUntilSaved(t *testing.T) {
	mutations := []struct {
		name string
		run  func(s *Store) bool
	}{
		{"add", func(s *Store) bool {
			return s.AddBlock("p1", content.Block{ID: "b4", Type: content.BlockQuote, Data: &content.QuoteData{Text: "Go"}})
		}},
		{"update", func(s *Store) bool {
			return s.UpdateBlock("p1", "b2", content.BlockPatch{Data: &content.RichTextData{Content: "Row 1k"}})
		}},
		{"remove", func(s *Store) bool { return s.RemoveBlock("p1", "b1") }},
		{"reorder", func(s *Store) bool { return s.ReorderBlocks("p1", []string{"b3", "b1", "b2"}) }},
		{"update content", func(s *Store) bool { return s.UpdateContent(content.UpdateFields{Title: strPtr("Grace")}) }},
		{"set page data", func(s *Store) bool {
			pd := *s.State().PageData
			pd.Title = "Helen"
			return s.SetPageData(pd)
		}},
		{"add page", func(s *Store) bool { _, ok := s.AddPage("Cooldown"); return ok }},
		{"remove page", func(s *Store) bool { return s.RemovePage("p2") }},
	}

	for _, first := range mutations {
		t.Run(first.name, func(t *testing.T) {
			s := newLoadedStore(t)
			require.True(t, first.run(s))
			assert.True(t, s.IsDirty())

			// further edits keep it dirty
			for _, next := range mutations {
				next.run(s)
				assert.True(t, s.IsDirty(), "after %s", next.name)
			}

			s.SetLastSaved(time.Now())
			assert.False(t, s.IsDirty())
			assert.False(t, s.State().LastSaved.IsZero())
		})
	}
}

func TestAddBlock_AppendsWithOrder(t *testing.T) {
	s := newLoadedStore(t)

	require.True(t, s.AddBlock("p1", content.Block{ID: "b4", Type: content.BlockDivision}))
	st := s.State()
	blocks := st.PageData.Pages[0].Blocks
	require.Len(t, blocks, 4)
	assert.Equal(t, "b4", blocks[3].ID)
	assert.Equal(t, 3, blocks[3].Order)
	assert.Equal(t, "p1", blocks[3].PageID)
	assert.NotNil(t, blocks[3].Data, "missing payload gets the empty one")

	// the document follows the projection
	assert.Len(t, st.CurrentContent.Content.Pages[0].Blocks, 4)
}

func TestUpdateBlock_Merges(t *testing.T) {
	s := newLoadedStore(t)

	require.True(t, s.UpdateBlock("p1", "b3", content.BlockPatch{Title: strPtr("Main lift")}))
	block := s.State().PageData.Pages[0].Blocks[2]
	assert.Equal(t, "Main lift", block.Title)
	assert.Equal(t, "Thruster", block.Data.(*content.ExerciseData).Name, "untouched fields survive")
}

func TestRemoveBlock_DensifiesOrder(t *testing.T) {
	s := newLoadedStore(t)

	require.True(t, s.RemoveBlock("p1", "b2"))
	blocks := s.State().PageData.Pages[0].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, []string{"b1", "b3"}, blockIDs(s, "p1"))
	for i, b := range blocks {
		assert.Equal(t, i, b.Order)
	}
}

func TestReorderBlocks_FollowsGivenOrder(t *testing.T) {
	orders := [][]string{
		{"b3", "b2", "b1"},
		{"b2", "b3", "b1"},
		{"b1", "b2", "b3"},
	}
	for _, ids := range orders {
		s := newLoadedStore(t)
		require.True(t, s.ReorderBlocks("p1", ids))

		assert.Equal(t, ids, blockIDs(s, "p1"))
		for i, b := range s.State().PageData.Pages[0].Blocks {
			assert.Equal(t, i, b.Order)
		}
	}
}

func TestBlockOperations_UnknownTargetsAreNoOps(t *testing.T) {
	ops := []struct {
		name string
		run  func(s *Store) bool
	}{
		{"add to unknown page", func(s *Store) bool {
			return s.AddBlock("nope", content.Block{ID: "b9", Type: content.BlockDivision})
		}},
		{"add duplicate id", func(s *Store) bool {
			return s.AddBlock("p1", content.Block{ID: "b1", Type: content.BlockDivision})
		}},
		{"add unknown kind", func(s *Store) bool {
			return s.AddBlock("p1", content.Block{ID: "b9", Type: "carousel"})
		}},
		{"add mismatched payload", func(s *Store) bool {
			return s.AddBlock("p1", content.Block{ID: "b9", Type: content.BlockQuote, Data: &content.ListData{}})
		}},
		{"update unknown block", func(s *Store) bool {
			return s.UpdateBlock("p1", "nope", content.BlockPatch{Title: strPtr("x")})
		}},
		{"update unknown page", func(s *Store) bool {
			return s.UpdateBlock("nope", "b1", content.BlockPatch{Title: strPtr("x")})
		}},
		{"update with other kind", func(s *Store) bool {
			return s.UpdateBlock("p1", "b1", content.BlockPatch{Data: &content.QuoteData{}})
		}},
		{"remove unknown block", func(s *Store) bool { return s.RemoveBlock("p1", "nope") }},
		{"remove from unknown page", func(s *Store) bool { return s.RemoveBlock("nope", "b1") }},
		{"reorder unknown page", func(s *Store) bool { return s.ReorderBlocks("nope", []string{"b1"}) }},
		{"reorder missing id", func(s *Store) bool { return s.ReorderBlocks("p1", []string{"b1", "b2"}) }},
		{"reorder foreign id", func(s *Store) bool { return s.ReorderBlocks("p1", []string{"b1", "b2", "x"}) }},
		{"reorder repeated id", func(s *Store) bool { return s.ReorderBlocks("p1", []string{"b1", "b1", "b2"}) }},
		{"remove unknown page", func(s *Store) bool { return s.RemovePage("nope") }},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			s := newLoadedStore(t)
			before := s.State()

			assert.NotPanics(t, func() {
				assert.False(t, op.run(s))
			})
			after := s.State()
			assert.Equal(t, before, after)
		})
	}
}

func TestSetSelectedBlock_DrivesRightPanel(t *testing.T) {
	s := newLoadedStore(t)

	for _, b := range s.State().PageData.Pages[0].Blocks {
		s.SetSelectedBlock(&b)
		st := s.State()
		assert.True(t, st.ShowRightPanel)
		assert.Equal(t, b.ID, st.SelectedBlock.ID)
	}

	s.SetSelectedBlock(nil)
	st := s.State()
	assert.False(t, st.ShowRightPanel)
	assert.Nil(t, st.SelectedBlock)
}

func TestSelection_FollowsBlockChanges(t *testing.T) {
	s := newLoadedStore(t)
	block := s.State().PageData.Pages[0].Blocks[1]
	s.SetSelectedBlock(&block)

	s.UpdateBlock("p1", "b2", content.BlockPatch{Title: strPtr("Row")})
	assert.Equal(t, "Row", s.State().SelectedBlock.Title)

	s.RemoveBlock("p1", "b2")
	st := s.State()
	assert.Nil(t, st.SelectedBlock)
	assert.False(t, st.ShowRightPanel)
}

func TestUIHelpers(t *testing.T) {
	s := newLoadedStore(t)

	s.SetActiveLeftMenu("blocks")
	s.SetRepositoryPopup(&RepositoryPopup{RepositoryType: content.RepositoryVideos, BlockID: "b1"})
	s.SetShowPreview(true)
	s.SetLoading(true)

	st := s.State()
	assert.Equal(t, "blocks", st.ActiveLeftMenu)
	assert.Equal(t, content.RepositoryVideos, st.RepositoryPopup.RepositoryType)
	assert.True(t, st.ShowPreview)
	assert.True(t, st.Loading)

	s.ResetUIState()
	st = s.State()
	assert.Empty(t, st.ActiveLeftMenu)
	assert.Nil(t, st.RepositoryPopup)
	assert.False(t, st.ShowPreview)
	assert.True(t, st.IsEditing, "document survives a UI reset")
	assert.False(t, st.IsDirty, "UI changes are not edits")
}

func TestMessages_AutoClear(t *testing.T) {
	s := newLoadedStore(t, WithMessageTTL(20*time.Millisecond))

	s.SetError("Failed to save content")
	s.SetSuccessMessage("Saved")
	st := s.State()
	assert.Equal(t, "Failed to save content", st.Error)
	assert.Equal(t, "Saved", st.SuccessMessage)

	assert.Eventually(t, func() bool {
		st := s.State()
		return st.Error == "" && st.SuccessMessage == ""
	}, time.Second, 5*time.Millisecond)
}

func TestMessages_NewerMessageKeepsItsOwnTTL(t *testing.T) {
	s := newLoadedStore(t, WithMessageTTL(200*time.Millisecond))

	s.SetError("first")
	time.Sleep(100 * time.Millisecond)
	s.SetError("second")

	// the first message's TTL has passed by now and must not have cleared the second
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, "second", s.State().Error)

	assert.Eventually(t, func() bool { return s.State().Error == "" }, time.Second, 5*time.Millisecond)
}

func TestClearMessages(t *testing.T) {
	s := newLoadedStore(t)
	s.SetError("x")
	s.SetSuccessMessage("y")
	s.ClearMessages()

	st := s.State()
	assert.Empty(t, st.Error)
	assert.Empty(t, st.SuccessMessage)
}

func TestResetEditor(t *testing.T) {
	s := newLoadedStore(t)
	session := s.SessionID()
	s.AddBlock("p1", content.Block{ID: "b4", Type: content.BlockDivision})
	block := s.State().PageData.Pages[0].Blocks[0]
	s.SetSelectedBlock(&block)
	s.SetError("boom")

	s.ResetEditor()
	st := s.State()
	assert.Nil(t, st.CurrentContent)
	assert.Nil(t, st.PageData)
	assert.Nil(t, st.SelectedBlock)
	assert.False(t, st.IsDirty)
	assert.False(t, st.IsEditing)
	assert.False(t, st.ShowRightPanel)
	assert.Empty(t, st.Error)
	assert.Equal(t, session, st.SessionID)
}

func TestGenerateSessionID(t *testing.T) {
	s := NewStore(testLogger())
	first := s.SessionID()
	second := s.GenerateSessionID()

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, s.SessionID())
}

func TestCommitSave_StaysDirtyWhenEditedDuringSave(t *testing.T) {
	s := newLoadedStore(t)
	s.UpdateContent(content.UpdateFields{Title: strPtr("Grace")})

	draft, ok := s.Draft()
	require.True(t, ok)

	// an edit lands while the save is in flight
	s.UpdateBlock("p1", "b1", content.BlockPatch{Title: strPtr("late edit")})

	saved := draft.Document.Clone()
	saved.Version = 2
	assert.False(t, s.CommitSave(draft, saved))

	st := s.State()
	assert.True(t, st.IsDirty)
	assert.Equal(t, 2, st.CurrentContent.Version, "canonical fields merge anyway")
	assert.Equal(t, "late edit", st.PageData.Pages[0].Blocks[0].Title)
}

func TestCommitSave_CleansWhenUnchanged(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newLoadedStore(t, WithClock(func() time.Time { return now }))
	s.UpdateContent(content.UpdateFields{Title: strPtr("Grace")})

	draft, _ := s.Draft()
	saved := draft.Document.Clone()
	saved.Version = 2
	saved.UpdatedAt = now

	assert.True(t, s.CommitSave(draft, saved))
	st := s.State()
	assert.False(t, st.IsDirty)
	assert.Equal(t, now, st.LastSaved)
	assert.Equal(t, "Grace", st.CurrentContent.Title)
}

func TestCommitSave_DiscardedAfterAnotherLoad(t *testing.T) {
	s := newLoadedStore(t)
	s.UpdateContent(content.UpdateFields{Title: strPtr("Fran (scaled)")})
	draft, _ := s.Draft()

	other := loadedDoc()
	other.ID = "wod-2"
	other.Title = "Grace"
	other.Version = 7
	s.ResetEditor()
	s.SetCurrentContent(other)
	assert.False(t, s.Loaded(draft))

	saved := draft.Document.Clone()
	saved.Version = 2
	assert.False(t, s.CommitSave(draft, saved))

	st := s.State()
	assert.Equal(t, "wod-2", st.CurrentContent.ID)
	assert.Equal(t, 7, st.CurrentContent.Version)
	assert.Equal(t, "wod-2", st.PageData.ID)
	assert.True(t, st.LastSaved.IsZero())
}

func TestCommitSave_DiscardedAfterReloadOfSameDocument(t *testing.T) {
	s := newLoadedStore(t)
	draft, _ := s.Draft()

	reloaded := loadedDoc()
	reloaded.Version = 5
	s.SetCurrentContent(reloaded)

	saved := draft.Document.Clone()
	saved.Version = 2
	assert.False(t, s.CommitSave(draft, saved))
	assert.Equal(t, 5, s.State().CurrentContent.Version)
}

func TestMessages_KeepOneTimerPerKind(t *testing.T) {
	s := newLoadedStore(t, WithMessageTTL(time.Hour))
	for i := 0; i < 100; i++ {
		s.SetError("failed")
		s.SetSuccessMessage("saved")
	}
	assert.Equal(t, 2, messageTimers(s))

	s.ClearMessages()
	assert.Equal(t, 0, messageTimers(s))

	s.SetError("failed")
	s.ResetEditor()
	assert.Equal(t, 0, messageTimers(s))
}

// messageTimers counts the auto-clear timers the store holds
func messageTimers(s *Store) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	if s.errorTimer != nil {
		n++
	}
	if s.successTimer != nil {
		n++
	}
	return n
}

func TestStore_ConcurrentUse(t *testing.T) {
	s := newLoadedStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.UpdateBlock("p1", "b2", content.BlockPatch{Title: strPtr("t")})
				s.ReorderBlocks("p1", []string{"b3", "b2", "b1"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.State()
				_, _ = s.Draft()
			}
		}()
	}
	wg.Wait()
	assert.True(t, s.IsDirty())
}
