package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_CleanDocumentMakesNoCall(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, saver.Tick(context.Background()))
	}
	assert.Equal(t, 0, api.autoSaveCount())
	assert.Equal(t, 0, saver.Status().Saves)
}

func TestTick_NothingLoadedMakesNoCall(t *testing.T) {
	api := newFakeAPI()
	saver := NewAutoSaver(NewStore(testLogger()), api, testLogger(), time.Hour)

	require.NoError(t, saver.Tick(context.Background()))
	assert.Equal(t, 0, api.autoSaveCount())
}

func TestTick_DirtyDocumentSavesOneSnapshot(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)

	s.UpdateBlock("p1", "b1", content.BlockPatch{Title: strPtr("Warmup")})
	require.NoError(t, saver.Tick(context.Background()))

	require.Equal(t, 1, api.autoSaveCount())
	call := api.autoSaves[0]
	assert.Equal(t, "wod-1", call.contentID)
	assert.Equal(t, s.SessionID(), call.sessionID)
	assert.Len(t, call.data.Pages, 2)
	assert.Equal(t, "Warmup", call.data.Pages[0].Blocks[0].Title)
	assert.Equal(t, 1, call.meta.Version)
	assert.False(t, call.meta.Timestamp.IsZero())

	assert.True(t, s.IsDirty(), "a snapshot is not a save")
	assert.Equal(t, 1, api.stored("wod-1").Version, "snapshots never bump the version")

	status := saver.Status()
	assert.Equal(t, 1, status.Saves)
	assert.False(t, status.IsAutoSaving)
	assert.NoError(t, status.LastError)
}

func TestTick_PlaceholderIsSkipped(t *testing.T) {
	api := newFakeAPI()
	s := NewStore(testLogger())
	doc := loadedDoc()
	doc.ID = "temp-1700000000000"
	s.SetCurrentContent(doc)
	s.UpdateContent(content.UpdateFields{Title: strPtr("New WOD")})

	saver := NewAutoSaver(s, api, testLogger(), time.Hour)
	require.NoError(t, saver.Tick(context.Background()))
	assert.Equal(t, 0, api.autoSaveCount())
}

func TestTick_FailureIsRecordedAndKeepsDirty(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	api.autoSaveErr = &domain.APIError{Function: content.FunctionContentManagement, Status: 503, Message: "unavailable"}
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)

	s.RemoveBlock("p1", "b3")
	err := saver.Tick(context.Background())
	require.Error(t, err)

	status := saver.Status()
	assert.Equal(t, 1, status.Failures)
	assert.ErrorIs(t, status.LastError, domain.ErrAPI)
	assert.False(t, status.IsAutoSaving)
	assert.True(t, s.IsDirty())
	assert.Empty(t, s.State().Error, "auto-save failures are not shown to the user")
}

func TestTick_OverlappingTicksAreSkipped(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	api.autoSaveGate = make(chan struct{})
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)
	s.RemoveBlock("p1", "b3")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = saver.Tick(context.Background())
	}()
	require.Eventually(t, func() bool { return saver.Status().IsAutoSaving }, time.Second, time.Millisecond)

	require.NoError(t, saver.Tick(context.Background()))
	close(api.autoSaveGate)
	wg.Wait()

	assert.Equal(t, 1, api.autoSaveCount())
}

func TestStart_TicksOnInterval(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), 10*time.Millisecond)

	saver.Start()
	saver.Start()
	assert.True(t, saver.Running())

	s.RemoveBlock("p1", "b3")
	assert.Eventually(t, func() bool { return api.autoSaveCount() >= 2 }, time.Second, 5*time.Millisecond)

	saver.Stop()
	saver.Stop()
	assert.False(t, saver.Running())

	after := api.autoSaveCount()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, api.autoSaveCount(), "no ticks after Stop")
}

func TestManualSave_UpdatesAndCleans(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)

	s.UpdateContent(content.UpdateFields{Title: strPtr("Grace")})
	saved, err := saver.ManualSave(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, saved.Version)
	st := s.State()
	assert.False(t, st.IsDirty)
	assert.Equal(t, 2, st.CurrentContent.Version)
	assert.Equal(t, "Grace", st.CurrentContent.Title)
	assert.Equal(t, "Content saved successfully", st.SuccessMessage)
	assert.False(t, st.LastSaved.IsZero())
}

func TestManualSave_RunsWhenClean(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)

	_, err := saver.ManualSave(context.Background())
	require.NoError(t, err)
	_, _, updates := api.counts()
	assert.Equal(t, 1, updates)
}

func TestManualSave_CreatesPlaceholder(t *testing.T) {
	api := newFakeAPI()
	s := NewStore(testLogger())
	doc := loadedDoc()
	doc.ID = "temp-1700000000000"
	doc.Version = 0
	s.SetCurrentContent(doc)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)

	saved, err := saver.ManualSave(context.Background())
	require.NoError(t, err)
	_, creates, updates := api.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 0, updates)

	st := s.State()
	assert.Equal(t, saved.ID, st.CurrentContent.ID)
	assert.Equal(t, saved.ID, st.PageData.ID)
	assert.Equal(t, 1, st.CurrentContent.Version)

	// the next save is an update of the created record
	_, err = saver.ManualSave(context.Background())
	require.NoError(t, err)
	_, creates, updates = api.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, updates)
}

func TestManualSave_FailureKeepsEditsAndShowsError(t *testing.T) {
	api := newFakeAPI(loadedDoc())
	api.updateErr = &domain.APIError{Function: content.FunctionWods, Status: 500, Message: "database unavailable"}
	s := newLoadedStore(t)
	saver := NewAutoSaver(s, api, testLogger(), time.Hour)

	s.UpdateContent(content.UpdateFields{Title: strPtr("Grace")})
	_, err := saver.ManualSave(context.Background())
	require.Error(t, err)

	st := s.State()
	assert.True(t, st.IsDirty)
	assert.Equal(t, "Grace", st.CurrentContent.Title)
	assert.Contains(t, st.Error, "database unavailable")
	assert.Equal(t, 1, st.CurrentContent.Version)
}

func TestManualSave_NothingLoaded(t *testing.T) {
	saver := NewAutoSaver(NewStore(testLogger()), newFakeAPI(), testLogger(), time.Hour)
	_, err := saver.ManualSave(context.Background())
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSaveErrorMessage(t *testing.T) {
	assert.Contains(t, saveErrorMessage(&domain.ConflictError{Message: "stale"}), "Someone else changed")
	assert.Contains(t, saveErrorMessage(&domain.TimeoutError{Err: context.DeadlineExceeded}), "timed out")
	assert.Contains(t, saveErrorMessage(domain.NewValidationError("title", "is required")), "title: is required")
}
