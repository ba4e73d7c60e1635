package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
	"aigym/internal/legacy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invocation struct {
	function string
	req      *content.Request
}

// fakeInvoker records calls and answers through handler
type fakeInvoker struct {
	mu      sync.Mutex
	calls   []invocation
	handler func(function string, req *content.Request) (json.RawMessage, error)

	// when set, every call signals started and then waits for release
	started chan struct{}
	release chan struct{}
}

func (f *fakeInvoker) Invoke(ctx context.Context, function string, body any) (json.RawMessage, error) {
	req := body.(*content.Request)
	f.mu.Lock()
	f.calls = append(f.calls, invocation{function: function, req: req})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return f.handler(function, req)
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeInvoker) lastCall() invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(inv Invoker) *Client {
	return NewClient(inv, testLogger(), WithRetry(3, time.Millisecond), WithTimeout(time.Second))
}

func wodDoc(id string, version int) *content.ContentDocument {
	return &content.ContentDocument{
		ID:             id,
		RepositoryType: content.RepositoryWods,
		Title:          "Fran",
		Status:         content.StatusDraft,
		Tags:           []string{},
		Content: content.Body{Pages: []content.Page{{
			ID: "p1", Title: "Main",
			Blocks: []content.Block{{ID: "b1", Type: content.BlockRichText, PageID: "p1", Data: &content.RichTextData{Content: "21-15-9"}}},
		}}},
		Version: version,
	}
}

func mustRow(t *testing.T, doc *content.ContentDocument) json.RawMessage {
	t.Helper()
	raw, err := legacy.Encode(doc)
	require.NoError(t, err)
	return raw
}

// echoGet answers get requests with a wods row of the requested id
func echoGet(t *testing.T) func(string, *content.Request) (json.RawMessage, error) {
	return func(_ string, req *content.Request) (json.RawMessage, error) {
		return mustRow(t, wodDoc(req.ID, 1)), nil
	}
}

func TestGetByID_ConcurrentIdenticalCallsShareOneRequest(t *testing.T) {
	inv := &fakeInvoker{
		handler: echoGet(t),
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	client := newTestClient(inv)

	var wg sync.WaitGroup
	results := make([]*content.ContentDocument, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
		}()
		if i == 0 {
			<-inv.started
		}
	}

	// give the second caller time to join the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(inv.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, inv.callCount())
	assert.Equal(t, "wod-1", results[0].ID)
	assert.Equal(t, results[0], results[1])

	// callers get independent copies
	results[0].Title = "changed"
	assert.Equal(t, "Fran", results[1].Title)
}

func TestGetByID_DifferentIDsAreSeparateRequests(t *testing.T) {
	inv := &fakeInvoker{
		handler: echoGet(t),
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	client := newTestClient(inv)

	var wg sync.WaitGroup
	for _, id := range []string{"wod-1", "wod-2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.GetByID(context.Background(), id, content.RepositoryWods)
			assert.NoError(t, err)
		}()
	}

	// both requests must start while neither has finished
	for i := 0; i < 2; i++ {
		select {
		case <-inv.started:
		case <-time.After(2 * time.Second):
			t.Fatal("second request never started")
		}
	}
	close(inv.release)
	wg.Wait()
	assert.Equal(t, 2, inv.callCount())
}

func TestGetByID_SettledEntriesAreDropped(t *testing.T) {
	inv := &fakeInvoker{handler: echoGet(t)}
	client := newTestClient(inv)

	for i := 0; i < 2; i++ {
		_, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inv.callCount())
	assert.Equal(t, 0, client.Pending())
}

func TestGetByID_ValidationErrorIsNotRetried(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return nil, &domain.ValidationError{Message: "bad id"}
	}}
	client := newTestClient(inv)

	_, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, inv.callCount())
}

func TestGetByID_NotFoundIsNotRetried(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return nil, &domain.NotFoundError{Message: "no such wod"}
	}}
	client := newTestClient(inv)

	_, err := client.GetByID(context.Background(), "wod-404", content.RepositoryWods)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, inv.callCount())
}

func TestGetByID_NetworkErrorIsRetried(t *testing.T) {
	var attempts int
	inv := &fakeInvoker{}
	inv.handler = func(_ string, req *content.Request) (json.RawMessage, error) {
		attempts++
		if attempts == 1 {
			return nil, &domain.APIError{Function: content.FunctionWods, Action: "get", Err: errors.New("connection reset by peer")}
		}
		return mustRow(t, wodDoc(req.ID, 1)), nil
	}
	client := newTestClient(inv)

	doc, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
	require.NoError(t, err)
	assert.Equal(t, "wod-1", doc.ID)
	assert.GreaterOrEqual(t, inv.callCount(), 2)
}

func TestGetByID_TimeoutIsRetried(t *testing.T) {
	var attempts int
	inv := &fakeInvoker{}
	inv.handler = func(_ string, req *content.Request) (json.RawMessage, error) {
		attempts++
		if attempts < 3 {
			return nil, &domain.TimeoutError{Function: content.FunctionWods, Action: "get", Err: context.DeadlineExceeded}
		}
		return mustRow(t, wodDoc(req.ID, 1)), nil
	}
	client := newTestClient(inv)

	_, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
	require.NoError(t, err)
	assert.Equal(t, 3, inv.callCount())
}

func TestGetByID_RetriesAreBounded(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return nil, &domain.APIError{Function: content.FunctionWods, Action: "get", Status: 503, Message: "unavailable"}
	}}
	client := newTestClient(inv)

	_, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPI)
	assert.Equal(t, 4, inv.callCount())
}

func TestGetByID_MalformedRowFailsWithoutRetry(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"id": "wod-1"}`), nil
	}}
	client := newTestClient(inv)

	_, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, inv.callCount())
}

func TestGetByID_TransformsLegacyBlockRow(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return json.RawMessage(`{
			"id": "block-1",
			"title": "Strength primer",
			"instructions": "Build to a heavy single",
			"equipment_needed": ["barbell"],
			"block_category": "strength",
			"pages": [],
			"settings": {}
		}`), nil
	}}
	client := newTestClient(inv)

	doc, err := client.GetByID(context.Background(), "block-1", content.RepositoryBlocks)
	require.NoError(t, err)
	require.NotNil(t, doc.Content.BlockDetails)
	assert.Equal(t, "Build to a heavy single", doc.Content.Instructions)
	assert.Equal(t, []string{"barbell"}, doc.Content.EquipmentNeeded)
	assert.Equal(t, content.FunctionBlocks, inv.lastCall().function)
}

func TestClient_RoutesByRepositoryType(t *testing.T) {
	tests := []struct {
		typ      content.RepositoryType
		function string
	}{
		{content.RepositoryWods, content.FunctionWods},
		{content.RepositoryBlocks, content.FunctionBlocks},
		{content.RepositoryPrograms, content.FunctionPrograms},
		{content.RepositoryVideos, content.FunctionContentManagement},
		{content.RepositoryPDFs, content.FunctionContentManagement},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
				return json.RawMessage(`[]`), nil
			}}
			client := newTestClient(inv)

			docs, err := client.List(context.Background(), tt.typ, content.ListFilters{Status: content.StatusPublished})
			require.NoError(t, err)
			assert.Empty(t, docs)

			call := inv.lastCall()
			assert.Equal(t, tt.function, call.function)
			assert.Equal(t, content.ActionList, call.req.Action)
			assert.Equal(t, tt.typ, call.req.RepositoryType)
			assert.Equal(t, content.StatusPublished, call.req.Filters.Status)
		})
	}
}

func TestCreate_DropsPlaceholderID(t *testing.T) {
	inv := &fakeInvoker{}
	inv.handler = func(_ string, req *content.Request) (json.RawMessage, error) {
		created := req.Document.Clone()
		created.ID = "wod-new"
		created.Version = 1
		return mustRow(t, created), nil
	}
	client := newTestClient(inv)

	doc := wodDoc("temp-1700000000000", 0)
	created, err := client.Create(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "", inv.lastCall().req.Document.ID)
	assert.Equal(t, content.ActionCreate, inv.lastCall().req.Action)
	assert.Equal(t, "wod-new", created.ID)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, "temp-1700000000000", doc.ID, "caller's document must not change")
}

func TestCreate_InvalidDocumentMakesNoCall(t *testing.T) {
	inv := &fakeInvoker{}
	client := newTestClient(inv)

	doc := wodDoc("", 0)
	doc.Title = ""
	_, err := client.Create(context.Background(), doc)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, inv.callCount())
}

func TestUpdate_DifferentPayloadsAreNotMerged(t *testing.T) {
	inv := &fakeInvoker{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	inv.handler = func(_ string, req *content.Request) (json.RawMessage, error) {
		doc := wodDoc(req.ID, 2)
		req.Updates.Apply(doc)
		return mustRow(t, doc), nil
	}
	client := newTestClient(inv)

	var wg sync.WaitGroup
	titles := []string{"Fran", "Grace"}
	got := make([]string, 2)
	for i, title := range titles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := client.Update(context.Background(), "wod-1", content.RepositoryWods, content.UpdateFields{Title: &title})
			if assert.NoError(t, err) {
				got[i] = doc.Title
			}
		}()
	}
	for i := 0; i < 2; i++ {
		select {
		case <-inv.started:
		case <-time.After(2 * time.Second):
			t.Fatal("updates were merged into one request")
		}
	}
	close(inv.release)
	wg.Wait()

	assert.Equal(t, titles, got)
	assert.Equal(t, 2, inv.callCount())
}

func TestUpdate_LaterGetDoesNotJoinOlderFetch(t *testing.T) {
	getStarted := make(chan struct{}, 1)
	releaseGet := make(chan struct{})
	var mu sync.Mutex
	version, gets := 1, 0

	inv := &fakeInvoker{}
	inv.handler = func(_ string, req *content.Request) (json.RawMessage, error) {
		mu.Lock()
		if req.Action == content.ActionUpdate {
			version++
			doc := wodDoc(req.ID, version)
			req.Updates.Apply(doc)
			mu.Unlock()
			return mustRow(t, doc), nil
		}
		gets++
		first, v := gets == 1, version
		mu.Unlock()
		if first {
			getStarted <- struct{}{}
			<-releaseGet
		}
		return mustRow(t, wodDoc(req.ID, v)), nil
	}
	client := newTestClient(inv)

	stale := make(chan *content.ContentDocument, 1)
	go func() {
		doc, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
		assert.NoError(t, err)
		stale <- doc
	}()
	<-getStarted

	title := "Grace"
	updated, err := client.Update(context.Background(), "wod-1", content.RepositoryWods, content.UpdateFields{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	fresh, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Version)

	close(releaseGet)
	assert.Equal(t, 1, (<-stale).Version)
	assert.Equal(t, 3, inv.callCount())
}

func TestForget_NextGetStartsNewRequest(t *testing.T) {
	inv := &fakeInvoker{
		handler: echoGet(t),
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	client := newTestClient(inv)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
			assert.NoError(t, err)
		}()
		select {
		case <-inv.started:
		case <-time.After(2 * time.Second):
			t.Fatal("get after Forget joined the earlier request")
		}
		if i == 0 {
			client.Forget("wod-1", content.RepositoryWods)
		}
	}
	close(inv.release)
	wg.Wait()

	assert.Equal(t, 2, inv.callCount())
	assert.Equal(t, 0, client.Pending())
}

func TestUpdate_RejectsBadInputLocally(t *testing.T) {
	empty := ""
	tests := []struct {
		name   string
		id     string
		fields content.UpdateFields
	}{
		{"no id", "", content.UpdateFields{Title: &empty}},
		{"placeholder id", "temp-1", content.UpdateFields{Description: &empty}},
		{"nothing to update", "wod-1", content.UpdateFields{}},
		{"empty title", "wod-1", content.UpdateFields{Title: &empty}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{}
			client := newTestClient(inv)

			_, err := client.Update(context.Background(), tt.id, content.RepositoryWods, tt.fields)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, 0, inv.callCount())
		})
	}
}

func TestUpdateIfVersion_SendsExpectedVersion(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return nil, &domain.ConflictError{Message: "document changed"}
	}}
	client := newTestClient(inv)

	title := "Grace"
	_, err := client.UpdateIfVersion(context.Background(), "wod-1", content.RepositoryWods, content.UpdateFields{Title: &title}, 3)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, inv.callCount(), "conflicts are not retried")
	require.NotNil(t, inv.lastCall().req.ExpectedVersion)
	assert.Equal(t, 3, *inv.lastCall().req.ExpectedVersion)
}

func TestDelete(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return nil, nil
	}}
	client := newTestClient(inv)

	require.NoError(t, client.Delete(context.Background(), "prog-1", content.RepositoryPrograms))
	call := inv.lastCall()
	assert.Equal(t, content.FunctionPrograms, call.function)
	assert.Equal(t, content.ActionDelete, call.req.Action)
	assert.Equal(t, "prog-1", call.req.ID)
}

func TestBatchUpdate_PartialFailure(t *testing.T) {
	inv := &fakeInvoker{}
	inv.handler = func(_ string, req *content.Request) (json.RawMessage, error) {
		if req.ID == "invalid-id" {
			return nil, &domain.NotFoundError{Message: "wod not found"}
		}
		doc := wodDoc(req.ID, 2)
		req.Updates.Apply(doc)
		return mustRow(t, doc), nil
	}
	client := newTestClient(inv)

	published := content.StatusPublished
	results := client.BatchUpdate(context.Background(), []BatchUpdate{
		{ID: "wod-1", RepositoryType: content.RepositoryWods, Updates: content.UpdateFields{Status: &published}},
		{ID: "invalid-id", RepositoryType: content.RepositoryWods, Updates: content.UpdateFields{Status: &published}},
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "wod-1", results[0].ID)
	require.NotNil(t, results[0].Document)
	assert.Equal(t, content.StatusPublished, results[0].Document.Status)

	assert.False(t, results[1].Success)
	assert.Equal(t, "invalid-id", results[1].ID)
	assert.ErrorIs(t, results[1].Err, domain.ErrNotFound)
	assert.Nil(t, results[1].Document)
}

func TestAutoSave_SendsSnapshotToContentManagement(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"id": "snap-1"}`), nil
	}}
	client := newTestClient(inv)

	data := content.SnapshotData{Pages: wodDoc("wod-1", 1).Content.Pages}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := client.AutoSave(context.Background(), "wod-1", "session-1", data, content.SnapshotMetadata{Timestamp: ts, Version: 1})
	require.NoError(t, err)

	call := inv.lastCall()
	assert.Equal(t, content.FunctionContentManagement, call.function)
	assert.Equal(t, content.ActionAutoSave, call.req.Action)
	assert.Equal(t, "wod-1", call.req.ContentID)
	assert.Equal(t, "session-1", call.req.SessionID)
	require.NotNil(t, call.req.SnapshotData)
	assert.Len(t, call.req.SnapshotData.Pages, 1)
	assert.Equal(t, ts, call.req.Metadata.Timestamp)
}

func TestAutoSave_RejectsPlaceholderDocuments(t *testing.T) {
	inv := &fakeInvoker{}
	client := newTestClient(inv)

	err := client.AutoSave(context.Background(), "temp-1", "session-1", content.SnapshotData{}, content.SnapshotMetadata{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	err = client.AutoSave(context.Background(), "wod-1", "", content.SnapshotData{}, content.SnapshotMetadata{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, inv.callCount())
}

func TestGetAutoSaveSnapshots(t *testing.T) {
	inv := &fakeInvoker{handler: func(string, *content.Request) (json.RawMessage, error) {
		return json.RawMessage(`[{
			"id": "snap-2", "content_id": "wod-1", "session_id": "s1",
			"snapshot_data": {"pages": [{"id": "p1", "title": "Main", "order": 0, "blocks": []}], "settings": {}},
			"metadata": {"timestamp": "2024-05-01T12:00:00Z", "version": 1},
			"created_at": "2024-05-01T12:00:01Z"
		}]`), nil
	}}
	client := newTestClient(inv)

	snapshots, err := client.GetAutoSaveSnapshots(context.Background(), "wod-1", "s1")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "snap-2", snapshots[0].ID)
	assert.Equal(t, 1, snapshots[0].Metadata.Version)
	assert.Len(t, snapshots[0].Data.Pages, 1)
	assert.Equal(t, content.ActionGetSnapshots, inv.lastCall().req.Action)
}

func TestCall_WaiterCanLeaveWithoutCancellingOthers(t *testing.T) {
	inv := &fakeInvoker{
		handler: echoGet(t),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	client := newTestClient(inv)

	done := make(chan error, 1)
	go func() {
		_, err := client.GetByID(context.Background(), "wod-1", content.RepositoryWods)
		done <- err
	}()
	<-inv.started
	assert.Equal(t, 1, client.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetByID(ctx, "wod-1", content.RepositoryWods)
	assert.ErrorIs(t, err, context.Canceled)

	close(inv.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, inv.callCount())
}
