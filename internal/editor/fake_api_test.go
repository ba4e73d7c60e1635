package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
)

type autoSaveCall struct {
	contentID string
	sessionID string
	data      content.SnapshotData
	meta      content.SnapshotMetadata
}

// fakeAPI behaves like the content functions: updates bump the version,
// snapshots leave it alone
type fakeAPI struct {
	mu        sync.Mutex
	docs      map[string]*content.ContentDocument
	autoSaves []autoSaveCall
	gets      int
	creates   int
	updates   int

	getErr      error
	updateErr   error
	autoSaveErr error
	nextID      int

	// when set, AutoSave blocks until released
	autoSaveGate chan struct{}

	// when set, Update signals updateStarted and blocks until updateGate is closed
	updateStarted chan struct{}
	updateGate    chan struct{}
}

func newFakeAPI(docs ...*content.ContentDocument) *fakeAPI {
	f := &fakeAPI{docs: make(map[string]*content.ContentDocument)}
	for _, d := range docs {
		f.docs[d.ID] = d.Clone()
	}
	return f
}

func (f *fakeAPI) GetByID(_ context.Context, id string, _ content.RepositoryType) (*content.ContentDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "content not found"}
	}
	return doc.Clone(), nil
}

func (f *fakeAPI) Create(_ context.Context, doc *content.ContentDocument) (*content.ContentDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.nextID++
	created := doc.Clone()
	created.ID = fmt.Sprintf("%s-%d", doc.RepositoryType, f.nextID)
	created.Version = 1
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	f.docs[created.ID] = created
	return created.Clone(), nil
}

func (f *fakeAPI) Update(_ context.Context, id string, _ content.RepositoryType, fields content.UpdateFields) (*content.ContentDocument, error) {
	if f.updateGate != nil {
		select {
		case f.updateStarted <- struct{}{}:
		default:
		}
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "content not found"}
	}
	fields.Apply(doc)
	doc.Version++
	doc.UpdatedAt = time.Now().UTC()
	return doc.Clone(), nil
}

func (f *fakeAPI) AutoSave(_ context.Context, contentID, sessionID string, data content.SnapshotData, meta content.SnapshotMetadata) error {
	if f.autoSaveGate != nil {
		<-f.autoSaveGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoSaves = append(f.autoSaves, autoSaveCall{contentID: contentID, sessionID: sessionID, data: data, meta: meta})
	return f.autoSaveErr
}

func (f *fakeAPI) autoSaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.autoSaves)
}

func (f *fakeAPI) stored(id string) *content.ContentDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id].Clone()
}

func (f *fakeAPI) counts() (gets, creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.creates, f.updates
}
