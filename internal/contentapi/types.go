package contentapi

import "aigym/internal/domain/models/content"

// BatchUpdate is one item of a batch update
type BatchUpdate struct {
	ID             string
	RepositoryType content.RepositoryType
	Updates        content.UpdateFields
}

// BatchResult is the outcome of one batch item. Items succeed or fail independently.
type BatchResult struct {
	ID       string
	Success  bool
	Document *content.ContentDocument
	Err      error
}
