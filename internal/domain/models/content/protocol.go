package content

import "encoding/json"

// Backend function names
const (
	FunctionWods              = "wods-api"
	FunctionBlocks            = "workout-blocks-api"
	FunctionPrograms          = "programs-api"
	FunctionContentManagement = "content-management-api"
)

// Functions lists every function the backend serves
var Functions = []string{FunctionWods, FunctionBlocks, FunctionPrograms, FunctionContentManagement}

// FunctionFor returns the function serving documents of repository type t
func FunctionFor(t RepositoryType) string {
	switch t {
	case RepositoryWods:
		return FunctionWods
	case RepositoryBlocks:
		return FunctionBlocks
	case RepositoryPrograms:
		return FunctionPrograms
	default:
		return FunctionContentManagement
	}
}

// Action is the discriminator carried in every function request body
type Action string

const (
	ActionGet          Action = "get"
	ActionList         Action = "list"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionAutoSave     Action = "auto_save"
	ActionGetSnapshots Action = "get_snapshots"
)

// Request is the JSON body posted to a function
type Request struct {
	Action         Action         `json:"action"`
	RepositoryType RepositoryType `json:"repository_type,omitempty"`
	ID             string         `json:"id,omitempty"`

	// create
	Document *ContentDocument `json:"document,omitempty"`

	// update
	Updates         *UpdateFields `json:"updates,omitempty"`
	ExpectedVersion *int          `json:"expected_version,omitempty"`

	// list
	Filters *ListFilters `json:"filters,omitempty"`

	// auto_save, get_snapshots
	ContentID    string            `json:"content_id,omitempty"`
	SessionID    string            `json:"session_id,omitempty"`
	SnapshotData *SnapshotData     `json:"snapshot_data,omitempty"`
	Metadata     *SnapshotMetadata `json:"metadata,omitempty"`
}

// UpdateFields is a partial document update. Nil fields are left untouched.
// Tags is sent as null when nil so an empty list can clear the tags.
type UpdateFields struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Content     *Body     `json:"content,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Tags        []string  `json:"tags"`
	WorkspaceID *string   `json:"workspace_id,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u *UpdateFields) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Content == nil && u.Metadata == nil &&
		u.Status == nil && u.Tags == nil && u.WorkspaceID == nil
}

// Apply merges the fields into doc
func (u *UpdateFields) Apply(doc *ContentDocument) {
	if u.Title != nil {
		doc.Title = *u.Title
	}
	if u.Description != nil {
		doc.Description = *u.Description
	}
	if u.Content != nil {
		doc.Content = u.Content.Clone()
	}
	if u.Metadata != nil {
		doc.Metadata = *u.Metadata
	}
	if u.Status != nil {
		doc.Status = *u.Status
	}
	if u.Tags != nil {
		doc.Tags = cloneStrings(u.Tags)
	}
	if u.WorkspaceID != nil {
		doc.WorkspaceID = *u.WorkspaceID
	}
}

// ListFilters narrows a list request
type ListFilters struct {
	Status      Status   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Search      string   `json:"search,omitempty"`
	WorkspaceID string   `json:"workspace_id,omitempty"`
	FolderID    string   `json:"folder_id,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
}

// Envelope is the JSON body every function answers with
type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the error half of the envelope
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used in ErrorBody.Code
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)
