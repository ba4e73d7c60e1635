// Package contentapi is the editor's client for the content functions.
// Identical calls in flight at the same time share one request, and
// transient failures are retried with exponential backoff.
package contentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"aigym/internal/config"
	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
	"aigym/internal/legacy"

	"github.com/cespare/xxhash/v2"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxRetries = 3
	defaultRetryBase  = 200 * time.Millisecond
	defaultTimeout    = 15 * time.Second
	defaultBatchLimit = 4
)

// Client talks to the content functions
type Client struct {
	invoker Invoker
	logger  *slog.Logger

	group   singleflight.Group
	pending atomic.Int64

	maxRetries uint64
	retryBase  time.Duration
	timeout    time.Duration
	batchLimit int
}

// Option configures a Client
type Option func(*Client)

// WithRetry sets how many times a transient failure is retried and the first backoff delay
func WithRetry(maxRetries int, base time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = uint64(maxRetries)
		}
		if base > 0 {
			c.retryBase = base
		}
	}
}

// WithTimeout bounds every single attempt
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBatchConcurrency bounds how many batch items run at once
func WithBatchConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchLimit = n
		}
	}
}

// NewClient creates a client on top of an invoker
func NewClient(invoker Invoker, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		invoker:    invoker,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
		timeout:    defaultTimeout,
		batchLimit: defaultBatchLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig wires a FunctionsInvoker and the retry settings from cfg.
// A configured access token is sent instead of the anon key.
func NewClientFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	invoker := NewFunctionsInvoker(cfg.FunctionsURL, cfg.SupabaseAnonKey, nil, logger)
	if cfg.AccessToken != "" {
		token := cfg.AccessToken
		invoker.WithToken(func(context.Context) string { return token })
	}
	return NewClient(invoker, logger,
		WithRetry(cfg.APIMaxRetries, cfg.APIRetryBase),
		WithTimeout(cfg.APITimeout),
	)
}

// GetByID fetches one document
func (c *Client) GetByID(ctx context.Context, id string, repositoryType content.RepositoryType) (*content.ContentDocument, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "is required")
	}
	if !repositoryType.Valid() {
		return nil, domain.NewValidationError("repository_type", "unknown repository type %q", repositoryType)
	}

	req := &content.Request{Action: content.ActionGet, RepositoryType: repositoryType, ID: id}
	raw, err := c.call(ctx, key(req.Action, string(repositoryType), id), req)
	if err != nil {
		return nil, err
	}

	doc, err := legacy.Decode(repositoryType, raw)
	if err != nil {
		return nil, err
	}
	if doc.ID != id {
		return nil, domain.NewValidationError("id", "asked for %q, got %q", id, doc.ID)
	}
	return doc, nil
}

// List returns the documents of one repository type matching filters
func (c *Client) List(ctx context.Context, repositoryType content.RepositoryType, filters content.ListFilters) ([]content.ContentDocument, error) {
	if !repositoryType.Valid() {
		return nil, domain.NewValidationError("repository_type", "unknown repository type %q", repositoryType)
	}
	if filters.Limit < 0 || filters.Offset < 0 {
		return nil, domain.NewValidationError("filters", "limit and offset must not be negative")
	}

	req := &content.Request{Action: content.ActionList, RepositoryType: repositoryType, Filters: &filters}
	raw, err := c.call(ctx, key(req.Action, string(repositoryType), hashOf(filters)), req)
	if err != nil {
		return nil, err
	}
	return legacy.DecodeList(repositoryType, raw)
}

// Create stores a new document. The server assigns id, version 1 and timestamps;
// a local placeholder id is dropped before sending.
func (c *Client) Create(ctx context.Context, doc *content.ContentDocument) (*content.ContentDocument, error) {
	if doc == nil {
		return nil, domain.NewValidationError("document", "is required")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	outgoing := doc.Clone()
	if outgoing.IsPlaceholder() {
		outgoing.ID = ""
	}
	outgoing.Version = 0

	req := &content.Request{Action: content.ActionCreate, RepositoryType: doc.RepositoryType, Document: outgoing}
	raw, err := c.call(ctx, key(req.Action, string(doc.RepositoryType), hashOf(outgoing)), req)
	if err != nil {
		return nil, err
	}
	return legacy.Decode(doc.RepositoryType, raw)
}

// Update applies a partial update. The server increments the version and
// returns the full canonical record.
func (c *Client) Update(ctx context.Context, id string, repositoryType content.RepositoryType, fields content.UpdateFields) (*content.ContentDocument, error) {
	return c.update(ctx, id, repositoryType, fields, nil)
}

// UpdateIfVersion is Update guarded by the version the caller last saw.
// A stale version fails with a ConflictError instead of overwriting.
func (c *Client) UpdateIfVersion(ctx context.Context, id string, repositoryType content.RepositoryType, fields content.UpdateFields, expected int) (*content.ContentDocument, error) {
	return c.update(ctx, id, repositoryType, fields, &expected)
}

func (c *Client) update(ctx context.Context, id string, repositoryType content.RepositoryType, fields content.UpdateFields, expected *int) (*content.ContentDocument, error) {
	if err := validateUpdate(id, repositoryType, &fields); err != nil {
		return nil, err
	}

	req := &content.Request{
		Action:          content.ActionUpdate,
		RepositoryType:  repositoryType,
		ID:              id,
		Updates:         &fields,
		ExpectedVersion: expected,
	}
	raw, err := c.call(ctx, key(req.Action, string(repositoryType), id, hashOf(req)), req)
	if err != nil {
		return nil, err
	}
	c.Forget(id, repositoryType)
	return legacy.Decode(repositoryType, raw)
}

// Delete removes a document
func (c *Client) Delete(ctx context.Context, id string, repositoryType content.RepositoryType) error {
	if id == "" {
		return domain.NewValidationError("id", "is required")
	}
	if !repositoryType.Valid() {
		return domain.NewValidationError("repository_type", "unknown repository type %q", repositoryType)
	}

	req := &content.Request{Action: content.ActionDelete, RepositoryType: repositoryType, ID: id}
	if _, err := c.call(ctx, key(req.Action, string(repositoryType), id), req); err != nil {
		return err
	}
	c.Forget(id, repositoryType)
	return nil
}

// AutoSave writes a snapshot of the editing session. It never changes the document version.
func (c *Client) AutoSave(ctx context.Context, contentID, sessionID string, data content.SnapshotData, meta content.SnapshotMetadata) error {
	if contentID == "" || strings.HasPrefix(contentID, content.TempIDPrefix) {
		return domain.NewValidationError("content_id", "a saved document is required")
	}
	if sessionID == "" {
		return domain.NewValidationError("session_id", "is required")
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}

	req := &content.Request{
		Action:       content.ActionAutoSave,
		ContentID:    contentID,
		SessionID:    sessionID,
		SnapshotData: &data,
		Metadata:     &meta,
	}
	_, err := c.call(ctx, key(req.Action, contentID, sessionID, hashOf(data)), req)
	return err
}

// GetAutoSaveSnapshots lists the snapshots of one session, newest first
func (c *Client) GetAutoSaveSnapshots(ctx context.Context, contentID, sessionID string) ([]content.Snapshot, error) {
	if contentID == "" {
		return nil, domain.NewValidationError("content_id", "is required")
	}

	req := &content.Request{Action: content.ActionGetSnapshots, ContentID: contentID, SessionID: sessionID}
	raw, err := c.call(ctx, key(req.Action, contentID, sessionID), req)
	if err != nil {
		return nil, err
	}

	snapshots := []content.Snapshot{}
	if len(raw) == 0 || string(raw) == "null" {
		return snapshots, nil
	}
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, domain.NewValidationError("snapshots", "malformed snapshot list: %v", err)
	}
	return snapshots, nil
}

// BatchUpdate runs every update independently. The result slice matches the
// input order; a failing item never affects the others.
func (c *Client) BatchUpdate(ctx context.Context, updates []BatchUpdate) []BatchResult {
	results := make([]BatchResult, len(updates))
	if len(updates) > config.MaxBatchSize {
		err := domain.NewValidationError("updates", "at most %d items per batch", config.MaxBatchSize)
		for i, u := range updates {
			results[i] = BatchResult{ID: u.ID, Err: err}
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(c.batchLimit)
	for i, u := range updates {
		g.Go(func() error {
			doc, err := c.Update(ctx, u.ID, u.RepositoryType, u.Updates)
			results[i] = BatchResult{ID: u.ID, Success: err == nil, Document: doc, Err: err}
			if err != nil {
				c.logger.Warn("batch item failed", "id", u.ID, "repository_type", u.RepositoryType, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Pending returns how many distinct requests are in flight
func (c *Client) Pending() int {
	return int(c.pending.Load())
}

// Forget drops an in-flight get of a document, so the next GetByID for it
// starts a new request instead of joining one that may predate a write
func (c *Client) Forget(id string, repositoryType content.RepositoryType) {
	c.group.Forget(key(content.ActionGet, string(repositoryType), id))
}

// call runs one deduplicated, retried function call. The shared request is
// detached from the caller's cancellation so one caller leaving does not fail
// the others; each caller still stops waiting when its own context ends.
func (c *Client) call(ctx context.Context, key string, req *content.Request) (json.RawMessage, error) {
	function := functionFor(req)
	shared := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.pending.Add(1)
		defer c.pending.Add(-1)
		return c.invokeWithRetry(shared, function, req)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		raw, _ := res.Val.(json.RawMessage)
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) invokeWithRetry(ctx context.Context, function string, req *content.Request) (json.RawMessage, error) {
	backoff := retry.NewExponential(c.retryBase)
	backoff = retry.WithJitterPercent(10, backoff)
	backoff = retry.WithMaxRetries(c.maxRetries, backoff)

	var out json.RawMessage
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		raw, err := c.invoker.Invoke(attemptCtx, function, req)
		if err != nil {
			if domain.IsTransient(err) {
				c.logger.Warn("transient function error, retrying",
					"function", function,
					"action", req.Action,
					"attempt", attempt,
					"error", err,
				)
				return retry.RetryableError(err)
			}
			return err
		}
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func functionFor(req *content.Request) string {
	switch req.Action {
	case content.ActionAutoSave, content.ActionGetSnapshots:
		return content.FunctionContentManagement
	}
	return content.FunctionFor(req.RepositoryType)
}

func validateUpdate(id string, repositoryType content.RepositoryType, fields *content.UpdateFields) error {
	if id == "" {
		return domain.NewValidationError("id", "is required")
	}
	if strings.HasPrefix(id, content.TempIDPrefix) {
		return domain.NewValidationError("id", "placeholder documents must be created first")
	}
	if !repositoryType.Valid() {
		return domain.NewValidationError("repository_type", "unknown repository type %q", repositoryType)
	}
	if fields.IsEmpty() {
		return domain.NewValidationError("updates", "nothing to update")
	}
	if fields.Title != nil && strings.TrimSpace(*fields.Title) == "" {
		return domain.NewValidationError("title", "cannot be empty")
	}
	if fields.Title != nil && len(*fields.Title) > config.MaxTitleLength {
		return domain.NewValidationError("title", "at most %d characters", config.MaxTitleLength)
	}
	if fields.Status != nil {
		switch *fields.Status {
		case content.StatusDraft, content.StatusPublished, content.StatusArchived:
		default:
			return domain.NewValidationError("status", "unknown status %q", *fields.Status)
		}
	}
	if fields.Content != nil {
		if err := fields.Content.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// key composes a dedup key from its parts
func key(action content.Action, parts ...string) string {
	return string(action) + "|" + strings.Join(parts, "|")
}

// hashOf fingerprints a request body so calls with different payloads never share a request
func hashOf(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		// never share a request we cannot fingerprint
		return fmt.Sprintf("unhashable-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}
