package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
	"aigym/internal/domain/services"
	"aigym/internal/httputil"
	"aigym/internal/legacy"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FunctionsHandler serves the content functions. Every call is a POST with
// an action discriminator; answers use the {data, error} envelope and rows
// are written in the legacy shape of their repository type.
type FunctionsHandler struct {
	contentService services.ContentService
	logger         *slog.Logger
}

// NewFunctionsHandler creates a new functions handler
func NewFunctionsHandler(contentService services.ContentService, logger *slog.Logger) *FunctionsHandler {
	return &FunctionsHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// fixedTypes maps the single-family functions to their repository type.
// content-management-api takes the type from the request.
var fixedTypes = map[string]content.RepositoryType{
	content.FunctionWods:     content.RepositoryWods,
	content.FunctionBlocks:   content.RepositoryBlocks,
	content.FunctionPrograms: content.RepositoryPrograms,
}

// Invoke dispatches one function call
// POST /functions/v1/{function}
func (h *FunctionsHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	function := r.PathValue("function")
	if _, ok := fixedTypes[function]; !ok && function != content.FunctionContentManagement {
		httputil.RespondErrorCode(w, http.StatusNotFound, content.CodeNotFound, "unknown function "+function)
		return
	}

	var req content.Request
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httputil.RespondErrorCode(w, status, content.CodeBadRequest, err.Error())
		return
	}

	repositoryType, err := resolveRepositoryType(function, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	caller := httputil.GetIdentity(r)
	userID := caller.UserID
	ctx := r.Context()
	start := time.Now()

	var data interface{}
	switch req.Action {
	case content.ActionGet:
		doc, err := h.contentService.Get(ctx, repositoryType, req.ID)
		if err == nil {
			data, err = legacy.Encode(doc)
		}
		if err != nil {
			handleError(w, h.logger, err)
			return
		}

	case content.ActionList:
		filters := content.ListFilters{}
		if req.Filters != nil {
			filters = *req.Filters
		}
		docs, err := h.contentService.List(ctx, repositoryType, filters)
		if err == nil {
			data, err = legacy.EncodeList(docs)
		}
		if err != nil {
			handleError(w, h.logger, err)
			return
		}

	case content.ActionCreate:
		doc := req.Document
		if doc.RepositoryType == "" {
			doc.RepositoryType = repositoryType
		}
		if doc.RepositoryType != repositoryType {
			handleError(w, h.logger, domain.NewValidationError("document.repository_type", "%q does not match %q", doc.RepositoryType, repositoryType))
			return
		}
		created, err := h.contentService.Create(ctx, &services.CreateContentRequest{Document: doc, UserID: userID})
		if err == nil {
			data, err = legacy.Encode(created)
		}
		if err != nil {
			handleError(w, h.logger, err)
			return
		}

	case content.ActionUpdate:
		updated, err := h.contentService.Update(ctx, &services.UpdateContentRequest{
			RepositoryType:  repositoryType,
			ID:              req.ID,
			Fields:          *req.Updates,
			ExpectedVersion: req.ExpectedVersion,
			UserID:          userID,
		})
		if err == nil {
			data, err = legacy.Encode(updated)
		}
		if err != nil {
			handleError(w, h.logger, err)
			return
		}

	case content.ActionDelete:
		if err := h.contentService.Delete(ctx, repositoryType, req.ID); err != nil {
			handleError(w, h.logger, err)
			return
		}
		data = map[string]interface{}{"id": req.ID, "deleted": true}

	case content.ActionAutoSave:
		snapshot, err := h.contentService.AutoSave(ctx, &services.AutoSaveRequest{
			ContentID: req.ContentID,
			SessionID: req.SessionID,
			Data:      *req.SnapshotData,
			Metadata:  metadataOrZero(req.Metadata),
			UserID:    userID,
		})
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		data = snapshot

	case content.ActionGetSnapshots:
		snapshots, err := h.contentService.ListSnapshots(ctx, req.ContentID, req.SessionID)
		if err != nil {
			handleError(w, h.logger, err)
			return
		}
		data = snapshots
	}

	h.logger.Debug("function call",
		"function", function,
		"action", req.Action,
		"repository_type", repositoryType,
		"user_id", userID,
		"role", caller.Role,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.RespondData(w, http.StatusOK, data)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *FunctionsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// resolveRepositoryType picks the repository type a call operates on. Snapshot
// actions are served by content-management-api only and need no type.
func resolveRepositoryType(function string, req *content.Request) (content.RepositoryType, error) {
	switch req.Action {
	case content.ActionAutoSave, content.ActionGetSnapshots:
		if function != content.FunctionContentManagement {
			return "", domain.NewValidationError("action", "%s is served by %s", req.Action, content.FunctionContentManagement)
		}
		return "", nil
	}

	if fixed, ok := fixedTypes[function]; ok {
		if req.RepositoryType != "" && req.RepositoryType != fixed {
			return "", domain.NewValidationError("repository_type", "%s serves %s only", function, fixed)
		}
		return fixed, nil
	}

	if !req.RepositoryType.Valid() {
		return "", domain.NewValidationError("repository_type", "unknown repository type %q", req.RepositoryType)
	}
	return req.RepositoryType, nil
}

// validateRequest checks that the fields each action needs are present
func validateRequest(req *content.Request) error {
	needsID := req.Action == content.ActionGet || req.Action == content.ActionUpdate || req.Action == content.ActionDelete
	isSnapshot := req.Action == content.ActionAutoSave || req.Action == content.ActionGetSnapshots
	isCreate := req.Action == content.ActionCreate

	err := validation.ValidateStruct(req,
		validation.Field(&req.Action, validation.Required, validation.In(
			content.ActionGet, content.ActionList, content.ActionCreate, content.ActionUpdate,
			content.ActionDelete, content.ActionAutoSave, content.ActionGetSnapshots,
		)),
		validation.Field(&req.ID, validation.When(needsID, validation.Required)),
		// the service validates the document itself once defaults are applied.
		// When re-runs the Validatable check on its own, so Skip goes inside too.
		validation.Field(&req.Document, validation.When(isCreate, validation.Required, validation.Skip), validation.Skip),
		validation.Field(&req.Updates, validation.When(req.Action == content.ActionUpdate, validation.Required)),
		validation.Field(&req.ContentID, validation.When(isSnapshot, validation.Required)),
		validation.Field(&req.SessionID, validation.When(req.Action == content.ActionAutoSave, validation.Required)),
		validation.Field(&req.SnapshotData, validation.When(req.Action == content.ActionAutoSave, validation.Required)),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}

func metadataOrZero(meta *content.SnapshotMetadata) content.SnapshotMetadata {
	if meta == nil {
		return content.SnapshotMetadata{}
	}
	return *meta
}
