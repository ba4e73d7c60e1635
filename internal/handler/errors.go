package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"aigym/internal/domain"
	"aigym/internal/domain/models/content"
	"aigym/internal/httputil"
)

// handleError converts domain errors to error envelopes
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondErrorCode(w, http.StatusBadRequest, content.CodeValidation, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondErrorCode(w, http.StatusNotFound, content.CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondErrorCode(w, http.StatusUnauthorized, content.CodeUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondErrorCode(w, http.StatusForbidden, content.CodeForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorCode(w, http.StatusConflict, content.CodeConflict, conflictErr.Error())
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondErrorCode(w, http.StatusInternalServerError, content.CodeInternal, "internal server error")
	}
}
