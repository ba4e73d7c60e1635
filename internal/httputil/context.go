package httputil

import (
	"context"
	"net/http"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller of a request
type Identity struct {
	UserID string
	Email  string
	Role   string // admin app role from app_metadata, empty for plain users
}

// WithIdentity stores the caller in the request context
func WithIdentity(r *http.Request, id Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey, id))
}

// GetIdentity returns the caller, or the zero Identity for anonymous requests
func GetIdentity(r *http.Request) Identity {
	id, _ := r.Context().Value(identityKey).(Identity)
	return id
}

// WithUserID stores a caller known only by ID
func WithUserID(r *http.Request, userID string) *http.Request {
	return WithIdentity(r, Identity{UserID: userID})
}

// GetUserID retrieves the caller's ID, empty when not authenticated
func GetUserID(r *http.Request) string {
	return GetIdentity(r).UserID
}
