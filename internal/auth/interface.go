package auth

import "aigym/internal/domain/models"

// JWTVerifier checks Supabase access tokens for the auth middleware.
// Tests swap in fakes that map fixed tokens to claims.
type JWTVerifier interface {
	// VerifyToken returns the claims of a valid, non-anonymous token.
	// Every rejection is reported as domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close stops background key refresh
	Close() error
}
