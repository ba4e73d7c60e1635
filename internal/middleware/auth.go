package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"aigym/internal/auth"
	"aigym/internal/httputil"
)

// publicPaths skip authentication
var publicPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware verifies the Supabase access token in the Authorization
// header and stores the caller's identity in the request context.
// Pre-flight requests and public paths pass through untouched.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, httputil.Identity{
				UserID: claims.GetUserID(),
				Email:  claims.Email,
				Role:   claims.AppRole(),
			}))
		})
	}
}

// DevAuthMiddleware runs every request as a fixed admin user.
// Used only when no JWKS endpoint is configured outside production.
func DevAuthMiddleware(testUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, httputil.WithIdentity(r, httputil.Identity{UserID: testUserID, Role: "admin"}))
		})
	}
}
