package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"aigym/internal/domain/models/content"
	"aigym/internal/httputil"
)

// Recovery turns a handler panic into a 500 error envelope.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					"error", rec,
					"path", r.URL.Path,
					"method", r.Method,
					"user_id", httputil.GetUserID(r),
					"stack", string(debug.Stack()),
				)
				httputil.RespondErrorCode(w, http.StatusInternalServerError, content.CodeInternal, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
