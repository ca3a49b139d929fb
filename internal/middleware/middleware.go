package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"ContactDesk/internal/sessions"
)

// RequireUser gates a route group behind an authenticated session. Anonymous
// requests get a warning flash and land on the login page.
func RequireUser(sm *sessions.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := sm.UserID(r); !ok {
				_ = sm.AddFlash(w, r, "warning", "Please log in to access this page.")
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recoverer turns a panicking handler into the generic 500 page. Any open
// request transaction has already been rolled back by the handler's defer
// before the panic reaches this point. The fault is logged server-side only.
func Recoverer(logger *zap.Logger, serverError http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic while serving request",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					serverError(w, r)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
