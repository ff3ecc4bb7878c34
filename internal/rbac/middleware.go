package rbac

import (
	"log/slog"
	"net/http"

	"github.com/residence-hub/residence/internal/platform/httpx"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Gate   *Gate
	Logger *slog.Logger
}

// RequirePrincipal rejects requests without an active principal.
func (m Middleware) RequirePrincipal() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := m.Gate.Authorizer(r.Context()).Principal(); !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModule ensures the current principal may perform action on module.
func (m Middleware) RequireModule(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := m.Gate.Authorizer(r.Context()).Principal(); !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			result := m.Gate.Check(r.Context(), module, action)
			if !result.Allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", result.Reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin ensures the current principal is an admin.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := m.Gate.Authorizer(r.Context()).Principal(); !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			if result := m.Gate.CheckAdmin(r.Context(), "manage users"); !result.Allowed {
				if m.Logger != nil {
					m.Logger.Info("admin route denied", slog.String("path", r.URL.Path))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", result.Reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
