package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/residence-hub/residence/internal/platform/httpx"
)

// PermissionsHandler exposes the current principal's permissions.
type PermissionsHandler struct {
	logger *slog.Logger
	gate   *Gate
	rbac   Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, gate *Gate, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, gate: gate, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePrincipal())
		r.Get("/me", h.showMine)
		r.Get("/summary", h.showSummary)
		r.Get("/check", h.check)
	})
}

type permissionsView struct {
	Principal Principal        `json:"principal"`
	Role      string           `json:"role"`
	Modules   []ModuleControls `json:"modules"`
}

func (h *PermissionsHandler) showMine(w http.ResponseWriter, r *http.Request) {
	authz := h.gate.Authorizer(r.Context())
	p, _ := authz.Principal()
	httpx.JSON(w, http.StatusOK, permissionsView{
		Principal: p,
		Role:      p.Role.Label(),
		Modules:   authz.Controls(),
	})
}

func (h *PermissionsHandler) showSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(h.gate.Authorizer(r.Context()).PermissionSummary())); err != nil && h.logger != nil {
		h.logger.Warn("write permission summary", slog.Any("error", err))
	}
}

// check answers ?module=&action= without performing anything.
func (h *PermissionsHandler) check(w http.ResponseWriter, r *http.Request) {
	module, err := ParseModule(r.URL.Query().Get("module"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	action, err := ParseAction(r.URL.Query().Get("action"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, h.gate.Authorizer(r.Context()).Check(module, action))
}
