package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/residence-hub/residence/internal/platform/httpx"
	"github.com/residence-hub/residence/internal/rbac"
	"github.com/residence-hub/residence/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *rbac.Gate
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *rbac.Gate, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, rbac: rbac, validator: shared.NewValidator()}
}

// MountRoutes registers user routes. Account management is admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin())
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.showUser)
		r.Post("/", h.createUser)
		r.Put("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Invalid(w, shared.FieldErrors(err))
		return
	}
	var created User
	_, err := h.gate.DispatchAdmin(r.Context(), "add users", func(ctx context.Context) error {
		var err error
		created, err = h.service.Create(ctx, in)
		return err
	})
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	h.respondFresh(w, r, created.ID, http.StatusCreated)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Invalid(w, shared.FieldErrors(err))
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	_, err := h.gate.DispatchAdmin(r.Context(), "edit users", func(ctx context.Context) error {
		_, err := h.service.Update(ctx, actor, id, in)
		return err
	})
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	h.respondFresh(w, r, id, http.StatusOK)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	_, err := h.gate.DispatchAdmin(r.Context(), "delete users", func(ctx context.Context) error {
		return h.service.Delete(ctx, actor, id)
	})
	if err != nil {
		h.fail(w, "delete user", err)
		return
	}
	h.listUsers(w, r)
}

// respondFresh re-reads the account so the client sees the stored state.
func (h *Handler) respondFresh(w http.ResponseWriter, r *http.Request, id int64, status int) {
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "reload user", err)
		return
	}
	httpx.JSON(w, status, user)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var denied *rbac.DeniedError
	if errors.As(err, &denied) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", denied.Result.Reason)
		return
	}
	if h.logger != nil && !isDomainError(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func isDomainError(err error) bool {
	return errors.Is(err, httpx.ErrNotFound) ||
		errors.Is(err, httpx.ErrDuplicate) ||
		errors.Is(err, httpx.ErrConflict) ||
		errors.Is(err, httpx.ErrValidation)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return 0, false
	}
	return id, true
}
