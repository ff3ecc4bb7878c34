package buildings

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

// Handler serves the building registry.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *rbac.Gate
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *rbac.Gate, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, gate: gate, rbac: rbac, validator: shared.NewValidator()}
}

// MountRoutes registers building routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireModule(rbac.ModuleBuildings, rbac.ActionView)).Get("/", h.listBuildings)
	r.With(h.rbac.RequireModule(rbac.ModuleBuildings, rbac.ActionView)).Get("/{id}", h.showBuilding)
	r.With(h.rbac.RequireModule(rbac.ModuleBuildings, rbac.ActionAdd)).Post("/", h.createBuilding)
	r.With(h.rbac.RequireModule(rbac.ModuleBuildings, rbac.ActionEdit)).Put("/{id}", h.updateBuilding)
	r.With(h.rbac.RequireModule(rbac.ModuleBuildings, rbac.ActionDelete)).Delete("/{id}", h.deleteBuilding)
}

func (h *Handler) listBuildings(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	result, err := h.service.List(r.Context(), ListFilter{
		Query:   r.URL.Query().Get("q"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.fail(w, "list buildings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) showBuilding(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get building", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) createBuilding(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	var created Building
	_, err := h.gate.Dispatch(r.Context(), rbac.ModuleBuildings, rbac.ActionAdd, func(ctx context.Context) error {
		var err error
		created, err = h.service.Create(ctx, actor, in)
		return err
	})
	if err != nil {
		h.fail(w, "create building", err)
		return
	}
	h.respondFresh(w, r, created.ID, http.StatusCreated)
}

func (h *Handler) updateBuilding(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	_, err := h.gate.Dispatch(r.Context(), rbac.ModuleBuildings, rbac.ActionEdit, func(ctx context.Context) error {
		_, err := h.service.Update(ctx, actor, id, in)
		return err
	})
	if err != nil {
		h.fail(w, "update building", err)
		return
	}
	h.respondFresh(w, r, id, http.StatusOK)
}

func (h *Handler) deleteBuilding(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	_, err := h.gate.Dispatch(r.Context(), rbac.ModuleBuildings, rbac.ActionDelete, func(ctx context.Context) error {
		return h.service.Delete(ctx, actor, id)
	})
	if err != nil {
		h.fail(w, "delete building", err)
		return
	}
	h.listBuildings(w, r)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return Input{}, false
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Invalid(w, shared.FieldErrors(err))
		return Input{}, false
	}
	return in, true
}

// respondFresh re-reads the building so the client sees the stored state.
func (h *Handler) respondFresh(w http.ResponseWriter, r *http.Request, id int64, status int) {
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "reload building", err)
		return
	}
	httpx.JSON(w, status, b)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var denied *rbac.DeniedError
	if errors.As(err, &denied) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", denied.Result.Reason)
		return
	}
	switch {
	case errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrDuplicate),
		errors.Is(err, httpx.ErrConflict),
		errors.Is(err, httpx.ErrValidation):
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid building id")
		return 0, false
	}
	return id, true
}
