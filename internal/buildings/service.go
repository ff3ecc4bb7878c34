package buildings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/residence-hub/residence/internal/platform/httpx"
	"github.com/residence-hub/residence/internal/rbac"
	"github.com/residence-hub/residence/internal/shared"
)

// Auditor records building mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles building registry rules.
type Service struct {
	repo    Repository
	auditor Auditor
	logger  *slog.Logger
}

// NewService builds Service instance. auditor may be nil.
func NewService(repo Repository, auditor Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, auditor: auditor, logger: logger}
}

// List returns one page of buildings.
func (s *Service) List(ctx context.Context, filter ListFilter) (Page, error) {
	p := shared.NewPagination(filter.Page, filter.PerPage, 0)
	filter.Page, filter.PerPage = p.Page, p.PerPage
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Building{}
	}
	return Page{Items: items, Pagination: shared.NewPagination(filter.Page, filter.PerPage, total)}, nil
}

// Get returns one building.
func (s *Service) Get(ctx context.Context, id int64) (Building, error) {
	if id <= 0 {
		return Building{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create stores a new building.
func (s *Service) Create(ctx context.Context, actor rbac.Principal, in Input) (Building, error) {
	b, err := normalize(in)
	if err != nil {
		return Building{}, err
	}
	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return Building{}, err
	}
	s.audit(ctx, actor, "create", created)
	return created, nil
}

// Update replaces the editable fields of a building.
func (s *Service) Update(ctx context.Context, actor rbac.Principal, id int64, in Input) (Building, error) {
	if id <= 0 {
		return Building{}, ErrNotFound
	}
	b, err := normalize(in)
	if err != nil {
		return Building{}, err
	}
	b.ID = id
	updated, err := s.repo.Update(ctx, b)
	if err != nil {
		return Building{}, err
	}
	s.audit(ctx, actor, "update", updated)
	return updated, nil
}

// Delete removes a building with no floors.
func (s *Service) Delete(ctx context.Context, actor rbac.Principal, id int64) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actor, "delete", current)
	return nil
}

func (s *Service) audit(ctx context.Context, actor rbac.Principal, action string, b Building) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "building",
		EntityID: strconv.FormatInt(b.ID, 10),
		Meta:     map[string]any{"code": b.Code, "name": b.Name},
	})
	if err != nil {
		s.logger.Warn("audit building", slog.String("action", action), slog.Int64("building_id", b.ID), slog.Any("error", err))
	}
}

func normalize(in Input) (Building, error) {
	b := Building{
		Code:       strings.ToUpper(strings.TrimSpace(in.Code)),
		Name:       strings.TrimSpace(in.Name),
		Address:    strings.TrimSpace(in.Address),
		FloorCount: in.FloorCount,
	}
	if b.Code == "" || b.Name == "" {
		return Building{}, fmt.Errorf("%w: code and name are required", httpx.ErrValidation)
	}
	if b.FloorCount < 0 {
		return Building{}, fmt.Errorf("%w: floor count must not be negative", httpx.ErrValidation)
	}
	return b, nil
}
