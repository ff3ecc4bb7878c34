package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/residence-hub/residence/internal/platform/httpx"
	"github.com/residence-hub/residence/internal/rbac"
)

// Service handles user account rules.
type Service struct {
	repo     Repository
	hashCost int
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, hashCost: bcrypt.DefaultCost}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create hashes the password and stores a new account. Accounts are active
// unless the input says otherwise.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	role, err := rbac.ParseRole(in.Role)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.repo.Create(ctx, User{
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Role:         role,
		IsActive:     active,
	})
}

// Update edits an account, re-hashing the password only when one is given and
// keeping the current active flag when none is given. The acting principal
// cannot demote or deactivate itself.
func (s *Service) Update(ctx context.Context, actor rbac.Principal, id int64, in UpdateInput) (User, error) {
	if id <= 0 {
		return User{}, ErrNotFound
	}
	role, err := rbac.ParseRole(in.Role)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	active := current.IsActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if actor.ID == id && (role != rbac.RoleAdmin || !active) {
		return User{}, ErrSelfLockout
	}
	u := User{
		ID:          id,
		Username:    strings.TrimSpace(in.Username),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        role,
		IsActive:    active,
	}
	withPassword := in.Password != ""
	if withPassword {
		if u.PasswordHash, err = s.hash(in.Password); err != nil {
			return User{}, err
		}
	}
	return s.repo.Update(ctx, u, withPassword)
}

// Delete removes an account. The acting principal cannot delete itself.
func (s *Service) Delete(ctx context.Context, actor rbac.Principal, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if actor.ID == id {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hash), nil
}

// resolveTimeout bounds a shared principal lookup once it is detached from the
// caller that started it.
const resolveTimeout = 5 * time.Second

// Resolver loads the principal for a session's user id. Concurrent lookups
// for the same id share one repository call.
type Resolver struct {
	repo  Repository
	group singleflight.Group
}

// NewResolver builds a Resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the principal for id. Each caller waits on its own ctx while
// the shared lookup runs detached from any single caller's cancellation.
func (r *Resolver) Resolve(ctx context.Context, id int64) (rbac.Principal, error) {
	ch := r.group.DoChan(strconv.FormatInt(id, 10), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()
		u, err := r.repo.Get(lookupCtx, id)
		if err != nil {
			return nil, err
		}
		return u.Principal(), nil
	})
	select {
	case <-ctx.Done():
		return rbac.Principal{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return rbac.Principal{}, res.Err
		}
		return res.Val.(rbac.Principal), nil
	}
}
