package rbac

import (
	"context"
	"sync"
)

// PrincipalSource supplies the principal a decision is made for.
type PrincipalSource interface {
	CurrentPrincipal() (Principal, bool)
}

// PrincipalHolder keeps the principal of a single interactive session.
// It is safe for concurrent use.
type PrincipalHolder struct {
	mu        sync.RWMutex
	principal *Principal
}

// NewPrincipalHolder returns an empty holder.
func NewPrincipalHolder() *PrincipalHolder {
	return &PrincipalHolder{}
}

// Set replaces the held principal.
func (h *PrincipalHolder) Set(p Principal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.principal = &p
}

// CurrentPrincipal returns the held principal, if any.
func (h *PrincipalHolder) CurrentPrincipal() (Principal, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.principal == nil {
		return Principal{}, false
	}
	return *h.principal, true
}

// Logout clears the held principal.
func (h *PrincipalHolder) Logout() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.principal = nil
}

type principalContextKey struct{}

// ContextWithPrincipal stores the request principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the request principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// ContextSource adapts a request context to PrincipalSource.
type ContextSource struct {
	Ctx context.Context
}

// CurrentPrincipal implements PrincipalSource.
func (s ContextSource) CurrentPrincipal() (Principal, bool) {
	if s.Ctx == nil {
		return Principal{}, false
	}
	return PrincipalFromContext(s.Ctx)
}

var (
	_ PrincipalSource = (*PrincipalHolder)(nil)
	_ PrincipalSource = ContextSource{}
)
