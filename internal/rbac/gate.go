package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/residence-hub/residence/internal/platform/httpx"
)

// ErrAccessDenied marks an authorization denial.
var ErrAccessDenied = errors.New("rbac: access denied")

// DeniedError carries the denial shown to the caller.
type DeniedError struct {
	Result PermissionResult
}

func (e *DeniedError) Error() string {
	return e.Result.Reason
}

// Unwrap lets callers match both ErrAccessDenied and httpx.ErrForbidden.
func (e *DeniedError) Unwrap() []error {
	return []error{ErrAccessDenied, httpx.ErrForbidden}
}

// DenialRecorder counts denied attempts.
type DenialRecorder interface {
	RecordAccessDenied(module, action, role string)
}

// Gate runs mutations only when the request principal is permitted.
type Gate struct {
	policy   Policy
	logger   *slog.Logger
	recorder DenialRecorder
}

// NewGate builds a Gate. logger and recorder may be nil.
func NewGate(policy Policy, logger *slog.Logger, recorder DenialRecorder) *Gate {
	return &Gate{policy: policy, logger: logger, recorder: recorder}
}

// Policy exposes the policy the gate decides with.
func (g *Gate) Policy() Policy {
	return g.policy
}

// Authorizer returns an Authorizer bound to the principal on ctx.
func (g *Gate) Authorizer(ctx context.Context) *Authorizer {
	return NewAuthorizer(g.policy, ContextSource{Ctx: ctx})
}

// Check decides (module, action) for the principal on ctx, recording denials.
func (g *Gate) Check(ctx context.Context, module Module, action Action) PermissionResult {
	authz := g.Authorizer(ctx)
	result := authz.Check(module, action)
	if !result.Allowed {
		role, _ := authz.role()
		g.denied(string(module), string(action), role)
	}
	return result
}

// Dispatch calls fn exactly once if the principal on ctx may perform action on
// module. On denial fn is not called and the error is a *DeniedError.
func (g *Gate) Dispatch(ctx context.Context, module Module, action Action, fn func(context.Context) error) (PermissionResult, error) {
	result := g.Check(ctx, module, action)
	if !result.Allowed {
		return result, &DeniedError{Result: result}
	}
	return result, fn(ctx)
}

// DispatchAdmin calls fn only for an admin principal. what names the attempted
// action in the denial, e.g. "delete users".
func (g *Gate) DispatchAdmin(ctx context.Context, what string, fn func(context.Context) error) (PermissionResult, error) {
	result := g.CheckAdmin(ctx, what)
	if !result.Allowed {
		return result, &DeniedError{Result: result}
	}
	return result, fn(ctx)
}

// CheckAdmin decides an admin-only action for the principal on ctx, recording
// denials under the USERS module.
func (g *Gate) CheckAdmin(ctx context.Context, what string) PermissionResult {
	authz := g.Authorizer(ctx)
	if authz.IsAdmin() {
		return Allow()
	}
	role, _ := authz.role()
	g.denied("USERS", what, role)
	return authz.AccessDenied(what)
}

func (g *Gate) denied(module, action string, role Role) {
	if g.recorder != nil {
		g.recorder.RecordAccessDenied(module, action, string(role))
	}
	if g.logger != nil {
		g.logger.Info("access denied",
			slog.String("module", module),
			slog.String("action", action),
			slog.String("role", role.Label()),
		)
	}
}
