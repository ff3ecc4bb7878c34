package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/residence-hub/residence/internal/rbac"
	"github.com/residence-hub/residence/internal/users"
)

// AccountLookup finds an account by username.
type AccountLookup interface {
	FindByUsername(ctx context.Context, username string) (users.User, error)
}

// PermissionsCLI prints what a user or role may do.
type PermissionsCLI struct {
	lookup AccountLookup
	policy rbac.Policy
}

// NewPermissionsCLI constructs the helper. lookup may be nil when only --role is used.
func NewPermissionsCLI(lookup AccountLookup, policy rbac.Policy) *PermissionsCLI {
	if policy == nil {
		policy = rbac.DefaultPolicy()
	}
	return &PermissionsCLI{lookup: lookup, policy: policy}
}

// PermissionsOptions defines the flags of the permissions command.
type PermissionsOptions struct {
	Username   string
	Role       string
	Module     string
	Action     string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// PermissionsReport is the JSON output of the permissions command.
type PermissionsReport struct {
	Principal rbac.Principal        `json:"principal"`
	Modules   []rbac.ModuleControls `json:"modules,omitempty"`
	Check     *CheckReport          `json:"check,omitempty"`
}

// CheckReport is the outcome of a single --module/--action check.
type CheckReport struct {
	Module  rbac.Module `json:"module"`
	Action  rbac.Action `json:"action"`
	Allowed bool        `json:"allowed"`
	Reason  string      `json:"reason,omitempty"`
}

// Command runs the permissions workflow. It exits 0 on success, 1 on usage or
// lookup errors and 10 when a requested check is denied.
func (c *PermissionsCLI) Command(ctx context.Context, opts PermissionsOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	principal, err := c.principal(ctx, opts)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "permissions: %v\n", err)
		return 1
	}

	holder := rbac.NewPrincipalHolder()
	holder.Set(principal)
	authz := rbac.NewAuthorizer(c.policy, holder)

	report := PermissionsReport{Principal: principal}
	if opts.Module != "" || opts.Action != "" {
		module, err := rbac.ParseModule(opts.Module)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "permissions: %v\n", err)
			return 1
		}
		action, err := rbac.ParseAction(opts.Action)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "permissions: %v\n", err)
			return 1
		}
		result := authz.Check(module, action)
		report.Check = &CheckReport{Module: module, Action: action, Allowed: result.Allowed, Reason: result.Reason}
	} else {
		report.Modules = authz.Controls()
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(report); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "permissions: encode json: %v\n", err)
			return 1
		}
	} else if report.Check != nil {
		renderCheck(opts.Stdout, *report.Check)
	} else {
		_, _ = io.WriteString(opts.Stdout, authz.PermissionSummary())
	}

	if report.Check != nil && !report.Check.Allowed {
		return 10
	}
	return 0
}

func (c *PermissionsCLI) principal(ctx context.Context, opts PermissionsOptions) (rbac.Principal, error) {
	username := strings.TrimSpace(opts.Username)
	roleName := strings.TrimSpace(opts.Role)
	switch {
	case username != "" && roleName != "":
		return rbac.Principal{}, errors.New("use either --user or --role, not both")
	case roleName != "":
		role, err := rbac.ParseRole(roleName)
		if err != nil {
			return rbac.Principal{}, err
		}
		return rbac.Principal{Username: strings.ToLower(string(role)), DisplayName: role.Label(), Role: role, IsActive: true}, nil
	case username != "":
		if c.lookup == nil {
			return rbac.Principal{}, errors.New("no account store configured")
		}
		user, err := c.lookup.FindByUsername(ctx, username)
		if err != nil {
			return rbac.Principal{}, fmt.Errorf("lookup %s: %w", username, err)
		}
		if !user.IsActive {
			return rbac.Principal{}, fmt.Errorf("account %s is inactive", username)
		}
		return user.Principal(), nil
	default:
		return rbac.Principal{}, errors.New("--user or --role is required")
	}
}

func renderCheck(out io.Writer, check CheckReport) {
	if check.Allowed {
		_, _ = fmt.Fprintf(out, "ALLOWED %s %s\n", check.Action, check.Module)
		return
	}
	_, _ = fmt.Fprintf(out, "DENIED %s %s: %s\n", check.Action, check.Module, check.Reason)
}
