package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/residence-hub/residence/internal/rbac"
	"github.com/residence-hub/residence/internal/users"
)

type stubLookup map[string]users.User

func (s stubLookup) FindByUsername(ctx context.Context, username string) (users.User, error) {
	u, ok := s[username]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func run(t *testing.T, cli *PermissionsCLI, opts PermissionsOptions) (int, string, string) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	opts.Stdout = stdout
	opts.Stderr = stderr
	code := cli.Command(context.Background(), opts)
	return code, stdout.String(), stderr.String()
}

func TestPermissionsSummaryForUser(t *testing.T) {
	cli := NewPermissionsCLI(stubLookup{
		"hoa": {ID: 3, Username: "hoa", Role: rbac.RoleAccountant, IsActive: true},
	}, nil)

	code, out, errOut := run(t, cli, PermissionsOptions{Username: "hoa"})
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Permissions for role Accountant:\n")
	assert.Contains(t, out, "Invoices: CRUD")
	assert.Contains(t, out, "Buildings: View only\n")
	assert.Contains(t, out, "Floors: No access\n")
}

func TestPermissionsCheckDeniedExitCode(t *testing.T) {
	cli := NewPermissionsCLI(nil, nil)

	code, out, _ := run(t, cli, PermissionsOptions{Role: "staff", Module: "invoices", Action: "delete"})
	assert.Equal(t, 10, code)
	assert.Equal(t, "DENIED DELETE INVOICES: You do not have permission to delete invoices. Current role: Staff.\n", out)

	code, out, _ = run(t, cli, PermissionsOptions{Role: "admin", Module: "invoices", Action: "delete"})
	assert.Equal(t, 0, code)
	assert.Equal(t, "ALLOWED DELETE INVOICES\n", out)
}

func TestPermissionsJSONOutput(t *testing.T) {
	cli := NewPermissionsCLI(nil, nil)
	code, out, _ := run(t, cli, PermissionsOptions{Role: "STAFF", JSONOutput: true})
	require.Equal(t, 0, code)

	var report PermissionsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, rbac.RoleStaff, report.Principal.Role)
	require.Len(t, report.Modules, len(rbac.Modules()))
	assert.Nil(t, report.Check)
}

func TestPermissionsUsageErrors(t *testing.T) {
	cli := NewPermissionsCLI(stubLookup{
		"off": {ID: 4, Username: "off", Role: rbac.RoleStaff, IsActive: false},
	}, nil)

	cases := []PermissionsOptions{
		{},
		{Username: "a", Role: "staff"},
		{Role: "owner"},
		{Username: "ghost"},
		{Username: "off"},
		{Role: "staff", Module: "garage", Action: "view"},
		{Role: "staff", Module: "floors", Action: "archive"},
	}
	for _, opts := range cases {
		code, _, errOut := run(t, cli, opts)
		assert.Equal(t, 1, code, "%+v", opts)
		assert.Contains(t, errOut, "permissions: ")
	}
}
