package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("DREAMBIZ_DATABASE_DRIVER", "sqlite")
	t.Setenv("DREAMBIZ_DATABASE_DSN", filepath.Join(t.TempDir(), "dreambiz.db"))
	t.Setenv("DREAMBIZ_LOG_LEVEL", "error")
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m), out)
	return m
}

func TestCommandsEndToEnd(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	out, err := run(t, "tenant", "create", "--user", "u1", "--name", "Kiosk", "--owner", "Tariro", "--currency", "zar")
	require.NoError(t, err)
	biz := decode(t, out)
	tenantID, _ := biz["id"].(string)
	require.NotEmpty(t, tenantID)
	assert.Equal(t, "ZAR", biz["currency"])

	_, err = run(t, "tenant", "create", "--user", "u1", "--name", "Second", "--owner", "Tariro")
	require.Error(t, err, "the free plan allows one profile")

	out, err = run(t, "sale", "record", "--user", "u1", "--tenant", tenantID, "--date", "2024-03-01", "--total", "40")
	require.NoError(t, err)
	rec := decode(t, out)
	sh, ok := rec["shift"].(map[string]any)
	require.True(t, ok, out)
	shiftID, _ := sh["id"].(string)
	require.NotEmpty(t, shiftID)

	out, err = run(t, "shift", "show", "--user", "u1", "--shift", shiftID)
	require.NoError(t, err)
	totals, ok := decode(t, out)["totals"].(map[string]any)
	require.True(t, ok, out)
	assert.Equal(t, "40", totals["expected_cash"])

	out, err = run(t, "shift", "close", "--user", "u1", "--shift", shiftID, "--actual-cash", "35")
	require.NoError(t, err)
	closed := decode(t, out)
	assert.Equal(t, "closed", closed["status"])
	assert.Equal(t, "-5", closed["cash_discrepancy"])

	out, err = run(t, "shift", "open", "--user", "u1", "--tenant", tenantID, "--date", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, "35", decode(t, out)["opening_cash"])

	_, err = run(t, "shift", "show", "--user", "u2", "--shift", shiftID)
	require.Error(t, err)
}

func TestSaleFlagsAreReadPerInvocation(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)
	out, err := run(t, "tenant", "create", "--user", "u1", "--name", "Stall", "--owner", "Tariro")
	require.NoError(t, err)
	tenantID, _ := decode(t, out)["id"].(string)
	require.NotEmpty(t, tenantID)

	_, err = run(t, "sale", "record", "--user", "u1", "--tenant", tenantID, "--date", "2024-03-01", "--total", "40")
	require.NoError(t, err)
	out, err = run(t, "sale", "record", "--user", "u1", "--tenant", tenantID, "--date", "2024-03-01", "--total", "15", "--method", "card")
	require.NoError(t, err)
	rec := decode(t, out)
	sale, _ := rec["sale"].(map[string]any)
	assert.Equal(t, "15", sale["total"])
	assert.Equal(t, "card", sale["method"])
	sh, _ := rec["shift"].(map[string]any)
	shiftID, _ := sh["id"].(string)

	_, err = run(t, "sale", "record", "--user", "u1", "--tenant", tenantID, "--date", "2024-03-01", "--total", "99", "--currency", "eur")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currency")

	out, err = run(t, "shift", "show", "--user", "u1", "--shift", shiftID)
	require.NoError(t, err)
	totals, ok := decode(t, out)["totals"].(map[string]any)
	require.True(t, ok, out)
	assert.Equal(t, "55", totals["gross"])
	assert.Equal(t, "40", totals["cash"])
}

func TestPlanSeed(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "plan", "seed")
	require.NoError(t, err)
	var created []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Len(t, created, 3)

	out, err = run(t, "plan", "seed")
	require.NoError(t, err)
	created = nil
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Empty(t, created)
}

func TestRequiredFlags(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "tenant", "list")
	require.EqualError(t, err, "--user is required")

	_, err = run(t, "shift", "close", "--user", "u1")
	require.EqualError(t, err, "--shift is required")

	_, err = run(t, "shift", "open", "--user", "u1", "--tenant", "not-an-id")
	require.EqualError(t, err, "--tenant is not a valid business profile id")
}

func TestTokenRequiresSecret(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "token", "--user", "u1")
	require.EqualError(t, err, "auth.jwt_secret is not set")

	t.Setenv("DREAMBIZ_AUTH_JWT_SECRET", "s3cret")
	out, err := run(t, "token", "--user", "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestUnsupportedDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DREAMBIZ_DATABASE_DRIVER", "oracle")
	t.Setenv("DREAMBIZ_DATABASE_DSN", "x")

	_, err := run(t, "migrate")
	require.Error(t, err)
}
