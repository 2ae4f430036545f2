package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"finance-client/internal/apitest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	srv    *apitest.Server
	apiURL string
	dbPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, apiURL := apitest.NewHTTPTest(t, apitest.Config{})
	return &harness{
		t:      t,
		srv:    srv,
		apiURL: apiURL,
		dbPath: filepath.Join(t.TempDir(), "session.db"),
	}
}

func (h *harness) runWithInput(stdin string, args ...string) (string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	full := append([]string{"-api", h.apiURL, "-db", h.dbPath}, args...)
	err := run(full, bytes.NewBufferString(stdin), stdout, stderr)
	return stdout.String(), err
}

func (h *harness) run(args ...string) (string, error) {
	return h.runWithInput("", args...)
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "finctl %v", args)
	return out
}

func (h *harness) register() {
	h.t.Helper()
	h.mustRun("register", "-email", "ada@example.com", "-first", "Ada", "-last", "Lovelace", "-password", "secret123")
}

func TestRun_RegisterPersistsSession(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("register", "-email", "ada@example.com", "-first", "Ada", "-last", "Lovelace", "-password", "secret123")
	assert.Contains(t, out, "Registered and logged in as Ada Lovelace")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "Ada Lovelace <ada@example.com>")

	out = h.mustRun("logout")
	assert.Contains(t, out, "Logged out")

	_, err := h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestRun_Sessions(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("sessions")
	assert.Contains(t, out, "No stored sessions")

	h.register()
	out = h.mustRun("sessions")
	assert.Contains(t, out, h.apiURL)
	assert.Contains(t, out, "ada@example.com")
}

func TestRun_LoginFailure(t *testing.T) {
	h := newHarness(t)
	h.register()

	_, err := h.run("login", "-email", "ada@example.com", "-password", "wrong-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	// The earlier session is untouched.
	out := h.mustRun("whoami")
	assert.Contains(t, out, "ada@example.com")
}

func TestRun_DuplicateRegistration(t *testing.T) {
	h := newHarness(t)
	h.register()

	_, err := h.run("register", "-email", "ada@example.com", "-first", "A", "-last", "B", "-password", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user with this email already exists")
}

func TestRun_InteractivePassword(t *testing.T) {
	h := newHarness(t)
	_, err := h.srv.AddUser("ada@example.com", "interactive_secret", "Ada", "Lovelace")
	require.NoError(t, err)

	out, err := h.runWithInput("interactive_secret\n", "login", "-email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Logged in as Ada Lovelace")
}

func TestRun_InteractivePassword_Empty(t *testing.T) {
	h := newHarness(t)

	_, err := h.runWithInput("\n", "login", "-email", "ada@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestRun_MissingFlags(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: email")

	_, err = h.run("register", "-email", "ada@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: first, last")
}

func TestRun_RequiresSession(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"tx", "list"},
		{"cat", "list"},
		{"summary"},
		{"tx", "add", "-amount", "5", "-desc", "Lunch"},
	} {
		_, err := h.run(args...)
		require.Error(t, err, "finctl %v", args)
		assert.Contains(t, err.Error(), "not logged in")
	}
}

func TestRun_TransactionFlow(t *testing.T) {
	h := newHarness(t)
	h.register()

	out := h.mustRun("cat", "add", "-name", "Food", "-type", "expense")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "#6B7280")

	var cats []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("-json", "cat", "list")), &cats))
	require.Len(t, cats, 1)
	catID := int64(cats[0]["id"].(float64))

	out = h.mustRun("tx", "add", "-amount", "12.50", "-type", "expense", "-desc", "Lunch",
		"-date", "2024-03-15", "-category", jsonNumber(catID))
	assert.Contains(t, out, "Lunch")
	assert.Contains(t, out, "-12.50")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "Balance")

	h.mustRun("tx", "add", "-amount", "1000", "-type", "income", "-desc", "Salary", "-date", "2024-04-01")

	out = h.mustRun("summary")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "987.50")

	out = h.mustRun("summary", "-from", "2024-03-01", "-to", "2024-03-31")
	assert.Contains(t, out, "-12.50")

	out = h.mustRun("tx", "list", "-from", "2024-04-01")
	assert.Contains(t, out, "Salary")
	assert.NotContains(t, out, "Lunch")

	var txs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("-json", "tx", "list")), &txs))
	require.Len(t, txs, 2)
	lunchID := int64(txs[1]["id"].(float64))

	out = h.mustRun("tx", "rm", jsonNumber(lunchID))
	assert.Contains(t, out, "Deleted transaction")
	assert.NotContains(t, out, "Lunch")
	assert.Contains(t, out, "Salary")

	_, err := h.run("tx", "rm", jsonNumber(lunchID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction not found")
}

func TestRun_InvalidTransaction(t *testing.T) {
	h := newHarness(t)
	h.register()

	_, err := h.run("tx", "add", "-type", "expense")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
	assert.Contains(t, err.Error(), "description")

	_, err = h.run("tx", "add", "-amount", "abc", "-desc", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestRun_RevokedSessionLogsOut(t *testing.T) {
	h := newHarness(t)
	h.register()
	h.srv.Revoke()

	_, err := h.run("tx", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")

	_, err = h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestRun_Products(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("product", "add", "-name", "Widget", "-price", "9.99", "-desc", "blue")
	assert.Contains(t, out, "Widget")

	var products []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("-json", "product", "list")), &products))
	require.Len(t, products, 1)
	id := jsonNumber(int64(products[0]["id"].(float64)))

	out = h.mustRun("product", "update", id, "-price", "12")
	assert.Contains(t, out, "12.00")
	assert.Contains(t, out, "blue")

	out = h.mustRun("product", "get", id)
	assert.Contains(t, out, "Widget")

	h.mustRun("product", "rm", id)
	_, err := h.run("product", "get", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")
}

func TestRun_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	_, err := h.run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing command")

	out, err := h.run("frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
	assert.Contains(t, out, "Usage:")

	_, err = h.run("tx", "edit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subcommand")
}

func TestRun_InvalidDBPath(t *testing.T) {
	h := newHarness(t)
	h.dbPath = t.TempDir()

	_, err := h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRun_InvalidFlag(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	stdin := new(bytes.Buffer)

	err := run([]string{"-invalid"}, stdin, stdout, stderr)
	require.Error(t, err, "expected error for invalid flag")
	assert.Contains(t, err.Error(), "flag provided but not defined")
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
