package commands_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/auditlog"
	"github.com/cleared-dev/ledger/internal/chart"
	"github.com/cleared-dev/ledger/internal/commands"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/history"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

func runLedger(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := commands.NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runLedger(t, args...)
	require.NoError(t, err, "ledger %s: %s", strings.Join(args, " "), out)
	return out
}

func initLedger(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, append([]string{"init", dir, "--chart", "CHT"}, extra...)...)
	return dir
}

func TestInit_CreatesLedger(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, "init", dir, "--chart", "CHT", "--base-layer", "USD=1000,EUR=2000")
	assert.Contains(t, out, "Initialized ledger CHT")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "CHT", cfg.Ledger.Chart)
	assert.Equal(t, map[string]int{"USD": 1000, "EUR": 2000}, cfg.BaseLayers)

	for _, f := range []string{store.AccountsFile, store.EntriesFile, store.TransactionsFile, store.StructureFile} {
		_, err := os.Stat(filepath.Join(dir, "data", f))
		require.NoError(t, err, "%s should exist", f)
	}

	m, err := store.Load(filepath.Join(dir, "data"))
	require.NoError(t, err)
	err = m.View(context.Background(), func(tx *store.Tx) error {
		root, ok := tx.ChartByCode("CHT")
		require.True(t, ok)
		assert.Len(t, tx.Accounts(root.ID), 8, "chart plus seven top-level composites")
		j, ok := tx.JournalByName(root.ID, "main")
		require.True(t, ok)
		assert.Len(t, j.Layers, 14)
		assert.Len(t, tx.Currencies(), 2)
		return nil
	})
	require.NoError(t, err)

	entries, err := auditlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "init", entries[0].Action)
	assert.Equal(t, "CHT", entries[0].Reference)
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := initLedger(t)
	_, err := runLedger(t, "init", dir, "--chart", "CHT")
	assert.ErrorContains(t, err, "already exists")
}

func TestInit_RequiresChart(t *testing.T) {
	_, err := runLedger(t, "init", t.TempDir())
	assert.ErrorContains(t, err, "chart")
}

func TestInit_RejectsOverlappingLayers(t *testing.T) {
	_, err := runLedger(t, "init", t.TempDir(), "--chart", "CHT", "--base-layer", "USD=1000,EUR=1005")
	assert.ErrorContains(t, err, "overlap")
}

func TestOpen_MissingConfig(t *testing.T) {
	_, err := runLedger(t, "account", "list", "--dir", t.TempDir())
	assert.ErrorContains(t, err, "reading config")
}

func TestInit_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := initLedger(t, "--git")
	assert.True(t, history.IsRepo(dir))

	mustRun(t, "account", "create", "--dir", dir, "--parent", "CHT1", "--description", "Cash")

	repo, err := history.Open(dir, history.Author{})
	require.NoError(t, err)
	subjects, err := repo.Log(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"account-create: CHT1001", "init: CHT"}, subjects)
}

func TestAccountCreateAndList(t *testing.T) {
	dir := initLedger(t)

	out := mustRun(t, "account", "create", "-C", dir, "--parent", "CHT5", "--description", "Fees",
		"--kind", "EXPENSE", "--meta", "segment=ops")
	assert.Equal(t, "CHT5001\tFees\n", out)

	out = mustRun(t, "account", "create", "-C", dir, "--parent", "CHT5", "--description", "Fees")
	assert.Equal(t, "CHT5001\tFees\n", out, "existing account returned")

	out = mustRun(t, "account", "create", "-C", dir, "--parent", "CHT5", "--description", "Travel", "--padding", "2")
	assert.Equal(t, "CHT502\tTravel\n", out)

	out = mustRun(t, "account", "list", "-C", dir)
	assert.Contains(t, out, "segment:ops,type:EXPENSE")
	assert.Contains(t, out, "Bridge Liabilities-Fees")
	assert.Contains(t, out, "Bridge Assets-Travel")

	_, err := runLedger(t, "account", "create", "-C", dir, "--parent", "CHT7", "--description", "X")
	assert.ErrorIs(t, err, model.ErrParentNotFound)
}

func TestChartImport(t *testing.T) {
	dir := initLedger(t)
	payload := filepath.Join(t.TempDir(), "chart.yaml")
	require.NoError(t, os.WriteFile(payload, []byte(`
chart: {code: CHT, description: Chart of accounts, currency: USD}
accounts:
  - code: CHT4001
    description: Sales
    parent: CHT4
journals:
  - name: main
    rules:
      - {class: limits.Daily, params: {max: "500"}, layers: [1004]}
`), 0o644))

	out := mustRun(t, "chart", "import", payload, "-C", dir)
	assert.Contains(t, out, "created=1")
	assert.Contains(t, out, "rules=1")

	out = mustRun(t, "account", "list", "-C", dir)
	assert.Contains(t, out, "Sales")
}

func TestInit_WritesStarterChart(t *testing.T) {
	dir := initLedger(t)

	p, err := chart.DecodeFile(filepath.Join(dir, commands.StarterChartFile))
	require.NoError(t, err)
	assert.Equal(t, "CHT", p.Chart.Code)
	assert.Len(t, p.Accounts, 7)
	require.Len(t, p.Journals, 1)
	assert.Equal(t, "main", p.Journals[0].Name)

	out := mustRun(t, "chart", "import", filepath.Join(dir, commands.StarterChartFile), "-C", dir)
	assert.Contains(t, out, "created=0 updated=0 currencies=0 journals=0 layers=0 rules=0")
}

func TestChartList(t *testing.T) {
	dir := initLedger(t)

	out := mustRun(t, "chart", "list", "-C", dir)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"CODE", "CURRENCY", "ACCOUNTS", "JOURNALS", "DESCRIPTION"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"CHT", "USD", "7", "1", "Chart", "of", "accounts"}, strings.Fields(lines[1]))
}
