package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tengebook-dev/tengebook/internal/config"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestInitCreatesConfigAndSystemWallet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, "init", dir))

	cfg, err := config.Load(filepath.Join(dir, "tengebook.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.BackendJSON, cfg.Storage.Backend)
	assert.DirExists(t, filepath.Join(dir, "backups"))

	wallets, err := storage.NewJSONStore(cfg.Storage.JSONPath).Wallets()
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.True(t, wallets[0].System)
}

func TestInitRejectsUnknownBackend(t *testing.T) {
	err := run(t, "init", t.TempDir(), "--backend", "postgres")
	require.Error(t, err)
}

func TestMigrateCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, "init", dir))
	cfgPath := filepath.Join(dir, "tengebook.yaml")

	require.NoError(t, run(t, "--config", cfgPath, "migrate", "--dry-run"))
	require.NoError(t, run(t, "--config", cfgPath, "migrate"))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, cfg.Storage.SQLitePath)

	dest, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
	require.NoError(t, err)
	defer dest.Close()
	wallets, err := dest.Wallets()
	require.NoError(t, err)
	require.Len(t, wallets, 1)

	// Idempotent re-run.
	require.NoError(t, run(t, "--config", cfgPath, "migrate"))
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, "init", dir))
	cfgPath := filepath.Join(dir, "tengebook.yaml")

	out := filepath.Join(dir, "export.json")
	require.NoError(t, run(t, "--config", cfgPath, "export", "--out", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Main wallet")
}

func TestImportRequiresForce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, "init", dir))
	cfgPath := filepath.Join(dir, "tengebook.yaml")

	csvPath := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte("2025-03-10,income,1,Salary,100,KZT,1,100\n"), 0o644))

	err := run(t, "--config", cfgPath, "import", csvPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, run(t, "--config", cfgPath, "import", csvPath, "--force", "--policy", "full_backup"))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	records, err := storage.NewJSONStore(cfg.Storage.JSONPath).Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Salary", records[0].Category)
}

func TestImportMandatoryTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, "init", dir))
	cfgPath := filepath.Join(dir, "tengebook.yaml")

	csvPath := filepath.Join(dir, "mandatory.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte(",mandatory_expense,1,Rent,150000,KZT,1,150000,Apartment,monthly\n"), 0o644))

	require.NoError(t, run(t, "--config", cfgPath, "import", csvPath, "--mandatory", "--force"))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	templates, err := storage.NewJSONStore(cfg.Storage.JSONPath).MandatoryExpenses()
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Rent", templates[0].Category)
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(t, "init", dir))
	cfgPath := filepath.Join(dir, "tengebook.yaml")

	require.NoError(t, run(t, "--config", cfgPath, "report"))
	require.NoError(t, run(t, "--config", cfgPath, "report", "--period", "2025"))
	require.Error(t, run(t, "--config", cfgPath, "report", "--wallet", "99"))
}
