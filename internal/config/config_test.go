package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestRoundTrip(t *testing.T) {
	cfg := Default("Household")
	cfg.Storage.Backend = BackendSQLite
	cfg.Validation.MaxCategoryLength = 30

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("Household")

	assert.Equal(t, "Household", cfg.Book.Name)
	assert.Equal(t, "USD", cfg.Book.Currency)
	assert.Equal(t, BackendCSV, cfg.Storage.Backend)
	assert.Equal(t, "spent.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "2006-01-02", cfg.Validation.DateLayout)
	assert.Zero(t, cfg.Validation.MaxCategoryLength)
	assert.True(t, cfg.Validation.AllowFutureDates)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, "Spent", cfg.Git.AuthorName)
	assert.Equal(t, "book@spent.local", cfg.Git.AuthorEmail)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("book:\n  name: Trip\nvalidation:\n  allow_future_dates: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Trip", cfg.Book.Name)
	assert.False(t, cfg.Validation.AllowFutureDates)
	assert.Equal(t, BackendCSV, cfg.Storage.Backend, "unset keys keep defaults")
	assert.Equal(t, "2006-01-02", cfg.Validation.DateLayout)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("book: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Household")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Household")
	assert.Contains(t, contents, "backend: csv")
	assert.Contains(t, contents, "allow_future_dates: true")
	assert.Contains(t, contents, "auto_commit: true")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default("Household")
	err := cfg.ApplyEnv(envMap(map[string]string{
		"SPENT_LOG_LEVEL":       "debug",
		"SPENT_STORAGE_BACKEND": "sqlite",
		"SPENT_SQLITE_PATH":     "data/book.db",
		"SPENT_GIT_AUTO_COMMIT": "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "data/book.db", cfg.Storage.SQLitePath)
	assert.False(t, cfg.Git.AutoCommit)
}

func TestApplyEnv_Empty(t *testing.T) {
	cfg := Default("Household")
	require.NoError(t, cfg.ApplyEnv(envMap(nil)))
	assert.Equal(t, Default("Household"), cfg)
}

func TestApplyEnv_BadBool(t *testing.T) {
	cfg := Default("Household")
	err := cfg.ApplyEnv(envMap(map[string]string{"SPENT_GIT_AUTO_COMMIT": "sometimes"}))
	assert.ErrorContains(t, err, "SPENT_GIT_AUTO_COMMIT")
}

func TestValidate(t *testing.T) {
	cfg := Default("Household")
	cfg.Storage.Backend = "postgres"
	cfg.Validation.MaxCategoryLength = -1
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
	assert.Contains(t, err.Error(), "max_category_length")
	assert.Contains(t, err.Error(), "log.level")

	cfg = Default("Household")
	cfg.Storage.Backend = BackendSQLite
	cfg.Storage.SQLitePath = ""
	assert.ErrorContains(t, cfg.Validate(), "sqlite_path")
}

func TestValidate_DateLayout(t *testing.T) {
	tests := []struct {
		layout string
		ok     bool
	}{
		{"2006-01-02", true},
		{"02/01/2006", true},
		{"01/02/2006", true},
		{"2 Jan 2006", true},
		{"01/2006", false},
		{"Jan 2", false},
		{"2006-01", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			cfg := Default("Household")
			cfg.Validation.DateLayout = tt.layout
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "validation.date_layout")
			}
		})
	}
}
