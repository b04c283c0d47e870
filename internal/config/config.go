package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a book.
const FileName = "spent.yaml"

// Storage backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config represents the top-level spent.yaml configuration.
type Config struct {
	Book       BookConfig       `yaml:"book"`
	Storage    StorageConfig    `yaml:"storage"`
	Validation ValidationConfig `yaml:"validation"`
	Git        GitConfig        `yaml:"git"`
	Log        LogConfig        `yaml:"log"`
}

// BookConfig identifies the book.
type BookConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// StorageConfig selects where expenses are persisted.
type StorageConfig struct {
	Backend    string `yaml:"backend"`               // "csv" or "sqlite"
	SQLitePath string `yaml:"sqlite_path,omitempty"` // relative to the book dir
}

// ValidationConfig tunes the submission validator.
type ValidationConfig struct {
	DateLayout        string `yaml:"date_layout"`
	MaxCategoryLength int    `yaml:"max_category_length"` // 0 = unlimited
	AllowFutureDates  bool   `yaml:"allow_future_dates"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads a spent.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new book.
func Default(name string) *Config {
	return &Config{
		Book: BookConfig{
			Name:     name,
			Currency: "USD",
		},
		Storage: StorageConfig{
			Backend:    BackendCSV,
			SQLitePath: "spent.db",
		},
		Validation: ValidationConfig{
			DateLayout:       "2006-01-02",
			AllowFutureDates: true,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Spent",
			AuthorEmail: "book@spent.local",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ApplyEnv overrides fields from SPENT_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("SPENT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SPENT_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := getenv("SPENT_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := getenv("SPENT_GIT_AUTO_COMMIT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPENT_GIT_AUTO_COMMIT %q: %w", v, err)
		}
		c.Git.AutoCommit = b
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case BackendCSV:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			problems = append(problems, "storage.sqlite_path is required for the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q must be %q or %q", c.Storage.Backend, BackendCSV, BackendSQLite))
	}

	if !roundTripsDate(c.Validation.DateLayout) {
		problems = append(problems, fmt.Sprintf("validation.date_layout %q must hold a full calendar date (e.g. 2006-01-02)", c.Validation.DateLayout))
	}

	if c.Validation.MaxCategoryLength < 0 {
		problems = append(problems, "validation.max_category_length must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// layoutCheckDate has a day above 12 so layouts that drop or swap fields fail.
var layoutCheckDate = time.Date(2026, time.November, 23, 0, 0, 0, 0, time.UTC)

func roundTripsDate(layout string) bool {
	if layout == "" {
		return false
	}
	got, err := time.Parse(layout, layoutCheckDate.Format(layout))
	return err == nil && got.Equal(layoutCheckDate)
}
