package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spent/internal/config"
	"github.com/cleared-dev/spent/internal/gitops"
	"github.com/cleared-dev/spent/internal/sqlstore"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	var name, backend, currency string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new expense book",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.bookDir
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(name)
			cfg.Storage.Backend = backend
			cfg.Book.Currency = currency
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := runInit(cmd.Context(), absDir, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized spent book at %s (%s)\n", absDir, cfg.Storage.Backend)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "book name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&backend, "backend", config.BackendCSV, "storage backend (csv or sqlite)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "currency label for totals")

	return cmd
}

func runInit(ctx context.Context, dir string, cfg *config.Config) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already has a %s", dir, config.FileName)
	}

	for _, d := range []string{"logs", "import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return err
	}

	gitignore := "*.db-journal\n*.db-wal\n*.db-shm\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Create the schema up front so the first add does not race a migration.
	if cfg.Storage.Backend == config.BackendSQLite {
		path := cfg.Storage.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		s, err := sqlstore.Open(path)
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		if err := s.Close(); err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
	}

	if !cfg.Git.AutoCommit {
		return nil
	}
	if err := gitops.Init(ctx, dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	_, err := gitops.CommitAll(ctx, dir, "init: Initialize "+cfg.Book.Name, gitops.Author{
		Name:  cfg.Git.AuthorName,
		Email: cfg.Git.AuthorEmail,
	})
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	return nil
}
