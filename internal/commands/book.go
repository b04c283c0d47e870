package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spent/internal/activity"
	"github.com/cleared-dev/spent/internal/config"
	"github.com/cleared-dev/spent/internal/gitops"
	"github.com/cleared-dev/spent/internal/journal"
	"github.com/cleared-dev/spent/internal/ledger"
	"github.com/cleared-dev/spent/internal/model"
	"github.com/cleared-dev/spent/internal/sqlstore"
)

// errUnavailable is what users see for infrastructure failures; the cause is logged.
var errUnavailable = errors.New("storage is unavailable, try again later")

func newLogger(level string, verbose bool) *log.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.WarnLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "spent",
		Level:           lvl,
	})
}

// bookStore is a ledger store that can also sum a month on its own.
type bookStore interface {
	ledger.Store
	MonthTotal(ctx context.Context, key model.MonthKey) (decimal.Decimal, error)
}

// book is an opened book directory with its services wired up.
type book struct {
	dir     string
	cfg     *config.Config
	logger  *log.Logger
	svc     *journal.Service
	store   bookStore
	closers []func() error

	source  string
	pending []activity.Entry
}

func openBook(ctx context.Context, opts *globalOptions) (*book, error) {
	dir, err := filepath.Abs(opts.bookDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no book at %s (run \"spent init\" first)", dir)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &book{
		dir:    dir,
		cfg:    cfg,
		logger: newLogger(cfg.Log.Level, opts.verbose),
	}

	store, err := b.openStore()
	if err != nil {
		b.Close()
		b.logger.Error("opening store", "err", err)
		return nil, errUnavailable
	}
	b.store = store

	l, err := ledger.Open(ctx, store)
	if err != nil {
		b.Close()
		if errors.Is(err, ledger.ErrStorageUnavailable) {
			b.logger.Error("opening ledger", "err", err)
			return nil, errUnavailable
		}
		return nil, err
	}
	b.logger.Debug("book opened", "dir", dir, "backend", cfg.Storage.Backend, "expenses", l.Len())

	validator := journal.NewValidator(
		journal.WithDateLayout(cfg.Validation.DateLayout),
		journal.WithMaxCategoryLength(cfg.Validation.MaxCategoryLength),
		journal.WithFutureDates(cfg.Validation.AllowFutureDates),
	)
	b.svc = journal.NewService(validator, l,
		journal.WithLogger(b.logger),
		journal.WithOutcomeFunc(b.recordOutcome),
	)
	return b, nil
}

func (b *book) openStore() (bookStore, error) {
	switch b.cfg.Storage.Backend {
	case config.BackendSQLite:
		path := b.cfg.Storage.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.dir, path)
		}
		s, err := sqlstore.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
		}
		b.closers = append(b.closers, s.Close)
		return s, nil
	default:
		return journal.NewFileStore(b.dir), nil
	}
}

func (b *book) recordOutcome(o journal.Outcome) {
	e := activity.Entry{
		Timestamp: time.Now(),
		Source:    b.source,
		Outcome:   string(o.State),
	}
	switch o.State {
	case journal.StateRecorded:
		e.ExpenseID = o.Confirmation.ID
		e.Details = fmt.Sprintf("%s %s; %s total %s", strings.TrimSpace(o.Raw.Amount), strings.TrimSpace(o.Raw.Category),
			o.Confirmation.Month, o.Confirmation.MonthlyTotal.StringFixed(2))
	case journal.StateRejected:
		var verr *journal.ValidationError
		if errors.As(o.Err, &verr) {
			e.Field = string(verr.Field)
			e.Details = verr.Message
		}
	default:
		e.Details = o.Err.Error()
	}
	b.pending = append(b.pending, e)
}

// flushActivity writes buffered outcomes to the activity log.
func (b *book) flushActivity() {
	if err := activity.Append(b.dir, b.pending); err != nil {
		b.logger.Warn("failed to write activity log", "err", err)
	}
	b.pending = nil
}

// commit snapshots the book in git when auto-commit is on. Failures are
// logged: the expenses are already stored.
func (b *book) commit(ctx context.Context, message string) string {
	if !b.cfg.Git.AutoCommit || !gitops.IsRepo(b.dir) {
		return ""
	}
	hash, err := gitops.CommitAll(ctx, b.dir, message, gitops.Author{
		Name:  b.cfg.Git.AuthorName,
		Email: b.cfg.Git.AuthorEmail,
	})
	if err != nil {
		b.logger.Warn("git commit failed", "err", err)
		return ""
	}
	if hash != "" {
		b.logger.Debug("committed", "hash", hash, "message", message)
	}
	return hash
}

// verifyMonth recomputes a month's total from the store and compares it with
// the ledger's running total.
func (b *book) verifyMonth(ctx context.Context, mt model.MonthlyTotal) error {
	stored, err := b.store.MonthTotal(ctx, mt.Month)
	if err != nil {
		b.logger.Error("verifying total", "month", mt.Month, "err", err)
		return errUnavailable
	}
	if !stored.Equal(mt.Total) {
		return fmt.Errorf("%s: running total %s does not match stored expenses %s",
			mt.Month, mt.Total.StringFixed(2), stored.StringFixed(2))
	}
	return nil
}

// userError turns a submission error into what the CLI reports.
func (b *book) userError(err error) error {
	var verr *journal.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("input error: %w", verr)
	case errors.Is(err, ledger.ErrStorageUnavailable):
		b.logger.Error("storage failure", "err", err)
		return errUnavailable
	default:
		return err
	}
}

func (b *book) Close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			b.logger.Warn("close failed", "err", err)
		}
	}
}

func (b *book) money(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + b.cfg.Book.Currency
}
