package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spent/internal/model"
)

// FileName is the per-month expense file under <root>/YYYY/MM/.
const FileName = "expenses.csv"

// appendFile is the part of *os.File that Append needs.
type appendFile interface {
	io.Writer
	Sync() error
	Truncate(size int64) error
	Close() error
}

var openAppend = func(path string) (appendFile, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FileStore keeps expenses as one CSV file per month: <root>/YYYY/MM/expenses.csv.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at a book directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Load reads every month file, oldest month first.
func (s *FileStore) Load(ctx context.Context) ([]model.Expense, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", FileName))
	if err != nil {
		return nil, fmt.Errorf("listing expense files: %w", err)
	}
	sort.Strings(paths)

	var all []model.Expense
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		expenses, err := readFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, expenses...)
	}
	return all, nil
}

// ReadMonth reads the expenses stored for one month.
func (s *FileStore) ReadMonth(key model.MonthKey) ([]model.Expense, error) {
	expenses, err := readFile(s.monthPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return expenses, err
}

// MonthTotal sums a month straight from its file, without the ledger.
func (s *FileStore) MonthTotal(_ context.Context, key model.MonthKey) (decimal.Decimal, error) {
	expenses, err := s.ReadMonth(key)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// Append adds e to its month's file, creating the directory and header if new.
// The row is written with a single write. Any error, including one from
// Close, truncates the file back to its previous length.
func (s *FileStore) Append(ctx context.Context, e model.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.monthPath(e.Month())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating month dir: %w", err)
	}

	var size int64
	info, err := os.Stat(path)
	switch {
	case err == nil:
		size = info.Size()
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var buf bytes.Buffer
	write := AppendExpenses
	if size == 0 {
		write = WriteExpenses
	}
	if err := write(&buf, []model.Expense{e}); err != nil {
		return fmt.Errorf("encoding expense: %w", err)
	}

	f, err := openAppend(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Truncate(size)
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Truncate(size)
		f.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Truncate(path, size)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// MonthPath returns the file path relative to the store root for a month.
func MonthPath(key model.MonthKey) string {
	return filepath.Join(fmt.Sprintf("%04d", key.Year), fmt.Sprintf("%02d", int(key.Month)), FileName)
}

func (s *FileStore) monthPath(key model.MonthKey) string {
	return filepath.Join(s.root, MonthPath(key))
}

func readFile(path string) ([]model.Expense, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	expenses, err := ReadExpenses(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return expenses, nil
}
