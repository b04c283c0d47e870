package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/spent/internal/ledger"
	"github.com/cleared-dev/spent/internal/model"
)

func TestFileStore_AppendNewMonth(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	err := store.Append(context.Background(), model.Expense{
		ID:       "2026-02-001",
		Date:     date(2026, 2, 10),
		Amount:   dec("45.90"),
		Category: "Groceries",
		Note:     "Food4Less run",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "2026", "02", "expenses.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "2026-02-001,2026-02-10,45.90,Groceries,Food4Less run", lines[1])
}

func TestFileStore_AppendExistingMonth(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-02-001", Date: date(2026, 2, 1), Amount: dec("1.00"), Category: "A"}))
	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-02-002", Date: date(2026, 2, 2), Amount: dec("2.00"), Category: "B"}))

	got, err := store.ReadMonth(model.MonthKey{Year: 2026, Month: time.February})
	require.NoError(t, err)
	require.Len(t, got, 2, "header written once")
	assert.Equal(t, "2026-02-002", got[1].ID)
}

func TestFileStore_LoadAcrossMonths(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-03-001", Date: date(2026, 3, 1), Amount: dec("3.00"), Category: "C"}))
	require.NoError(t, store.Append(ctx, model.Expense{ID: "2025-12-001", Date: date(2025, 12, 1), Amount: dec("1.00"), Category: "A"}))
	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-01-001", Date: date(2026, 1, 1), Amount: dec("2.00"), Category: "B"}))

	// Unrelated files are ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "expenses.csv"), []byte("junk"), 0o644))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-12-001", got[0].ID)
	assert.Equal(t, "2026-01-001", got[1].ID)
	assert.Equal(t, "2026-03-001", got[2].ID)
}

func TestFileStore_LoadEmpty(t *testing.T) {
	got, err := NewFileStore(t.TempDir()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2026", "02", FileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(Header+"\n2026-02-001,2026-02-01,abc,Misc,\n"), 0o644))

	_, err := NewFileStore(dir).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestFileStore_ReadMonthMissing(t *testing.T) {
	got, err := NewFileStore(t.TempDir()).ReadMonth(model.MonthKey{Year: 2026, Month: time.June})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_AppendUnwritableRoot(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "book")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	err := NewFileStore(blocker).Append(context.Background(), model.Expense{ID: "2026-02-001", Date: date(2026, 2, 1), Amount: dec("1.00"), Category: "A"})
	require.Error(t, err)
}

func TestMonthPath(t *testing.T) {
	assert.Equal(t, filepath.Join("2026", "02", "expenses.csv"), MonthPath(model.MonthKey{Year: 2026, Month: time.February}))
}

// closeFailsFile writes through to disk but reports an error from Close.
type closeFailsFile struct {
	*os.File
}

func (f closeFailsFile) Close() error {
	_ = f.File.Close()
	return errors.New("input/output error")
}

func failCloseOnAppend(t *testing.T) {
	t.Helper()
	orig := openAppend
	openAppend = func(path string) (appendFile, error) {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		return closeFailsFile{f}, nil
	}
	t.Cleanup(func() { openAppend = orig })
}

func TestFileStore_AppendCloseErrorTruncates(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()
	feb := model.MonthKey{Year: 2026, Month: time.February}

	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-02-001", Date: date(2026, 2, 1), Amount: dec("1.00"), Category: "A"}))

	failCloseOnAppend(t)
	err := store.Append(ctx, model.Expense{ID: "2026-02-002", Date: date(2026, 2, 2), Amount: dec("2.00"), Category: "B"})
	require.ErrorContains(t, err, "closing")

	got, err := store.ReadMonth(feb)
	require.NoError(t, err)
	require.Len(t, got, 1, "row behind a failed close must not stay on disk")
	assert.Equal(t, "2026-02-001", got[0].ID)
}

func TestFileStore_CloseErrorDoesNotReuseID(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()
	l := ledger.New(store)

	_, err := l.RecordExpense(ctx, model.Expense{Date: date(2026, 2, 1), Amount: dec("1.00"), Category: "A"})
	require.NoError(t, err)

	orig := openAppend
	failCloseOnAppend(t)
	_, err = l.RecordExpense(ctx, model.Expense{Date: date(2026, 2, 2), Amount: dec("2.00"), Category: "B"})
	require.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	openAppend = orig

	conf, err := l.RecordExpense(ctx, model.Expense{Date: date(2026, 2, 3), Amount: dec("3.00"), Category: "C"})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-002", conf.ID)
	assert.Equal(t, "4.00", conf.MonthlyTotal.StringFixed(2))

	reopened, err := ledger.Open(ctx, store)
	require.NoError(t, err, "store must not hold two rows with the same id")
	assert.Equal(t, 2, reopened.Len())
}

func TestFileStore_NewFileFailedCloseLeavesNoRow(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	failCloseOnAppend(t)
	err := store.Append(ctx, model.Expense{ID: "2026-02-001", Date: date(2026, 2, 1), Amount: dec("1.00"), Category: "A"})
	require.Error(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileStore_MonthTotal(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-02-001", Date: date(2026, 2, 10), Amount: dec("45.90"), Category: "Groceries"}))
	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-02-002", Date: date(2026, 2, 11), Amount: dec("4.10"), Category: "Coffee"}))
	require.NoError(t, store.Append(ctx, model.Expense{ID: "2026-03-001", Date: date(2026, 3, 1), Amount: dec("12.00"), Category: "Transit"}))

	total, err := store.MonthTotal(ctx, model.MonthKey{Year: 2026, Month: time.February})
	require.NoError(t, err)
	assert.Equal(t, "50.00", total.StringFixed(2))

	total, err = store.MonthTotal(ctx, model.MonthKey{Year: 2026, Month: time.April})
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}
