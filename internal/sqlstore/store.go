// Package sqlstore keeps expenses in a SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spent/internal/model"

	_ "modernc.org/sqlite"
)

const dateFormat = "2006-01-02"

// Store is a SQLite-backed expense store. Amounts are stored as decimal text.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns every expense in insertion order.
func (s *Store) Load(ctx context.Context) ([]model.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, occurred_on, amount, category, note FROM expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []model.Expense
	for rows.Next() {
		var id, occurredOn, amount, category, note string
		if err := rows.Scan(&id, &occurredOn, &amount, &category, &note); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}

		d, err := time.Parse(dateFormat, occurredOn)
		if err != nil {
			return nil, fmt.Errorf("expense %s: parsing date %q: %w", id, occurredOn, err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("expense %s: parsing amount %q: %w", id, amount, err)
		}

		out = append(out, model.Expense{
			ID:       id,
			Amount:   amt,
			Category: category,
			Date:     d,
			Note:     note,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Append inserts one expense. A duplicate id is an error.
func (s *Store) Append(ctx context.Context, e model.Expense) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, occurred_on, amount, category, note) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Date.Format(dateFormat), e.Amount.StringFixed(2), e.Category, e.Note)
	if err != nil {
		return fmt.Errorf("insert expense %s: %w", e.ID, err)
	}
	return nil
}

// MonthTotal sums a month's amounts in the database. Used to cross-check the
// ledger's running total.
func (s *Store) MonthTotal(ctx context.Context, key model.MonthKey) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount FROM expenses WHERE substr(occurred_on, 1, 7) = ?`, key.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("query month total: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}
