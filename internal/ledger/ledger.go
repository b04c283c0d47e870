// Package ledger holds recorded expenses and their monthly running totals.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spent/internal/id"
	"github.com/cleared-dev/spent/internal/model"
)

// ErrStorageUnavailable is returned when the backing store cannot be read or written.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Store persists recorded expenses.
type Store interface {
	// Load returns every expense previously appended, in append order.
	Load(ctx context.Context) ([]model.Expense, error)
	// Append durably writes one expense. It must write all of it or nothing.
	Append(ctx context.Context, e model.Expense) error
}

// Ledger owns recorded expenses and the monthly totals derived from them.
// All methods are safe for concurrent use.
type Ledger struct {
	store Store

	mu      sync.Mutex
	entries []model.Expense
	totals  map[model.MonthKey]*model.MonthlyTotal
	seqs    map[model.MonthKey]int
}

// New creates an empty Ledger on top of store without reading it.
func New(store Store) *Ledger {
	return &Ledger{
		store:  store,
		totals: make(map[model.MonthKey]*model.MonthlyTotal),
		seqs:   make(map[model.MonthKey]int),
	}
}

// Open creates a Ledger and replays every expense already in store.
func Open(ctx context.Context, store Store) (*Ledger, error) {
	existing, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading expenses: %v", ErrStorageUnavailable, err)
	}

	l := New(store)
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		if seen[e.ID] {
			return nil, fmt.Errorf("replaying expense %s: duplicate id", e.ID)
		}
		seen[e.ID] = true
		if err := l.replay(e); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) replay(e model.Expense) error {
	year, month, seq, err := id.ParseExpenseID(e.ID)
	if err != nil {
		return fmt.Errorf("replaying expense: %w", err)
	}
	key := e.Month()
	if key.Year != year || int(key.Month) != month {
		return fmt.Errorf("replaying expense %s: date %s not in %04d-%02d", e.ID, e.Date.Format("2006-01-02"), year, month)
	}
	if seq > l.seqs[key] {
		l.seqs[key] = seq
	}
	l.apply(e)
	return nil
}

// apply adds e to the in-memory state. Callers hold mu or own l exclusively.
func (l *Ledger) apply(e model.Expense) *model.MonthlyTotal {
	key := e.Month()
	mt, ok := l.totals[key]
	if !ok {
		mt = &model.MonthlyTotal{Month: key, Total: decimal.Zero}
		l.totals[key] = mt
	}
	mt.Total = mt.Total.Add(e.Amount)
	mt.Count++
	l.entries = append(l.entries, e)
	return mt
}

// RecordExpense assigns e a new ID, persists it and adds its amount to its
// month's total. e must already be validated. Either the store write and the
// in-memory update both happen or neither does.
func (l *Ledger) RecordExpense(ctx context.Context, e model.Expense) (model.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return model.Confirmation{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := e.Month()
	seq := l.seqs[key] + 1
	e.ID = id.FormatExpenseID(key.Year, int(key.Month), seq)

	if err := l.store.Append(ctx, e); err != nil {
		return model.Confirmation{}, fmt.Errorf("%w: recording %s: %v", ErrStorageUnavailable, e.ID, err)
	}

	l.seqs[key] = seq
	mt := l.apply(e)

	return model.Confirmation{
		ID:           e.ID,
		Month:        key,
		MonthlyTotal: mt.Total,
	}, nil
}

// MonthlyTotal returns the running total for a month; zero if nothing was recorded.
func (l *Ledger) MonthlyTotal(key model.MonthKey) model.MonthlyTotal {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mt, ok := l.totals[key]; ok {
		return *mt
	}
	return model.MonthlyTotal{Month: key, Total: decimal.Zero}
}

// Months returns every month with at least one expense, oldest first.
func (l *Ledger) Months() []model.MonthlyTotal {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.MonthlyTotal, 0, len(l.totals))
	for _, mt := range l.totals {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// Entries returns the expenses recorded for a month, in record order.
func (l *Ledger) Entries(key model.MonthKey) []model.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.Expense
	for _, e := range l.entries {
		if e.Month() == key {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded expense in record order.
func (l *Ledger) All() []model.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Expense, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded expenses.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
