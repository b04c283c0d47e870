package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RawExpense is an expense submission exactly as the caller typed it.
// Only the validator turns it into an Expense.
type RawExpense struct {
	Amount   string
	Category string
	Date     string
	Note     string
}

// Expense is a validated expense entry. ID is empty until the ledger records it.
type Expense struct {
	ID       string
	Amount   decimal.Decimal // always > 0, two decimal places
	Category string
	Date     time.Time //nolint:revive // plain field name is clearest
	Note     string
}

// Month returns the calendar month the expense falls in.
func (e Expense) Month() MonthKey {
	return MonthKeyOf(e.Date)
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// String formats the key as "2026-02".
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Before reports whether k is an earlier month than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", s, err)
	}
	return MonthKeyOf(t), nil
}

// MonthlyTotal is the running sum of expenses recorded for one month.
type MonthlyTotal struct {
	Month MonthKey
	Total decimal.Decimal
	Count int
}

// Confirmation is returned once an expense has been recorded.
type Confirmation struct {
	ID           string
	Month        MonthKey
	MonthlyTotal decimal.Decimal
}
