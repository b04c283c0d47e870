package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spent/internal/model"
)

// Field names a submitted input field.
type Field string

const (
	FieldAmount   Field = "amount"
	FieldCategory Field = "category"
	FieldDate     Field = "date"
)

// Code classifies a validation failure.
type Code string

const (
	CodeInvalidAmount   Code = "invalid_amount"
	CodeMissingCategory Code = "missing_category"
	CodeCategoryTooLong Code = "category_too_long"
	CodeInvalidDate     Code = "invalid_date"
	CodeFutureDate      Code = "future_date"
)

// Sentinels for errors.Is against a *ValidationError.
var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingCategory = errors.New("missing category")
	ErrCategoryTooLong = errors.New("category too long")
	ErrInvalidDate     = errors.New("invalid date")
	ErrFutureDate      = errors.New("future date")
)

var codeSentinels = map[Code]error{
	CodeInvalidAmount:   ErrInvalidAmount,
	CodeMissingCategory: ErrMissingCategory,
	CodeCategoryTooLong: ErrCategoryTooLong,
	CodeInvalidDate:     ErrInvalidDate,
	CodeFutureDate:      ErrFutureDate,
}

// ValidationError describes why a submission was rejected.
type ValidationError struct {
	Field   Field
	Code    Code
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches the sentinel for e's code.
func (e *ValidationError) Is(target error) bool {
	return codeSentinels[e.Code] == target
}

// DefaultDateLayout is the ISO calendar date accepted unless configured otherwise.
const DefaultDateLayout = "2006-01-02"

// Validator turns raw submissions into expenses. It holds no state besides
// its settings and is safe for concurrent use.
type Validator struct {
	dateLayout        string
	maxCategoryLength int
	allowFutureDates  bool
	now               func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithDateLayout sets the time.Parse layout for dates.
func WithDateLayout(layout string) ValidatorOption {
	return func(v *Validator) {
		if layout != "" {
			v.dateLayout = layout
		}
	}
}

// WithMaxCategoryLength rejects categories longer than n runes. Zero disables the limit.
func WithMaxCategoryLength(n int) ValidatorOption {
	return func(v *Validator) { v.maxCategoryLength = n }
}

// WithFutureDates controls whether dates after today are accepted.
func WithFutureDates(allow bool) ValidatorOption {
	return func(v *Validator) { v.allowFutureDates = allow }
}

// WithClock overrides the clock used for the future-date check.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator returns a Validator. Without options it accepts any positive
// amount, any non-blank category and any ISO date.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		dateLayout:       DefaultDateLayout,
		allowFutureDates: true,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks raw in order amount, category, date and returns the first
// failure as a *ValidationError. The note is never a failure source.
func (v *Validator) Validate(raw model.RawExpense) (model.Expense, error) {
	amount, verr := v.amount(raw.Amount)
	if verr != nil {
		return model.Expense{}, verr
	}

	category, verr := v.category(raw.Category)
	if verr != nil {
		return model.Expense{}, verr
	}

	date, verr := v.date(raw.Date)
	if verr != nil {
		return model.Expense{}, verr
	}

	return model.Expense{
		Amount:   amount,
		Category: category,
		Date:     date,
		Note:     strings.TrimSpace(raw.Note),
	}, nil
}

func (v *Validator) amount(s string) (decimal.Decimal, *ValidationError) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &ValidationError{
			Field:   FieldAmount,
			Code:    CodeInvalidAmount,
			Message: "amount must be a valid number (e.g. 12.50)",
		}
	}
	// Cents; checked after rounding so a stored amount is never zero.
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{
			Field:   FieldAmount,
			Code:    CodeInvalidAmount,
			Message: "amount must be greater than 0",
		}
	}
	return d, nil
}

func (v *Validator) category(s string) (string, *ValidationError) {
	c := strings.TrimSpace(s)
	if c == "" {
		return "", &ValidationError{
			Field:   FieldCategory,
			Code:    CodeMissingCategory,
			Message: "category is required",
		}
	}
	if v.maxCategoryLength > 0 && utf8.RuneCountInString(c) > v.maxCategoryLength {
		return "", &ValidationError{
			Field:   FieldCategory,
			Code:    CodeCategoryTooLong,
			Message: fmt.Sprintf("category must be %d characters or less", v.maxCategoryLength),
		}
	}
	return c, nil
}

func (v *Validator) date(s string) (time.Time, *ValidationError) {
	d, err := time.Parse(v.dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   FieldDate,
			Code:    CodeInvalidDate,
			Message: fmt.Sprintf("date must be a valid calendar date in format %s", v.dateLayout),
		}
	}
	if !v.allowFutureDates {
		now := v.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(today) {
			return time.Time{}, &ValidationError{
				Field:   FieldDate,
				Code:    CodeFutureDate,
				Message: "date cannot be in the future",
			}
		}
	}
	return d, nil
}
