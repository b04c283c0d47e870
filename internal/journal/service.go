package journal

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/cleared-dev/spent/internal/ledger"
	"github.com/cleared-dev/spent/internal/model"
)

// State is a step in a submission's lifecycle.
type State string

const (
	StateReceived   State = "received"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateRecording  State = "recording"
	StateRecorded   State = "recorded"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateRecorded || s == StateFailed
}

// Outcome is the terminal result of one submission.
type Outcome struct {
	State        State
	Raw          model.RawExpense
	Confirmation model.Confirmation // set when State == StateRecorded
	Err          error              // set when State is StateRejected or StateFailed
}

// Service validates submissions and records accepted ones in a ledger.
type Service struct {
	validator *Validator
	ledger    *ledger.Ledger
	logger    *log.Logger
	onOutcome func(Outcome)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger; the default discards.
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithOutcomeFunc registers fn to be called with each terminal outcome.
func WithOutcomeFunc(fn func(Outcome)) ServiceOption {
	return func(s *Service) { s.onOutcome = fn }
}

// NewService creates a submission Service.
func NewService(v *Validator, l *ledger.Ledger, opts ...ServiceOption) *Service {
	s := &Service{
		validator: v,
		ledger:    l,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger returns the ledger submissions are recorded in.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

// Submit validates raw and, if it is valid, records it. A rejected submission
// returns a *ValidationError and leaves the ledger untouched. A storage failure
// returns an error wrapping ledger.ErrStorageUnavailable.
func (s *Service) Submit(ctx context.Context, raw model.RawExpense) (model.Confirmation, error) {
	s.logger.Debug("submission", "state", StateReceived, "amount", raw.Amount, "category", raw.Category, "date", raw.Date)

	s.logger.Debug("submission", "state", StateValidating)
	entry, err := s.validator.Validate(raw)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.logger.Warn("expense rejected", "field", verr.Field, "code", verr.Code, "reason", verr.Message)
		}
		return model.Confirmation{}, s.finish(Outcome{State: StateRejected, Raw: raw, Err: err})
	}

	s.logger.Debug("submission", "state", StateRecording, "month", entry.Month())
	conf, err := s.ledger.RecordExpense(ctx, entry)
	if err != nil {
		s.logger.Error("expense not recorded", "err", err)
		return model.Confirmation{}, s.finish(Outcome{State: StateFailed, Raw: raw, Err: err})
	}

	s.logger.Info("expense recorded", "id", conf.ID, "month", conf.Month, "total", conf.MonthlyTotal.StringFixed(2))
	s.finish(Outcome{State: StateRecorded, Raw: raw, Confirmation: conf})
	return conf, nil
}

func (s *Service) finish(o Outcome) error {
	if s.onOutcome != nil && o.State.Terminal() {
		s.onOutcome(o)
	}
	return o.Err
}
