// Package domain holds the trainer workload ledger and the command processor that maintains it.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/trainerworkload/internal/logging"
	"example.com/trainerworkload/internal/observability"
)

// DefaultConflictRetries bounds how often a save is retried after an optimistic-lock conflict.
const DefaultConflictRetries = 3

// Repository captures ledger persistence operations.
type Repository interface {
	// LoadByUsername returns ErrLedgerNotFound when the trainer has no ledger.
	LoadByUsername(ctx context.Context, username string) (*Ledger, error)
	// Save returns ErrVersionConflict when the stored ledger moved past ledger.Version.
	Save(ctx context.Context, ledger *Ledger) error
}

// Deduplicator tracks transaction ids of commands that were already applied.
type Deduplicator interface {
	// Claim atomically records transactionID and reports false when it was
	// already recorded by an earlier or concurrent call.
	Claim(ctx context.Context, transactionID string) (bool, error)
	// Release forgets a claim whose command was not applied.
	Release(ctx context.Context, transactionID string) error
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithLogger overrides the logger used by the service.
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConflictRetries sets the number of load-apply-save attempts made when saves conflict.
func WithConflictRetries(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.conflictRetries = attempts
		}
	}
}

// WithQueryDegrade makes MonthlyWorkload answer with a zero-duration summary
// instead of failing when the repository errors.
func WithQueryDegrade(enabled bool) Option {
	return func(s *Service) { s.degradeQueries = enabled }
}

// WithDeduplicator enables skipping of mutating commands whose transaction id was already applied.
func WithDeduplicator(d Deduplicator) Option {
	return func(s *Service) { s.dedupe = d }
}

// Service orchestrates ledger workflows.
type Service struct {
	repo            Repository
	dedupe          Deduplicator
	logger          logging.Logger
	conflictRetries int
	degradeQueries  bool
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		logger:          logging.NewNoopLogger(),
		conflictRetries: DefaultConflictRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process applies a mutating command to the trainer's ledger and persists the result.
func (s *Service) Process(ctx context.Context, cmd Command) error {
	log := s.logger.With(logging.TransactionID(cmd.TransactionID))

	if !cmd.ActionType.Mutating() {
		return unexpected(fmt.Errorf("%w: %s", ErrUnsupportedAction, cmd.ActionType))
	}

	claimed := s.dedupe != nil && cmd.TransactionID != ""
	if claimed {
		fresh, err := s.dedupe.Claim(ctx, cmd.TransactionID)
		if err != nil {
			return infrastructure(fmt.Errorf("claim transaction: %w", err))
		}
		if !fresh {
			log.Info("skipping already applied command", logging.String("username", cmd.Username), logging.String("action", string(cmd.ActionType)))
			observability.RecordDuplicateSkipped(string(cmd.ActionType))
			return nil
		}
	}

	saved, err := s.save(ctx, cmd, log)
	if err != nil {
		if claimed {
			if rerr := s.dedupe.Release(context.WithoutCancel(ctx), cmd.TransactionID); rerr != nil {
				log.Warn("failed to release transaction claim", logging.Err(rerr))
			}
		}
		return err
	}

	year, month := cmd.TrainingDate.Year(), int(cmd.TrainingDate.Month())
	duration := 0
	if bucket, ok := saved.Month(year, month); ok {
		duration = bucket.SummaryDuration
	}
	observability.RecordLedgerSaved(string(cmd.ActionType), time.Now().UTC())
	log.Info("trainer workload processed",
		logging.String("username", cmd.Username),
		logging.String("action", string(cmd.ActionType)),
		logging.Int("year", year),
		logging.Int("month", month),
		logging.Int("summary_duration", duration),
	)
	return nil
}

// save runs load-apply-save until it succeeds or the conflict budget runs out.
func (s *Service) save(ctx context.Context, cmd Command, log logging.Logger) (*Ledger, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.repo.LoadByUsername(ctx, cmd.Username)
		switch {
		case errors.Is(err, ErrLedgerNotFound):
			current = nil
			log.Info("creating trainer workload", logging.String("username", cmd.Username))
		case err != nil:
			return nil, infrastructure(err)
		}

		next, err := Apply(current, cmd)
		if err != nil {
			return nil, unexpected(err)
		}

		err = s.repo.Save(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, infrastructure(err)
		}
		observability.RecordVersionConflict()
		if attempt >= s.conflictRetries {
			return nil, infrastructure(fmt.Errorf("save trainer workload %q after %d attempts: %w", cmd.Username, attempt, err))
		}
		log.Warn("trainer workload changed concurrently, retrying", logging.String("username", cmd.Username), logging.Int("attempt", attempt))
	}
}

// MonthlyWorkload resolves the summary for a trainer's month. Missing data yields a zero duration.
func (s *Service) MonthlyWorkload(ctx context.Context, username string, year, month int, transactionID string) (MonthlySummary, error) {
	log := s.logger.With(logging.TransactionID(transactionID))

	ledger, err := s.repo.LoadByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrLedgerNotFound):
		log.Warn("trainer workload not found, returning empty workload", logging.String("username", username))
		return Resolve(nil, username, year, month), nil
	case err != nil:
		if s.degradeQueries {
			log.Error("loading trainer workload failed, returning empty workload", logging.String("username", username), logging.Err(err))
			observability.RecordQueryDegraded()
			return Resolve(nil, username, year, month), nil
		}
		return MonthlySummary{}, infrastructure(err)
	}

	summary := Resolve(ledger, username, year, month)
	log.Debug("monthly workload resolved",
		logging.String("username", username),
		logging.Int("year", year),
		logging.Int("month", month),
		logging.Int("summary_duration", summary.SummaryDuration),
	)
	return summary, nil
}
