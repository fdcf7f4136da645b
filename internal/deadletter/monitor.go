package deadletter

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/trainerworkload/internal/logging"
)

// Reader exposes the minimal kafka.Reader interface needed by the monitor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Recorder stores dead-lettered entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	Count(ctx context.Context) (int64, error)
}

const (
	defaultRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 30 * time.Second
)

// Option configures optional behaviour for the Monitor.
type Option func(*Monitor)

// WithLogger overrides the logger used to report entries.
func WithLogger(logger logging.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder stores every observed entry through recorder.
func WithRecorder(recorder Recorder) Option {
	return func(m *Monitor) { m.recorder = recorder }
}

// WithRetryDelay sets the initial backoff between failed record attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.retryDelay = d
		}
	}
}

// Monitor reports every message published to the dead-letter topic.
type Monitor struct {
	reader     Reader
	recorder   Recorder
	logger     logging.Logger
	retryDelay time.Duration
}

// NewMonitor constructs a Monitor reading from reader.
func NewMonitor(reader Reader, opts ...Option) *Monitor {
	m := &Monitor{
		reader:     reader,
		logger:     logging.NewNoopLogger(),
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run consumes the dead-letter topic until the context is cancelled or the reader is closed.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := m.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				return err
			}
			m.logger.Error("fetch failed", logging.Err(err))
			continue
		}

		if err := m.handle(ctx, msg); err != nil {
			return err
		}
		if err := m.reader.CommitMessages(ctx, msg); err != nil {
			m.logger.Error("commit failed", logging.Int64("offset", msg.Offset), logging.Err(err))
		}
	}
}

// handle reports msg and, with a recorder configured, stores it. Recording is
// retried with backoff so the offset is never committed past an unrecorded entry.
func (m *Monitor) handle(ctx context.Context, msg kafka.Message) error {
	entry := EntryFromMessage(msg)
	recordObserved(entry)
	m.logger.Error("workload message dead-lettered",
		logging.TransactionID(entry.TransactionID),
		logging.String("failure_class", entry.Class),
		logging.String("reason", entry.Reason()),
		logging.String("original", entry.Original()),
		logging.Int("partition", entry.Partition),
		logging.Int64("offset", entry.Offset),
	)

	if m.recorder == nil {
		return nil
	}

	delay := m.retryDelay
	for {
		err := m.recorder.Record(ctx, entry)
		if err == nil {
			break
		}
		recordRecordError()
		m.logger.Error("recording dead letter failed, retrying",
			logging.TransactionID(entry.TransactionID),
			logging.Duration("retry_in", delay),
			logging.Err(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	recordRecorded()
	if count, err := m.recorder.Count(ctx); err == nil {
		setBacklog(count)
	}
	return nil
}
