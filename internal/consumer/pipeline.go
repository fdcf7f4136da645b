// Package consumer drives workload messages from Kafka through the ledger service
// and routes every message to exactly one terminal outcome.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/logging"
)

// DefaultConcurrency is the worker pool size used when none is configured.
const DefaultConcurrency = 10

// Defaults for publishing a terminal outcome.
const (
	DefaultEmitAttempts = 5
	DefaultEmitDelay    = 200 * time.Millisecond
	maxEmitDelay        = 5 * time.Second
)

// Reader exposes the minimal kafka.Reader interface needed by the pipeline.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Workload is the ledger service as seen by the pipeline.
type Workload interface {
	Process(ctx context.Context, cmd domain.Command) error
	MonthlyWorkload(ctx context.Context, username string, year, month int, transactionID string) (domain.MonthlySummary, error)
}

// ResponseSender publishes query responses.
type ResponseSender interface {
	SendResponse(ctx context.Context, resp Response) error
}

// DeadLetterSender publishes failed messages.
type DeadLetterSender interface {
	SendDeadLetter(ctx context.Context, dl DeadLetter) error
}

type outcome string

const (
	outcomeSucceeded      outcome = "succeeded"
	outcomeResponded      outcome = "responded"
	outcomeErrorResponded outcome = "error_responded"
	outcomeDeadLettered   outcome = "dead_lettered"
)

const classProcessing = "processing"

// actionInvalid labels messages whose action type could not be parsed.
const actionInvalid = "invalid"

// Option configures optional behaviour for the Pipeline.
type Option func(*Pipeline)

// WithLogger overrides the logger used to report message handling.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency sets the maximum number of messages handled at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithEmitRetry sets how often publishing a terminal outcome is attempted and
// the initial backoff between attempts.
func WithEmitRetry(attempts int, delay time.Duration) Option {
	return func(p *Pipeline) {
		if attempts > 0 {
			p.emitAttempts = attempts
		}
		if delay > 0 {
			p.emitDelay = delay
		}
	}
}

// Pipeline pulls messages from Kafka, dispatches them to the workload service on
// a bounded pool of workers and emits the terminal outcome of each.
type Pipeline struct {
	reader      Reader
	workload    Workload
	responses   ResponseSender
	deadLetters DeadLetterSender
	logger      logging.Logger
	concurrency int
	offsets     *offsetTracker
	commitMu    sync.Mutex
	now         func() time.Time

	emitAttempts int
	emitDelay    time.Duration
}

// NewPipeline constructs a Pipeline.
func NewPipeline(reader Reader, workload Workload, responses ResponseSender, deadLetters DeadLetterSender, opts ...Option) *Pipeline {
	p := &Pipeline{
		reader:      reader,
		workload:    workload,
		responses:   responses,
		deadLetters: deadLetters,
		logger:      logging.NewNoopLogger(),
		concurrency: DefaultConcurrency,
		offsets:     newOffsetTracker(),
		now:         time.Now,

		emitAttempts: DefaultEmitAttempts,
		emitDelay:    DefaultEmitDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes messages until the context is cancelled or the reader is closed.
// In-flight messages are allowed to finish before Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	work := context.WithoutCancel(ctx)

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				runErr = err
				break
			}
			p.logger.Error("fetch failed", logging.Err(err))
			continue
		}

		recordReceived(msg.Topic)
		p.offsets.track(msg)
		g.Go(func() error {
			p.handle(work, msg)
			return nil
		})
	}

	_ = g.Wait()
	return runErr
}

// handle drives one message to its terminal outcome and commits it. Publishing
// the outcome is retried with backoff; once the attempts are spent the outcome
// is dropped and logged so the partition keeps moving.
func (p *Pipeline) handle(ctx context.Context, km kafka.Message) {
	started := p.now()
	log := p.logger.With(
		logging.String("topic", km.Topic),
		logging.Int("partition", km.Partition),
		logging.Int64("offset", km.Offset),
	)

	action, o, err := p.dispatch(ctx, km, log)
	if err != nil {
		recordEmitError(o)
		log.Error("terminal outcome dropped after retries", logging.String("outcome", string(o)), logging.Int("attempts", p.emitAttempts), logging.Err(err))
	} else {
		recordOutcome(action, o, p.now().Sub(started))
	}

	// Commits are serialized so a partition's committed offset only moves forward.
	p.commitMu.Lock()
	defer p.commitMu.Unlock()
	commit, ok := p.offsets.complete(km)
	if !ok {
		return
	}
	if err := p.reader.CommitMessages(ctx, commit); err != nil {
		log.Error("commit failed", logging.Err(err))
		return
	}
	recordCommitted(commit.Topic, commit.Time)
}

func (p *Pipeline) dispatch(ctx context.Context, km kafka.Message, log logging.Logger) (action string, o outcome, err error) {
	original := string(km.Value)
	var msg Message

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling message", logging.Any("panic", r))
			o = outcomeDeadLettered
			err = p.deadLetter(ctx, log, DeadLetter{
				TransactionID: msg.TransactionID,
				Class:         classProcessing,
				Reason:        domain.ProcessingErrorPrefix + fmt.Sprint(r),
				Original:      original,
			})
		}
	}()

	msg, decodeErr := DecodeMessage(km.Value)
	if decodeErr != nil {
		log.Error("invalid message payload", logging.Err(decodeErr))
		failure := domain.Validationf("unable to decode message: %v", decodeErr)
		return "", outcomeDeadLettered, p.deadLetterFailure(ctx, log, msg, failure, original)
	}
	if msg.TransactionID == "" {
		// Derived from the record position so a redelivery carries the same id.
		msg.TransactionID = fmt.Sprintf("%s-%d-%d", km.Topic, km.Partition, km.Offset)
	}
	original = msg.String()
	action = actionInvalid
	if parsed, err := msg.Action(); err == nil {
		action = string(parsed)
	}
	log = log.With(logging.TransactionID(msg.TransactionID))
	log.Info("received workload message", logging.String("username", msg.Username), logging.String("action", msg.ActionType))

	if err := msg.Validate(); err != nil {
		log.Error("invalid message", logging.Err(err))
		return action, outcomeDeadLettered, p.deadLetterFailure(ctx, log, msg, err, original)
	}

	parsed, _ := msg.Action()
	action = string(parsed)
	if parsed == domain.ActionGet {
		o, err := p.query(ctx, msg, log)
		return action, o, err
	}

	cmd, err := msg.Command()
	if err != nil {
		return action, outcomeDeadLettered, p.deadLetterFailure(ctx, log, msg, err, original)
	}
	if err := p.workload.Process(ctx, cmd); err != nil {
		log.Error("processing workload failed", logging.String("class", domain.KindOf(err).String()), logging.Err(err))
		return action, outcomeDeadLettered, p.deadLetterFailure(ctx, log, msg, err, original)
	}
	log.Info("workload processed", logging.String("username", msg.Username))
	return action, outcomeSucceeded, nil
}

func (p *Pipeline) query(ctx context.Context, msg Message, log logging.Logger) (outcome, error) {
	summary, err := p.workload.MonthlyWorkload(ctx, msg.Username, *msg.Year, *msg.Month, msg.TransactionID)
	if err != nil {
		log.Error("loading workload failed", logging.String("class", domain.KindOf(err).String()), logging.Err(err))
		resp := errorResponse(msg, err)
		return outcomeErrorResponded, p.emit(ctx, log, func(ctx context.Context) error {
			return p.responses.SendResponse(ctx, resp)
		})
	}
	resp := successResponse(summary, msg.TransactionID)
	if err := p.emit(ctx, log, func(ctx context.Context) error { return p.responses.SendResponse(ctx, resp) }); err != nil {
		return outcomeResponded, err
	}
	log.Info("sent workload response", logging.String("username", msg.Username))
	return outcomeResponded, nil
}

func (p *Pipeline) deadLetterFailure(ctx context.Context, log logging.Logger, msg Message, failure error, original string) error {
	return p.deadLetter(ctx, log, DeadLetter{
		TransactionID: msg.TransactionID,
		Class:         domain.KindOf(failure).String(),
		Reason:        domain.Describe(failure),
		Original:      original,
	})
}

func (p *Pipeline) deadLetter(ctx context.Context, log logging.Logger, dl DeadLetter) error {
	if err := p.emit(ctx, log, func(ctx context.Context) error { return p.deadLetters.SendDeadLetter(ctx, dl) }); err != nil {
		log.Error("dead letter not published", logging.TransactionID(dl.TransactionID), logging.String("payload", dl.Payload()))
		return err
	}
	recordDeadLetter(dl.Class)
	return nil
}

// emit calls send until it succeeds or the configured attempts are spent.
func (p *Pipeline) emit(ctx context.Context, log logging.Logger, send func(context.Context) error) error {
	delay := p.emitDelay
	for attempt := 1; ; attempt++ {
		err := send(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.emitAttempts {
			return err
		}
		log.Warn("publishing terminal outcome failed, retrying", logging.Int("attempt", attempt), logging.Duration("retry_in", delay), logging.Err(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
		if delay > maxEmitDelay {
			delay = maxEmitDelay
		}
	}
}
