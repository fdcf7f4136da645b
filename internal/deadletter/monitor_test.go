package deadletter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/trainerworkload/internal/consumer"
	"example.com/trainerworkload/internal/messaging"
)

func deadLetterMessage(offset int64, dl consumer.DeadLetter) kafka.Message {
	return kafka.Message{
		Topic:  "dead-letter-queue",
		Offset: offset,
		Time:   time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
		Key:    []byte(dl.TransactionID),
		Value:  []byte(dl.Payload()),
		Headers: []kafka.Header{
			{Key: messaging.HeaderTransactionID, Value: []byte(dl.TransactionID)},
			{Key: messaging.HeaderFailureClass, Value: []byte(dl.Class)},
		},
	}
}

func TestEntryFromMessage(t *testing.T) {
	msg := deadLetterMessage(7, consumer.DeadLetter{
		TransactionID: "tx-1",
		Class:         "validation",
		Reason:        "Validation error: Username is required",
		Original:      "WorkloadMessage(username=null, actionType=ADD)",
	})

	entry := EntryFromMessage(msg)
	require.Equal(t, "tx-1", entry.TransactionID)
	require.Equal(t, "validation", entry.Class)
	require.Equal(t, int64(7), entry.Offset)
	require.Equal(t, "Validation error: Username is required", entry.Reason())
	require.Equal(t, "WorkloadMessage(username=null, actionType=ADD)", entry.Original())
}

func TestEntryFromMessageWithoutHeaders(t *testing.T) {
	entry := EntryFromMessage(kafka.Message{Key: []byte("tx-key"), Value: []byte("something broke")})

	require.Equal(t, "tx-key", entry.TransactionID)
	require.Equal(t, "unknown", entry.Class)
	require.Equal(t, "something broke", entry.Reason())
	require.Empty(t, entry.Original())
}

func TestMonitorCommitsEveryEntry(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		deadLetterMessage(0, consumer.DeadLetter{TransactionID: "tx-a", Class: "infrastructure", Reason: "Infrastructure error: db down", Original: "m1"}),
		deadLetterMessage(1, consumer.DeadLetter{TransactionID: "tx-b", Class: "infrastructure", Reason: "Infrastructure error: db down", Original: "m2"}),
	}}
	recorder := &stubRecorder{}
	before := testutil.ToFloat64(observedCounter.WithLabelValues("infrastructure"))

	err := NewMonitor(reader, WithRecorder(recorder)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, reader.commits, 2)
	require.Len(t, recorder.entries, 2)
	require.Equal(t, "tx-b", recorder.entries[1].TransactionID)
	require.Equal(t, "m2", recorder.entries[1].Original())
	require.Equal(t, before+2, testutil.ToFloat64(observedCounter.WithLabelValues("infrastructure")))
	require.Equal(t, float64(2), testutil.ToFloat64(backlogGauge))
}

func TestMonitorWithoutRecorder(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		deadLetterMessage(0, consumer.DeadLetter{TransactionID: "tx-a", Class: "processing", Reason: "Processing error: boom", Original: "m1"}),
	}}

	require.ErrorIs(t, NewMonitor(reader).Run(context.Background()), context.Canceled)
	require.Len(t, reader.commits, 1)
}

func TestMonitorRetriesRecordBeforeCommit(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		deadLetterMessage(0, consumer.DeadLetter{TransactionID: "tx-a", Class: "unexpected", Reason: "Unexpected error: nil", Original: "m1"}),
	}}
	recorder := &stubRecorder{failures: 2}

	err := NewMonitor(reader, WithRecorder(recorder), WithRetryDelay(time.Millisecond)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, recorder.attempts)
	require.Len(t, recorder.entries, 1)
	require.Len(t, reader.commits, 1)
}

func TestMonitorStopsWithoutCommittingUnrecordedEntry(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		deadLetterMessage(0, consumer.DeadLetter{TransactionID: "tx-a", Class: "unexpected", Reason: "Unexpected error: nil", Original: "m1"}),
	}}
	recorder := &stubRecorder{failures: 1000}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewMonitor(reader, WithRecorder(recorder), WithRetryDelay(time.Millisecond)).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, reader.commits)
	require.Empty(t, recorder.entries)
}

type stubReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	index    int
	commits  []kafka.Message
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, msgs...)
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubRecorder struct {
	failures int
	attempts int
	entries  []Entry
}

func (r *stubRecorder) Record(_ context.Context, entry Entry) error {
	r.attempts++
	if r.attempts <= r.failures {
		return errors.New("connection refused")
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubRecorder) Count(context.Context) (int64, error) {
	return int64(len(r.entries)), nil
}
