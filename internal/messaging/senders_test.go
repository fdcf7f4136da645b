package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/trainerworkload/internal/consumer"
)

type recordingWriter struct {
	topic    string
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.topic = topic
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestResponseSenderPublishesJSON(t *testing.T) {
	writer := &recordingWriter{}
	year, month := 2024, 3
	sender := NewResponseSender(writer, "trainer-workload-response-queue")

	err := sender.SendResponse(context.Background(), consumer.Response{
		Username: "alice", Year: &year, Month: &month, SummaryDuration: 60, TransactionID: "tx-1",
	})
	require.NoError(t, err)

	require.Equal(t, "trainer-workload-response-queue", writer.topic)
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	require.Equal(t, "alice", string(msg.Key))
	require.JSONEq(t, `{"username":"alice","year":2024,"month":3,"summaryDuration":60,"transactionId":"tx-1","error":false}`, string(msg.Value))
	txID, ok := HeaderValue(msg, HeaderTransactionID)
	require.True(t, ok)
	require.Equal(t, "tx-1", txID)
}

func TestDeadLetterSenderPublishesText(t *testing.T) {
	writer := &recordingWriter{}
	sender := NewDeadLetterSender(writer, "dead-letter-queue")

	err := sender.SendDeadLetter(context.Background(), consumer.DeadLetter{
		TransactionID: "tx-2",
		Class:         "validation",
		Reason:        "Validation error: Username is required",
		Original:      "WorkloadMessage(username=)",
	})
	require.NoError(t, err)

	msg := writer.messages[0]
	require.Equal(t, "Error: Validation error: Username is required, Original message: WorkloadMessage(username=)", string(msg.Value))
	class, ok := HeaderValue(msg, HeaderFailureClass)
	require.True(t, ok)
	require.Equal(t, "validation", class)

	_, ok = HeaderValue(msg, "missing")
	require.False(t, ok)
}

func TestSendersWrapWriterErrors(t *testing.T) {
	boom := errors.New("broker down")
	writer := &recordingWriter{err: boom}

	err := NewDeadLetterSender(writer, "dead-letter-queue").SendDeadLetter(context.Background(), consumer.DeadLetter{})
	require.ErrorIs(t, err, boom)
	err = NewResponseSender(writer, "responses").SendResponse(context.Background(), consumer.Response{})
	require.ErrorIs(t, err, boom)
}

func TestCommandPublisherKeysByUsername(t *testing.T) {
	writer := &recordingWriter{}
	year, month := 2024, 3
	publisher := NewCommandPublisher(writer, "trainer-workload-queue")

	err := publisher.Publish(context.Background(), consumer.Message{
		Username: "alice", ActionType: "GET", Year: &year, Month: &month, TransactionID: "tx-9",
	})
	require.NoError(t, err)

	require.Equal(t, "trainer-workload-queue", writer.topic)
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	require.Equal(t, "alice", string(msg.Key))
	require.JSONEq(t, `{"username":"alice","actionType":"GET","year":2024,"month":3,"transactionId":"tx-9"}`, string(msg.Value))
	txID, ok := HeaderValue(msg, HeaderTransactionID)
	require.True(t, ok)
	require.Equal(t, "tx-9", txID)

	decoded, err := consumer.DecodeMessage(msg.Value)
	require.NoError(t, err)
	require.NoError(t, decoded.Validate())
}
