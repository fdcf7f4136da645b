package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"example.com/trainerworkload/internal/consumer"
)

// Header keys set on published records.
const (
	HeaderTransactionID = "transaction_id"
	HeaderFailureClass  = "failure_class"
	HeaderContentType   = "content_type"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// ResponseSender publishes query responses as JSON keyed by username.
type ResponseSender struct {
	producer messageWriter
	topic    string
}

// NewResponseSender constructs a ResponseSender.
func NewResponseSender(producer messageWriter, topic string) *ResponseSender {
	return &ResponseSender{producer: producer, topic: topic}
}

// SendResponse publishes resp.
func (s *ResponseSender) SendResponse(ctx context.Context, resp consumer.Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(resp.Username),
		Value: body,
		Headers: []kafka.Header{
			{Key: HeaderTransactionID, Value: []byte(resp.TransactionID)},
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
	}
	if err := s.producer.WriteMessages(ctx, s.topic, msg); err != nil {
		return fmt.Errorf("publish response to %s: %w", s.topic, err)
	}
	return nil
}

// DeadLetterSender publishes failed messages as plain text.
type DeadLetterSender struct {
	producer messageWriter
	topic    string
}

// NewDeadLetterSender constructs a DeadLetterSender.
func NewDeadLetterSender(producer messageWriter, topic string) *DeadLetterSender {
	return &DeadLetterSender{producer: producer, topic: topic}
}

// SendDeadLetter publishes dl.
func (s *DeadLetterSender) SendDeadLetter(ctx context.Context, dl consumer.DeadLetter) error {
	msg := kafka.Message{
		Key:   []byte(dl.TransactionID),
		Value: []byte(dl.Payload()),
		Headers: []kafka.Header{
			{Key: HeaderTransactionID, Value: []byte(dl.TransactionID)},
			{Key: HeaderFailureClass, Value: []byte(dl.Class)},
			{Key: HeaderContentType, Value: []byte("text/plain")},
		},
	}
	if err := s.producer.WriteMessages(ctx, s.topic, msg); err != nil {
		return fmt.Errorf("publish dead letter to %s: %w", s.topic, err)
	}
	return nil
}

// CommandPublisher publishes workload messages to the workload topic, keyed by
// username so a trainer's commands keep their order within a partition.
type CommandPublisher struct {
	producer messageWriter
	topic    string
}

// NewCommandPublisher constructs a CommandPublisher.
func NewCommandPublisher(producer messageWriter, topic string) *CommandPublisher {
	return &CommandPublisher{producer: producer, topic: topic}
}

// Publish encodes msg as JSON and writes it.
func (p *CommandPublisher) Publish(ctx context.Context, msg consumer.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode workload message: %w", err)
	}
	record := kafka.Message{
		Key:   []byte(msg.Username),
		Value: body,
		Headers: []kafka.Header{
			{Key: HeaderTransactionID, Value: []byte(msg.TransactionID)},
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
	}
	if err := p.producer.WriteMessages(ctx, p.topic, record); err != nil {
		return fmt.Errorf("publish workload message to %s: %w", p.topic, err)
	}
	return nil
}

// HeaderValue returns the value of the first header named key.
func HeaderValue(msg kafka.Message, key string) (string, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return string(header.Value), true
		}
	}
	return "", false
}
