// Package deadletter watches the dead-letter topic and keeps a forensic record
// of every workload message that could not be processed.
package deadletter

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/trainerworkload/internal/messaging"
)

const (
	reasonPrefix   = "Error: "
	originalMarker = ", Original message: "
)

// Entry is a dead-lettered workload message.
type Entry struct {
	ID            int64     `json:"id,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Class         string    `json:"failureClass"`
	Payload       string    `json:"payload"`
	Topic         string    `json:"topic"`
	Partition     int       `json:"partition"`
	Offset        int64     `json:"offset"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EntryFromMessage builds an Entry from a record read off the dead-letter topic.
func EntryFromMessage(msg kafka.Message) Entry {
	txID, _ := messaging.HeaderValue(msg, messaging.HeaderTransactionID)
	class, ok := messaging.HeaderValue(msg, messaging.HeaderFailureClass)
	if !ok || class == "" {
		class = "unknown"
	}
	if txID == "" {
		txID = string(msg.Key)
	}
	return Entry{
		TransactionID: txID,
		Class:         class,
		Payload:       string(msg.Value),
		Topic:         msg.Topic,
		Partition:     msg.Partition,
		Offset:        msg.Offset,
		CreatedAt:     msg.Time,
	}
}

// Reason returns the failure text of the payload, without the original message.
func (e Entry) Reason() string {
	body := strings.TrimPrefix(e.Payload, reasonPrefix)
	if i := strings.Index(body, originalMarker); i >= 0 {
		return body[:i]
	}
	return body
}

// Original returns the message that failed, as it was captured in the payload.
func (e Entry) Original() string {
	if i := strings.Index(e.Payload, originalMarker); i >= 0 {
		return e.Payload[i+len(originalMarker):]
	}
	return ""
}
