package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"example.com/trainerworkload/internal/consumer"
	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/messaging"
)

type responseReader interface {
	ReadMessage(context.Context) (kafka.Message, error)
}

// awaitResponse reads the response topic until the response correlated with
// transactionID arrives.
func awaitResponse(ctx context.Context, reader responseReader, transactionID string) (consumer.Response, error) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			return consumer.Response{}, fmt.Errorf("read response: %w", err)
		}
		if id, ok := messaging.HeaderValue(msg, messaging.HeaderTransactionID); ok && id != transactionID {
			continue
		}
		var resp consumer.Response
		if err := json.Unmarshal(msg.Value, &resp); err != nil {
			continue
		}
		if resp.TransactionID == transactionID {
			return resp, nil
		}
	}
}

func newQueryCommand(g *globals) *cobra.Command {
	var (
		username      string
		year, month   int
		transactionID string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a trainer's monthly workload over the queue and wait for the response",
		RunE: func(cmd *cobra.Command, args []string) error {
			if transactionID == "" {
				transactionID = uuid.NewString()
			}
			msg := consumer.Message{
				Username:      username,
				ActionType:    string(domain.ActionGet),
				Year:          &year,
				Month:         &month,
				TransactionID: transactionID,
			}
			if !cmd.Flags().Changed("year") || !cmd.Flags().Changed("month") {
				msg.Year, msg.Month = nil, nil
			}
			if err := msg.Validate(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			// Join before publishing so the response cannot be missed.
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:     g.cfg.KafkaBrokers,
				GroupID:     "workloadctl-" + transactionID,
				Topic:       g.cfg.ResponseTopic,
				StartOffset: kafka.FirstOffset,
				MinBytes:    1,
				MaxBytes:    10e6,
			})
			defer reader.Close()

			producer := messaging.NewProducer(messaging.ProducerConfig{Brokers: g.cfg.KafkaBrokers})
			defer producer.Close()
			if err := messaging.NewCommandPublisher(producer, g.cfg.WorkloadTopic).Publish(ctx, msg); err != nil {
				return err
			}

			resp, err := awaitResponse(ctx, reader, transactionID)
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("no response for transaction %s within %s", transactionID, timeout)
			}
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Error {
				return errors.New(resp.ErrorMessage)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&username, "username", "", "trainer username")
	flags.IntVar(&year, "year", 0, "year to query")
	flags.IntVar(&month, "month", 0, "month to query (1-12)")
	flags.StringVar(&transactionID, "transaction-id", "", "transaction id (generated when empty)")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the response")
	return cmd
}
