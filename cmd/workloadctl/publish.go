package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"example.com/trainerworkload/internal/consumer"
	"example.com/trainerworkload/internal/domain"
	"example.com/trainerworkload/internal/messaging"
)

const publishTimeout = 10 * time.Second

type commandFlags struct {
	username      string
	firstName     string
	lastName      string
	active        bool
	date          string
	duration      int
	action        string
	transactionID string
}

// message builds a validated workload message from the flags. Date and duration
// are carried only when set, so omitted fields stay absent on the wire.
func (f commandFlags) message(cmd *cobra.Command) (consumer.Message, error) {
	msg := consumer.Message{
		Username:      strings.TrimSpace(f.username),
		FirstName:     f.firstName,
		LastName:      f.lastName,
		ActionType:    strings.ToUpper(strings.TrimSpace(f.action)),
		TransactionID: f.transactionID,
	}
	if msg.TransactionID == "" {
		msg.TransactionID = uuid.NewString()
	}
	active := f.active
	msg.IsActive = &active

	flags := cmd.Flags()
	if flags.Changed("date") {
		date, err := domain.ParseDate(f.date)
		if err != nil {
			return consumer.Message{}, fmt.Errorf("invalid --date: %w", err)
		}
		msg.TrainingDate = &date
	}
	if flags.Changed("duration") {
		duration := f.duration
		msg.TrainingDuration = &duration
	}
	if err := msg.Validate(); err != nil {
		return consumer.Message{}, err
	}
	return msg, nil
}

func newPublishCommand(g *globals) *cobra.Command {
	var f commandFlags

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an ADD, UPDATE or DELETE command to the workload topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := f.message(cmd)
			if err != nil {
				return err
			}
			action, _ := msg.Action()
			if !action.Mutating() {
				return fmt.Errorf("publish sends mutating actions only, use query for %s", action)
			}

			producer := messaging.NewProducer(messaging.ProducerConfig{Brokers: g.cfg.KafkaBrokers})
			defer producer.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), publishTimeout)
			defer cancel()
			if err := messaging.NewCommandPublisher(producer, g.cfg.WorkloadTopic).Publish(ctx, msg); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"topic":         g.cfg.WorkloadTopic,
				"transactionId": msg.TransactionID,
			})
		},
	}

	bindCommandFlags(cmd, &f)
	return cmd
}

func bindCommandFlags(cmd *cobra.Command, f *commandFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.username, "username", "", "trainer username")
	flags.StringVar(&f.firstName, "first-name", "", "trainer first name")
	flags.StringVar(&f.lastName, "last-name", "", "trainer last name")
	flags.BoolVar(&f.active, "active", true, "trainer active status")
	flags.StringVar(&f.date, "date", "", "training date (YYYY-MM-DD)")
	flags.IntVar(&f.duration, "duration", 0, "training duration in minutes")
	flags.StringVar(&f.action, "action", string(domain.ActionAdd), "ADD, UPDATE or DELETE")
	flags.StringVar(&f.transactionID, "transaction-id", "", "transaction id (generated when empty)")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
