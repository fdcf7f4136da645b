package consumer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"example.com/trainerworkload/internal/domain"
)

// Validation messages reported for malformed workload messages.
const (
	msgUsernameRequired     = "Username is required"
	msgActionTypeRequired   = "Action type is required"
	msgDurationNegative     = "Training duration cannot be negative"
	msgDateDurationRequired = "Training date and duration are required for ADD/UPDATE actions"
	msgDateRequiredDelete   = "Training date is required for DELETE action"
	msgYearMonthRequired    = "Year and month are required for GET action"
)

// Message is a workload command or query as published on the workload topic.
type Message struct {
	Username         string       `json:"username"`
	FirstName        string       `json:"firstName,omitempty"`
	LastName         string       `json:"lastName,omitempty"`
	IsActive         *bool        `json:"isActive,omitempty"`
	TrainingDate     *domain.Date `json:"trainingDate,omitempty"`
	TrainingDuration *int         `json:"trainingDuration,omitempty"`
	ActionType       string       `json:"actionType"`
	Year             *int         `json:"year,omitempty"`
	Month            *int         `json:"month,omitempty"`
	TransactionID    string       `json:"transactionId,omitempty"`
}

// DecodeMessage parses a JSON payload.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Action returns the parsed action type.
func (m Message) Action() (domain.ActionType, error) {
	return domain.ParseActionType(m.ActionType)
}

// Validate checks the fields required by the message's action. Failures are
// domain validation errors carrying the message shown to operators.
func (m Message) Validate() error {
	if m.Username == "" {
		return domain.Validationf(msgUsernameRequired)
	}
	if strings.TrimSpace(m.ActionType) == "" {
		return domain.Validationf(msgActionTypeRequired)
	}
	if m.TrainingDuration != nil && *m.TrainingDuration < 0 {
		return domain.Validationf(msgDurationNegative)
	}

	action, err := m.Action()
	if err != nil {
		return domain.ValidationError(err)
	}

	switch action {
	case domain.ActionAdd, domain.ActionUpdate:
		if m.TrainingDate == nil || m.TrainingDuration == nil {
			return domain.Validationf(msgDateDurationRequired)
		}
	case domain.ActionDelete:
		if m.TrainingDate == nil {
			return domain.Validationf(msgDateRequiredDelete)
		}
	case domain.ActionGet:
		if m.Year == nil || m.Month == nil {
			return domain.Validationf(msgYearMonthRequired)
		}
	}
	return nil
}

// Command converts a validated mutating message into a domain command.
func (m Message) Command() (domain.Command, error) {
	action, err := m.Action()
	if err != nil {
		return domain.Command{}, domain.ValidationError(err)
	}
	cmd := domain.Command{
		Username:      m.Username,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		ActionType:    action,
		TransactionID: m.TransactionID,
	}
	if m.IsActive != nil {
		cmd.IsActive = *m.IsActive
	}
	if m.TrainingDate != nil {
		cmd.TrainingDate = m.TrainingDate.Time
	}
	if m.TrainingDuration != nil {
		cmd.TrainingDuration = *m.TrainingDuration
	}
	return cmd, nil
}

// String renders the message for dead-letter payloads and logs.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString("WorkloadMessage(")
	b.WriteString("username=" + m.Username)
	b.WriteString(", firstName=" + m.FirstName)
	b.WriteString(", lastName=" + m.LastName)
	b.WriteString(", isActive=" + formatBool(m.IsActive))
	b.WriteString(", trainingDate=" + formatDate(m.TrainingDate))
	b.WriteString(", trainingDuration=" + formatInt(m.TrainingDuration))
	b.WriteString(", actionType=" + m.ActionType)
	b.WriteString(", year=" + formatInt(m.Year))
	b.WriteString(", month=" + formatInt(m.Month))
	b.WriteString(", transactionId=" + m.TransactionID)
	b.WriteString(")")
	return b.String()
}

func formatInt(v *int) string {
	if v == nil {
		return "null"
	}
	return strconv.Itoa(*v)
}

func formatBool(v *bool) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatBool(*v)
}

func formatDate(v *domain.Date) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// Response is published on the response topic for GET messages.
type Response struct {
	Username        string  `json:"username"`
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
	Year            *int    `json:"year"`
	Month           *int    `json:"month"`
	SummaryDuration int     `json:"summaryDuration"`
	TransactionID   string  `json:"transactionId"`
	Error           bool    `json:"error"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
}

func successResponse(summary domain.MonthlySummary, transactionID string) Response {
	year, month := summary.Year, summary.Month
	return Response{
		Username:        summary.Username,
		FirstName:       summary.FirstName,
		LastName:        summary.LastName,
		IsActive:        summary.IsActive,
		Year:            &year,
		Month:           &month,
		SummaryDuration: summary.SummaryDuration,
		TransactionID:   transactionID,
	}
}

func errorResponse(msg Message, err error) Response {
	return Response{
		Username:      msg.Username,
		Year:          msg.Year,
		Month:         msg.Month,
		TransactionID: msg.TransactionID,
		Error:         true,
		ErrorMessage:  domain.Describe(err),
	}
}

// DeadLetter is a message that reached a terminal failure.
type DeadLetter struct {
	TransactionID string
	// Class labels the failure: validation, infrastructure, unexpected or processing.
	Class string
	// Reason is the classified failure text, prefix included.
	Reason string
	// Original is the message's textual form, or the raw payload when it could not be decoded.
	Original string
}

// Payload renders the dead-letter body.
func (d DeadLetter) Payload() string {
	return fmt.Sprintf("Error: %s, Original message: %s", d.Reason, d.Original)
}
