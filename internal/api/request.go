package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"example.com/trainerworkload/internal/domain"
)

// WorkloadRequest is the payload for POST /api/v1/workload.
type WorkloadRequest struct {
	Username         string       `json:"username" validate:"required"`
	FirstName        string       `json:"first_name" validate:"required"`
	LastName         string       `json:"last_name" validate:"required"`
	IsActive         *bool        `json:"is_active" validate:"required"`
	TrainingDate     *domain.Date `json:"training_date" validate:"required"`
	TrainingDuration *int         `json:"training_duration" validate:"required,gt=0"`
	ActionType       string       `json:"action_type" validate:"required,mutating_action"`
}

// normalize trims the free-text fields so whitespace-only values fail validation.
func (r *WorkloadRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.ActionType = strings.TrimSpace(r.ActionType)
}

// Command converts a validated request into a domain command.
func (r WorkloadRequest) Command(transactionID string) (domain.Command, error) {
	action, err := domain.ParseActionType(r.ActionType)
	if err != nil {
		return domain.Command{}, domain.ValidationError(err)
	}
	if !action.Mutating() {
		return domain.Command{}, domain.Validationf("Unsupported action type: %s", r.ActionType)
	}
	return domain.Command{
		Username:         r.Username,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		IsActive:         *r.IsActive,
		TrainingDate:     r.TrainingDate.Time,
		TrainingDuration: *r.TrainingDuration,
		ActionType:       action,
		TransactionID:    transactionID,
	}, nil
}

var fieldMessages = map[string]string{
	"username.required":           "Username is required",
	"first_name.required":         "First name is required",
	"last_name.required":          "Last name is required",
	"is_active.required":          "Active status is required",
	"training_date.required":      "Training date is required",
	"training_duration.required":  "Training duration is required",
	"training_duration.gt":        "Training duration must be positive",
	"action_type.required":        "Action type is required",
	"action_type.mutating_action": "Action type must be one of ADD, UPDATE, DELETE",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("mutating_action", func(fl validator.FieldLevel) bool {
		action, err := domain.ParseActionType(fl.Field().String())
		return err == nil && action.Mutating()
	})
	return v
}

// validateRequest returns every violated rule joined into one message.
func (h *Handler) validateRequest(req *WorkloadRequest) error {
	req.normalize()
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		messages = append(messages, fe.Field()+" "+msg)
	}
	return errors.New(strings.Join(messages, "; "))
}
