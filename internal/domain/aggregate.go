package domain

import "fmt"

// Apply computes the ledger that results from cmd. current may be nil when the
// trainer has no ledger yet. The input is never mutated.
func Apply(current *Ledger, cmd Command) (*Ledger, error) {
	if !cmd.ActionType.Mutating() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, cmd.ActionType)
	}

	var next *Ledger
	if current == nil {
		next = NewLedger(cmd.Username, cmd.FirstName, cmd.LastName, cmd.IsActive)
	} else {
		next = current.Clone()
	}

	next.FirstName = cmd.FirstName
	next.LastName = cmd.LastName
	next.IsActive = cmd.IsActive

	bucket := next.monthFor(cmd.TrainingDate.Year(), int(cmd.TrainingDate.Month()))

	switch cmd.ActionType {
	case ActionAdd:
		bucket.SummaryDuration += cmd.TrainingDuration
	case ActionUpdate:
		bucket.SummaryDuration = cmd.TrainingDuration
	case ActionDelete:
		bucket.SummaryDuration = max(0, bucket.SummaryDuration-cmd.TrainingDuration)
	case ActionGet:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, cmd.ActionType)
	}

	return next, nil
}
