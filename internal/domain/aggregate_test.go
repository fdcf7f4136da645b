package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func command(action ActionType, day time.Time, duration int) Command {
	return Command{
		Username:         "alice",
		FirstName:        "Alice",
		LastName:         "Smith",
		IsActive:         true,
		TrainingDate:     day,
		TrainingDuration: duration,
		ActionType:       action,
		TransactionID:    "tx",
	}
}

func durationOf(t *testing.T, l *Ledger, year, month int) int {
	t.Helper()
	bucket, ok := l.Month(year, month)
	require.True(t, ok, "expected bucket %d-%02d", year, month)
	return bucket.SummaryDuration
}

func TestApplyCreatesLedgerForUnknownTrainer(t *testing.T) {
	next, err := Apply(nil, command(ActionAdd, date(2024, time.March, 15), 60))
	require.NoError(t, err)

	require.Equal(t, "alice", next.Username)
	require.Equal(t, "Alice", next.FirstName)
	require.Equal(t, "Smith", next.LastName)
	require.True(t, next.IsActive)
	require.Zero(t, next.Version)
	require.Equal(t, 60, durationOf(t, next, 2024, 3))
}

func TestApplyAddIsAdditive(t *testing.T) {
	day := date(2024, time.May, 2)

	split, err := Apply(nil, command(ActionAdd, day, 25))
	require.NoError(t, err)
	split, err = Apply(split, command(ActionAdd, day, 35))
	require.NoError(t, err)

	combined, err := Apply(nil, command(ActionAdd, day, 60))
	require.NoError(t, err)

	require.Equal(t, durationOf(t, combined, 2024, 5), durationOf(t, split, 2024, 5))
}

func TestApplyUpdateReplaces(t *testing.T) {
	day := date(2024, time.June, 10)
	for _, prior := range []int{0, 15, 500} {
		ledger, err := Apply(nil, command(ActionAdd, day, prior))
		require.NoError(t, err)

		ledger, err = Apply(ledger, command(ActionUpdate, day, 42))
		require.NoError(t, err)
		require.Equal(t, 42, durationOf(t, ledger, 2024, 6))
	}
}

func TestApplyDeleteClampsAtZero(t *testing.T) {
	day := date(2024, time.March, 1)

	ledger, err := Apply(nil, command(ActionAdd, day, 50))
	require.NoError(t, err)
	ledger, err = Apply(ledger, command(ActionAdd, day, 30))
	require.NoError(t, err)
	require.Equal(t, 80, durationOf(t, ledger, 2024, 3))

	ledger, err = Apply(ledger, command(ActionDelete, day, 100))
	require.NoError(t, err)
	require.Equal(t, 0, durationOf(t, ledger, 2024, 3), "month bucket is retained at zero")
}

func TestApplyNeverProducesNegativeDurations(t *testing.T) {
	day := date(2023, time.December, 31)
	steps := []struct {
		action   ActionType
		duration int
	}{
		{ActionDelete, 10},
		{ActionAdd, 5},
		{ActionDelete, 3},
		{ActionDelete, 7},
		{ActionAdd, 1},
		{ActionDelete, 1000},
	}

	var ledger *Ledger
	for _, step := range steps {
		next, err := Apply(ledger, command(step.action, day, step.duration))
		require.NoError(t, err)
		require.GreaterOrEqual(t, durationOf(t, next, 2023, 12), 0)
		ledger = next
	}
}

func TestApplyOverwritesProfileFields(t *testing.T) {
	ledger, err := Apply(nil, command(ActionAdd, date(2024, time.January, 5), 10))
	require.NoError(t, err)

	cmd := command(ActionDelete, date(2024, time.January, 5), 0)
	cmd.FirstName = "Alicia"
	cmd.LastName = "Jones"
	cmd.IsActive = false

	next, err := Apply(ledger, cmd)
	require.NoError(t, err)
	require.Equal(t, "Alicia", next.FirstName)
	require.Equal(t, "Jones", next.LastName)
	require.False(t, next.IsActive)
	require.Equal(t, 10, durationOf(t, next, 2024, 1))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	original, err := Apply(nil, command(ActionAdd, date(2024, time.February, 1), 30))
	require.NoError(t, err)
	original.Version = 4

	next, err := Apply(original, command(ActionAdd, date(2024, time.February, 9), 15))
	require.NoError(t, err)
	_, err = Apply(original, command(ActionAdd, date(2025, time.July, 9), 15))
	require.NoError(t, err)

	require.Equal(t, 30, durationOf(t, original, 2024, 2))
	require.Len(t, original.Years, 1)
	require.Equal(t, 45, durationOf(t, next, 2024, 2))
	require.Equal(t, int64(4), next.Version, "version is carried for the repository")
}

func TestApplyIsDeterministic(t *testing.T) {
	base, err := Apply(nil, command(ActionAdd, date(2024, time.April, 1), 20))
	require.NoError(t, err)
	cmd := command(ActionAdd, date(2024, time.April, 2), 5)

	first, err := Apply(base, cmd)
	require.NoError(t, err)
	second, err := Apply(base, cmd)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestApplyKeepsMonthsAndYearsSeparate(t *testing.T) {
	ledger, err := Apply(nil, command(ActionAdd, date(2024, time.March, 1), 10))
	require.NoError(t, err)
	ledger, err = Apply(ledger, command(ActionAdd, date(2024, time.April, 1), 20))
	require.NoError(t, err)
	ledger, err = Apply(ledger, command(ActionAdd, date(2025, time.March, 1), 40))
	require.NoError(t, err)

	require.Equal(t, 10, durationOf(t, ledger, 2024, 3))
	require.Equal(t, 20, durationOf(t, ledger, 2024, 4))
	require.Equal(t, 40, durationOf(t, ledger, 2025, 3))
	require.Len(t, ledger.Years, 2)
}

func TestApplyRejectsQueries(t *testing.T) {
	_, err := Apply(nil, command(ActionGet, date(2024, time.March, 1), 10))
	require.ErrorIs(t, err, ErrUnsupportedAction)

	_, err = Apply(nil, command(ActionType("PATCH"), date(2024, time.March, 1), 10))
	require.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestParseActionType(t *testing.T) {
	action, err := ParseActionType(" update ")
	require.NoError(t, err)
	require.Equal(t, ActionUpdate, action)
	require.True(t, action.Mutating())
	require.False(t, ActionGet.Mutating())

	_, err = ParseActionType("PATCH")
	require.EqualError(t, err, "Unsupported action type: PATCH")
}
