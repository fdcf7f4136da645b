package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveWithoutLedger(t *testing.T) {
	summary := Resolve(nil, "bob", 2024, 1)

	require.Equal(t, "bob", summary.Username)
	require.Equal(t, 2024, summary.Year)
	require.Equal(t, 1, summary.Month)
	require.Zero(t, summary.SummaryDuration)
	require.Nil(t, summary.FirstName)
	require.Nil(t, summary.LastName)
	require.Nil(t, summary.IsActive)
}

func TestResolveMissingYearOrMonthKeepsProfile(t *testing.T) {
	ledger, err := Apply(nil, command(ActionAdd, date(2024, time.March, 15), 60))
	require.NoError(t, err)

	for _, tc := range []struct {
		name        string
		year, month int
	}{
		{"missing year", 2022, 3},
		{"missing month", 2024, 11},
	} {
		t.Run(tc.name, func(t *testing.T) {
			summary := Resolve(ledger, "alice", tc.year, tc.month)
			require.Zero(t, summary.SummaryDuration)
			require.NotNil(t, summary.FirstName)
			require.Equal(t, "Alice", *summary.FirstName)
			require.Equal(t, "Smith", *summary.LastName)
			require.True(t, *summary.IsActive)
		})
	}
}

func TestResolveReturnsMonthDuration(t *testing.T) {
	ledger, err := Apply(nil, command(ActionAdd, date(2024, time.March, 15), 60))
	require.NoError(t, err)

	summary := Resolve(ledger, "alice", 2024, 3)
	require.Equal(t, 60, summary.SummaryDuration)
	require.Equal(t, Resolve(ledger, "alice", 2024, 3), summary, "repeated resolution is stable")
}

func TestResolveDoesNotAliasLedger(t *testing.T) {
	ledger, err := Apply(nil, command(ActionAdd, date(2024, time.March, 15), 60))
	require.NoError(t, err)

	summary := Resolve(ledger, "alice", 2024, 3)
	*summary.FirstName = "changed"
	require.Equal(t, "Alice", ledger.FirstName)
}
