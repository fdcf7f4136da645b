package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"example.com/trainerworkload/internal/auth"
	"example.com/trainerworkload/internal/consumer"
	"example.com/trainerworkload/internal/messaging"
)

func parseCommandFlags(t *testing.T, args ...string) (consumer.Message, error) {
	t.Helper()
	var f commandFlags
	cmd := &cobra.Command{Use: "publish"}
	bindCommandFlags(cmd, &f)
	require.NoError(t, cmd.Flags().Parse(args))
	return f.message(cmd)
}

func TestCommandFlagsBuildMessage(t *testing.T) {
	msg, err := parseCommandFlags(t,
		"--username", "alice", "--first-name", "Alice", "--last-name", "Smith",
		"--date", "2024-03-15", "--duration", "60", "--action", "add", "--transaction-id", "tx-1",
	)
	require.NoError(t, err)
	require.Equal(t, "ADD", msg.ActionType)
	require.Equal(t, "tx-1", msg.TransactionID)
	require.NotNil(t, msg.IsActive)
	require.True(t, *msg.IsActive)
	require.Equal(t, "2024-03-15", msg.TrainingDate.String())
	require.Equal(t, 60, *msg.TrainingDuration)
}

func TestCommandFlagsGenerateTransactionID(t *testing.T) {
	msg, err := parseCommandFlags(t, "--username", "alice", "--date", "2024-03-15", "--action", "DELETE", "--active=false")
	require.NoError(t, err)
	require.NotEmpty(t, msg.TransactionID)
	require.False(t, *msg.IsActive)
	require.Nil(t, msg.TrainingDuration)
}

func TestCommandFlagsValidate(t *testing.T) {
	_, err := parseCommandFlags(t, "--username", "alice", "--action", "ADD")
	require.EqualError(t, err, "Training date and duration are required for ADD/UPDATE actions")

	_, err = parseCommandFlags(t, "--username", "alice", "--date", "15/03/2024", "--duration", "60")
	require.ErrorContains(t, err, "invalid --date")

	_, err = parseCommandFlags(t, "--date", "2024-03-15", "--duration", "60")
	require.EqualError(t, err, "Username is required")
}

func TestAwaitResponseMatchesTransaction(t *testing.T) {
	year, month := 2024, 3
	other, _ := json.Marshal(consumer.Response{Username: "bob", TransactionID: "tx-other"})
	mine, _ := json.Marshal(consumer.Response{Username: "alice", Year: &year, Month: &month, SummaryDuration: 90, TransactionID: "tx-mine"})

	reader := &stubResponseReader{messages: []kafka.Message{
		{Value: other, Headers: []kafka.Header{{Key: messaging.HeaderTransactionID, Value: []byte("tx-other")}}},
		{Value: []byte("not json")},
		{Value: mine, Headers: []kafka.Header{{Key: messaging.HeaderTransactionID, Value: []byte("tx-mine")}}},
	}}

	resp, err := awaitResponse(context.Background(), reader, "tx-mine")
	require.NoError(t, err)
	require.Equal(t, "alice", resp.Username)
	require.Equal(t, 90, resp.SummaryDuration)
}

func TestAwaitResponseStopsWithContext(t *testing.T) {
	_, err := awaitResponse(context.Background(), &stubResponseReader{}, "tx-mine")
	require.ErrorIs(t, err, context.Canceled)
}

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "trainer-workload")

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "ops", "--scope", auth.ScopeWorkloadRead, "--trainer", "alice"})
	require.NoError(t, root.Execute())

	claims, err := auth.Parse(strings.TrimSpace(out.String()), auth.Config{Secret: "cli-secret", Issuer: "trainer-workload"})
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Subject)
	require.True(t, claims.HasScope(auth.ScopeWorkloadRead))
	require.False(t, claims.HasScope(auth.ScopeWorkloadWrite))
	require.True(t, claims.CanAccess("alice"))
	require.False(t, claims.CanAccess("bob"))
}

type stubResponseReader struct {
	messages []kafka.Message
	index    int
}

func (r *stubResponseReader) ReadMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}
