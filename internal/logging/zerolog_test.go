package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "json", Level: "debug", Service: "consumer", Output: &buf})

	logger.With(TransactionID("tx-1")).Info("processed", String("username", "alice"), Int("duration", 60), Err(errors.New("boom")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "processed", entry["message"])
	require.Equal(t, "consumer", entry["service"])
	require.Equal(t, "tx-1", entry["transaction_id"])
	require.Equal(t, "alice", entry["username"])
	require.EqualValues(t, 60, entry["duration"])
	require.Equal(t, "boom", entry["error"])
}

func TestZerologAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "json", Level: "warn", Output: &buf})

	logger.Info("hidden")
	require.Zero(t, buf.Len())

	logger.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "json", Level: "chatty", Output: &buf})

	logger.Debug("hidden")
	require.Zero(t, buf.Len())
	logger.Info("shown")
	require.Contains(t, buf.String(), "shown")
}
