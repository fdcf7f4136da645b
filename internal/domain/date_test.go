package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var payload struct {
		Day  *Date `json:"day"`
		Skip *Date `json:"skip"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2024-03-15","skip":null}`), &payload))
	require.NotNil(t, payload.Day)
	require.Nil(t, payload.Skip)
	require.Equal(t, 2024, payload.Day.Year())
	require.Equal(t, time.March, payload.Day.Month())

	out, err := json.Marshal(NewDate(2024, time.January, 5))
	require.NoError(t, err)
	require.Equal(t, `"2024-01-05"`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"day":"15/03/2024"}`), &payload))
	require.Error(t, json.Unmarshal([]byte(`{"day":20240315}`), &payload))
}
