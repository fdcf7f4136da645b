package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailureClassification(t *testing.T) {
	cause := errors.New("connection refused")

	infra := fmt.Errorf("wrapped: %w", infrastructure(cause))
	require.Equal(t, FailureInfrastructure, KindOf(infra))
	require.ErrorIs(t, infra, cause)
	require.Equal(t, "Database error: connection refused", Describe(infra))

	require.Equal(t, "Validation error: Username is required", Describe(Validationf("Username is required")))
	require.Equal(t, FailureValidation, KindOf(ValidationError(cause)))

	require.Equal(t, FailureUnexpected, KindOf(cause))
	require.Equal(t, "Unexpected error: connection refused", Describe(cause))
	require.Equal(t, "Unexpected error: boom", Describe(unexpected(errors.New("boom"))))
}
