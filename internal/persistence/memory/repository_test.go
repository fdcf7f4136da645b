package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/trainerworkload/internal/domain"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	_, err := repo.LoadByUsername(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrLedgerNotFound)

	ledger, err := domain.Apply(nil, domain.Command{
		Username: "alice", FirstName: "Alice", LastName: "Smith", IsActive: true,
		TrainingDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), TrainingDuration: 60,
		ActionType: domain.ActionAdd,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, ledger))
	require.Equal(t, int64(1), ledger.Version)

	loaded, err := repo.LoadByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, ledger, loaded)

	loaded.FirstName = "mutated"
	again, err := repo.LoadByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", again.FirstName)
}

func TestRepositoryRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.Save(ctx, domain.NewLedger("alice", "Alice", "Smith", true)))

	first, err := repo.LoadByUsername(ctx, "alice")
	require.NoError(t, err)
	second, err := repo.LoadByUsername(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))
	require.ErrorIs(t, repo.Save(ctx, second), domain.ErrVersionConflict)

	require.ErrorIs(t, repo.Save(ctx, domain.NewLedger("alice", "A", "S", false)), domain.ErrVersionConflict,
		"creating over an existing ledger conflicts")
}
