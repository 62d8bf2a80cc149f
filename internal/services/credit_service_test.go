package services_test

import (
	"testing"
	"time"

	"astrowell_go_backend/internal/services"
	"astrowell_go_backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func TestSpendFloorsAtZero(t *testing.T) {
	ledger := services.NewCreditLedger(store.NewMemoryStore(), 10)

	_, err := ledger.SeedIfAbsent(day0)
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		balance, err := ledger.Spend(1, day0)
		require.NoError(t, err)
		assert.Equal(t, 10-i, balance)
	}

	balance, err := ledger.Spend(1, day0)
	assert.ErrorIs(t, err, services.ErrInsufficientCredits)
	assert.Equal(t, 0, balance)

	// The rejected spend left the balance untouched.
	balance, err = ledger.Balance(day0)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestSpendIsAllOrNothing(t *testing.T) {
	ledger := services.NewCreditLedger(store.NewMemoryStore(), 10)
	_, err := ledger.SeedIfAbsent(day0)
	require.NoError(t, err)

	require.NoError(t, ledger.SetBalance(3))

	_, err = ledger.Spend(5, day0)
	assert.ErrorIs(t, err, services.ErrInsufficientCredits)

	balance, err := ledger.Balance(day0)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestSeedIfAbsentLeavesExistingBalance(t *testing.T) {
	ledger := services.NewCreditLedger(store.NewMemoryStore(), 10)

	balance, err := ledger.SeedIfAbsent(day0)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	_, err = ledger.Spend(4, day0)
	require.NoError(t, err)

	// Signing in again the same day must not top the balance up.
	balance, err = ledger.SeedIfAbsent(day0)
	require.NoError(t, err)
	assert.Equal(t, 6, balance)
}

func TestDailyReset(t *testing.T) {
	ledger := services.NewCreditLedger(store.NewMemoryStore(), 10)

	_, err := ledger.SeedIfAbsent(day0)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := ledger.Spend(1, day0)
		require.NoError(t, err)
	}

	t.Run("same day stays empty", func(t *testing.T) {
		balance, err := ledger.Balance(day0.Add(5 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, balance)
	})

	t.Run("next day replenishes", func(t *testing.T) {
		nextDay := day0.AddDate(0, 0, 1)
		balance, err := ledger.Balance(nextDay)
		require.NoError(t, err)
		assert.Equal(t, 10, balance)

		// Only once per day.
		_, err = ledger.Spend(2, nextDay)
		require.NoError(t, err)
		balance, err = ledger.Balance(nextDay)
		require.NoError(t, err)
		assert.Equal(t, 8, balance)
	})
}

func TestSetBalanceClampsAtZero(t *testing.T) {
	ledger := services.NewCreditLedger(store.NewMemoryStore(), 10)

	require.NoError(t, ledger.SetBalance(-5))
	balance, err := ledger.Balance(day0)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestClearRemovesBalance(t *testing.T) {
	ledger := services.NewCreditLedger(store.NewMemoryStore(), 10)

	_, err := ledger.SeedIfAbsent(day0)
	require.NoError(t, err)
	require.NoError(t, ledger.Clear())

	// A fresh sign-in after clearing seeds the full allotment again.
	balance, err := ledger.SeedIfAbsent(day0.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}
