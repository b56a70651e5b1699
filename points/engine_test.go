package points

import (
	"path/filepath"
	"testing"

	"telegram-points-bot/storage"

	"github.com/stretchr/testify/require"
)

const testChatID int64 = 100

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()

	s, err := storage.New(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)

	return s
}

func seedAccount(t *testing.T, store *storage.Storage, userID int64, name string, balance int) {
	t.Helper()

	_, err := store.EnsureAccount(testChatID, userID, name, "")
	require.NoError(t, err)
	_, err = store.UpdateBalance(testChatID, userID, func(int) (int, error) { return balance, nil })
	require.NoError(t, err)
}

func balanceOf(t *testing.T, store *storage.Storage, userID int64) int {
	t.Helper()

	account, err := store.Account(testChatID, userID)
	require.NoError(t, err)
	return account.Balance
}

func TestAdjustWithinBound(t *testing.T) {
	store := newTestStore(t)
	engine := NewEngine(store)
	seedAccount(t, store, 1, "Alice", 40)

	balance, err := engine.Adjust(testChatID, 1, 10, "test")
	require.NoError(t, err)
	require.Equal(t, 50, balance)
}

func TestAdjustExceedingCeiling(t *testing.T) {
	store := newTestStore(t)
	engine := NewEngine(store)
	seedAccount(t, store, 1, "Alice", 95)

	_, err := engine.Adjust(testChatID, 1, 10, "test")

	var limit *LimitExceededError
	require.ErrorAs(t, err, &limit)
	require.Equal(t, 95, limit.Current)
	require.Equal(t, 10, limit.Delta)
	require.Equal(t, MaxBalance, limit.Bound)
	require.Equal(t, 95, balanceOf(t, store, 1), "rejected adjust must not mutate")
}

func TestAdjustBelowFloor(t *testing.T) {
	store := newTestStore(t)
	engine := NewEngine(store)
	seedAccount(t, store, 1, "Alice", 5)

	_, err := engine.Adjust(testChatID, 1, -10, "test")

	var limit *LimitExceededError
	require.ErrorAs(t, err, &limit)
	require.Equal(t, MinBalance, limit.Bound)
	require.Equal(t, 5, balanceOf(t, store, 1))
}

func TestAdjustCreatesAbsentAccount(t *testing.T) {
	store := newTestStore(t)
	engine := NewEngine(store)

	balance, err := engine.Adjust(testChatID, 7, 10, "test")
	require.NoError(t, err)
	require.Equal(t, storage.DefaultStartingBalance+10, balance)
}

func TestAdjustExactBoundAllowed(t *testing.T) {
	store := newTestStore(t)
	engine := NewEngine(store)
	seedAccount(t, store, 1, "Alice", 90)

	balance, err := engine.Adjust(testChatID, 1, 10, "test")
	require.NoError(t, err)
	require.Equal(t, MaxBalance, balance)

	seedAccount(t, store, 2, "Bob", 10)
	balance, err = engine.Adjust(testChatID, 2, -10, "test")
	require.NoError(t, err)
	require.Equal(t, MinBalance, balance)
}

func TestAdjustManyPartialFailure(t *testing.T) {
	store := newTestStore(t)
	engine := NewEngine(store)
	seedAccount(t, store, 1, "Alice", 50)
	seedAccount(t, store, 2, "Bob", 95)
	seedAccount(t, store, 3, "Carol", 20)

	result := engine.AdjustMany(testChatID, []int64{1, 2, 3}, 10, "test")

	require.Equal(t, map[int64]int{1: 60, 3: 30}, result.Applied)
	require.Len(t, result.Failed, 1)
	require.Equal(t, int64(2), result.Failed[0].UserID)

	var limit *LimitExceededError
	require.ErrorAs(t, result.Failed[0].Err, &limit)
	require.Equal(t, 95, balanceOf(t, store, 2), "failed target must stay unchanged")
	require.Equal(t, 60, balanceOf(t, store, 1), "failures must not roll back successes")
}

func TestSetStartingBalanceBounds(t *testing.T) {
	store := newTestStore(t)
	engine := NewEngine(store)

	require.Error(t, engine.SetStartingBalance(testChatID, -1))
	require.Error(t, engine.SetStartingBalance(testChatID, 101))

	require.NoError(t, engine.SetStartingBalance(testChatID, 70))
	starting, err := engine.StartingBalance(testChatID)
	require.NoError(t, err)
	require.Equal(t, 70, starting)
}
