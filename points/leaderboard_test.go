package points

import (
	"testing"

	"telegram-points-bot/storage"

	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrderingAndTieBreak(t *testing.T) {
	store := newTestStore(t)
	board := NewLeaderboard(store, 10)

	// Bob and Carol tie on 70; Bob joined first and must rank higher.
	seedAccount(t, store, 1, "Alice", 40)
	seedAccount(t, store, 2, "Bob", 70)
	seedAccount(t, store, 3, "Carol", 70)
	seedAccount(t, store, 4, "Dave", 10)

	rows, totalPages, err := board.Page(testChatID, 0)
	require.NoError(t, err)
	require.Equal(t, 1, totalPages)

	ids := userIDs(rows)
	require.Equal(t, []int64{2, 3, 1, 4}, ids)
}

func TestLeaderboardDeterminism(t *testing.T) {
	store := newTestStore(t)
	board := NewLeaderboard(store, 10)

	seedAccount(t, store, 1, "Alice", 40)
	seedAccount(t, store, 2, "Bob", 70)

	first, _, err := board.Page(testChatID, 0)
	require.NoError(t, err)
	second, _, err := board.Page(testChatID, 0)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLeaderboardPaginationCoversEveryAccountOnce(t *testing.T) {
	store := newTestStore(t)
	board := NewLeaderboard(store, 2)

	for userID := int64(1); userID <= 5; userID++ {
		seedAccount(t, store, userID, "user", int(userID*10))
	}

	_, totalPages, err := board.Page(testChatID, 0)
	require.NoError(t, err)
	require.Equal(t, 3, totalPages)

	seen := make(map[int64]bool)
	var ordered []int64
	for page := 0; page < totalPages; page++ {
		rows, pages, err := board.Page(testChatID, page)
		require.NoError(t, err)
		require.Equal(t, totalPages, pages)
		for _, row := range rows {
			require.False(t, seen[row.UserID], "account repeated across pages")
			seen[row.UserID] = true
			ordered = append(ordered, row.UserID)
		}
	}

	require.Len(t, ordered, 5)
	require.Equal(t, []int64{5, 4, 3, 2, 1}, ordered)
}

func TestLeaderboardEmptyChat(t *testing.T) {
	store := newTestStore(t)
	board := NewLeaderboard(store, 10)

	rows, totalPages, err := board.Page(testChatID, 0)
	require.NoError(t, err)
	require.Empty(t, rows)
	require.Equal(t, 1, totalPages, "an empty chat still reports one page")
}

func userIDs(rows []storage.Account) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids
}
