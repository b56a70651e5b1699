package points

import (
	"telegram-points-bot/storage"
)

// DefaultPageSize is how many rows one leaderboard page holds.
const DefaultPageSize = 30

// Leaderboard is a read-only ranked view over a chat's accounts:
// descending balance, ties broken by join order so earlier members rank
// higher among equals.
type Leaderboard struct {
	store    *storage.Storage
	pageSize int
}

func NewLeaderboard(store *storage.Storage, pageSize int) *Leaderboard {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Leaderboard{store: store, pageSize: pageSize}
}

// PageSize returns the configured rows-per-page.
func (l *Leaderboard) PageSize() int { return l.pageSize }

// Page returns one zero-based leaderboard page and the total page
// count. An empty chat still reports one page holding no rows.
func (l *Leaderboard) Page(chatID int64, page int) ([]storage.Account, int, error) {
	count, err := l.store.CountAccounts(chatID)
	if err != nil {
		return nil, 0, err
	}

	totalPages := int((count + int64(l.pageSize) - 1) / int64(l.pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	rows, err := l.store.TopAccounts(chatID, l.pageSize, page*l.pageSize)
	if err != nil {
		return nil, 0, err
	}

	return rows, totalPages, nil
}
