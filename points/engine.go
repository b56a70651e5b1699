package points

import (
	"fmt"
	"log/slog"

	"telegram-points-bot/storage"
)

// Global balance bounds no account may cross.
const (
	MinBalance = 0
	MaxBalance = 100
)

// Engine applies administrative balance changes. It is the sole write
// path for grants and revocations; transfers go through Workflow.
type Engine struct {
	store *storage.Storage
}

func NewEngine(store *storage.Storage) *Engine {
	return &Engine{store: store}
}

// checkBounds validates one delta against the current balance and
// returns the resulting balance. Violations are reported, never
// clamped.
func checkBounds(current, delta int) (int, error) {
	next := current + delta
	if delta > 0 && next > MaxBalance {
		return 0, &LimitExceededError{Current: current, Delta: delta, Bound: MaxBalance}
	}
	if delta < 0 && next < MinBalance {
		return 0, &LimitExceededError{Current: current, Delta: delta, Bound: MinBalance}
	}
	return next, nil
}

// Adjust applies a signed delta to one account and returns the new
// balance. The account is created at the chat's starting balance if
// absent. A delta that would cross a bound rejects the whole call with
// LimitExceededError and leaves the balance unchanged.
func (e *Engine) Adjust(chatID, userID int64, delta int, reason string) (int, error) {
	next, err := e.store.UpdateBalance(chatID, userID, func(current int) (int, error) {
		return checkBounds(current, delta)
	})
	if err != nil {
		return 0, err
	}

	slog.Info("points: Balance adjusted", "chat_id", chatID, "user_id", userID,
		"delta", delta, "balance", next, "reason", reason)
	return next, nil
}

// BatchFailure records one target skipped by AdjustMany and why.
type BatchFailure struct {
	UserID int64
	Err    error
}

// BatchResult reports the outcome of AdjustMany per target.
type BatchResult struct {
	Applied map[int64]int // user id -> new balance
	Failed  []BatchFailure
}

// AdjustMany applies the same delta to several targets, each validated
// independently: targets that would cross a bound are skipped and
// reported while the rest still succeed. This best-effort semantics is
// intentional and differs from the all-or-nothing single-target
// Adjust.
func (e *Engine) AdjustMany(chatID int64, userIDs []int64, delta int, reason string) BatchResult {
	result := BatchResult{Applied: make(map[int64]int, len(userIDs))}
	for _, userID := range userIDs {
		balance, err := e.Adjust(chatID, userID, delta, reason)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{UserID: userID, Err: err})
			continue
		}
		result.Applied[userID] = balance
	}
	return result
}

// StartingBalance returns the balance assigned to new accounts in a
// chat.
func (e *Engine) StartingBalance(chatID int64) (int, error) {
	return e.store.StartingBalance(chatID)
}

// SetStartingBalance configures the balance assigned to new accounts,
// bounded by the global floor and ceiling.
func (e *Engine) SetStartingBalance(chatID int64, value int) error {
	if value < MinBalance || value > MaxBalance {
		return fmt.Errorf("starting balance %d outside [%d, %d]", value, MinBalance, MaxBalance)
	}
	return e.store.SetStartingBalance(chatID, value)
}
