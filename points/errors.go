package points

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no numbers of their own.
var (
	// ErrNotFound means the referenced pending transfer does not exist;
	// an already resolved token and a token that never existed are not
	// distinguished.
	ErrNotFound = errors.New("pending transfer not found")
	// ErrExpired means the pending transfer outlived its TTL. The entry
	// is discarded as a side effect of the check that reports this.
	ErrExpired = errors.New("pending transfer expired")
	// ErrNotOwner means the caller is not the proposer of the pending
	// transfer.
	ErrNotOwner = errors.New("caller is not the transfer owner")
	// ErrUnauthorized means the caller's authority level is too low for
	// the requested operation.
	ErrUnauthorized = errors.New("insufficient authority level")
	// ErrTargetUnknown means the referenced user has no account within
	// the chat's scope.
	ErrTargetUnknown = errors.New("target account unknown in this chat")
	// ErrSelfTransfer rejects transfers where sender and recipient are
	// the same account.
	ErrSelfTransfer = errors.New("cannot transfer points to yourself")
	// ErrOwnerImmutable rejects promotion or demotion of the owner
	// principal, whose level is implicit and never stored.
	ErrOwnerImmutable = errors.New("owner level cannot be changed")
)

// LimitExceededError reports a balance mutation that would cross a
// bound. The mutation is rejected, never clamped.
type LimitExceededError struct {
	Current int
	Delta   int
	Bound   int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("balance %d%+d would cross bound %d", e.Current, e.Delta, e.Bound)
}

// BelowMinimumTransferError reports a transfer request too small to
// credit anything after the exchange rate is applied.
type BelowMinimumTransferError struct {
	Requested int
	Rate      int
}

func (e *BelowMinimumTransferError) Error() string {
	return fmt.Sprintf("transfer of %d floors to zero credit at rate %d", e.Requested, e.Rate)
}

// RecipientOverflowError reports a credit the recipient cannot accept
// without exceeding the ceiling. Headroom is how much they could still
// take.
type RecipientOverflowError struct {
	Credit   int
	Headroom int
}

func (e *RecipientOverflowError) Error() string {
	return fmt.Sprintf("recipient cannot accept %d points, only %d fit", e.Credit, e.Headroom)
}

// SenderFloorError reports a transfer that would drop the sender below
// the mandatory reserve.
type SenderFloorError struct {
	Balance int
	Debit   int
	Floor   int
}

func (e *SenderFloorError) Error() string {
	return fmt.Sprintf("balance %d-%d would drop below transfer floor %d", e.Balance, e.Debit, e.Floor)
}

// InsufficientFundsError reports a sender balance below the required
// debit.
type InsufficientFundsError struct {
	Balance int
	Debit   int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("balance %d is below required debit %d", e.Balance, e.Debit)
}
