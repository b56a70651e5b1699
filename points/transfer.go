package points

import (
	"errors"
	"log/slog"
	"time"

	"telegram-points-bot/storage"

	"github.com/google/uuid"
)

// Transfer exchange parameters. The rate is how many points the sender
// pays per point the recipient receives; the difference is burned. The
// floor is the reserve a sender must keep after transferring, stricter
// than the global minimum.
const (
	TransferRate  = 3
	TransferFloor = 50
	TransferTTL   = 300 * time.Second
)

// Workflow drives the two-phase peer-to-peer exchange:
// propose -> confirm | cancel | expire. Proposals hold no funds;
// balances only move when Confirm commits both sides in one
// transaction.
type Workflow struct {
	store    *storage.Storage
	registry Registry
	rate     int
	floor    int
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

// WorkflowOption alters the default configuration of a Workflow.
type WorkflowOption interface {
	apply(*Workflow)
}

type workflowOptionFunc func(w *Workflow)

func (f workflowOptionFunc) apply(w *Workflow) { f(w) }

// WithRegistry replaces the default in-memory pending registry.
func WithRegistry(r Registry) WorkflowOption {
	return workflowOptionFunc(func(w *Workflow) { w.registry = r })
}

// WithTTL overrides the pending-transfer time-to-live.
func WithTTL(d time.Duration) WorkflowOption {
	return workflowOptionFunc(func(w *Workflow) { w.ttl = d })
}

// WithClock replaces the wall-clock source, used by expiry tests.
func WithClock(now func() time.Time) WorkflowOption {
	return workflowOptionFunc(func(w *Workflow) { w.now = now })
}

// WithTokenSource replaces the token generator.
func WithTokenSource(newToken func() string) WorkflowOption {
	return workflowOptionFunc(func(w *Workflow) { w.newToken = newToken })
}

func NewWorkflow(store *storage.Storage, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		store:    store,
		registry: NewMemoryRegistry(),
		rate:     TransferRate,
		floor:    TransferFloor,
		ttl:      TransferTTL,
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt.apply(w)
	}
	return w
}

// Rate returns the configured exchange rate.
func (w *Workflow) Rate() int { return w.rate }

// validateTransfer re-checks a pending transfer against current
// balances. Used both at proposal time and inside the commit
// transaction, because balances may drift between the two.
func (w *Workflow) validateTransfer(debit, credit, senderBalance, recipientBalance int) error {
	if recipientBalance+credit > MaxBalance {
		return &RecipientOverflowError{Credit: credit, Headroom: MaxBalance - recipientBalance}
	}
	if senderBalance-debit < w.floor {
		return &SenderFloorError{Balance: senderBalance, Debit: debit, Floor: w.floor}
	}
	if senderBalance < debit {
		return &InsufficientFundsError{Balance: senderBalance, Debit: debit}
	}
	return nil
}

// Propose validates a transfer request against current balances and,
// on success, parks it in the registry under a fresh unguessable token
// for the sender to confirm or cancel. The credit is the requested
// amount divided by the rate, floored; the remainder of the requested
// amount is simply not taken.
func (w *Workflow) Propose(chatID, senderID, recipientID int64, amount int) (PendingTransfer, error) {
	if senderID == recipientID {
		return PendingTransfer{}, ErrSelfTransfer
	}
	if amount <= 0 {
		return PendingTransfer{}, &BelowMinimumTransferError{Requested: amount, Rate: w.rate}
	}

	recipient, err := w.store.Account(chatID, recipientID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return PendingTransfer{}, ErrTargetUnknown
		}
		return PendingTransfer{}, err
	}

	sender, err := w.store.Account(chatID, senderID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return PendingTransfer{}, ErrTargetUnknown
		}
		return PendingTransfer{}, err
	}

	credit := amount / w.rate
	if credit <= 0 {
		return PendingTransfer{}, &BelowMinimumTransferError{Requested: amount, Rate: w.rate}
	}
	debit := credit * w.rate

	if err := w.validateTransfer(debit, credit, sender.Balance, recipient.Balance); err != nil {
		return PendingTransfer{}, err
	}

	transfer := PendingTransfer{
		Token:         w.newToken(),
		ChatID:        chatID,
		SenderID:      senderID,
		SenderName:    sender.Name,
		RecipientID:   recipientID,
		RecipientName: recipient.Name,
		Debit:         debit,
		Credit:        credit,
		CreatedAt:     w.now(),
	}
	w.registry.Put(transfer)

	slog.Info("points: Transfer proposed", "chat_id", chatID, "sender_id", senderID,
		"recipient_id", recipientID, "debit", debit, "credit", credit)
	return transfer, nil
}

// Receipt reports a committed transfer.
type Receipt struct {
	Transfer         PendingTransfer
	SenderBalance    int
	RecipientBalance int
}

// Confirm applies a pending transfer. Only the proposer may confirm;
// expiry is checked lazily here. The entry is taken out of the registry
// up front, which makes resolution exclusive under concurrent taps, and
// put back only when the caller was not the proposer or the store
// failed. Validation runs again against the balances current inside the
// commit transaction, so a proposal that went stale fails with the
// specific violated rule and moves nothing.
func (w *Workflow) Confirm(token string, callerID int64) (Receipt, error) {
	transfer, ok := w.registry.Take(token)
	if !ok {
		return Receipt{}, ErrNotFound
	}

	if w.now().Sub(transfer.CreatedAt) > w.ttl {
		slog.Info("points: Transfer expired", "chat_id", transfer.ChatID, "sender_id", transfer.SenderID)
		return Receipt{}, ErrExpired
	}

	if callerID != transfer.SenderID {
		w.registry.Put(transfer)
		return Receipt{}, ErrNotOwner
	}

	senderNew, recipientNew, err := w.store.TransferBalances(
		transfer.ChatID, transfer.SenderID, transfer.RecipientID,
		transfer.Debit, transfer.Credit,
		func(senderBalance, recipientBalance int) error {
			return w.validateTransfer(transfer.Debit, transfer.Credit, senderBalance, recipientBalance)
		},
	)
	if err != nil {
		if !isTransferRejection(err) {
			w.registry.Put(transfer)
		}
		return Receipt{}, err
	}

	slog.Info("points: Transfer confirmed", "chat_id", transfer.ChatID,
		"sender_id", transfer.SenderID, "recipient_id", transfer.RecipientID,
		"debit", transfer.Debit, "credit", transfer.Credit)

	return Receipt{
		Transfer:         transfer,
		SenderBalance:    senderNew,
		RecipientBalance: recipientNew,
	}, nil
}

// Cancel discards a pending transfer without touching balances. Only
// the proposer may cancel.
func (w *Workflow) Cancel(token string, callerID int64) (PendingTransfer, error) {
	transfer, ok := w.registry.Take(token)
	if !ok {
		return PendingTransfer{}, ErrNotFound
	}
	if callerID != transfer.SenderID {
		w.registry.Put(transfer)
		return PendingTransfer{}, ErrNotOwner
	}

	slog.Info("points: Transfer cancelled", "chat_id", transfer.ChatID, "sender_id", transfer.SenderID)
	return transfer, nil
}

// isTransferRejection distinguishes expected business rejections, which
// spend the token, from infrastructure failures, which keep the
// proposal so the sender can retry once the store is back.
func isTransferRejection(err error) bool {
	var overflow *RecipientOverflowError
	var floor *SenderFloorError
	var funds *InsufficientFundsError
	return errors.As(err, &overflow) || errors.As(err, &floor) ||
		errors.As(err, &funds) || errors.Is(err, storage.ErrAccountNotFound)
}
