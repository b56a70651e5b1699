package points

import (
	"sync"
	"time"
)

// PendingTransfer is a proposed, not-yet-applied transfer held until
// the sender confirms, cancels, or lets it expire. Entries live in
// process memory only: a restart drops them, which is harmless because
// no funds move before confirmation.
type PendingTransfer struct {
	Token         string
	ChatID        int64
	SenderID      int64
	SenderName    string
	RecipientID   int64
	RecipientName string
	Debit         int
	Credit        int
	CreatedAt     time.Time
}

// Registry holds pending transfers keyed by token. It is injectable so
// a multi-instance deployment can swap the in-memory map for a shared
// cache without touching the workflow. Take must be atomic: exactly one
// caller gets the entry, so a token can never resolve twice.
type Registry interface {
	Put(transfer PendingTransfer)
	Take(token string) (PendingTransfer, bool)
}

// MemoryRegistry is the default process-local Registry.
type MemoryRegistry struct {
	mu      sync.Mutex
	pending map[string]PendingTransfer
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{pending: make(map[string]PendingTransfer)}
}

func (r *MemoryRegistry) Put(transfer PendingTransfer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[transfer.Token] = transfer
}

func (r *MemoryRegistry) Take(token string) (PendingTransfer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	transfer, ok := r.pending[token]
	if ok {
		delete(r.pending, token)
	}
	return transfer, ok
}
