/**
 * @description
 * In-memory implementation of the pending purchase ledger. State is deliberately
 * volatile: a process restart loses all pending purchases, which is an accepted
 * operational tradeoff for this service. The mutex is held only around map
 * mutations, never across external calls.
 */

package store

import (
	"sync"
	"time"

	"github.com/mmkash-web/wifibill/internal/domain"
)

// MemoryLedger is a mutex-guarded pending purchase table.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]domain.PendingPurchase
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]domain.PendingPurchase)}
}

// Put registers a pending purchase. Last purchase wins for the same phone number.
func (l *MemoryLedger) Put(purchase domain.PendingPurchase) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[purchase.PhoneNumber] = purchase
}

// Take atomically retrieves and removes the entry for the given phone number.
func (l *MemoryLedger) Take(phoneNumber string) (domain.PendingPurchase, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	purchase, ok := l.entries[phoneNumber]
	if !ok {
		return domain.PendingPurchase{}, ErrNotFound
	}
	delete(l.entries, phoneNumber)
	return purchase, nil
}

// ExpireOlderThan removes and returns entries older than maxAge.
func (l *MemoryLedger) ExpireOlderThan(maxAge time.Duration) []domain.PendingPurchase {
	cutoff := time.Now().Add(-maxAge)

	l.mu.Lock()
	defer l.mu.Unlock()

	var expired []domain.PendingPurchase
	for key, purchase := range l.entries {
		if purchase.CreatedAt.Before(cutoff) {
			expired = append(expired, purchase)
			delete(l.entries, key)
		}
	}
	return expired
}

// Len reports the number of outstanding purchases.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
