/**
 * @description
 * This file defines the `Ledger` interface, the contract for the pending purchase
 * table shared by the purchase-initiation and confirmation-handling paths. By
 * defining an interface, the application logic stays decoupled from the concrete
 * in-memory implementation and is easy to exercise in tests.
 *
 * @dependencies
 * - internal/domain: For the PendingPurchase model.
 */

package store

import (
	"errors"
	"time"

	"github.com/mmkash-web/wifibill/internal/domain"
)

// ErrNotFound is returned by Take when no pending purchase exists for the key.
var ErrNotFound = errors.New("pending purchase not found")

// Ledger holds pending purchases between payment initiation and confirmation.
type Ledger interface {
	// Put registers a pending purchase, replacing any existing entry for the
	// same phone number. A payer has at most one outstanding purchase.
	Put(purchase domain.PendingPurchase)

	// Take atomically retrieves and removes the entry for the given phone
	// number. The removal is what enforces at-most-one provisioning per
	// pending purchase. Returns ErrNotFound if no entry exists.
	Take(phoneNumber string) (domain.PendingPurchase, error)

	// ExpireOlderThan removes entries created more than maxAge ago and
	// returns them so the caller can log what was reclaimed.
	ExpireOlderThan(maxAge time.Duration) []domain.PendingPurchase

	// Len reports the number of outstanding purchases.
	Len() int
}
