/**
 * @description
 * This file defines the domain models for the payment-to-provisioning workflow:
 * the pending purchase held between "payment initiated" and "payment confirmed",
 * the confirmation event delivered by the payment gateway, and the provisioned
 * access record returned once a hotspot credential has been created.
 */

package domain

import (
	"strings"
	"time"
)

// PendingPurchase is the state registered when an STK push has been accepted by
// the payment gateway. It is keyed by the payer's phone number and consumed
// exactly once during reconciliation.
type PendingPurchase struct {
	PhoneNumber string    `json:"phone_number"` // correlation key
	ClientID    string    `json:"client_id"`    // device MAC or equivalent
	Package     Package   `json:"package"`
	Reference   string    `json:"reference"` // external reference sent with the push
	CreatedAt   time.Time `json:"created_at"`
}

// ConfirmationEvent is the asynchronous payment result posted back by the
// gateway. It is transient and never persisted.
type ConfirmationEvent struct {
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	PhoneNumber string  `json:"phone_number"`
}

// Succeeded reports whether the gateway confirmed the payment. Anything other
// than a case-insensitive "success" counts as a failed payment.
func (e ConfirmationEvent) Succeeded() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "success")
}

// ProvisionedAccess describes the hotspot credential created for a confirmed
// purchase.
type ProvisionedAccess struct {
	Identity string  `json:"identity"`
	Profile  string  `json:"profile"`
	Package  Package `json:"package"`
}
