/**
 * @description
 * This file contains the core business logic for the billing service: initiating
 * a mobile-money STK push for a selected package and reconciling the asynchronous
 * payment confirmation back to its pending purchase, provisioning hotspot access
 * on success.
 *
 * Key features:
 * - Payment initiation registers a pending purchase only after the gateway
 *   accepts the push; rejections leave no state behind.
 * - Reconciliation resolves the package from the confirmed amount, consumes the
 *   pending purchase with a single atomic take (at most one provisioning per
 *   purchase), and fails closed when the amount resolves to a different package
 *   than the one that was bought.
 * - Nothing is retried: every failure ends that purchase's lifecycle and the
 *   user must start over from the portal.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For per-purchase external references.
 * - internal/domain, internal/store: Domain models and the pending purchase ledger.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmkash-web/wifibill/internal/domain"
	"github.com/mmkash-web/wifibill/internal/store"
)

// Sentinel errors for the per-request failure taxonomy. None of these are
// process-fatal; handlers map them to HTTP status codes.
var (
	ErrInvalidRequest     = errors.New("invalid purchase request")
	ErrUnknownPackage     = errors.New("unknown package")
	ErrGatewayRejected    = errors.New("payment gateway rejected the push")
	ErrMalformedCallback  = errors.New("confirmation payload is missing required fields")
	ErrUnknownAmount      = errors.New("no package matches the confirmed amount")
	ErrNoPendingPurchase  = errors.New("no pending purchase for payer")
	ErrAmountMismatch     = errors.New("confirmed amount does not match the pending package")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrProvisioningFailed = errors.New("provisioning failed")
)

// Credential secret derivation policies. The derived secret is deliberately
// low-entropy and tied to the device or phone identity; it is not a security
// boundary.
const (
	SecretSourcePhoneLast4 = "phone_last4"
	SecretSourceClientID   = "client_id"
)

// PaymentGateway is the outbound capability that pushes a payment request to
// the payer's phone. The synchronous return only signals acceptance of the
// push; the final payment result arrives later through the confirmation
// endpoint.
type PaymentGateway interface {
	SendSTKPush(ctx context.Context, amount int64, phoneNumber, reference string) error
}

// Provisioner is the outbound capability that grants network access by
// creating a hotspot credential on the access-control device.
type Provisioner interface {
	CreateHotspotCredential(ctx context.Context, identity, secret, profile, comment string) error
}

// Service orchestrates the payment-to-provisioning workflow.
type Service struct {
	catalog      *domain.Catalog
	ledger       store.Ledger
	gateway      PaymentGateway
	provisioner  Provisioner
	secretSource string
}

// NewService creates the billing service. secretSource selects the credential
// derivation policy; unknown values fall back to SecretSourcePhoneLast4.
func NewService(catalog *domain.Catalog, ledger store.Ledger, gateway PaymentGateway, provisioner Provisioner, secretSource string) *Service {
	if secretSource != SecretSourceClientID {
		secretSource = SecretSourcePhoneLast4
	}
	return &Service{
		catalog:      catalog,
		ledger:       ledger,
		gateway:      gateway,
		provisioner:  provisioner,
		secretSource: secretSource,
	}
}

// InitiatePurchase validates the purchase request, sends the STK push and, on
// gateway acceptance, registers the pending purchase keyed by the payer's
// phone number. A gateway rejection or transport failure is surfaced to the
// caller and leaves no ledger entry; it is not retried.
func (s *Service) InitiatePurchase(ctx context.Context, packageID, phoneNumber, clientID string) (*domain.PendingPurchase, error) {
	packageID = strings.TrimSpace(packageID)
	phoneNumber = strings.TrimSpace(phoneNumber)
	clientID = strings.TrimSpace(clientID)

	if packageID == "" || phoneNumber == "" || clientID == "" {
		return nil, fmt.Errorf("%w: package_id, phone_number and client_id are required", ErrInvalidRequest)
	}

	pkg, ok := s.catalog.ByID(packageID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPackage, packageID)
	}

	// The reference carries the package identity end-to-end so operators can
	// correlate gateway records with a purchase even though the confirmation
	// payload itself only carries an amount.
	reference := fmt.Sprintf("WIFI-%s-%s", pkg.ID, uuid.NewString())

	log.Printf("level=info component=app op=initiate_purchase phone=%s package=%s amount=%d reference=%s", phoneNumber, pkg.ID, pkg.Price, reference)

	if err := s.gateway.SendSTKPush(ctx, pkg.Price, phoneNumber, reference); err != nil {
		log.Printf("level=warn component=app op=initiate_purchase outcome=rejected phone=%s package=%s err=%v", phoneNumber, pkg.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayRejected, err)
	}

	purchase := domain.PendingPurchase{
		PhoneNumber: phoneNumber,
		ClientID:    clientID,
		Package:     pkg,
		Reference:   reference,
		CreatedAt:   time.Now(),
	}
	s.ledger.Put(purchase)

	log.Printf("level=info component=app op=initiate_purchase outcome=accepted phone=%s package=%s reference=%s", phoneNumber, pkg.ID, reference)
	return &purchase, nil
}

// ReconcileConfirmation matches an asynchronous payment confirmation to its
// pending purchase and provisions hotspot access when the payment succeeded.
//
// The pending purchase is consumed by the take regardless of the payment
// outcome: a failed payment ends that purchase and the user must re-initiate.
func (s *Service) ReconcileConfirmation(ctx context.Context, event domain.ConfirmationEvent) (*domain.ProvisionedAccess, error) {
	if strings.TrimSpace(event.Status) == "" || strings.TrimSpace(event.PhoneNumber) == "" || event.Amount <= 0 {
		return nil, fmt.Errorf("%w: status, amount and phone_number are required", ErrMalformedCallback)
	}
	phoneNumber := strings.TrimSpace(event.PhoneNumber)

	pkg, ok := s.catalog.ByPrice(event.Amount)
	if !ok {
		log.Printf("level=warn component=app op=reconcile outcome=rejected reason=unknown_amount phone=%s amount=%v", phoneNumber, event.Amount)
		return nil, fmt.Errorf("%w: %v", ErrUnknownAmount, event.Amount)
	}

	purchase, err := s.ledger.Take(phoneNumber)
	if err != nil {
		// Either a duplicate confirmation (already reconciled), an expired
		// purchase, or a purchase this process never saw.
		log.Printf("level=warn component=app op=reconcile outcome=rejected reason=no_pending_purchase phone=%s amount=%v", phoneNumber, event.Amount)
		return nil, fmt.Errorf("%w: %s", ErrNoPendingPurchase, phoneNumber)
	}

	if purchase.Package.ID != pkg.ID {
		// Consistency conflict between the paid amount and what was bought.
		// Fail closed rather than provision the wrong package.
		log.Printf("level=error component=app op=reconcile outcome=conflict reason=amount_mismatch phone=%s pending_package=%s amount_package=%s reference=%s", phoneNumber, purchase.Package.ID, pkg.ID, purchase.Reference)
		return nil, fmt.Errorf("%w: paid for %q, pending purchase is %q", ErrAmountMismatch, pkg.ID, purchase.Package.ID)
	}

	if !event.Succeeded() {
		log.Printf("level=warn component=app op=reconcile outcome=rejected reason=payment_failed phone=%s status=%s reference=%s", phoneNumber, event.Status, purchase.Reference)
		return nil, fmt.Errorf("%w: gateway status %q", ErrPaymentFailed, event.Status)
	}

	secret := s.deriveSecret(purchase)
	profile := pkg.ProfileName()
	comment := "Auto-added " + pkg.Label

	if err := s.provisioner.CreateHotspotCredential(ctx, purchase.ClientID, secret, profile, comment); err != nil {
		// Fire-and-forget: the purchase stays consumed and is not re-queued.
		log.Printf("level=error component=app op=reconcile outcome=failed reason=provisioning phone=%s client=%s profile=%s err=%v", phoneNumber, purchase.ClientID, profile, err)
		return nil, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	log.Printf("level=info component=app op=reconcile outcome=provisioned phone=%s client=%s profile=%s reference=%s", phoneNumber, purchase.ClientID, profile, purchase.Reference)
	return &domain.ProvisionedAccess{
		Identity: purchase.ClientID,
		Profile:  profile,
		Package:  pkg,
	}, nil
}

// deriveSecret applies the configured credential policy to a purchase.
func (s *Service) deriveSecret(purchase domain.PendingPurchase) string {
	if s.secretSource == SecretSourceClientID {
		return purchase.ClientID
	}
	phone := purchase.PhoneNumber
	if len(phone) <= 4 {
		return phone
	}
	return phone[len(phone)-4:]
}
