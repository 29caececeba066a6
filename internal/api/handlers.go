/**
 * @description
 * This file contains the HTTP handlers for the portal's API endpoints. Handlers
 * parse incoming requests, call the application service, and map the service's
 * failure taxonomy onto HTTP status codes. They act as the bridge between the
 * web layer and the reconciliation logic.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain: Service logic, models, and sentinel errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/mmkash-web/wifibill/internal/app"
	"github.com/mmkash-web/wifibill/internal/domain"
)

// PortalHandlers holds the application service used by the handlers.
type PortalHandlers struct {
	service *app.Service
	catalog *domain.Catalog
}

// NewPortalHandlers creates a new instance of PortalHandlers.
func NewPortalHandlers(service *app.Service, catalog *domain.Catalog) *PortalHandlers {
	return &PortalHandlers{service: service, catalog: catalog}
}

// purchaseRequest is the payload posted by the captive portal page.
type purchaseRequest struct {
	PackageID   string `json:"package_id"`
	PhoneNumber string `json:"phone_number"`
	ClientID    string `json:"client_id"`
}

// gatewayStatus tolerates both string and bare-literal status values; some
// gateway configurations post booleans.
type gatewayStatus string

func (s *gatewayStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = gatewayStatus(str)
		return nil
	}
	*s = gatewayStatus(strings.Trim(string(data), `"`))
	return nil
}

// confirmationRequest mirrors the fields PayHero posts to the callback URL.
type confirmationRequest struct {
	Status      gatewayStatus `json:"status"`
	Amount      json.Number   `json:"amount"`
	PhoneNumber string        `json:"phone_number"`
}

// apiResponse is the uniform response body for both portal endpoints.
type apiResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

// PurchaseHandler handles POST /purchases: it initiates the STK push for the
// selected package and registers the pending purchase.
func (h *PortalHandlers) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=purchases outcome=reject reason=invalid_json err=%v", err)
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid request body."})
		return
	}

	purchase, err := h.service.InitiatePurchase(r.Context(), req.PackageID, req.PhoneNumber, req.ClientID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidRequest), errors.Is(err, app.ErrUnknownPackage):
			h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: err.Error()})
		case errors.Is(err, app.ErrGatewayRejected):
			h.writeJSON(w, http.StatusBadGateway, apiResponse{Success: false, Message: err.Error()})
		default:
			log.Printf("level=error component=api endpoint=purchases outcome=failed err=%v", err)
			h.writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		}
		return
	}

	h.writeJSON(w, http.StatusAccepted, apiResponse{
		Success:   true,
		Message:   "STK push sent successfully.",
		Reference: purchase.Reference,
	})
}

// PaymentConfirmationHandler handles POST /payment-confirmations: the
// asynchronous payment result posted back by the gateway.
func (h *PortalHandlers) PaymentConfirmationHandler(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=payment_confirmations outcome=reject reason=invalid_json err=%v", err)
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid request body."})
		return
	}

	// Amount arrives as a JSON number; a value that is not numeric at all is
	// a malformed callback, same as a missing field.
	var amount float64
	if req.Amount != "" {
		parsed, err := req.Amount.Float64()
		if err != nil {
			log.Printf("level=warn component=api endpoint=payment_confirmations outcome=reject reason=invalid_amount amount=%q", req.Amount)
			h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "Invalid amount."})
			return
		}
		amount = parsed
	}

	event := domain.ConfirmationEvent{
		Status:      string(req.Status),
		Amount:      amount,
		PhoneNumber: req.PhoneNumber,
	}

	access, err := h.service.ReconcileConfirmation(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMalformedCallback), errors.Is(err, app.ErrUnknownAmount):
			h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: err.Error()})
		case errors.Is(err, app.ErrNoPendingPurchase):
			h.writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: err.Error()})
		case errors.Is(err, app.ErrAmountMismatch):
			h.writeJSON(w, http.StatusConflict, apiResponse{Success: false, Message: err.Error()})
		case errors.Is(err, app.ErrPaymentFailed):
			h.writeJSON(w, http.StatusPaymentRequired, apiResponse{Success: false, Message: "Payment verification failed."})
		case errors.Is(err, app.ErrProvisioningFailed):
			h.writeJSON(w, http.StatusBadGateway, apiResponse{Success: false, Message: "Hotspot activation failed."})
		default:
			log.Printf("level=error component=api endpoint=payment_confirmations outcome=failed err=%v", err)
			h.writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
		}
		return
	}

	log.Printf("level=info component=api endpoint=payment_confirmations outcome=provisioned identity=%s profile=%s", access.Identity, access.Profile)
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "User activated successfully."})
}

// ListPackagesHandler handles GET /packages for the portal page.
func (h *PortalHandlers) ListPackagesHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.Packages())
}

func (h *PortalHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}
