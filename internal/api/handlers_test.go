package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmkash-web/wifibill/internal/app"
	"github.com/mmkash-web/wifibill/internal/domain"
	"github.com/mmkash-web/wifibill/internal/store"
)

type stubGateway struct {
	err   error
	calls int
}

func (s *stubGateway) SendSTKPush(ctx context.Context, amount int64, phoneNumber, reference string) error {
	s.calls++
	return s.err
}

type stubProvisioner struct {
	err   error
	calls int
}

func (s *stubProvisioner) CreateHotspotCredential(ctx context.Context, identity, secret, profile, comment string) error {
	s.calls++
	return s.err
}

func newTestRouter(t *testing.T, gateway *stubGateway, provisioner *stubProvisioner) (http.Handler, *store.MemoryLedger) {
	t.Helper()
	catalog := domain.DefaultCatalog()
	ledger := store.NewMemoryLedger()
	service := app.NewService(catalog, ledger, gateway, provisioner, app.SecretSourcePhoneLast4)
	return NewRouter(NewPortalHandlers(service, catalog)), ledger
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestPurchaseEndpointAccepts(t *testing.T) {
	gateway := &stubGateway{}
	handler, ledger := newTestRouter(t, gateway, &stubProvisioner{})

	rec := postJSON(t, handler, "/purchases", `{"package_id":"data_1","phone_number":"254700111222","client_id":"AA:BB:CC:DD:EE:FF"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d (%s)", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Reference == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected one push, got %d", gateway.calls)
	}
	if ledger.Len() != 1 {
		t.Fatalf("expected one pending purchase, got %d", ledger.Len())
	}
}

func TestPurchaseEndpointRejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		gatewayErr error
		wantStatus int
	}{
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing fields", body: `{"package_id":"data_1"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown package", body: `{"package_id":"data_99","phone_number":"254700111222","client_id":"AA:BB"}`, wantStatus: http.StatusBadRequest},
		{name: "gateway rejection", body: `{"package_id":"data_1","phone_number":"254700111222","client_id":"AA:BB"}`, gatewayErr: errors.New("declined"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, ledger := newTestRouter(t, &stubGateway{err: tt.gatewayErr}, &stubProvisioner{})

			rec := postJSON(t, handler, "/purchases", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if resp := decodeResponse(t, rec); resp.Success {
				t.Fatal("expected success=false")
			}
			if ledger.Len() != 0 {
				t.Fatalf("rejected purchase must leave no ledger entry, got %d", ledger.Len())
			}
		})
	}
}

func TestConfirmationEndpointProvisions(t *testing.T) {
	provisioner := &stubProvisioner{}
	handler, ledger := newTestRouter(t, &stubGateway{}, provisioner)

	rec := postJSON(t, handler, "/purchases", `{"package_id":"data_1","phone_number":"254700111222","client_id":"AA:BB:CC:DD:EE:FF"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("purchase setup failed: %d", rec.Code)
	}

	rec = postJSON(t, handler, "/payment-confirmations", `{"status":"SUCCESS","amount":5,"phone_number":"254700111222"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if resp := decodeResponse(t, rec); !resp.Success {
		t.Fatalf("expected success=true, got %+v", resp)
	}
	if provisioner.calls != 1 {
		t.Fatalf("expected one provisioning call, got %d", provisioner.calls)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected ledger to be empty, got %d", ledger.Len())
	}
}

func TestConfirmationEndpointFailures(t *testing.T) {
	tests := []struct {
		name           string
		setupPurchase  bool
		body           string
		provisionerErr error
		wantStatus     int
	}{
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing fields", body: `{"status":"SUCCESS"}`, wantStatus: http.StatusBadRequest},
		{name: "non-numeric amount", body: `{"status":"SUCCESS","amount":"lots","phone_number":"254700111222"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown amount", setupPurchase: true, body: `{"status":"SUCCESS","amount":7,"phone_number":"254700111222"}`, wantStatus: http.StatusBadRequest},
		{name: "no pending purchase", body: `{"status":"SUCCESS","amount":5,"phone_number":"254700111222"}`, wantStatus: http.StatusNotFound},
		{name: "amount mismatch", setupPurchase: true, body: `{"status":"SUCCESS","amount":15,"phone_number":"254700111222"}`, wantStatus: http.StatusConflict},
		{name: "payment failed", setupPurchase: true, body: `{"status":"FAILED","amount":5,"phone_number":"254700111222"}`, wantStatus: http.StatusPaymentRequired},
		{name: "payment failed with boolean status", setupPurchase: true, body: `{"status":false,"amount":5,"phone_number":"254700111222"}`, wantStatus: http.StatusPaymentRequired},
		{name: "provisioning failed", setupPurchase: true, body: `{"status":"SUCCESS","amount":5,"phone_number":"254700111222"}`, provisionerErr: errors.New("router unreachable"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestRouter(t, &stubGateway{}, &stubProvisioner{err: tt.provisionerErr})

			if tt.setupPurchase {
				rec := postJSON(t, handler, "/purchases", `{"package_id":"data_1","phone_number":"254700111222","client_id":"AA:BB:CC:DD:EE:FF"}`)
				if rec.Code != http.StatusAccepted {
					t.Fatalf("purchase setup failed: %d", rec.Code)
				}
			}

			rec := postJSON(t, handler, "/payment-confirmations", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if resp := decodeResponse(t, rec); resp.Success {
				t.Fatal("expected success=false")
			}
		})
	}
}

func TestListPackagesEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t, &stubGateway{}, &stubProvisioner{})

	req := httptest.NewRequest(http.MethodGet, "/packages", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var packages []domain.Package
	if err := json.Unmarshal(rec.Body.Bytes(), &packages); err != nil {
		t.Fatalf("failed to decode packages: %v", err)
	}
	if len(packages) != 6 {
		t.Fatalf("expected 6 packages, got %d", len(packages))
	}
	if packages[0].ID != "data_1" || packages[0].Price != 5 {
		t.Fatalf("unexpected first package %+v", packages[0])
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t, &stubGateway{}, &stubProvisioner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
