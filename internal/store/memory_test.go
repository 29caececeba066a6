package store

import (
	"sync"
	"testing"
	"time"

	"github.com/mmkash-web/wifibill/internal/domain"
)

func pendingPurchase(phone, clientID, packageID string) domain.PendingPurchase {
	return domain.PendingPurchase{
		PhoneNumber: phone,
		ClientID:    clientID,
		Package:     domain.Package{ID: packageID, Label: "TEST PACKAGE", Price: 5},
		CreatedAt:   time.Now(),
	}
}

func TestPutAndTake(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Put(pendingPurchase("254700111222", "AA:BB:CC:DD:EE:FF", "data_1"))

	got, err := ledger.Take("254700111222")
	if err != nil {
		t.Fatalf("Take returned error: %v", err)
	}
	if got.ClientID != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("unexpected client id %q", got.ClientID)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected empty ledger after take, got %d entries", ledger.Len())
	}
}

func TestTakeMissingKey(t *testing.T) {
	ledger := NewMemoryLedger()
	if _, err := ledger.Take("254700111222"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTakeConsumesEntry(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Put(pendingPurchase("254700111222", "AA:BB:CC:DD:EE:FF", "data_1"))

	if _, err := ledger.Take("254700111222"); err != nil {
		t.Fatalf("first Take returned error: %v", err)
	}
	if _, err := ledger.Take("254700111222"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second take, got %v", err)
	}
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Put(pendingPurchase("254700111222", "AA:BB:CC:DD:EE:FF", "data_1"))
	ledger.Put(pendingPurchase("254700111222", "AA:BB:CC:DD:EE:FF", "data_2"))

	got, err := ledger.Take("254700111222")
	if err != nil {
		t.Fatalf("Take returned error: %v", err)
	}
	if got.Package.ID != "data_2" {
		t.Fatalf("expected last purchase to win, got package %q", got.Package.ID)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected single entry per key, ledger still has %d", ledger.Len())
	}
}

func TestExpireOlderThan(t *testing.T) {
	ledger := NewMemoryLedger()

	old := pendingPurchase("254700111222", "AA:BB:CC:DD:EE:FF", "data_1")
	old.CreatedAt = time.Now().Add(-time.Hour)
	ledger.Put(old)
	ledger.Put(pendingPurchase("254700333444", "11:22:33:44:55:66", "data_2"))

	expired := ledger.ExpireOlderThan(30 * time.Minute)
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired entry, got %d", len(expired))
	}
	if expired[0].PhoneNumber != "254700111222" {
		t.Fatalf("expired the wrong entry: %q", expired[0].PhoneNumber)
	}

	if _, err := ledger.Take("254700111222"); err != ErrNotFound {
		t.Fatalf("expected expired entry to be gone, got %v", err)
	}
	if _, err := ledger.Take("254700333444"); err != nil {
		t.Fatalf("fresh entry should survive the sweep: %v", err)
	}
}

func TestConcurrentTakeYieldsSingleWinner(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Put(pendingPurchase("254700111222", "AA:BB:CC:DD:EE:FF", "data_1"))

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Take("254700111222"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one successful take, got %d", count)
	}
}
