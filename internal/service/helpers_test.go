package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/models"
	"github.com/debtrail/debtrail/internal/notify"
	"github.com/debtrail/debtrail/internal/storage"
	"github.com/debtrail/debtrail/internal/storage/sqlite"
)

// testEnv bundles the services under test, all sharing one temp SQLite store.
type testEnv struct {
	store    storage.Store
	debts    *DebtService
	payments *PaymentService
	linking  *LinkingService
	profiles *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "debtrail-service-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	linking := NewLinkingService(store)
	return &testEnv{
		store:    store,
		debts:    NewDebtService(store, linking, notify.Noop{}),
		payments: NewPaymentService(store, notify.Noop{}),
		linking:  linking,
		profiles: NewProfileService(store, linking),
	}
}

// registerIdentity inserts an identity directly through the store.
func (e *testEnv) registerIdentity(t *testing.T, name, email, phoneNumber string) *models.Identity {
	t.Helper()

	identity := &models.Identity{
		ID:          uuid.New().String(),
		Name:        name,
		Email:       email,
		PhoneNumber: phoneNumber,
	}
	kind, err := e.store.InsertIdentity(context.Background(), identity)
	if err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}
	if kind != storage.ConflictNone {
		t.Fatalf("InsertIdentity conflict: %v", kind)
	}
	return identity
}

// createDebt creates a standard 10000 @ 10% debt through the debt service.
func (e *testEnv) createDebt(t *testing.T, lenderID, debtorPhone string) *models.Debt {
	t.Helper()

	debt, err := e.debts.Create(context.Background(), lenderID, CreateDebtInput{
		DebtorPhoneNumber: debtorPhone,
		Principal:         decimal.NewFromInt(10000),
		InterestRate:      10,
		DueDate:           time.Now().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	return debt
}

func mustEqual(t *testing.T, got decimal.Decimal, want int64, what string) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s = %s, want %d", what, got, want)
	}
}
