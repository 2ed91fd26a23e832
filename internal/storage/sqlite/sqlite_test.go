package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/models"
	"github.com/debtrail/debtrail/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "debtrail-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func insertIdentity(t *testing.T, store *SQLiteStore, name, email, phone string) *models.Identity {
	t.Helper()

	identity := &models.Identity{
		ID:          uuid.New().String(),
		Name:        name,
		Email:       email,
		PhoneNumber: phone,
	}
	kind, err := store.InsertIdentity(context.Background(), identity)
	if err != nil {
		t.Fatalf("InsertIdentity failed: %v", err)
	}
	if kind != storage.ConflictNone {
		t.Fatalf("InsertIdentity conflict: %v", kind)
	}
	return identity
}

func newTestDebt(lenderID, phone string) *models.Debt {
	return &models.Debt{
		LenderID:           lenderID,
		DebtorPhoneNumber:  phone,
		PrincipalAmount:    decimal.NewFromInt(10000),
		InterestRate:       10,
		CalculatedInterest: decimal.NewFromInt(1000),
		TotalAmount:        decimal.NewFromInt(11000),
		OutstandingBalance: decimal.NewFromInt(11000),
		DueDate:            time.Now().Add(30 * 24 * time.Hour).Unix(),
		Status:             models.DebtPending,
	}
}

func TestIdentityStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("insert and find by id, email, phone", func(t *testing.T) {
		identity := insertIdentity(t, store, "Ada", "ada@example.com", "+2348011111111")

		byID, err := store.FindIdentityByID(ctx, identity.ID)
		if err != nil {
			t.Fatalf("FindIdentityByID failed: %v", err)
		}
		if byID == nil || byID.Name != "Ada" {
			t.Fatalf("FindIdentityByID = %+v, want Ada", byID)
		}

		byEmail, err := store.FindIdentityByEmail(ctx, "ada@example.com")
		if err != nil {
			t.Fatalf("FindIdentityByEmail failed: %v", err)
		}
		if byEmail == nil || byEmail.ID != identity.ID {
			t.Fatalf("FindIdentityByEmail returned wrong identity: %+v", byEmail)
		}

		byPhone, err := store.FindIdentityByPhone(ctx, "+2348011111111")
		if err != nil {
			t.Fatalf("FindIdentityByPhone failed: %v", err)
		}
		if byPhone == nil || byPhone.ID != identity.ID {
			t.Fatalf("FindIdentityByPhone returned wrong identity: %+v", byPhone)
		}
	})

	t.Run("missing identity returns nil, nil", func(t *testing.T) {
		identity, err := store.FindIdentityByID(ctx, "no-such-id")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if identity != nil {
			t.Fatalf("expected nil identity, got %+v", identity)
		}
	})

	t.Run("duplicate id reports ConflictID", func(t *testing.T) {
		identity := insertIdentity(t, store, "Bisi", "bisi@example.com", "")

		kind, err := store.InsertIdentity(ctx, &models.Identity{ID: identity.ID, Name: "Copy"})
		if err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}
		if kind != storage.ConflictID {
			t.Errorf("conflict kind = %v, want ConflictID", kind)
		}
	})

	t.Run("duplicate email reports ConflictEmail", func(t *testing.T) {
		insertIdentity(t, store, "Chidi", "chidi@example.com", "")

		kind, err := store.InsertIdentity(ctx, &models.Identity{
			ID:    uuid.New().String(),
			Name:  "Other",
			Email: "chidi@example.com",
		})
		if err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}
		if kind != storage.ConflictEmail {
			t.Errorf("conflict kind = %v, want ConflictEmail", kind)
		}
	})

	t.Run("duplicate phone reports ConflictPhone", func(t *testing.T) {
		insertIdentity(t, store, "Dayo", "", "+2348022222222")

		kind, err := store.InsertIdentity(ctx, &models.Identity{
			ID:          uuid.New().String(),
			Name:        "Other",
			PhoneNumber: "+2348022222222",
		})
		if err != nil {
			t.Fatalf("InsertIdentity failed: %v", err)
		}
		if kind != storage.ConflictPhone {
			t.Errorf("conflict kind = %v, want ConflictPhone", kind)
		}
	})

	t.Run("two identities without email or phone do not collide", func(t *testing.T) {
		insertIdentity(t, store, "Efe", "", "")
		insertIdentity(t, store, "Funke", "", "")
	})

	t.Run("update moves phone and reports conflicts", func(t *testing.T) {
		identity := insertIdentity(t, store, "Gozie", "gozie@example.com", "")
		taken := insertIdentity(t, store, "Hauwa", "", "+2348033333333")

		identity.PhoneNumber = taken.PhoneNumber
		kind, err := store.UpdateIdentity(ctx, identity)
		if err != nil {
			t.Fatalf("UpdateIdentity failed: %v", err)
		}
		if kind != storage.ConflictPhone {
			t.Errorf("conflict kind = %v, want ConflictPhone", kind)
		}

		identity.PhoneNumber = "+2348044444444"
		kind, err = store.UpdateIdentity(ctx, identity)
		if err != nil {
			t.Fatalf("UpdateIdentity failed: %v", err)
		}
		if kind != storage.ConflictNone {
			t.Errorf("conflict kind = %v, want ConflictNone", kind)
		}

		got, err := store.FindIdentityByPhone(ctx, "+2348044444444")
		if err != nil {
			t.Fatalf("FindIdentityByPhone failed: %v", err)
		}
		if got == nil || got.ID != identity.ID {
			t.Fatalf("expected updated phone to resolve to %s, got %+v", identity.ID, got)
		}
	})
}

func TestDebtStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lender := insertIdentity(t, store, "Lender", "lender@example.com", "+2348055555555")

	t.Run("create generates ID and round-trips decimals", func(t *testing.T) {
		debt := newTestDebt(lender.ID, "+2348012345678")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}
		if debt.ID == "" {
			t.Error("Expected debt ID to be generated")
		}
		if debt.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetDebt(ctx, debt.ID)
		if err != nil {
			t.Fatalf("GetDebt failed: %v", err)
		}
		if got == nil {
			t.Fatal("GetDebt returned nil")
		}
		if !got.TotalAmount.Equal(decimal.NewFromInt(11000)) {
			t.Errorf("TotalAmount = %s, want 11000", got.TotalAmount)
		}
		if !got.OutstandingBalance.Equal(decimal.NewFromInt(11000)) {
			t.Errorf("OutstandingBalance = %s, want 11000", got.OutstandingBalance)
		}
		if got.Status != models.DebtPending {
			t.Errorf("Status = %s, want PENDING", got.Status)
		}
		if got.DebtorID != "" {
			t.Errorf("DebtorID = %q, want empty", got.DebtorID)
		}
	})

	t.Run("batch link only touches unlinked debts", func(t *testing.T) {
		phone := "+2348066666666"
		debtor := insertIdentity(t, store, "Debtor", "", phone)

		first := newTestDebt(lender.ID, phone)
		second := newTestDebt(lender.ID, phone)
		other := newTestDebt(lender.ID, "+2348077777777")
		for _, d := range []*models.Debt{first, second, other} {
			if err := store.CreateDebt(ctx, d); err != nil {
				t.Fatalf("CreateDebt failed: %v", err)
			}
		}

		linked, err := store.BatchLinkDebts(ctx, debtor.ID, phone)
		if err != nil {
			t.Fatalf("BatchLinkDebts failed: %v", err)
		}
		if linked != 2 {
			t.Errorf("linked = %d, want 2", linked)
		}

		// Second run must be a no-op: debtor_id IS NULL guard.
		linked, err = store.BatchLinkDebts(ctx, debtor.ID, phone)
		if err != nil {
			t.Fatalf("BatchLinkDebts rerun failed: %v", err)
		}
		if linked != 0 {
			t.Errorf("rerun linked = %d, want 0", linked)
		}

		unlinked, err := store.FindDebtsByPhoneUnlinked(ctx, phone)
		if err != nil {
			t.Fatalf("FindDebtsByPhoneUnlinked failed: %v", err)
		}
		if len(unlinked) != 0 {
			t.Errorf("unlinked debts = %d, want 0", len(unlinked))
		}

		byDebtor, err := store.ListDebtsByDebtor(ctx, debtor.ID)
		if err != nil {
			t.Fatalf("ListDebtsByDebtor failed: %v", err)
		}
		if len(byDebtor) != 2 {
			t.Errorf("debts by debtor = %d, want 2", len(byDebtor))
		}
	})

	t.Run("update balance and status together", func(t *testing.T) {
		debt := newTestDebt(lender.ID, "+2348088888888")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}

		paidAt := time.Now().Unix()
		if err := store.UpdateDebtBalance(ctx, debt.ID, decimal.Zero, models.DebtPaid, paidAt); err != nil {
			t.Fatalf("UpdateDebtBalance failed: %v", err)
		}

		got, err := store.GetDebt(ctx, debt.ID)
		if err != nil {
			t.Fatalf("GetDebt failed: %v", err)
		}
		if !got.OutstandingBalance.IsZero() {
			t.Errorf("OutstandingBalance = %s, want 0", got.OutstandingBalance)
		}
		if got.Status != models.DebtPaid {
			t.Errorf("Status = %s, want PAID", got.Status)
		}
		if got.PaidAt != paidAt {
			t.Errorf("PaidAt = %d, want %d", got.PaidAt, paidAt)
		}
	})

	t.Run("overdue listing skips paid and future debts", func(t *testing.T) {
		overdue := newTestDebt(lender.ID, "+2348010101010")
		overdue.DueDate = time.Now().Add(-24 * time.Hour).Unix()

		paid := newTestDebt(lender.ID, "+2348020202020")
		paid.DueDate = overdue.DueDate
		paid.Status = models.DebtPaid

		future := newTestDebt(lender.ID, "+2348030303030")

		for _, d := range []*models.Debt{overdue, paid, future} {
			if err := store.CreateDebt(ctx, d); err != nil {
				t.Fatalf("CreateDebt failed: %v", err)
			}
		}

		got, err := store.ListOverdueDebts(ctx, time.Now().Unix())
		if err != nil {
			t.Fatalf("ListOverdueDebts failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != overdue.ID {
			t.Errorf("overdue debts = %v, want exactly the past-due pending one", got)
		}
	})

	t.Run("delete cascades payments", func(t *testing.T) {
		debt := newTestDebt(lender.ID, "+2348099999999")
		if err := store.CreateDebt(ctx, debt); err != nil {
			t.Fatalf("CreateDebt failed: %v", err)
		}

		payment := &models.Payment{
			DebtID:    debt.ID,
			Amount:    decimal.NewFromInt(500),
			Status:    models.PaymentSuccessful,
			Reference: uuid.New().String(),
			Gateway:   models.GatewayManual,
			PaidAt:    time.Now().Unix(),
		}
		if err := store.InsertPayment(ctx, payment); err != nil {
			t.Fatalf("InsertPayment failed: %v", err)
		}

		if err := store.DeleteDebt(ctx, debt.ID); err != nil {
			t.Fatalf("DeleteDebt failed: %v", err)
		}

		gone, err := store.FindPaymentByReference(ctx, payment.Reference)
		if err != nil {
			t.Fatalf("FindPaymentByReference failed: %v", err)
		}
		if gone != nil {
			t.Errorf("expected payment to cascade away, got %+v", gone)
		}
	})
}

func TestPaymentStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lender := insertIdentity(t, store, "Lender", "", "+2347011111111")
	debt := newTestDebt(lender.ID, "+2347022222222")
	if err := store.CreateDebt(ctx, debt); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}

	t.Run("insert and find by reference", func(t *testing.T) {
		payment := &models.Payment{
			DebtID:    debt.ID,
			Amount:    decimal.NewFromInt(2500),
			Status:    models.PaymentSuccessful,
			Reference: "ref-001",
			Gateway:   "paystack",
			PaidAt:    time.Now().Unix(),
		}
		if err := store.InsertPayment(ctx, payment); err != nil {
			t.Fatalf("InsertPayment failed: %v", err)
		}
		if payment.ID == "" {
			t.Error("Expected payment ID to be generated")
		}

		got, err := store.FindPaymentByReference(ctx, "ref-001")
		if err != nil {
			t.Fatalf("FindPaymentByReference failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected payment, got nil")
		}
		if !got.Amount.Equal(decimal.NewFromInt(2500)) {
			t.Errorf("Amount = %s, want 2500", got.Amount)
		}
		if got.Status != models.PaymentSuccessful {
			t.Errorf("Status = %s, want SUCCESSFUL", got.Status)
		}
	})

	t.Run("duplicate reference is rejected by the store", func(t *testing.T) {
		dup := &models.Payment{
			DebtID:    debt.ID,
			Amount:    decimal.NewFromInt(100),
			Status:    models.PaymentSuccessful,
			Reference: "ref-001",
			Gateway:   "paystack",
		}
		if err := store.InsertPayment(ctx, dup); err == nil {
			t.Error("expected unique constraint error for duplicate reference")
		}
	})

	t.Run("update status settles a pending payment", func(t *testing.T) {
		payment := &models.Payment{
			DebtID:    debt.ID,
			Amount:    decimal.NewFromInt(700),
			Status:    models.PaymentPending,
			Reference: "ref-002",
			Gateway:   "paystack",
		}
		if err := store.InsertPayment(ctx, payment); err != nil {
			t.Fatalf("InsertPayment failed: %v", err)
		}

		paidAt := time.Now().Unix()
		if err := store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentSuccessful, paidAt); err != nil {
			t.Fatalf("UpdatePaymentStatus failed: %v", err)
		}

		got, err := store.FindPaymentByReference(ctx, "ref-002")
		if err != nil {
			t.Fatalf("FindPaymentByReference failed: %v", err)
		}
		if got.Status != models.PaymentSuccessful {
			t.Errorf("Status = %s, want SUCCESSFUL", got.Status)
		}
		if got.PaidAt != paidAt {
			t.Errorf("PaidAt = %d, want %d", got.PaidAt, paidAt)
		}

		if err := store.UpdatePaymentStatus(ctx, "no-such-payment", models.PaymentFailed, 0); err == nil {
			t.Error("expected error updating a missing payment")
		}
	})

	t.Run("list payments by debt", func(t *testing.T) {
		payments, err := store.ListPaymentsByDebt(ctx, debt.ID)
		if err != nil {
			t.Fatalf("ListPaymentsByDebt failed: %v", err)
		}
		if len(payments) != 2 {
			t.Errorf("payments = %d, want 2", len(payments))
		}
	})
}
