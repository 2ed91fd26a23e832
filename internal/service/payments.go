package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/apperrors"
	"github.com/debtrail/debtrail/internal/ledger"
	"github.com/debtrail/debtrail/internal/metrics"
	"github.com/debtrail/debtrail/internal/models"
	"github.com/debtrail/debtrail/internal/notify"
	"github.com/debtrail/debtrail/internal/storage"
)

// PaymentService records payments against debts and applies them to the
// outstanding balance.
type PaymentService struct {
	store    storage.Store
	notifier notify.Notifier
}

// NewPaymentService creates a new PaymentService with the given collaborators.
func NewPaymentService(store storage.Store, notifier notify.Notifier) *PaymentService {
	return &PaymentService{store: store, notifier: notifier}
}

// Record creates a lender-entered payment (cash, bank transfer) against a
// debt. Manual payments are SUCCESSFUL immediately and applied to the
// balance in the same call.
func (s *PaymentService) Record(ctx context.Context, callerID, debtID string, amount decimal.Decimal, notes string) (*models.Payment, error) {
	debt, err := s.store.GetDebt(ctx, debtID)
	if err != nil {
		slog.Error("RecordPayment: debt lookup failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to get debt", err)
	}
	if debt == nil {
		return nil, apperrors.NotFoundf("debt not found: %s", debtID)
	}
	if debt.LenderID != callerID {
		return nil, apperrors.Forbiddenf("only the lender can record payments on this debt")
	}

	if err := ledger.ValidatePaymentAmount(amount, debt.OutstandingBalance); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		DebtID:    debtID,
		Amount:    amount,
		Status:    models.PaymentSuccessful,
		Reference: "manual-" + uuid.New().String(),
		Gateway:   models.GatewayManual,
		Notes:     notes,
		PaidAt:    time.Now().Unix(),
	}
	if err := s.store.InsertPayment(ctx, payment); err != nil {
		slog.Error("RecordPayment: insert failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to insert payment", err)
	}

	if err := s.applySuccessful(ctx, debt, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// ApplyGateway applies a payment reported by the gateway callback. It is
// invoked by the trusted webhook handler, never by either party directly.
//
// The reference is the idempotency key: if a payment with this reference
// already exists, a repeat of the same report is a no-op success returning
// the existing payment, and the balance is not decremented again. The one
// state a later report may move is PENDING: a payment is immutable once
// SUCCESSFUL or FAILED, so when the stored payment is still PENDING and the
// gateway now reports a terminal status, the payment is settled in place. A
// FAILED gateway payment is recorded but does not affect the debt.
func (s *PaymentService) ApplyGateway(ctx context.Context, reference, debtID string, amount decimal.Decimal, gateway string, gatewayStatus models.PaymentStatus) (*models.Payment, error) {
	existing, err := s.store.FindPaymentByReference(ctx, reference)
	if err != nil {
		slog.Error("ApplyGateway: reference lookup failed", "reference", reference, "error", err)
		return nil, apperrors.External("failed to look up payment reference", err)
	}
	if existing != nil {
		if existing.Status == models.PaymentPending && gatewayStatus != models.PaymentPending {
			return s.settlePending(ctx, existing, gatewayStatus)
		}
		metrics.DuplicatePayments.Inc()
		slog.Info("ApplyGateway: duplicate reference, skipping", "reference", reference, "payment_id", existing.ID)
		return existing, nil
	}

	debt, err := s.store.GetDebt(ctx, debtID)
	if err != nil {
		slog.Error("ApplyGateway: debt lookup failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to get debt", err)
	}
	if debt == nil {
		return nil, apperrors.NotFoundf("debt not found: %s", debtID)
	}

	payment := &models.Payment{
		DebtID:    debtID,
		Amount:    amount,
		Status:    gatewayStatus,
		Reference: reference,
		Gateway:   gateway,
	}

	if gatewayStatus != models.PaymentSuccessful {
		if err := s.store.InsertPayment(ctx, payment); err != nil {
			slog.Error("ApplyGateway: insert failed", "reference", reference, "error", err)
			return nil, apperrors.External("failed to insert payment", err)
		}
		slog.Info("Gateway payment recorded without effect", "reference", reference, "status", gatewayStatus)
		return payment, nil
	}

	if err := ledger.ValidatePaymentAmount(amount, debt.OutstandingBalance); err != nil {
		return nil, err
	}

	payment.PaidAt = time.Now().Unix()
	if err := s.store.InsertPayment(ctx, payment); err != nil {
		slog.Error("ApplyGateway: insert failed", "reference", reference, "error", err)
		return nil, apperrors.External("failed to insert payment", err)
	}

	if err := s.applySuccessful(ctx, debt, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// settlePending moves a PENDING gateway payment to the terminal status the
// gateway now reports. The amount applied is the one recorded with the
// payment; the reference identifies the transaction.
func (s *PaymentService) settlePending(ctx context.Context, payment *models.Payment, status models.PaymentStatus) (*models.Payment, error) {
	if status == models.PaymentFailed {
		if err := s.store.UpdatePaymentStatus(ctx, payment.ID, status, 0); err != nil {
			slog.Error("ApplyGateway: payment update failed", "payment_id", payment.ID, "error", err)
			return nil, apperrors.External("failed to update payment", err)
		}
		payment.Status = status
		slog.Info("Pending gateway payment failed", "reference", payment.Reference, "payment_id", payment.ID)
		return payment, nil
	}

	debt, err := s.store.GetDebt(ctx, payment.DebtID)
	if err != nil {
		slog.Error("ApplyGateway: debt lookup failed", "debt_id", payment.DebtID, "error", err)
		return nil, apperrors.External("failed to get debt", err)
	}
	if debt == nil {
		return nil, apperrors.NotFoundf("debt not found: %s", payment.DebtID)
	}

	if err := ledger.ValidatePaymentAmount(payment.Amount, debt.OutstandingBalance); err != nil {
		return nil, err
	}

	paidAt := time.Now().Unix()
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentSuccessful, paidAt); err != nil {
		slog.Error("ApplyGateway: payment update failed", "payment_id", payment.ID, "error", err)
		return nil, apperrors.External("failed to update payment", err)
	}
	payment.Status = models.PaymentSuccessful
	payment.PaidAt = paidAt

	if err := s.applySuccessful(ctx, debt, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// List returns all payments against a debt, visible to either party.
func (s *PaymentService) List(ctx context.Context, callerID, debtID string) ([]*models.Payment, error) {
	debt, err := s.store.GetDebt(ctx, debtID)
	if err != nil {
		slog.Error("ListPayments: debt lookup failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to get debt", err)
	}
	if debt == nil {
		return nil, apperrors.NotFoundf("debt not found: %s", debtID)
	}
	if callerID != debt.LenderID && callerID != debt.DebtorID {
		return nil, apperrors.Forbiddenf("you are not a party to this debt")
	}

	payments, err := s.store.ListPaymentsByDebt(ctx, debtID)
	if err != nil {
		slog.Error("ListPayments failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to list payments", err)
	}
	return payments, nil
}

// applySuccessful decrements the outstanding balance by the payment amount
// (clamped at zero) and transitions the debt to PAID when the balance
// reaches zero. Balance and status are persisted together.
func (s *PaymentService) applySuccessful(ctx context.Context, debt *models.Debt, payment *models.Payment) error {
	balance := debt.OutstandingBalance.Sub(payment.Amount)
	if balance.LessThanOrEqual(decimal.Zero) {
		balance = decimal.Zero
	}

	status := debt.Status
	paidAt := debt.PaidAt
	if balance.IsZero() {
		status = models.DebtPaid
		paidAt = time.Now().Unix()
	}

	if err := s.store.UpdateDebtBalance(ctx, debt.ID, balance, status, paidAt); err != nil {
		slog.Error("ApplyPayment: balance update failed", "debt_id", debt.ID, "error", err)
		return apperrors.External("failed to update debt balance", err)
	}

	debt.OutstandingBalance = balance
	debt.Status = status
	debt.PaidAt = paidAt

	metrics.PaymentsApplied.WithLabelValues(payment.Gateway).Inc()
	slog.Info("Payment applied", "debt_id", debt.ID, "payment_id", payment.ID,
		"amount", payment.Amount, "balance", balance, "status", status)

	s.notifier.PaymentReceived(ctx, debt, payment)
	return nil
}
