// Package service implements the debt ledger's application services:
// debt lifecycle, payment application, identity linking and profile
// reconciliation. Services are stateless; each is constructed with an
// injected storage.Store.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/apperrors"
	"github.com/debtrail/debtrail/internal/ledger"
	"github.com/debtrail/debtrail/internal/metrics"
	"github.com/debtrail/debtrail/internal/models"
	"github.com/debtrail/debtrail/internal/notify"
	"github.com/debtrail/debtrail/internal/phone"
	"github.com/debtrail/debtrail/internal/storage"
)

// DebtService owns debt creation, edits and status transitions.
type DebtService struct {
	store    storage.Store
	linking  *LinkingService
	notifier notify.Notifier
}

// NewDebtService creates a new DebtService with the given collaborators.
func NewDebtService(store storage.Store, linking *LinkingService, notifier notify.Notifier) *DebtService {
	return &DebtService{store: store, linking: linking, notifier: notifier}
}

// CreateDebtInput carries the lender-provided fields for a new debt.
type CreateDebtInput struct {
	DebtorPhoneNumber  string
	Principal          decimal.Decimal
	InterestRate       float64
	DueDate            time.Time
	Notes              string
	IsExternal         bool
	ExternalLenderName string
}

// Create validates the input, computes the debt totals and persists the new
// debt. The debtor phone number is resolved against registered identities;
// if no identity matches, the debt stays unlinked and remains discoverable
// through the phone number. Nothing is written on a validation failure.
func (s *DebtService) Create(ctx context.Context, lenderID string, in CreateDebtInput) (*models.Debt, error) {
	canonical, err := phone.Canonicalize(in.DebtorPhoneNumber)
	if err != nil {
		return nil, apperrors.Validationf("invalid debtor phone number: %v", err)
	}

	now := time.Now()
	if err := ledger.ValidateNewDebt(in.Principal, in.InterestRate, in.DueDate, canonical, now); err != nil {
		return nil, err
	}

	lender, err := s.store.FindIdentityByID(ctx, lenderID)
	if err != nil {
		slog.Error("CreateDebt: lender lookup failed", "lender_id", lenderID, "error", err)
		return nil, apperrors.External("failed to look up lender", err)
	}
	if lender == nil {
		return nil, apperrors.NotFoundf("lender not found: %s", lenderID)
	}

	debtorID, err := s.linking.ResolveDebtor(ctx, canonical)
	if err != nil {
		slog.Error("CreateDebt: debtor resolution failed", "phone", canonical, "error", err)
		return nil, apperrors.External("failed to resolve debtor", err)
	}

	interest, total := ledger.ComputeTotals(in.Principal, in.InterestRate)
	debt := &models.Debt{
		LenderID:           lenderID,
		DebtorID:           debtorID,
		DebtorPhoneNumber:  canonical,
		PrincipalAmount:    in.Principal,
		InterestRate:       in.InterestRate,
		CalculatedInterest: interest,
		TotalAmount:        total,
		OutstandingBalance: total,
		DueDate:            in.DueDate.Unix(),
		Status:             models.DebtPending,
		Notes:              in.Notes,
		IsExternal:         in.IsExternal,
		ExternalLenderName: in.ExternalLenderName,
	}

	if err := s.store.CreateDebt(ctx, debt); err != nil {
		slog.Error("CreateDebt failed", "lender_id", lenderID, "error", err)
		return nil, apperrors.External("failed to create debt", err)
	}

	metrics.DebtsCreated.WithLabelValues(boolLabel(debtorID != "")).Inc()
	slog.Info("Debt created", "debt_id", debt.ID, "lender_id", lenderID,
		"debtor_linked", debtorID != "", "total", total)

	s.notifier.DebtCreated(ctx, debt)
	return debt, nil
}

// EditDebtInput carries the optional updates for a debt; nil fields are left
// untouched.
type EditDebtInput struct {
	Principal         *decimal.Decimal
	InterestRate      *float64
	DueDate           *time.Time
	Notes             *string
	DebtorPhoneNumber *string
}

func (in EditDebtInput) touchesFinancials() bool {
	return in.Principal != nil || in.InterestRate != nil
}

// Edit applies updates to a debt. While the debt is pending, principal,
// interest, due date, notes and phone are editable and totals are recomputed
// as on creation, with the outstanding balance reset to the new total
// (payments already applied are not reconciled against the edit). Once the
// debt is paid or defaulted, principal and interest are locked; only notes
// and due date may change.
func (s *DebtService) Edit(ctx context.Context, callerID, debtID string, in EditDebtInput) (*models.Debt, error) {
	debt, err := s.getOwned(ctx, callerID, debtID)
	if err != nil {
		return nil, err
	}

	if debt.Status != models.DebtPending && (in.touchesFinancials() || in.DebtorPhoneNumber != nil) {
		return nil, apperrors.Validationf("principal, interest and debtor phone are locked once the debt is %s", debt.Status)
	}

	if in.DueDate != nil {
		if !in.DueDate.After(time.Now()) {
			return nil, apperrors.Validationf("due date must be in the future")
		}
		debt.DueDate = in.DueDate.Unix()
	}
	if in.Notes != nil {
		debt.Notes = *in.Notes
	}
	if in.DebtorPhoneNumber != nil {
		canonical, err := phone.Canonicalize(*in.DebtorPhoneNumber)
		if err != nil {
			return nil, apperrors.Validationf("invalid debtor phone number: %v", err)
		}
		if canonical != debt.DebtorPhoneNumber {
			debt.DebtorPhoneNumber = canonical
			// The number is the matching key: changing it re-resolves the
			// debtor, possibly back to unlinked.
			debtorID, err := s.linking.ResolveDebtor(ctx, canonical)
			if err != nil {
				slog.Error("EditDebt: debtor resolution failed", "phone", canonical, "error", err)
				return nil, apperrors.External("failed to resolve debtor", err)
			}
			debt.DebtorID = debtorID
		}
	}

	if in.touchesFinancials() {
		if in.Principal != nil {
			debt.PrincipalAmount = *in.Principal
		}
		if in.InterestRate != nil {
			debt.InterestRate = *in.InterestRate
		}
		if err := ledger.ValidateAmounts(debt.PrincipalAmount, debt.InterestRate); err != nil {
			return nil, err
		}
		debt.CalculatedInterest, debt.TotalAmount = ledger.ComputeTotals(debt.PrincipalAmount, debt.InterestRate)
		debt.OutstandingBalance = debt.TotalAmount
	}

	if err := s.store.UpdateDebt(ctx, debt); err != nil {
		slog.Error("EditDebt failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to update debt", err)
	}

	return debt, nil
}

// MarkDefaulted transitions a pending debt to DEFAULTED. Lender-only and
// irreversible; no transitions are permitted out of DEFAULTED.
func (s *DebtService) MarkDefaulted(ctx context.Context, callerID, debtID string) (*models.Debt, error) {
	debt, err := s.getOwned(ctx, callerID, debtID)
	if err != nil {
		return nil, err
	}

	if debt.Status != models.DebtPending {
		return nil, apperrors.Validationf("only pending debts can be marked defaulted, status is %s", debt.Status)
	}

	debt.Status = models.DebtDefaulted
	if err := s.store.UpdateDebt(ctx, debt); err != nil {
		slog.Error("MarkDefaulted failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to update debt", err)
	}

	slog.Info("Debt marked defaulted", "debt_id", debtID, "lender_id", callerID)
	return debt, nil
}

// Delete removes a debt and its payments together. Lender-only and
// irreversible.
func (s *DebtService) Delete(ctx context.Context, callerID, debtID string) error {
	if _, err := s.getOwned(ctx, callerID, debtID); err != nil {
		return err
	}

	if err := s.store.DeleteDebt(ctx, debtID); err != nil {
		slog.Error("DeleteDebt failed", "debt_id", debtID, "error", err)
		return apperrors.External("failed to delete debt", err)
	}

	slog.Info("Debt deleted", "debt_id", debtID, "lender_id", callerID)
	return nil
}

// Get retrieves a debt for either of its parties.
func (s *DebtService) Get(ctx context.Context, callerID, debtID string) (*models.Debt, error) {
	debt, err := s.store.GetDebt(ctx, debtID)
	if err != nil {
		slog.Error("GetDebt failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to get debt", err)
	}
	if debt == nil {
		return nil, apperrors.NotFoundf("debt not found: %s", debtID)
	}
	if callerID != debt.LenderID && callerID != debt.DebtorID {
		return nil, apperrors.Forbiddenf("you are not a party to this debt")
	}
	return debt, nil
}

// ListByLender returns all debts owned by the lender.
func (s *DebtService) ListByLender(ctx context.Context, lenderID string) ([]*models.Debt, error) {
	debts, err := s.store.ListDebtsByLender(ctx, lenderID)
	if err != nil {
		slog.Error("ListDebtsByLender failed", "lender_id", lenderID, "error", err)
		return nil, apperrors.External("failed to list debts", err)
	}
	return debts, nil
}

// ListByDebtor returns all debts linked to the debtor identity.
func (s *DebtService) ListByDebtor(ctx context.Context, debtorID string) ([]*models.Debt, error) {
	debts, err := s.store.ListDebtsByDebtor(ctx, debtorID)
	if err != nil {
		slog.Error("ListDebtsByDebtor failed", "debtor_id", debtorID, "error", err)
		return nil, apperrors.External("failed to list debts", err)
	}
	return debts, nil
}

// SendOverdueReminders notifies the debtor of every pending debt past its
// due date. Dispatch is fire-and-forget, so a run touches every overdue debt
// even when individual deliveries fail. Returns how many reminders were sent.
func (s *DebtService) SendOverdueReminders(ctx context.Context) (int, error) {
	overdue, err := s.store.ListOverdueDebts(ctx, time.Now().Unix())
	if err != nil {
		slog.Error("SendOverdueReminders: listing failed", "error", err)
		return 0, apperrors.External("failed to list overdue debts", err)
	}

	for _, debt := range overdue {
		s.notifier.DebtOverdue(ctx, debt)
		metrics.RemindersSent.Inc()
	}

	if len(overdue) > 0 {
		slog.Info("Overdue reminders sent", "count", len(overdue))
	}
	return len(overdue), nil
}

// getOwned loads a debt and checks the caller is its lender.
func (s *DebtService) getOwned(ctx context.Context, callerID, debtID string) (*models.Debt, error) {
	debt, err := s.store.GetDebt(ctx, debtID)
	if err != nil {
		slog.Error("GetDebt failed", "debt_id", debtID, "error", err)
		return nil, apperrors.External("failed to get debt", err)
	}
	if debt == nil {
		return nil, apperrors.NotFoundf("debt not found: %s", debtID)
	}
	if debt.LenderID != callerID {
		return nil, apperrors.Forbiddenf("only the lender can modify this debt")
	}
	return debt, nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
