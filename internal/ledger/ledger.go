// Package ledger holds the pure money math and validation rules for debts.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/apperrors"
	"github.com/debtrail/debtrail/internal/phone"
)

// Bounds on a debt's principal amount.
var (
	MinDebtAmount = decimal.NewFromInt(100)
	MaxDebtAmount = decimal.NewFromInt(10_000_000)
)

var oneHundred = decimal.NewFromInt(100)

// ComputeInterest returns the flat interest on a principal:
// principal * rate / 100. The rate is a plain percentage of the principal,
// not annualized by elapsed time.
func ComputeInterest(principal decimal.Decimal, rate float64) decimal.Decimal {
	return principal.Mul(decimal.NewFromFloat(rate)).Div(oneHundred)
}

// ComputeTotals returns the calculated interest and the total amount owed
// for a principal at the given rate.
func ComputeTotals(principal decimal.Decimal, rate float64) (interest, total decimal.Decimal) {
	interest = ComputeInterest(principal, rate)
	total = principal.Add(interest)
	return interest, total
}

// ValidateAmounts checks that the principal is within
// [MinDebtAmount, MaxDebtAmount] and the rate within [0, 100]. Used on
// creation and on financial edits, where the due date may already have
// passed.
func ValidateAmounts(principal decimal.Decimal, rate float64) error {
	if principal.LessThan(MinDebtAmount) || principal.GreaterThan(MaxDebtAmount) {
		return apperrors.Validationf("principal must be between %s and %s, got %s",
			MinDebtAmount, MaxDebtAmount, principal)
	}
	if rate < 0 || rate > 100 {
		return apperrors.Validationf("interest rate must be between 0 and 100, got %v", rate)
	}
	return nil
}

// ValidateNewDebt checks the creation constraints: amounts within bounds,
// due date in the future, phone number in canonical form.
//
// Returns an apperrors.ValidationError on the first violation.
func ValidateNewDebt(principal decimal.Decimal, rate float64, dueDate time.Time, debtorPhone string, now time.Time) error {
	if err := ValidateAmounts(principal, rate); err != nil {
		return err
	}
	if !dueDate.After(now) {
		return apperrors.Validationf("due date must be in the future")
	}
	if !phone.IsCanonical(debtorPhone) {
		return apperrors.Validationf("debtor phone number is not in canonical form: %q", debtorPhone)
	}
	return nil
}

// ValidatePaymentAmount checks that a payment amount is positive and does
// not exceed the debt's outstanding balance.
func ValidatePaymentAmount(amount, outstanding decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.Validationf("payment amount must be positive, got %s", amount)
	}
	if amount.GreaterThan(outstanding) {
		return apperrors.Validationf("payment amount %s exceeds outstanding balance %s", amount, outstanding)
	}
	return nil
}
