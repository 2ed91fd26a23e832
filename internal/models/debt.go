package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtStatus is the persisted lifecycle state of a debt.
type DebtStatus string

const (
	// DebtPending is the initial state: money is still owed.
	DebtPending DebtStatus = "PENDING"

	// DebtPaid is terminal: the outstanding balance reached zero.
	DebtPaid DebtStatus = "PAID"

	// DebtOverdue is a pending debt whose due date has passed. It is never
	// persisted; EffectiveStatus derives it at read time.
	DebtOverdue DebtStatus = "OVERDUE"

	// DebtDefaulted is terminal: the lender declared the debt uncollectible.
	DebtDefaulted DebtStatus = "DEFAULTED"
)

// Debt represents money owed by one person (identified by phone number,
// optionally linked to an Identity) to a lender.
type Debt struct {
	// ID is the unique identifier for the debt (UUID format).
	ID string

	// LenderID is the Identity that owns this debt record.
	LenderID string

	// DebtorID is the Identity of the person who owes. Empty until the
	// debtor's phone number is matched to a registered identity; once set
	// it is never cleared.
	DebtorID string

	// DebtorPhoneNumber is the debtor's phone number in canonical form.
	// It is the durable matching key, independent of whether DebtorID is set.
	DebtorPhoneNumber string

	// PrincipalAmount is the amount originally lent.
	PrincipalAmount decimal.Decimal

	// InterestRate is a flat percentage of the principal, 0-100. It is not
	// annualized or time-weighted.
	InterestRate float64

	// CalculatedInterest is PrincipalAmount * InterestRate / 100, computed
	// at creation (and recomputed on edits while pending).
	CalculatedInterest decimal.Decimal

	// TotalAmount is PrincipalAmount + CalculatedInterest.
	TotalAmount decimal.Decimal

	// OutstandingBalance is TotalAmount minus all successful payments.
	// Always within [0, TotalAmount]; exactly zero iff Status is DebtPaid.
	OutstandingBalance decimal.Decimal

	// DueDate is the Unix timestamp the debt is due by.
	DueDate int64

	// Status is the persisted state (PENDING, PAID or DEFAULTED; see
	// EffectiveStatus for OVERDUE).
	Status DebtStatus

	// Notes is free-form text attached by the lender.
	Notes string

	// IsExternal marks debts the lender records on behalf of a third party
	// (e.g. "I owe my landlord").
	IsExternal bool

	// ExternalLenderName names the third party when IsExternal is true.
	ExternalLenderName string

	// PaidAt is the Unix timestamp the balance reached zero. Zero if unpaid.
	PaidAt int64

	// CreatedAt is the Unix timestamp when the debt was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64
}

// EffectiveStatus returns the status a reader should see at the given time:
// a pending debt past its due date reads as OVERDUE. The persisted status is
// untouched; OVERDUE is a classification overlay, not a transition.
func (d *Debt) EffectiveStatus(now time.Time) DebtStatus {
	if d.Status == DebtPending && d.DueDate < now.Unix() {
		return DebtOverdue
	}
	return d.Status
}
