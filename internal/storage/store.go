// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/models"
)

// ConflictKind classifies a uniqueness violation on an identity write.
// The store reports conflicts as a typed result instead of a raw driver
// error so the profile reconciliation logic can branch on the conflicting
// key without inspecting error strings.
type ConflictKind int

const (
	// ConflictNone means the write succeeded.
	ConflictNone ConflictKind = iota

	// ConflictID means another writer already created this identity id.
	ConflictID

	// ConflictEmail means a different identity already owns this email.
	ConflictEmail

	// ConflictPhone means a different identity already owns this phone number.
	ConflictPhone
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictNone:
		return "none"
	case ConflictID:
		return "id"
	case ConflictEmail:
		return "email"
	case ConflictPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// Store defines the persistence contract for identities, debts and payments.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Lookup methods return (nil, nil) when the row does not exist. The store's
// uniqueness constraints are the sole serialization point for concurrent
// identity writes; no external locking is involved.
type Store interface {
	// FindIdentityByID retrieves an identity by its id.
	FindIdentityByID(ctx context.Context, id string) (*models.Identity, error)

	// FindIdentityByEmail retrieves an identity by email.
	FindIdentityByEmail(ctx context.Context, email string) (*models.Identity, error)

	// FindIdentityByPhone retrieves an identity by canonical phone number.
	FindIdentityByPhone(ctx context.Context, phoneNumber string) (*models.Identity, error)

	// InsertIdentity persists a new identity. A uniqueness violation is
	// reported through the ConflictKind result with a nil error; any other
	// failure is returned as an error.
	InsertIdentity(ctx context.Context, identity *models.Identity) (ConflictKind, error)

	// UpdateIdentity updates the mutable fields (name, email, phone,
	// avatar) of an existing identity, with the same conflict reporting as
	// InsertIdentity.
	UpdateIdentity(ctx context.Context, identity *models.Identity) (ConflictKind, error)

	// DeleteIdentity removes an identity (explicit account deletion). Debts
	// lent by the identity are removed with it; debts it owed fall back to
	// phone-number matching.
	DeleteIdentity(ctx context.Context, id string) error

	// ListIdentitiesWithPhone returns all identities that have a phone
	// number on record, for the maintenance linking sweep.
	ListIdentitiesWithPhone(ctx context.Context) ([]*models.Identity, error)

	// CreateDebt persists a new debt. The debt.ID field will be populated
	// by the store if unset.
	CreateDebt(ctx context.Context, debt *models.Debt) error

	// GetDebt retrieves a debt by its ID.
	GetDebt(ctx context.Context, debtID string) (*models.Debt, error)

	// UpdateDebt rewrites a debt's mutable fields.
	UpdateDebt(ctx context.Context, debt *models.Debt) error

	// DeleteDebt removes a debt and, via cascade, its payments.
	DeleteDebt(ctx context.Context, debtID string) error

	// ListDebtsByLender returns all debts owned by a lender.
	ListDebtsByLender(ctx context.Context, lenderID string) ([]*models.Debt, error)

	// ListDebtsByDebtor returns all debts linked to a debtor identity.
	ListDebtsByDebtor(ctx context.Context, debtorID string) ([]*models.Debt, error)

	// FindDebtsByPhoneUnlinked returns debts whose debtor phone number
	// matches and whose debtor id is not yet set.
	FindDebtsByPhoneUnlinked(ctx context.Context, phoneNumber string) ([]*models.Debt, error)

	// ListOverdueDebts returns pending debts whose due date has passed the
	// given unix timestamp, for the reminder sweep.
	ListOverdueDebts(ctx context.Context, now int64) ([]*models.Debt, error)

	// BatchLinkDebts sets debtor_id on every debt matching the phone number
	// that is still unlinked, in one guarded update, and returns how many
	// debts were linked. The "debtor id is null" predicate makes the
	// operation idempotent and safe under concurrent retries.
	BatchLinkDebts(ctx context.Context, identityID, phoneNumber string) (int64, error)

	// UpdateDebtBalance persists the outcome of applying a payment:
	// outstanding balance, status and paid-at together.
	UpdateDebtBalance(ctx context.Context, debtID string, balance decimal.Decimal, status models.DebtStatus, paidAt int64) error

	// FindPaymentByReference retrieves a payment by its idempotency
	// reference.
	FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)

	// InsertPayment persists a new payment. The payment.ID field will be
	// populated by the store if unset.
	InsertPayment(ctx context.Context, payment *models.Payment) error

	// UpdatePaymentStatus transitions a payment's status and paid-at
	// together, used when the gateway settles a previously PENDING payment.
	UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus, paidAt int64) error

	// ListPaymentsByDebt returns all payments recorded against a debt.
	ListPaymentsByDebt(ctx context.Context, debtID string) ([]*models.Payment, error)

	// Close releases any resources held by the store.
	Close() error
}
