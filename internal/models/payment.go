package models

import "github.com/shopspring/decimal"

// PaymentStatus is the state of a single payment attempt.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentFailed     PaymentStatus = "FAILED"
)

// GatewayManual is the pseudo-gateway for lender-recorded cash or transfer
// entries, as opposed to payments reported by a real payment gateway.
const GatewayManual = "manual"

// Payment represents a settlement recorded against a debt.
//
// Reference doubles as the idempotency key: applying the same reference
// twice must decrement the debt's balance exactly once. A payment is
// immutable once SUCCESSFUL.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// DebtID is the debt this payment settles (part of).
	DebtID string

	// Amount is the amount paid.
	Amount decimal.Decimal

	// Status mirrors the gateway's reported status; manual entries are
	// SUCCESSFUL immediately.
	Status PaymentStatus

	// Reference is the unique idempotency key for this payment. Gateway
	// payments carry the gateway's transaction reference; manual entries
	// get a generated one.
	Reference string

	// Gateway identifies the channel the payment came through, including
	// the GatewayManual pseudo-gateway.
	Gateway string

	// Notes is optional free-form text (manual entries).
	Notes string

	// PaidAt is the Unix timestamp the payment succeeded. Zero if not
	// (yet) successful.
	PaidAt int64

	// CreatedAt is the Unix timestamp the payment row was created.
	CreatedAt int64
}
