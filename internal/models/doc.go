// Package models defines the core domain models for Debtrail.
//
// # Models
//
//   - Identity: a registered person's account record (contact details)
//   - Debt: money owed by a phone-number-identified person to a lender
//   - Payment: a settlement recorded against a debt
//
// # Design Principles
//
// 1. **Phone number as the durable key**: a Debt always carries the debtor's
// canonical phone number, whether or not the debtor has registered yet.
// DebtorID is attached later by the linking service and is never cleared
// once set.
//
// 2. **Avoid circular references**: relationships use ID strings instead of
// pointers.
//
// 3. **Derived status stays derived**: OVERDUE is a read-time classification
// over PENDING debts (EffectiveStatus); the persisted status only changes on
// payment completion or an explicit default.
//
// 4. **Exact money math**: amounts are decimal.Decimal, never float64, so
// balances subtract to exactly zero.
package models
