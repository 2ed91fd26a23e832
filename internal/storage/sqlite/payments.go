package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/debtrail/debtrail/internal/models"
)

const paymentColumns = "id, debt_id, amount, status, reference, gateway, notes, paid_at, created_at"

func scanPayment(row debtScanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var notes sql.NullString
	var paidAt sql.NullInt64
	var status string

	err := row.Scan(&payment.ID, &payment.DebtID, &payment.Amount, &status,
		&payment.Reference, &payment.Gateway, &notes, &paidAt, &payment.CreatedAt)
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatus(status)
	payment.Notes = notes.String
	payment.PaidAt = paidAt.Int64
	return payment, nil
}

// FindPaymentByReference retrieves a payment by its idempotency reference.
func (s *SQLiteStore) FindPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE reference = ?", reference)

	payment, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil // Payment not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by reference: %w", err)
	}
	return payment, nil
}

// InsertPayment persists a new payment to the database.
func (s *SQLiteStore) InsertPayment(ctx context.Context, payment *models.Payment) error {
	// Generate ID if not set
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, debt_id, amount, status, reference, gateway, notes, paid_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.DebtID, payment.Amount, string(payment.Status),
		payment.Reference, payment.Gateway, nullable(payment.Notes),
		nullableInt(payment.PaidAt), payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

// UpdatePaymentStatus transitions a payment's status and paid-at together.
func (s *SQLiteStore) UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus, paidAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = ?, paid_at = ? WHERE id = ?",
		string(status), nullableInt(paidAt), paymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check payment update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment not found: %s", paymentID)
	}

	return nil
}

// ListPaymentsByDebt returns all payments recorded against a debt, oldest
// first.
func (s *SQLiteStore) ListPaymentsByDebt(ctx context.Context, debtID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE debt_id = ? ORDER BY created_at", debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}
