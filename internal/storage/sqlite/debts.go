package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/models"
)

const debtColumns = `id, lender_id, debtor_id, debtor_phone_number, principal_amount,
	interest_rate, calculated_interest, total_amount, outstanding_balance, due_date,
	status, notes, is_external, external_lender_name, paid_at, created_at, updated_at`

type debtScanner interface {
	Scan(dest ...interface{}) error
}

func scanDebt(row debtScanner) (*models.Debt, error) {
	debt := &models.Debt{}
	var debtorID, notes, externalLenderName sql.NullString
	var paidAt sql.NullInt64
	var status string

	err := row.Scan(&debt.ID, &debt.LenderID, &debtorID, &debt.DebtorPhoneNumber,
		&debt.PrincipalAmount, &debt.InterestRate, &debt.CalculatedInterest,
		&debt.TotalAmount, &debt.OutstandingBalance, &debt.DueDate,
		&status, &notes, &debt.IsExternal, &externalLenderName,
		&paidAt, &debt.CreatedAt, &debt.UpdatedAt)
	if err != nil {
		return nil, err
	}

	debt.DebtorID = debtorID.String
	debt.Notes = notes.String
	debt.ExternalLenderName = externalLenderName.String
	debt.PaidAt = paidAt.Int64
	debt.Status = models.DebtStatus(status)
	return debt, nil
}

// CreateDebt persists a new debt to the database.
func (s *SQLiteStore) CreateDebt(ctx context.Context, debt *models.Debt) error {
	// Generate ID if not set
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if debt.CreatedAt == 0 {
		debt.CreatedAt = now
	}
	debt.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO debts (id, lender_id, debtor_id, debtor_phone_number, principal_amount,
			interest_rate, calculated_interest, total_amount, outstanding_balance, due_date,
			status, notes, is_external, external_lender_name, paid_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID, debt.LenderID, nullable(debt.DebtorID), debt.DebtorPhoneNumber,
		debt.PrincipalAmount, debt.InterestRate, debt.CalculatedInterest,
		debt.TotalAmount, debt.OutstandingBalance, debt.DueDate,
		string(debt.Status), nullable(debt.Notes), debt.IsExternal,
		nullable(debt.ExternalLenderName), nullableInt(debt.PaidAt),
		debt.CreatedAt, debt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}

	return nil
}

// GetDebt retrieves a debt by ID.
func (s *SQLiteStore) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE id = ?", debtID)

	debt, err := scanDebt(row)
	if err == sql.ErrNoRows {
		return nil, nil // Debt not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

// UpdateDebt rewrites a debt's mutable fields.
func (s *SQLiteStore) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	debt.UpdatedAt = time.Now().Unix()

	res, err := s.db.ExecContext(ctx,
		`UPDATE debts
		 SET debtor_id = ?, debtor_phone_number = ?, principal_amount = ?, interest_rate = ?,
			calculated_interest = ?, total_amount = ?, outstanding_balance = ?, due_date = ?,
			status = ?, notes = ?, is_external = ?, external_lender_name = ?, paid_at = ?,
			updated_at = ?
		 WHERE id = ?`,
		nullable(debt.DebtorID), debt.DebtorPhoneNumber, debt.PrincipalAmount, debt.InterestRate,
		debt.CalculatedInterest, debt.TotalAmount, debt.OutstandingBalance, debt.DueDate,
		string(debt.Status), nullable(debt.Notes), debt.IsExternal,
		nullable(debt.ExternalLenderName), nullableInt(debt.PaidAt),
		debt.UpdatedAt, debt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("debt not found: %s", debt.ID)
	}

	return nil
}

// DeleteDebt removes a debt; its payments cascade away with it.
func (s *SQLiteStore) DeleteDebt(ctx context.Context, debtID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", debtID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("debt not found: %s", debtID)
	}
	return nil
}

func (s *SQLiteStore) listDebts(ctx context.Context, query string, args ...interface{}) ([]*models.Debt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	return debts, nil
}

// ListDebtsByLender returns all debts owned by a lender, newest first.
func (s *SQLiteStore) ListDebtsByLender(ctx context.Context, lenderID string) ([]*models.Debt, error) {
	return s.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE lender_id = ? ORDER BY created_at DESC", lenderID)
}

// ListDebtsByDebtor returns all debts linked to a debtor identity, newest first.
func (s *SQLiteStore) ListDebtsByDebtor(ctx context.Context, debtorID string) ([]*models.Debt, error) {
	return s.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE debtor_id = ? ORDER BY created_at DESC", debtorID)
}

// FindDebtsByPhoneUnlinked returns debts matching the phone number that have
// no debtor identity attached yet.
func (s *SQLiteStore) FindDebtsByPhoneUnlinked(ctx context.Context, phoneNumber string) ([]*models.Debt, error) {
	return s.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE debtor_phone_number = ? AND debtor_id IS NULL ORDER BY created_at",
		phoneNumber)
}

// ListOverdueDebts returns pending debts past the given due time, oldest
// due date first.
func (s *SQLiteStore) ListOverdueDebts(ctx context.Context, now int64) ([]*models.Debt, error) {
	return s.listDebts(ctx,
		"SELECT "+debtColumns+" FROM debts WHERE status = ? AND due_date < ? ORDER BY due_date",
		string(models.DebtPending), now)
}

// BatchLinkDebts attaches the identity to every still-unlinked debt with a
// matching phone number. The debtor_id IS NULL predicate is the idempotency
// guard: a concurrent or repeated sweep cannot re-link an already-linked
// debt.
func (s *SQLiteStore) BatchLinkDebts(ctx context.Context, identityID, phoneNumber string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE debts
		 SET debtor_id = ?, updated_at = ?
		 WHERE debtor_phone_number = ? AND debtor_id IS NULL`,
		identityID, time.Now().Unix(), phoneNumber,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to batch link debts: %w", err)
	}

	linked, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count linked debts: %w", err)
	}
	return linked, nil
}

// UpdateDebtBalance persists the outcome of applying a payment. Balance and
// status are written together so "balance zero" and "status PAID" cannot
// drift apart.
func (s *SQLiteStore) UpdateDebtBalance(ctx context.Context, debtID string, balance decimal.Decimal, status models.DebtStatus, paidAt int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE debts SET outstanding_balance = ?, status = ?, paid_at = ?, updated_at = ? WHERE id = ?`,
		balance, string(status), nullableInt(paidAt), time.Now().Unix(), debtID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt balance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check balance update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("debt not found: %s", debtID)
	}

	return nil
}
