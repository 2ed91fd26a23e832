package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/models"
)

// debtResponse is the wire form of a debt. Status carries the effective
// status, so a pending debt past its due date reads as OVERDUE without a
// persisted transition.
type debtResponse struct {
	ID                 string            `json:"id"`
	LenderID           string            `json:"lender_id"`
	DebtorID           string            `json:"debtor_id,omitempty"`
	DebtorPhoneNumber  string            `json:"debtor_phone_number"`
	PrincipalAmount    decimal.Decimal   `json:"principal_amount"`
	InterestRate       float64           `json:"interest_rate"`
	CalculatedInterest decimal.Decimal   `json:"calculated_interest"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	OutstandingBalance decimal.Decimal   `json:"outstanding_balance"`
	DueDate            int64             `json:"due_date"`
	Status             models.DebtStatus `json:"status"`
	Notes              string            `json:"notes,omitempty"`
	IsExternal         bool              `json:"is_external,omitempty"`
	ExternalLenderName string            `json:"external_lender_name,omitempty"`
	PaidAt             int64             `json:"paid_at,omitempty"`
	CreatedAt          int64             `json:"created_at"`
	UpdatedAt          int64             `json:"updated_at"`
}

func toDebtResponse(d *models.Debt, now time.Time) debtResponse {
	return debtResponse{
		ID:                 d.ID,
		LenderID:           d.LenderID,
		DebtorID:           d.DebtorID,
		DebtorPhoneNumber:  d.DebtorPhoneNumber,
		PrincipalAmount:    d.PrincipalAmount,
		InterestRate:       d.InterestRate,
		CalculatedInterest: d.CalculatedInterest,
		TotalAmount:        d.TotalAmount,
		OutstandingBalance: d.OutstandingBalance,
		DueDate:            d.DueDate,
		Status:             d.EffectiveStatus(now),
		Notes:              d.Notes,
		IsExternal:         d.IsExternal,
		ExternalLenderName: d.ExternalLenderName,
		PaidAt:             d.PaidAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func toDebtResponses(debts []*models.Debt, now time.Time) []debtResponse {
	out := make([]debtResponse, 0, len(debts))
	for _, d := range debts {
		out = append(out, toDebtResponse(d, now))
	}
	return out
}

type paymentResponse struct {
	ID        string               `json:"id"`
	DebtID    string               `json:"debt_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Status    models.PaymentStatus `json:"status"`
	Reference string               `json:"reference"`
	Gateway   string               `json:"gateway"`
	Notes     string               `json:"notes,omitempty"`
	PaidAt    int64                `json:"paid_at,omitempty"`
	CreatedAt int64                `json:"created_at"`
}

func toPaymentResponse(p *models.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		DebtID:    p.DebtID,
		Amount:    p.Amount,
		Status:    p.Status,
		Reference: p.Reference,
		Gateway:   p.Gateway,
		Notes:     p.Notes,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
}

type identityResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

func toIdentityResponse(i *models.Identity) identityResponse {
	return identityResponse{
		ID:          i.ID,
		Name:        i.Name,
		Email:       i.Email,
		PhoneNumber: i.PhoneNumber,
		AvatarURL:   i.AvatarURL,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}
