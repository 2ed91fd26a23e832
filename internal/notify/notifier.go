// Package notify dispatches fire-and-forget events to an external notifier
// service. Delivery failures are logged and discarded: a notification must
// never fail or roll back the debt or payment operation that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/debtrail/debtrail/internal/models"
)

// Notifier is the collaborator boundary for outbound notifications.
type Notifier interface {
	// DebtCreated announces a new debt to the (possibly unregistered) debtor.
	DebtCreated(ctx context.Context, debt *models.Debt)

	// PaymentReceived announces a successful payment on a debt.
	PaymentReceived(ctx context.Context, debt *models.Debt, payment *models.Payment)

	// DebtOverdue reminds the debtor about a debt past its due date.
	DebtOverdue(ctx context.Context, debt *models.Debt)
}

// Noop discards all notifications. Used when no notifier URL is configured
// and in tests.
type Noop struct{}

func (Noop) DebtCreated(context.Context, *models.Debt) {}

func (Noop) PaymentReceived(context.Context, *models.Debt, *models.Payment) {}

func (Noop) DebtOverdue(context.Context, *models.Debt) {}

// HTTPNotifier posts events as JSON to an external notification service.
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPNotifier creates a notifier posting to baseURL.
func NewHTTPNotifier(baseURL string, logger *slog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

// DebtCreated posts a debt-created event.
func (n *HTTPNotifier) DebtCreated(ctx context.Context, debt *models.Debt) {
	n.post(ctx, "debt.created", map[string]any{
		"debt_id":      debt.ID,
		"lender_id":    debt.LenderID,
		"debtor_phone": debt.DebtorPhoneNumber,
		"total_amount": debt.TotalAmount,
		"due_date":     debt.DueDate,
	})
}

// PaymentReceived posts a payment-received event.
func (n *HTTPNotifier) PaymentReceived(ctx context.Context, debt *models.Debt, payment *models.Payment) {
	n.post(ctx, "payment.received", map[string]any{
		"debt_id":             debt.ID,
		"lender_id":           debt.LenderID,
		"payment_id":          payment.ID,
		"amount":              payment.Amount,
		"outstanding_balance": debt.OutstandingBalance,
		"status":              debt.Status,
	})
}

// DebtOverdue posts an overdue reminder event.
func (n *HTTPNotifier) DebtOverdue(ctx context.Context, debt *models.Debt) {
	n.post(ctx, "debt.overdue", map[string]any{
		"debt_id":             debt.ID,
		"lender_id":           debt.LenderID,
		"debtor_id":           debt.DebtorID,
		"debtor_phone":        debt.DebtorPhoneNumber,
		"outstanding_balance": debt.OutstandingBalance,
		"due_date":            debt.DueDate,
	})
}

func (n *HTTPNotifier) post(ctx context.Context, event string, payload map[string]any) {
	body, err := json.Marshal(map[string]any{"event": event, "data": payload})
	if err != nil {
		n.logger.Warn("notify: failed to encode event", "event", event, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("notify: failed to build request", "event", event, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notify: dispatch failed", "event", event, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("notify: dispatch rejected", "event", event, "error", fmt.Errorf("status %d", resp.StatusCode))
	}
}
