package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/middleware"
	"github.com/debtrail/debtrail/internal/models"
)

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Notes  string          `json:"notes"`
}

func (s *Server) handleRecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	payment, err := s.payments.Record(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Amount, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

func (s *Server) handleListPayments(c *gin.Context) {
	payments, err := s.payments.List(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

// gatewayPaymentRequest mirrors the normalized webhook payload a payment
// gateway delivers after a debtor pays online. Reference is the gateway's
// transaction reference and our idempotency key.
type gatewayPaymentRequest struct {
	Reference string          `json:"reference" binding:"required"`
	DebtID    string          `json:"debt_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Gateway   string          `json:"gateway" binding:"required"`
	Status    string          `json:"status" binding:"required"`
}

func (s *Server) handleGatewayPayment(c *gin.Context) {
	var req gatewayPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var status models.PaymentStatus
	switch models.PaymentStatus(req.Status) {
	case models.PaymentSuccessful, models.PaymentFailed, models.PaymentPending:
		status = models.PaymentStatus(req.Status)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be SUCCESSFUL, FAILED or PENDING"})
		return
	}

	payment, err := s.payments.ApplyGateway(c.Request.Context(), req.Reference, req.DebtID, req.Amount, req.Gateway, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}
