package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/debtrail/debtrail/internal/middleware"
	"github.com/debtrail/debtrail/internal/service"
)

type createDebtRequest struct {
	DebtorPhoneNumber  string          `json:"debtor_phone_number" binding:"required"`
	Principal          decimal.Decimal `json:"principal" binding:"required"`
	InterestRate       float64         `json:"interest_rate"`
	DueDate            int64           `json:"due_date" binding:"required"`
	Notes              string          `json:"notes"`
	IsExternal         bool            `json:"is_external"`
	ExternalLenderName string          `json:"external_lender_name"`
}

func (s *Server) handleCreateDebt(c *gin.Context) {
	var req createDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	debt, err := s.debts.Create(c.Request.Context(), middleware.GetUserID(c), service.CreateDebtInput{
		DebtorPhoneNumber:  req.DebtorPhoneNumber,
		Principal:          req.Principal,
		InterestRate:       req.InterestRate,
		DueDate:            time.Unix(req.DueDate, 0),
		Notes:              req.Notes,
		IsExternal:         req.IsExternal,
		ExternalLenderName: req.ExternalLenderName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDebtResponse(debt, time.Now()))
}

// handleListDebts returns debts by role: lent (default) or owed.
func (s *Server) handleListDebts(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var err error
	var debts []debtResponse
	switch role := c.DefaultQuery("role", "lender"); role {
	case "lender":
		lent, lerr := s.debts.ListByLender(c.Request.Context(), userID)
		err = lerr
		debts = toDebtResponses(lent, time.Now())
	case "debtor":
		owed, derr := s.debts.ListByDebtor(c.Request.Context(), userID)
		err = derr
		debts = toDebtResponses(owed, time.Now())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be lender or debtor"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debts": debts})
}

func (s *Server) handleGetDebt(c *gin.Context) {
	debt, err := s.debts.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDebtResponse(debt, time.Now()))
}

type editDebtRequest struct {
	Principal         *decimal.Decimal `json:"principal"`
	InterestRate      *float64         `json:"interest_rate"`
	DueDate           *int64           `json:"due_date"`
	Notes             *string          `json:"notes"`
	DebtorPhoneNumber *string          `json:"debtor_phone_number"`
}

func (s *Server) handleEditDebt(c *gin.Context) {
	var req editDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := service.EditDebtInput{
		Principal:         req.Principal,
		InterestRate:      req.InterestRate,
		Notes:             req.Notes,
		DebtorPhoneNumber: req.DebtorPhoneNumber,
	}
	if req.DueDate != nil {
		due := time.Unix(*req.DueDate, 0)
		in.DueDate = &due
	}

	debt, err := s.debts.Edit(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDebtResponse(debt, time.Now()))
}

func (s *Server) handleDeleteDebt(c *gin.Context) {
	if err := s.debts.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMarkDefaulted(c *gin.Context) {
	debt, err := s.debts.MarkDefaulted(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDebtResponse(debt, time.Now()))
}
