package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecomove/internal/domain"
	"ecomove/internal/service"
)

// LoanHandler handles HTTP requests for loans.
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// StartLoanRequest is the HTTP request body for starting a loan.
type StartLoanRequest struct {
	UserID           int64 `json:"user_id" binding:"required"`
	TransportID      int64 `json:"transport_id" binding:"required"`
	OriginStationID  int64 `json:"origin_station_id" binding:"required"`
	EstimatedMinutes *int  `json:"estimated_minutes,omitempty"`
}

// CompleteLoanRequest is the HTTP request body for completing a loan.
type CompleteLoanRequest struct {
	DestinationStationID int64  `json:"destination_station_id" binding:"required"`
	PaymentMethod        string `json:"payment_method" binding:"required"`
}

// CancelLoanRequest is the HTTP request body for cancelling a loan.
type CancelLoanRequest struct {
	Reason string `json:"reason"`
}

// ExtendLoanRequest is the HTTP request body for extending a loan.
type ExtendLoanRequest struct {
	AdditionalMinutes int `json:"additional_minutes" binding:"required"`
}

// LoanResponse is the HTTP response for loan operations.
type LoanResponse struct {
	ID                   int64    `json:"id"`
	UserID               int64    `json:"user_id"`
	TransportID          int64    `json:"transport_id"`
	OriginStationID      int64    `json:"origin_station_id"`
	DestinationStationID *int64   `json:"destination_station_id,omitempty"`
	StartedAt            string   `json:"started_at"`
	EndedAt              string   `json:"ended_at,omitempty"`
	EstimatedMinutes     *int     `json:"estimated_minutes,omitempty"`
	TotalCost            *float64 `json:"total_cost,omitempty"`
	Status               string   `json:"status"`
	PaymentMethod        string   `json:"payment_method,omitempty"`
	CancelReason         string   `json:"cancel_reason,omitempty"`
}

// FareInfo contains the fare breakdown in the response.
type FareInfo struct {
	BaseRate        float64 `json:"base_rate"`
	DurationMinutes int     `json:"duration_minutes"`
	Subtotal        float64 `json:"subtotal"`
	Discounts       float64 `json:"discounts"`
	Taxes           float64 `json:"taxes"`
	TotalCost       float64 `json:"total_cost"`
}

// PaymentInfo contains payment details in the response.
type PaymentInfo struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Status string  `json:"status"`
}

// ReceiptInfo contains receipt details in the response.
type ReceiptInfo struct {
	ID        string  `json:"id"`
	TotalCost float64 `json:"total_cost"`
	IssuedAt  string  `json:"issued_at"`
}

// CompleteLoanResult is the HTTP response for loan completion.
type CompleteLoanResult struct {
	Loan    LoanResponse `json:"loan"`
	Fare    FareInfo     `json:"fare"`
	Payment *PaymentInfo `json:"payment,omitempty"`
	Receipt *ReceiptInfo `json:"receipt,omitempty"`
}

// ExtendLoanResult is the HTTP response for loan extension.
type ExtendLoanResult struct {
	Loan           LoanResponse `json:"loan"`
	AdditionalCost float64      `json:"additional_cost"`
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                   loan.ID,
		UserID:               loan.UserID,
		TransportID:          loan.TransportID,
		OriginStationID:      loan.OriginStationID,
		DestinationStationID: loan.DestinationStationID,
		StartedAt:            loan.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		EstimatedMinutes:     loan.EstimatedMinutes,
		TotalCost:            loan.TotalCost,
		Status:               string(loan.Status),
		PaymentMethod:        string(loan.PaymentMethod),
		CancelReason:         loan.CancelReason,
	}
	if !loan.EndedAt.IsZero() {
		resp.EndedAt = loan.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// StartLoan handles POST /v1/loans
func (h *LoanHandler) StartLoan(c *gin.Context) {
	var req StartLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	loan, err := h.loanService.StartLoan(c.Request.Context(), service.StartLoanRequest{
		UserID:           req.UserID,
		TransportID:      req.TransportID,
		OriginStationID:  req.OriginStationID,
		EstimatedMinutes: req.EstimatedMinutes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toLoanResponse(loan))
}

// CompleteLoan handles POST /v1/loans/:id/complete
func (h *LoanHandler) CompleteLoan(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidLoanID)
		return
	}

	var req CompleteLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.loanService.CompleteLoan(c.Request.Context(), service.CompleteLoanRequest{
		LoanID:               loanID,
		DestinationStationID: req.DestinationStationID,
		PaymentMethod:        domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := CompleteLoanResult{
		Loan: toLoanResponse(result.Loan),
		Fare: FareInfo{
			BaseRate:        result.Fare.BaseRate,
			DurationMinutes: result.Fare.DurationMinutes,
			Subtotal:        result.Fare.Subtotal,
			Discounts:       result.Fare.Discounts,
			Taxes:           result.Fare.Taxes,
			TotalCost:       result.Fare.TotalCost,
		},
	}

	if result.Payment != nil {
		response.Payment = &PaymentInfo{
			ID:     result.Payment.ID,
			Amount: result.Payment.Amount,
			Method: string(result.Payment.Method),
			Status: string(result.Payment.Status),
		}
	}

	if result.Receipt != nil {
		response.Receipt = &ReceiptInfo{
			ID:        result.Receipt.ID,
			TotalCost: result.Receipt.Fare.TotalCost,
			IssuedAt:  result.Receipt.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	respondJSON(c, http.StatusOK, response)
}

// CancelLoan handles POST /v1/loans/:id/cancel
func (h *LoanHandler) CancelLoan(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidLoanID)
		return
	}

	var req CancelLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBadRequest(c, "invalid request body")
		return
	}

	loan, err := h.loanService.CancelLoan(c.Request.Context(), service.CancelLoanRequest{
		LoanID: loanID,
		Reason: req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLoanResponse(loan))
}

// ExtendLoan handles POST /v1/loans/:id/extend
func (h *LoanHandler) ExtendLoan(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidLoanID)
		return
	}

	var req ExtendLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.loanService.ExtendLoan(c.Request.Context(), service.ExtendLoanRequest{
		LoanID:            loanID,
		AdditionalMinutes: req.AdditionalMinutes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ExtendLoanResult{
		Loan:           toLoanResponse(result.Loan),
		AdditionalCost: result.AdditionalCost,
	})
}

// GetLoan handles GET /v1/loans/:id
func (h *LoanHandler) GetLoan(c *gin.Context) {
	loanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidLoanID)
		return
	}

	loan, err := h.loanService.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLoanResponse(loan))
}

// ListLoans handles GET /v1/loans
func (h *LoanHandler) ListLoans(c *gin.Context) {
	loans, err := h.loanService.GetAllLoans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		responses = append(responses, toLoanResponse(loan))
	}

	respondJSON(c, http.StatusOK, responses)
}
