package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecomove/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// PaymentResponse is the HTTP response for payment data.
type PaymentResponse struct {
	ID     string  `json:"id"`
	LoanID int64   `json:"loan_id"`
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Status string  `json:"status"`
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		ID:     payment.ID,
		LoanID: payment.LoanID,
		Amount: payment.Amount,
		Method: string(payment.Method),
		Status: string(payment.Status),
	})
}
