package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecomove/internal/repository"
	"ecomove/internal/service"
)

// Envelope is the JSON envelope every endpoint responds with.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// respondJSON sends a success envelope with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, Envelope{Success: true, Data: data})
}

// respondError sends a failure envelope with the appropriate HTTP status
// code. Unrecognized errors surface as a generic 500 so infrastructure
// detail never reaches the client.
func respondError(c *gin.Context, err error) {
	status := mapErrorToHTTPStatus(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Code:    service.ErrorCode(err),
	})
}

// respondBadRequest sends a 400 failure envelope for malformed input.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Message: message})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrLoanNotFound),
		errors.Is(err, service.ErrTransportNotFound),
		errors.Is(err, service.ErrStationNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidTransportID),
		errors.Is(err, service.ErrInvalidStationID),
		errors.Is(err, service.ErrInvalidLoanID),
		errors.Is(err, service.ErrInvalidStationData),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidPaymentAmount),
		errors.Is(err, service.ErrInvalidTransportType),
		errors.Is(err, service.ErrInvalidTransportStatus):
		return http.StatusBadRequest

	// Business-rule conflicts
	case errors.Is(err, service.ErrUserNotEligible),
		errors.Is(err, service.ErrUserHasActiveLoan),
		errors.Is(err, service.ErrConcurrentStart),
		errors.Is(err, service.ErrTransportUnavailable),
		errors.Is(err, service.ErrTransportStationMismatch),
		errors.Is(err, service.ErrTransportInUse),
		errors.Is(err, service.ErrInsufficientBattery),
		errors.Is(err, service.ErrLoanNotActive),
		errors.Is(err, service.ErrOnlyActiveCancellable):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
