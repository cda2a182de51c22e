package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUserID is returned when the user ID is missing or non-positive.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidTransportID is returned when the transport ID is missing or non-positive.
	ErrInvalidTransportID = errors.New("invalid transport id")

	// ErrInvalidStationID is returned when the station ID is missing or non-positive.
	ErrInvalidStationID = errors.New("invalid station id")

	// ErrInvalidLoanID is returned when the loan ID is missing or non-positive.
	ErrInvalidLoanID = errors.New("invalid loan id")

	// ErrInvalidStationData is returned when a station registration is
	// missing a name or a positive capacity.
	ErrInvalidStationData = errors.New("invalid station data")

	// ErrInvalidDuration is returned when a duration in minutes is not positive.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidPaymentID is returned when the payment ID is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidPaymentAmount is returned when the payment amount is negative.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")

	// ErrInvalidTransportType is returned when the transport type is unknown.
	ErrInvalidTransportType = errors.New("invalid transport type")

	// ErrInvalidTransportStatus is returned when a status transition names a
	// status that cannot be set through the transport service.
	ErrInvalidTransportStatus = errors.New("invalid transport status")

	// ErrUserNotFound is returned when a user lookup misses on a read path.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserNotEligible is returned when the user does not exist or the
	// account is not active.
	ErrUserNotEligible = errors.New("user is not eligible to start a loan")

	// ErrUserHasActiveLoan is returned when the user already holds a loan in
	// active or extended status. The concrete error carries the conflicting
	// loan's ID.
	ErrUserHasActiveLoan = errors.New("user already has an active loan")

	// ErrConcurrentStart is returned when another loan start for the same
	// user is in flight.
	ErrConcurrentStart = errors.New("another loan start for this user is in progress")

	// ErrTransportNotFound is returned when the transport does not exist.
	ErrTransportNotFound = errors.New("transport not found")

	// ErrTransportUnavailable is returned when the transport is not in
	// available status.
	ErrTransportUnavailable = errors.New("transport is not available")

	// ErrTransportStationMismatch is returned when the transport is not at
	// the declared origin station.
	ErrTransportStationMismatch = errors.New("transport is not at the declared origin station")

	// ErrTransportInUse is returned when a status change is attempted on a
	// transport that is out on a loan.
	ErrTransportInUse = errors.New("transport is in use")

	// ErrInsufficientBattery is returned when an electric transport's battery
	// is below the minimum for starting a loan.
	ErrInsufficientBattery = errors.New("insufficient battery to start a loan")

	// ErrStationNotFound is returned when the station does not exist.
	ErrStationNotFound = errors.New("station not found")

	// ErrLoanNotFound is returned when the loan does not exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrLoanNotActive is returned when completing or extending a loan that
	// is not in active status.
	ErrLoanNotActive = errors.New("loan is not active")

	// ErrOnlyActiveCancellable is returned when cancelling a loan that is not
	// in active status.
	ErrOnlyActiveCancellable = errors.New("only active loans can be cancelled")
)

// ActiveLoanError reports the loan that blocks a new start for the user.
// It matches ErrUserHasActiveLoan under errors.Is.
type ActiveLoanError struct {
	LoanID int64
}

func (e *ActiveLoanError) Error() string {
	return fmt.Sprintf("user already has an active loan (loan %d)", e.LoanID)
}

func (e *ActiveLoanError) Is(target error) bool {
	return target == ErrUserHasActiveLoan
}

// ErrorCode maps a service error to a stable machine-readable code for the
// response envelope. Returns "" for errors without a code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidUserID):
		return "INVALID_USER_ID"
	case errors.Is(err, ErrInvalidTransportID):
		return "INVALID_TRANSPORT_ID"
	case errors.Is(err, ErrInvalidStationID):
		return "INVALID_STATION_ID"
	case errors.Is(err, ErrInvalidLoanID):
		return "INVALID_LOAN_ID"
	case errors.Is(err, ErrInvalidStationData):
		return "INVALID_STATION_DATA"
	case errors.Is(err, ErrInvalidDuration):
		return "INVALID_DURATION"
	case errors.Is(err, ErrInvalidPaymentMethod):
		return "INVALID_PAYMENT_METHOD"
	case errors.Is(err, ErrInvalidPaymentID):
		return "INVALID_PAYMENT_ID"
	case errors.Is(err, ErrInvalidPaymentAmount):
		return "INVALID_PAYMENT_AMOUNT"
	case errors.Is(err, ErrInvalidTransportType):
		return "INVALID_TRANSPORT_TYPE"
	case errors.Is(err, ErrInvalidTransportStatus):
		return "INVALID_TRANSPORT_STATUS"
	case errors.Is(err, ErrUserNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, ErrUserNotEligible):
		return "USER_NOT_ELIGIBLE"
	case errors.Is(err, ErrUserHasActiveLoan):
		return "CONCURRENT_LOAN_EXISTS"
	case errors.Is(err, ErrConcurrentStart):
		return "CONCURRENT_START"
	case errors.Is(err, ErrTransportNotFound):
		return "TRANSPORT_NOT_FOUND"
	case errors.Is(err, ErrTransportUnavailable):
		return "TRANSPORT_UNAVAILABLE"
	case errors.Is(err, ErrTransportStationMismatch):
		return "TRANSPORT_STATION_MISMATCH"
	case errors.Is(err, ErrTransportInUse):
		return "TRANSPORT_IN_USE"
	case errors.Is(err, ErrInsufficientBattery):
		return "INSUFFICIENT_BATTERY"
	case errors.Is(err, ErrStationNotFound):
		return "STATION_NOT_FOUND"
	case errors.Is(err, ErrLoanNotFound):
		return "LOAN_NOT_FOUND"
	case errors.Is(err, ErrLoanNotActive):
		return "LOAN_NOT_ACTIVE"
	case errors.Is(err, ErrOnlyActiveCancellable):
		return "ONLY_ACTIVE_CANCELLABLE"
	default:
		return ""
	}
}
