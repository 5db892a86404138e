package errs

import "errors"

// Sentinel errors shared between usecase layers and handlers.
var (
	// Reservation unit errors
	ErrReservationUnitNotFound = errors.New("reservation unit not found")

	// Reservation errors
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationConflict  = errors.New("reservation conflict")
	ErrDuplicateReservation = errors.New("duplicate reservation")
	ErrInvalidTimeSlot      = errors.New("invalid time slot")

	// Application errors
	ErrApplicationNotFound = errors.New("application not found")
	ErrSectionNotFound     = errors.New("application section not found")
	ErrAllocationNotFound  = errors.New("allocated time slot not found")
	ErrStatusConflict      = errors.New("status conflict")

	// Idempotency errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyInProgress  = errors.New("idempotency in progress")
	ErrIdempotencyCheckFailed = errors.New("idempotency check failed")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Authorization errors
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("operation not allowed for this user")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
	ErrOpeningHoursUnavailable = errors.New("opening hours provider unavailable")
)
