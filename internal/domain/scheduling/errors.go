package scheduling

import "errors"

// Rejection reasons returned by the validator. These are ordinary
// control flow: an overlapping reservation is a standard rejection,
// not an exceptional condition.
var (
	ErrDurationTooShort    = errors.New("reservation duration is below the unit minimum")
	ErrDurationTooLong     = errors.New("reservation duration exceeds the unit maximum")
	ErrIntervalMismatch    = errors.New("begin time is not aligned to the reservation start interval")
	ErrOutsideOpeningHours = errors.New("requested range is outside reservable opening hours")
	ErrUnitNotReservable   = errors.New("reservation unit is not currently reservable")
	ErrTooFarInAdvance     = errors.New("reservation begins too many days ahead")
	ErrTooSoon             = errors.New("reservation begins too soon")
	ErrOpenApplicationRound = errors.New("reservation unit is in an open application round")
	ErrOverlap              = errors.New("overlapping reservation")
)
