package scheduling

import (
	"time"

	"booking-core/internal/domain/reservation"

	"github.com/google/uuid"
)

// UnitConfig is the validation-relevant snapshot of a reservation unit.
// The validator never touches storage; callers load one of these per
// unit being booked.
type UnitConfig struct {
	ID   uuid.UUID
	Name string

	MinReservationDuration time.Duration // zero means no minimum
	MaxReservationDuration time.Duration // zero means no maximum
	BufferBefore           time.Duration
	BufferAfter            time.Duration
	StartInterval          time.Duration

	ReservationsMaxDaysBefore int // zero means unlimited
	ReservationsMinDaysBefore int

	ReservationBegins *time.Time
	ReservationEnds   *time.Time
	PublishBegins     *time.Time
	PublishEnds       *time.Time
	IsDraft           bool
	IsArchived        bool

	AllowReservationsWithoutOpeningHours bool
	ReservationBlockWholeDay             bool

	// Location is the unit's local timezone, used for interval
	// alignment, day-count checks and whole-day buffers. Nil means UTC.
	Location *time.Location

	Pricings []PricingRecord
}

func (u UnitConfig) location() *time.Location {
	if u.Location == nil {
		return time.UTC
	}
	return u.Location
}

// Candidate is the reservation being validated.
type Candidate struct {
	Begin time.Time
	End   time.Time
	Type  reservation.Type

	// Buffer overrides from the request; nil falls back to unit buffers.
	BufferBefore *time.Duration
	BufferAfter  *time.Duration

	// AdjustedID excludes the reservation being moved from overlap
	// checks against itself.
	AdjustedID *uuid.UUID
}

// BookedSpan is an existing reservation as seen by the overlap check,
// on the target unit or on a unit sharing physical space with it.
type BookedSpan struct {
	ID           uuid.UUID
	Begin        time.Time
	End          time.Time
	BufferBefore time.Duration
	BufferAfter  time.Duration
	Type         reservation.Type
	State        reservation.State
}

// ReservableSpan is one reservable range reported by the opening-hours
// provider for the unit's resource.
type ReservableSpan struct {
	Start time.Time
	End   time.Time
}

// RoundWindow is an application round's reservation period as it
// affects direct booking: while the round is open, units inside it are
// off-limits for the overlapping period.
type RoundWindow struct {
	Begin time.Time
	End   time.Time
	Open  bool
}

// NormalizedReservation is a successful validation outcome: the slot,
// the effective buffers, and the computed price.
type NormalizedReservation struct {
	Begin        time.Time
	End          time.Time
	BufferBefore time.Duration
	BufferAfter  time.Duration
	Price        reservation.PriceBreakdown
}
