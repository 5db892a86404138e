package scheduling

import (
	"time"

	"booking-core/internal/domain/reservation"
)

const defaultSlotInterval = 30 * time.Minute

// AvailableStartTimes lists the begin times within the reservable
// spans of a single day where a reservation of the given duration
// would pass the overlap and buffer checks. Used by the availability
// endpoint to render a day's free slots.
func (v *Validator) AvailableStartTimes(
	unit UnitConfig,
	duration time.Duration,
	existing []BookedSpan,
	spans []ReservableSpan,
) []time.Time {
	interval := unit.StartInterval
	if interval <= 0 {
		interval = defaultSlotInterval
	}
	if duration <= 0 {
		duration = interval
	}
	if unit.MinReservationDuration > duration {
		duration = unit.MinReservationDuration
	}

	now := v.clock.Now()
	units := []UnitConfig{unit}

	var out []time.Time
	for _, span := range spans {
		for start := span.Start; !start.Add(duration).After(span.End); start = start.Add(interval) {
			if start.Before(now) {
				continue
			}
			cand := Candidate{Begin: start, End: start.Add(duration), Type: reservation.TypeNormal}
			// Buffers depend on the candidate: whole-day blocking
			// stretches them to the local midnights around the slot.
			before, after := effectiveBuffers(units, cand)
			if err := checkOverlap(cand, before, after, existing); err != nil {
				continue
			}
			out = append(out, start)
		}
	}
	return out
}
