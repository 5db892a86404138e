package scheduling

import (
	"sort"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/pkg/clock"
)

// Alignment is checked against at most 30 minutes even when the unit
// uses a longer start interval.
const maxAlignmentInterval = 30 * time.Minute

// Validator decides whether a candidate reservation may occupy its
// slot. It is pure: all state arrives as arguments, the current time
// comes from the injected clock, and the caller persists the result.
type Validator struct {
	clock clock.Clock
}

func NewValidator(c clock.Clock) *Validator {
	return &Validator{clock: c}
}

// Validate runs the full rule set for a candidate against one or more
// units booked together. On success it returns the normalized slot
// with effective buffers and the computed price; on failure it returns
// one of the rejection reasons from errors.go.
func (v *Validator) Validate(
	units []UnitConfig,
	cand Candidate,
	existing []BookedSpan,
	spans []ReservableSpan,
	rounds []RoundWindow,
) (*NormalizedReservation, error) {
	if len(units) == 0 {
		return nil, ErrUnitNotReservable
	}
	now := v.clock.Now()

	for _, unit := range units {
		if err := checkDuration(unit, cand); err != nil {
			return nil, err
		}
		if err := checkInterval(unit, cand); err != nil {
			return nil, err
		}
		if err := checkReservable(unit, cand); err != nil {
			return nil, err
		}
		if err := checkAdvance(unit, cand, now); err != nil {
			return nil, err
		}
	}

	if err := checkOpeningHours(units, cand, spans); err != nil {
		return nil, err
	}

	for _, round := range rounds {
		if round.Open && cand.Begin.Before(round.End) && round.Begin.Before(cand.End) {
			return nil, ErrOpenApplicationRound
		}
	}

	before, after := effectiveBuffers(units, cand)

	if err := checkOverlap(cand, before, after, existing); err != nil {
		return nil, err
	}

	return &NormalizedReservation{
		Begin:        cand.Begin,
		End:          cand.End,
		BufferBefore: before,
		BufferAfter:  after,
		Price:        CalculatePrice(units, cand.Begin, cand.End),
	}, nil
}

func checkDuration(unit UnitConfig, cand Candidate) error {
	duration := cand.End.Sub(cand.Begin)
	if unit.MinReservationDuration > 0 && duration < unit.MinReservationDuration {
		return ErrDurationTooShort
	}
	if unit.MaxReservationDuration > 0 && duration > unit.MaxReservationDuration {
		return ErrDurationTooLong
	}
	return nil
}

func checkInterval(unit UnitConfig, cand Candidate) error {
	interval := unit.StartInterval
	if interval <= 0 {
		return nil
	}
	if interval > maxAlignmentInterval {
		interval = maxAlignmentInterval
	}

	local := cand.Begin.In(unit.location())
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return ErrIntervalMismatch
	}
	offset := time.Duration(local.Minute()) * time.Minute
	if offset%interval != 0 {
		return ErrIntervalMismatch
	}
	return nil
}

func checkReservable(unit UnitConfig, cand Candidate) error {
	if unit.IsDraft || unit.IsArchived {
		return ErrUnitNotReservable
	}
	windows := [][2]*time.Time{
		{unit.ReservationBegins, unit.ReservationEnds},
		{unit.PublishBegins, unit.PublishEnds},
	}
	for _, w := range windows {
		if w[0] != nil && cand.Begin.Before(*w[0]) {
			return ErrUnitNotReservable
		}
		if w[1] != nil && cand.End.After(*w[1]) {
			return ErrUnitNotReservable
		}
	}
	return nil
}

func checkAdvance(unit UnitConfig, cand Candidate, now time.Time) error {
	if cand.Begin.Before(now) {
		return ErrTooSoon
	}

	loc := unit.location()
	days := daysBetween(now.In(loc), cand.Begin.In(loc))

	if unit.ReservationsMaxDaysBefore > 0 && days > unit.ReservationsMaxDaysBefore {
		return ErrTooFarInAdvance
	}
	if days < unit.ReservationsMinDaysBefore {
		return ErrTooSoon
	}
	return nil
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	aDate := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDate := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDate.Sub(aDate) / (24 * time.Hour))
}

func checkOpeningHours(units []UnitConfig, cand Candidate, spans []ReservableSpan) error {
	allAllow := true
	for _, unit := range units {
		if !unit.AllowReservationsWithoutOpeningHours {
			allAllow = false
			break
		}
	}
	if allAllow {
		return nil
	}

	if covered(spans, cand.Begin, cand.End) {
		return nil
	}
	return ErrOutsideOpeningHours
}

// covered reports whether [begin, end) lies inside the union of spans.
func covered(spans []ReservableSpan, begin, end time.Time) bool {
	if len(spans) == 0 {
		return false
	}

	merged := make([]ReservableSpan, len(spans))
	copy(merged, spans)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start.Before(merged[j].Start) })

	current := merged[0]
	for _, span := range merged[1:] {
		if !span.Start.After(current.End) {
			if span.End.After(current.End) {
				current.End = span.End
			}
			continue
		}
		if !current.Start.After(begin) && !current.End.Before(end) {
			return true
		}
		current = span
	}
	return !current.Start.After(begin) && !current.End.Before(end)
}

// effectiveBuffers resolves the buffer times for the candidate: the
// longest configured buffer across the units booked together, replaced
// by explicit request overrides, all overridden by whole-day blocking.
func effectiveBuffers(units []UnitConfig, cand Candidate) (before, after time.Duration) {
	blockWholeDay := false
	var loc *time.Location
	for _, unit := range units {
		if unit.BufferBefore > before {
			before = unit.BufferBefore
		}
		if unit.BufferAfter > after {
			after = unit.BufferAfter
		}
		if unit.ReservationBlockWholeDay {
			blockWholeDay = true
			loc = unit.location()
		}
	}

	if cand.BufferBefore != nil {
		before = *cand.BufferBefore
	}
	if cand.BufferAfter != nil {
		after = *cand.BufferAfter
	}

	if blockWholeDay {
		before = sinceMidnight(cand.Begin, loc)
		after = untilMidnight(cand.End, loc)
	}
	return before, after
}

func sinceMidnight(t time.Time, loc *time.Location) time.Duration {
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return local.Sub(midnight)
}

func untilMidnight(t time.Time, loc *time.Location) time.Duration {
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.After(midnight) {
		midnight = midnight.AddDate(0, 0, 1)
	}
	return midnight.Sub(local)
}

// checkOverlap applies the pairwise buffer rule: the gap between two
// reservations must satisfy the larger of the two buffers facing it.
// Blocked reservations only conflict with other blocked reservations.
func checkOverlap(cand Candidate, before, after time.Duration, existing []BookedSpan) error {
	for _, ex := range existing {
		if cand.AdjustedID != nil && ex.ID == *cand.AdjustedID {
			continue
		}
		if !ex.State.IsActive() {
			continue
		}
		if ex.Type == reservation.TypeBlocked && cand.Type == reservation.TypeBlocked {
			// Blocked maintenance holds may stack on each other.
			continue
		}

		gapBefore := maxDuration(before, ex.BufferAfter)
		gapAfter := maxDuration(after, ex.BufferBefore)

		if ex.End.Add(gapBefore).After(cand.Begin) && ex.Begin.Add(-gapAfter).Before(cand.End) {
			return ErrOverlap
		}
	}
	return nil
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
