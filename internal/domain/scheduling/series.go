package scheduling

import (
	"time"

	"booking-core/internal/domain/reservation"
)

// SeriesSpec is an allocated recurring pattern: one weekday and time
// of day, repeated weekly (or biweekly) across a date range.
type SeriesSpec struct {
	Begin    time.Time // first date of the range, inclusive
	End      time.Time // last date of the range, inclusive
	Weekday  time.Weekday
	Start    time.Duration // offset from local midnight
	Duration time.Duration
	Biweekly bool
	Location *time.Location
}

type Occurrence struct {
	Begin time.Time
	End   time.Time
}

// OccurrenceResult is the per-occurrence outcome of applying a series.
// A failed occurrence carries its rejection reason; the caller records
// it as a denied reservation and keeps going.
type OccurrenceResult struct {
	Occurrence Occurrence
	Normalized *NormalizedReservation
	Err        error
}

func (r OccurrenceResult) Accepted() bool {
	return r.Err == nil
}

// Occurrences expands the spec into concrete time ranges, stepping one
// week at a time (two if biweekly) from the first matching weekday.
func (s SeriesSpec) Occurrences() []Occurrence {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	step := 7
	if s.Biweekly {
		step = 14
	}

	first := time.Date(s.Begin.Year(), s.Begin.Month(), s.Begin.Day(), 0, 0, 0, 0, loc)
	last := time.Date(s.End.Year(), s.End.Month(), s.End.Day(), 0, 0, 0, 0, loc)

	for first.Weekday() != s.Weekday {
		first = first.AddDate(0, 0, 1)
	}

	var out []Occurrence
	for date := first; !date.After(last); date = date.AddDate(0, 0, step) {
		begin := date.Add(s.Start)
		out = append(out, Occurrence{Begin: begin, End: begin.Add(s.Duration)})
	}
	return out
}

// ApplySeries validates every occurrence of the series independently.
// Partial success is expected: one denied occurrence never blocks the
// rest, and nothing is rolled back.
func (v *Validator) ApplySeries(
	spec SeriesSpec,
	units []UnitConfig,
	existing []BookedSpan,
	spans []ReservableSpan,
	rounds []RoundWindow,
) []OccurrenceResult {
	occurrences := spec.Occurrences()
	results := make([]OccurrenceResult, 0, len(occurrences))

	for _, occ := range occurrences {
		cand := Candidate{
			Begin: occ.Begin,
			End:   occ.End,
			Type:  reservation.TypeSeasonal,
		}
		normalized, err := v.Validate(units, cand, existing, spans, rounds)
		results = append(results, OccurrenceResult{
			Occurrence: occ,
			Normalized: normalized,
			Err:        err,
		})
	}
	return results
}
