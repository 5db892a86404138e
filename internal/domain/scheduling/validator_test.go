package scheduling_test

import (
	"testing"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/domain/scheduling"
	"booking-core/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var helsinki = mustLoadLocation("Europe/Helsinki")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Fixed "now" for every test: Monday 2024-06-03 09:00 local.
var testNow = time.Date(2024, 6, 3, 9, 0, 0, 0, helsinki)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, helsinki)
}

func baseUnit() scheduling.UnitConfig {
	return scheduling.UnitConfig{
		ID:                     uuid.New(),
		Name:                   "Meeting room A",
		MinReservationDuration: time.Hour,
		MaxReservationDuration: 2 * time.Hour,
		StartInterval:          15 * time.Minute,
		Location:               helsinki,
	}
}

// openDay covers 10:00-22:00 on the given day.
func openDay(day int) []scheduling.ReservableSpan {
	return []scheduling.ReservableSpan{{Start: at(day, 10, 0), End: at(day, 22, 0)}}
}

func confirmedSpan(begin, end time.Time) scheduling.BookedSpan {
	return scheduling.BookedSpan{
		ID:    uuid.New(),
		Begin: begin,
		End:   end,
		Type:  reservation.TypeNormal,
		State: reservation.StateConfirmed,
	}
}

func newValidator() *scheduling.Validator {
	return scheduling.NewValidator(clock.NewMockClock(testNow))
}

func TestValidate_ExampleScenario(t *testing.T) {
	v := newValidator()
	unit := baseUnit()
	existing := []scheduling.BookedSpan{confirmedSpan(at(3, 12, 0), at(3, 13, 0))}
	spans := append(openDay(3), openDay(4)...)

	tests := []struct {
		name  string
		begin time.Time
		end   time.Time
		errIs error
	}{
		{
			name:  "slot right after an existing reservation is accepted",
			begin: at(3, 13, 0),
			end:   at(3, 14, 0),
		},
		{
			name:  "slot crossing an existing reservation is rejected",
			begin: at(3, 12, 30),
			end:   at(3, 13, 30),
			errIs: scheduling.ErrOverlap,
		},
		{
			// Next morning, so the slot is in the future and only the
			// opening-hours check can reject it.
			name:  "slot before opening hours is rejected",
			begin: at(4, 8, 0),
			end:   at(4, 9, 0),
			errIs: scheduling.ErrOutsideOpeningHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := scheduling.Candidate{Begin: tt.begin, End: tt.end, Type: reservation.TypeNormal}
			got, err := v.Validate([]scheduling.UnitConfig{unit}, cand, existing, spans, nil)

			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.begin, got.Begin)
			assert.Equal(t, tt.end, got.End)
		})
	}

	t.Run("same inputs give the same result", func(t *testing.T) {
		cand := scheduling.Candidate{Begin: at(4, 8, 0), End: at(4, 9, 0), Type: reservation.TypeNormal}
		_, err1 := v.Validate([]scheduling.UnitConfig{unit}, cand, existing, spans, nil)
		_, err2 := v.Validate([]scheduling.UnitConfig{unit}, cand, existing, spans, nil)
		assert.Equal(t, err1, err2)
	})
}

func TestValidate_Duration(t *testing.T) {
	v := newValidator()
	unit := baseUnit()

	tests := []struct {
		name  string
		end   time.Time
		errIs error
	}{
		{name: "below minimum", end: at(3, 13, 30), errIs: scheduling.ErrDurationTooShort},
		{name: "at minimum", end: at(3, 14, 0)},
		{name: "at maximum", end: at(3, 15, 0)},
		{name: "above maximum", end: at(3, 15, 15), errIs: scheduling.ErrDurationTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := scheduling.Candidate{Begin: at(3, 13, 0), End: tt.end, Type: reservation.TypeNormal}
			_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(3), nil)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_IntervalAlignment(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name     string
		interval time.Duration
		begin    time.Time
		errIs    error
	}{
		{name: "aligned to 15 minutes", interval: 15 * time.Minute, begin: at(3, 13, 45)},
		{name: "not aligned to 15 minutes", interval: 15 * time.Minute, begin: at(3, 13, 50), errIs: scheduling.ErrIntervalMismatch},
		{name: "not aligned to 30 minutes", interval: 30 * time.Minute, begin: at(3, 13, 15), errIs: scheduling.ErrIntervalMismatch},
		{name: "intervals above 30 minutes are treated as 30", interval: 60 * time.Minute, begin: at(3, 13, 30)},
		{name: "quarter past fails a 60 minute interval", interval: 60 * time.Minute, begin: at(3, 13, 15), errIs: scheduling.ErrIntervalMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := baseUnit()
			unit.StartInterval = tt.interval
			cand := scheduling.Candidate{Begin: tt.begin, End: tt.begin.Add(time.Hour), Type: reservation.TypeNormal}
			_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(3), nil)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_Buffers(t *testing.T) {
	v := newValidator()

	t.Run("larger of the two buffers applies between reservations", func(t *testing.T) {
		unit := baseUnit()
		existing := confirmedSpan(at(3, 12, 0), at(3, 13, 0))
		existing.BufferAfter = 30 * time.Minute

		// 13:00-14:00 sits inside the existing reservation's after-buffer.
		cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, []scheduling.BookedSpan{existing}, openDay(3), nil)
		require.ErrorIs(t, err, scheduling.ErrOverlap)

		// 13:30 clears the buffer.
		cand = scheduling.Candidate{Begin: at(3, 13, 30), End: at(3, 14, 30), Type: reservation.TypeNormal}
		_, err = v.Validate([]scheduling.UnitConfig{unit}, cand, []scheduling.BookedSpan{existing}, openDay(3), nil)
		require.NoError(t, err)
	})

	t.Run("candidate buffer before collides with earlier reservation", func(t *testing.T) {
		unit := baseUnit()
		unit.BufferBefore = 30 * time.Minute
		existing := confirmedSpan(at(3, 12, 0), at(3, 13, 0))

		cand := scheduling.Candidate{Begin: at(3, 13, 15), End: at(3, 14, 15), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, []scheduling.BookedSpan{existing}, openDay(3), nil)
		require.ErrorIs(t, err, scheduling.ErrOverlap)
	})

	t.Run("longest buffer across units booked together wins", func(t *testing.T) {
		first := baseUnit()
		second := baseUnit()
		second.BufferBefore = time.Hour

		cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeNormal}
		got, err := v.Validate([]scheduling.UnitConfig{first, second}, cand, nil, openDay(3), nil)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, got.BufferBefore)
		assert.Equal(t, time.Duration(0), got.BufferAfter)
	})

	t.Run("whole day blocking extends buffers to midnight", func(t *testing.T) {
		unit := baseUnit()
		unit.ReservationBlockWholeDay = true

		cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeNormal}
		got, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(3), nil)
		require.NoError(t, err)
		assert.Equal(t, 13*time.Hour, got.BufferBefore)
		assert.Equal(t, 10*time.Hour, got.BufferAfter)
	})
}

func TestValidate_BlockedReservations(t *testing.T) {
	v := newValidator()
	unit := baseUnit()
	blocked := confirmedSpan(at(3, 12, 0), at(3, 14, 0))
	blocked.Type = reservation.TypeBlocked

	t.Run("normal candidate still conflicts with a blocked reservation", func(t *testing.T) {
		cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, []scheduling.BookedSpan{blocked}, openDay(3), nil)
		require.ErrorIs(t, err, scheduling.ErrOverlap)
	})

	t.Run("blocked candidate may overlap a blocked reservation", func(t *testing.T) {
		cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeBlocked}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, []scheduling.BookedSpan{blocked}, openDay(3), nil)
		require.NoError(t, err)
	})
}

func TestValidate_InactiveReservationsReleaseTheSlot(t *testing.T) {
	v := newValidator()
	unit := baseUnit()

	for _, state := range []reservation.State{reservation.StateDenied, reservation.StateCancelled} {
		t.Run(string(state), func(t *testing.T) {
			existing := confirmedSpan(at(3, 12, 0), at(3, 14, 0))
			existing.State = state

			cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeNormal}
			_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, []scheduling.BookedSpan{existing}, openDay(3), nil)
			require.NoError(t, err)
		})
	}
}

func TestValidate_AdjustExcludesSelf(t *testing.T) {
	v := newValidator()
	unit := baseUnit()
	own := confirmedSpan(at(3, 12, 0), at(3, 13, 0))

	cand := scheduling.Candidate{
		Begin:      at(3, 12, 30),
		End:        at(3, 13, 30),
		Type:       reservation.TypeNormal,
		AdjustedID: &own.ID,
	}
	_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, []scheduling.BookedSpan{own}, openDay(3), nil)
	require.NoError(t, err)
}

func TestValidate_UnitReservability(t *testing.T) {
	v := newValidator()

	begin := at(3, 13, 0)
	end := at(3, 14, 0)

	tests := []struct {
		name   string
		mutate func(*scheduling.UnitConfig)
		errIs  error
	}{
		{
			name:   "draft unit",
			mutate: func(u *scheduling.UnitConfig) { u.IsDraft = true },
			errIs:  scheduling.ErrUnitNotReservable,
		},
		{
			name:   "archived unit",
			mutate: func(u *scheduling.UnitConfig) { u.IsArchived = true },
			errIs:  scheduling.ErrUnitNotReservable,
		},
		{
			name: "reservation window not yet open",
			mutate: func(u *scheduling.UnitConfig) {
				begins := at(10, 0, 0)
				u.ReservationBegins = &begins
			},
			errIs: scheduling.ErrUnitNotReservable,
		},
		{
			name: "reservation window already closed",
			mutate: func(u *scheduling.UnitConfig) {
				ends := at(3, 13, 30)
				u.ReservationEnds = &ends
			},
			errIs: scheduling.ErrUnitNotReservable,
		},
		{
			name: "publish window closed",
			mutate: func(u *scheduling.UnitConfig) {
				ends := at(1, 0, 0)
				u.PublishEnds = &ends
			},
			errIs: scheduling.ErrUnitNotReservable,
		},
		{
			name:   "open windows pass",
			mutate: func(_ *scheduling.UnitConfig) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := baseUnit()
			tt.mutate(&unit)
			cand := scheduling.Candidate{Begin: begin, End: end, Type: reservation.TypeNormal}
			_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(3), nil)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_AdvanceWindows(t *testing.T) {
	v := newValidator()

	t.Run("too far in advance", func(t *testing.T) {
		unit := baseUnit()
		unit.ReservationsMaxDaysBefore = 7
		cand := scheduling.Candidate{Begin: at(20, 13, 0), End: at(20, 14, 0), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(20), nil)
		require.ErrorIs(t, err, scheduling.ErrTooFarInAdvance)
	})

	t.Run("too soon", func(t *testing.T) {
		unit := baseUnit()
		unit.ReservationsMinDaysBefore = 2
		cand := scheduling.Candidate{Begin: at(4, 13, 0), End: at(4, 14, 0), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(4), nil)
		require.ErrorIs(t, err, scheduling.ErrTooSoon)
	})

	t.Run("begin in the past", func(t *testing.T) {
		unit := baseUnit()
		cand := scheduling.Candidate{Begin: at(1, 13, 0), End: at(1, 14, 0), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(1), nil)
		require.ErrorIs(t, err, scheduling.ErrTooSoon)
	})
}

func TestValidate_OpenApplicationRound(t *testing.T) {
	v := newValidator()
	unit := baseUnit()
	cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeNormal}

	t.Run("open round covering the slot blocks direct booking", func(t *testing.T) {
		rounds := []scheduling.RoundWindow{{Begin: at(1, 0, 0), End: at(30, 0, 0), Open: true}}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(3), rounds)
		require.ErrorIs(t, err, scheduling.ErrOpenApplicationRound)
	})

	t.Run("closed round is ignored", func(t *testing.T) {
		rounds := []scheduling.RoundWindow{{Begin: at(1, 0, 0), End: at(30, 0, 0), Open: false}}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(3), rounds)
		require.NoError(t, err)
	})

	t.Run("open round elsewhere in the calendar is ignored", func(t *testing.T) {
		rounds := []scheduling.RoundWindow{{Begin: at(20, 0, 0), End: at(30, 0, 0), Open: true}}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, openDay(3), rounds)
		require.NoError(t, err)
	})
}

func TestValidate_OpeningHours(t *testing.T) {
	v := newValidator()

	t.Run("unit allowing reservations without opening hours skips the check", func(t *testing.T) {
		unit := baseUnit()
		unit.AllowReservationsWithoutOpeningHours = true
		cand := scheduling.Candidate{Begin: at(3, 13, 0), End: at(3, 14, 0), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, nil, nil)
		require.NoError(t, err)
	})

	t.Run("range spanning two touching spans is covered", func(t *testing.T) {
		unit := baseUnit()
		spans := []scheduling.ReservableSpan{
			{Start: at(3, 10, 0), End: at(3, 13, 0)},
			{Start: at(3, 13, 0), End: at(3, 22, 0)},
		}
		cand := scheduling.Candidate{Begin: at(3, 12, 30), End: at(3, 13, 30), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, spans, nil)
		require.NoError(t, err)
	})

	t.Run("range crossing a gap between spans is rejected", func(t *testing.T) {
		unit := baseUnit()
		spans := []scheduling.ReservableSpan{
			{Start: at(3, 10, 0), End: at(3, 13, 0)},
			{Start: at(3, 14, 0), End: at(3, 22, 0)},
		}
		cand := scheduling.Candidate{Begin: at(3, 12, 30), End: at(3, 13, 30), Type: reservation.TypeNormal}
		_, err := v.Validate([]scheduling.UnitConfig{unit}, cand, nil, spans, nil)
		require.ErrorIs(t, err, scheduling.ErrOutsideOpeningHours)
	})
}
