package scheduling_test

import (
	"testing"
	"time"

	"booking-core/internal/domain/scheduling"

	"github.com/stretchr/testify/assert"
)

func TestAvailableStartTimes(t *testing.T) {
	v := newValidator()

	t.Run("existing reservation removes conflicting starts", func(t *testing.T) {
		unit := baseUnit()
		existing := []scheduling.BookedSpan{confirmedSpan(at(4, 12, 0), at(4, 13, 0))}

		got := v.AvailableStartTimes(unit, time.Hour, existing, openDay(4))

		assert.Contains(t, got, at(4, 11, 0))
		assert.Contains(t, got, at(4, 13, 0))
		assert.NotContains(t, got, at(4, 11, 15))
		assert.NotContains(t, got, at(4, 12, 45))
	})

	t.Run("whole day unit offers every start on a free day", func(t *testing.T) {
		unit := baseUnit()
		unit.ReservationBlockWholeDay = true

		got := v.AvailableStartTimes(unit, time.Hour, nil, openDay(4))

		assert.NotEmpty(t, got)
		assert.Contains(t, got, at(4, 10, 0))
		assert.Contains(t, got, at(4, 21, 0))
	})

	t.Run("whole day unit offers nothing on a booked day", func(t *testing.T) {
		unit := baseUnit()
		unit.ReservationBlockWholeDay = true
		existing := []scheduling.BookedSpan{confirmedSpan(at(4, 12, 0), at(4, 13, 0))}

		got := v.AvailableStartTimes(unit, time.Hour, existing, openDay(4))

		assert.Empty(t, got)
	})

	t.Run("starts before now are skipped", func(t *testing.T) {
		unit := baseUnit()
		spans := []scheduling.ReservableSpan{{Start: at(3, 8, 0), End: at(3, 12, 0)}}

		got := v.AvailableStartTimes(unit, time.Hour, nil, spans)

		assert.NotContains(t, got, at(3, 8, 0))
		assert.NotContains(t, got, at(3, 8, 45))
		assert.Contains(t, got, at(3, 9, 0))
		assert.Contains(t, got, at(3, 11, 0))
	})
}
