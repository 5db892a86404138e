package reservation_test

import (
	"testing"
	"time"

	"booking-core/internal/domain/reservation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservation(t *testing.T) *reservation.Reservation {
	t.Helper()
	slot, err := reservation.NewTimeSlot(
		time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	res, err := reservation.NewReservation(
		[]uuid.UUID{uuid.New()},
		uuid.New(),
		slot,
		reservation.TypeNormal,
		0, 0,
		reservation.PriceBreakdown{},
	)
	require.NoError(t, err)
	return res
}

func TestReservation_Transitions(t *testing.T) {
	t.Run("created confirms", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.Confirm())
		assert.Equal(t, reservation.StateConfirmed, r.State())
	})

	t.Run("requires handling then deny", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.RequireHandling())
		require.NoError(t, r.Deny("not eligible"))
		assert.Equal(t, reservation.StateDenied, r.State())
		require.NotNil(t, r.DenyReason())
		assert.Equal(t, "not eligible", *r.DenyReason())
	})

	t.Run("cancelled cannot confirm", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.Cancel())
		assert.ErrorIs(t, r.Confirm(), reservation.ErrInvalidStateTransition)
	})

	t.Run("denied cannot cancel", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.Deny("no"))
		assert.ErrorIs(t, r.Cancel(), reservation.ErrInvalidStateTransition)
	})
}

func TestReservation_Payment(t *testing.T) {
	deadline := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	t.Run("waiting for payment confirms on payment", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.RequirePayment(deadline, "order-1"))
		assert.Equal(t, reservation.StateWaitingForPayment, r.State())
		require.NoError(t, r.Confirm())
	})

	t.Run("expires after the deadline", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.RequirePayment(deadline, "order-1"))

		assert.False(t, r.ExpireUnpaid(deadline.Add(-time.Minute)))
		assert.True(t, r.ExpireUnpaid(deadline.Add(time.Minute)))
		assert.Equal(t, reservation.StateCancelled, r.State())
	})

	t.Run("confirmed reservations do not expire", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.Confirm())
		assert.False(t, r.ExpireUnpaid(deadline.Add(time.Hour)))
	})
}

func TestReservation_AdjustTime(t *testing.T) {
	newSlot, err := reservation.NewTimeSlot(
		time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 4, 15, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	t.Run("active reservation moves", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.AdjustTime(newSlot, time.Minute*30, 0, reservation.PriceBreakdown{}))
		assert.Equal(t, newSlot, r.Slot())
		assert.Equal(t, 30*time.Minute, r.BufferBefore())
	})

	t.Run("cancelled reservation does not move", func(t *testing.T) {
		r := newReservation(t)
		require.NoError(t, r.Cancel())
		assert.ErrorIs(t, r.AdjustTime(newSlot, 0, 0, reservation.PriceBreakdown{}), reservation.ErrReservationInactive)
	})
}

func TestTimeSlot(t *testing.T) {
	begin := time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC)

	t.Run("begin must precede end", func(t *testing.T) {
		_, err := reservation.NewTimeSlot(begin, begin)
		assert.ErrorIs(t, err, reservation.ErrInvalidTimeSlot)
	})

	t.Run("touching slots do not overlap", func(t *testing.T) {
		a, err := reservation.NewTimeSlot(begin, begin.Add(time.Hour))
		require.NoError(t, err)
		b, err := reservation.NewTimeSlot(begin.Add(time.Hour), begin.Add(2*time.Hour))
		require.NoError(t, err)
		assert.False(t, a.Overlaps(b))
	})
}
