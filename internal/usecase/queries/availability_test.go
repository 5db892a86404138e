package queries_test

import (
	"context"
	"testing"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/domain/scheduling"
	"booking-core/internal/infra"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/usecase/queries"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUnitConfigRepo struct {
	configs []scheduling.UnitConfig
	err     error
}

func (f *fakeUnitConfigRepo) Configs(_ context.Context, _ []uuid.UUID) ([]scheduling.UnitConfig, error) {
	return f.configs, f.err
}

func (f *fakeUnitConfigRepo) AffectedUnitIDs(_ context.Context, unitIDs []uuid.UUID) ([]uuid.UUID, error) {
	return unitIDs, nil
}

type fakeBookedSpanRepo struct {
	spans []scheduling.BookedSpan
}

func (f *fakeBookedSpanRepo) Spans(_ context.Context, _ []uuid.UUID, _, _ time.Time) ([]scheduling.BookedSpan, error) {
	return f.spans, nil
}

type fakeOpeningHoursProvider struct {
	spans  []scheduling.ReservableSpan
	called bool
	from   time.Time
	to     time.Time
}

func (f *fakeOpeningHoursProvider) ReservableSpans(_ context.Context, _ uuid.UUID, from, to time.Time) ([]scheduling.ReservableSpan, error) {
	f.called = true
	f.from = from
	f.to = to
	return f.spans, nil
}

func newAvailabilityQueries(units *fakeUnitConfigRepo, booked *fakeBookedSpanRepo, opening *fakeOpeningHoursProvider) queries.AvailabilityQueries {
	c := clock.NewMockClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	return queries.NewAvailabilityQueries(units, booked, opening, scheduling.NewValidator(c))
}

func TestAvailabilityQueries_StartTimes(t *testing.T) {
	unitID := uuid.New()
	unit := scheduling.UnitConfig{
		ID:            unitID,
		Name:          "Hall A",
		StartInterval: time.Hour,
	}

	t.Run("unknown unit", func(t *testing.T) {
		repo := &fakeUnitConfigRepo{err: infra.WrapRepoErr("unit not found", nil, infra.KindNotFound)}
		q := newAvailabilityQueries(repo, &fakeBookedSpanRepo{}, &fakeOpeningHoursProvider{})

		_, err := q.StartTimes(context.Background(), unitID, "2024-06-10", 2*time.Hour)
		assert.ErrorIs(t, err, queries.ErrUnitNotFound)
	})

	t.Run("empty config set is treated as unknown unit", func(t *testing.T) {
		q := newAvailabilityQueries(&fakeUnitConfigRepo{}, &fakeBookedSpanRepo{}, &fakeOpeningHoursProvider{})

		_, err := q.StartTimes(context.Background(), unitID, "2024-06-10", 2*time.Hour)
		assert.ErrorIs(t, err, queries.ErrUnitNotFound)
	})

	t.Run("malformed date", func(t *testing.T) {
		repo := &fakeUnitConfigRepo{configs: []scheduling.UnitConfig{unit}}
		q := newAvailabilityQueries(repo, &fakeBookedSpanRepo{}, &fakeOpeningHoursProvider{})

		_, err := q.StartTimes(context.Background(), unitID, "10.06.2024", 2*time.Hour)
		assert.ErrorIs(t, err, queries.ErrInvalidDate)
	})

	t.Run("opening hours bound the candidate starts", func(t *testing.T) {
		repo := &fakeUnitConfigRepo{configs: []scheduling.UnitConfig{unit}}
		opening := &fakeOpeningHoursProvider{
			spans: []scheduling.ReservableSpan{{
				Start: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC),
			}},
		}
		q := newAvailabilityQueries(repo, &fakeBookedSpanRepo{}, opening)

		view, err := q.StartTimes(context.Background(), unitID, "2024-06-10", 2*time.Hour)
		require.NoError(t, err)

		assert.True(t, opening.called)
		assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), opening.from)
		assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), opening.to)

		assert.Equal(t, unitID, view.UnitID)
		assert.Equal(t, "2024-06-10", view.Date)
		assert.Equal(t, int32(120), view.Duration)
		want := []time.Time{
			time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
		}
		assert.Empty(t, cmp.Diff(want, view.StartTimes))
	})

	t.Run("booked spans remove their starts", func(t *testing.T) {
		repo := &fakeUnitConfigRepo{configs: []scheduling.UnitConfig{unit}}
		booked := &fakeBookedSpanRepo{
			spans: []scheduling.BookedSpan{{
				ID:    uuid.New(),
				Begin: time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
				Type:  reservation.TypeNormal,
				State: reservation.StateConfirmed,
			}},
		}
		opening := &fakeOpeningHoursProvider{
			spans: []scheduling.ReservableSpan{{
				Start: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC),
			}},
		}
		q := newAvailabilityQueries(repo, booked, opening)

		view, err := q.StartTimes(context.Background(), unitID, "2024-06-10", 2*time.Hour)
		require.NoError(t, err)
		want := []time.Time{time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)}
		assert.Empty(t, cmp.Diff(want, view.StartTimes))
	})

	t.Run("units open around the clock skip the provider", func(t *testing.T) {
		open := unit
		open.AllowReservationsWithoutOpeningHours = true
		repo := &fakeUnitConfigRepo{configs: []scheduling.UnitConfig{open}}
		opening := &fakeOpeningHoursProvider{}
		q := newAvailabilityQueries(repo, &fakeBookedSpanRepo{}, opening)

		view, err := q.StartTimes(context.Background(), unitID, "2024-06-10", 2*time.Hour)
		require.NoError(t, err)

		assert.False(t, opening.called)
		require.NotEmpty(t, view.StartTimes)
		assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), view.StartTimes[0])
		assert.Equal(t, time.Date(2024, 6, 10, 22, 0, 0, 0, time.UTC), view.StartTimes[len(view.StartTimes)-1])
		assert.Len(t, view.StartTimes, 23)
	})
}
