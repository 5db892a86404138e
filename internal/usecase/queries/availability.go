package queries

import (
	"context"
	"time"

	"booking-core/internal/domain/scheduling"
	"booking-core/internal/infra"
	"booking-core/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrUnitNotFound = errs.New("reservation unit not found")
	ErrInvalidDate  = errs.New("invalid availability date")
)

type UnitConfigRepo interface {
	Configs(ctx context.Context, unitIDs []uuid.UUID) ([]scheduling.UnitConfig, error)
	AffectedUnitIDs(ctx context.Context, unitIDs []uuid.UUID) ([]uuid.UUID, error)
}

type BookedSpanRepo interface {
	Spans(ctx context.Context, unitIDs []uuid.UUID, from, to time.Time) ([]scheduling.BookedSpan, error)
}

// OpeningHoursProvider reports the reservable ranges of a unit's
// resource, usually from the external opening-hours service.
type OpeningHoursProvider interface {
	ReservableSpans(ctx context.Context, unitID uuid.UUID, from, to time.Time) ([]scheduling.ReservableSpan, error)
}

type AvailabilityQueries interface {
	StartTimes(ctx context.Context, unitID uuid.UUID, date string, duration time.Duration) (*AvailabilityView, error)
}

type availabilityQueriesImpl struct {
	units        UnitConfigRepo
	booked       BookedSpanRepo
	openingHours OpeningHoursProvider
	validator    *scheduling.Validator
}

func NewAvailabilityQueries(
	units UnitConfigRepo,
	booked BookedSpanRepo,
	openingHours OpeningHoursProvider,
	validator *scheduling.Validator,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		units:        units,
		booked:       booked,
		openingHours: openingHours,
		validator:    validator,
	}
}

func (q *availabilityQueriesImpl) StartTimes(ctx context.Context, unitID uuid.UUID, date string, duration time.Duration) (*AvailabilityView, error) {
	configs, err := q.units.Configs(ctx, []uuid.UUID{unitID})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}
	if len(configs) == 0 {
		return nil, ErrUnitNotFound
	}
	unit := configs[0]

	loc := unit.Location
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidDate)
	}
	dayEnd := day.AddDate(0, 0, 1)

	affected, err := q.units.AffectedUnitIDs(ctx, []uuid.UUID{unitID})
	if err != nil {
		return nil, err
	}

	// Spans reaching into the day from outside still matter for buffers.
	existing, err := q.booked.Spans(ctx, affected, day.Add(-24*time.Hour), dayEnd.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	var spans []scheduling.ReservableSpan
	if unit.AllowReservationsWithoutOpeningHours {
		spans = []scheduling.ReservableSpan{{Start: day, End: dayEnd}}
	} else {
		spans, err = q.openingHours.ReservableSpans(ctx, unitID, day, dayEnd)
		if err != nil {
			return nil, err
		}
	}

	starts := q.validator.AvailableStartTimes(unit, duration, existing, spans)

	return &AvailabilityView{
		UnitID:     unitID,
		Date:       date,
		Duration:   int32(duration / time.Minute),
		StartTimes: starts,
	}, nil
}
