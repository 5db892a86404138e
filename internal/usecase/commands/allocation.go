package commands

import (
	"context"
	"log/slog"
	"time"

	"booking-core/internal/domain/application"
	"booking-core/internal/domain/reservation"
	"booking-core/internal/domain/scheduling"
	reqdto "booking-core/internal/handler/dto/request"
	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrSectionNotApproved = errs.New("section is not approved for series generation")
	ErrAllocationApplied  = errs.New("allocation has already been applied")
	ErrSectionTransition  = errs.New("invalid section status action")
)

// OccurrenceOutcome is one occurrence of an applied series: either the
// reservation it produced or the denial it was recorded as.
type OccurrenceOutcome struct {
	Begin         time.Time `json:"begin"`
	End           time.Time `json:"end"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Accepted      bool      `json:"accepted"`
	Reason        *string   `json:"reason,omitempty"`
}

type AllocationCommands interface {
	CreateAllocation(ctx context.Context, sectionID uuid.UUID, req reqdto.CreateAllocationRequest) (uuid.UUID, error)
	AdvanceSection(ctx context.Context, sectionID uuid.UUID, action string) error
	Decline(ctx context.Context, allocationID uuid.UUID) error
	ApplySeries(ctx context.Context, allocationID uuid.UUID) ([]OccurrenceOutcome, error)
}

// Section status progression actions.
const (
	ActionValidateSection = "validate"
	ActionApproveSection  = "approve"
	ActionDeclineSection  = "decline"
)

type allocationCommandsImpl struct {
	applicationRepo  ApplicationRepository
	reservationRepo  ReservationRepository
	unitReads        UnitReads
	reservationReads ReservationReads
	openingHours     OpeningHoursProvider
	validator        *scheduling.Validator
	pool             *pgxpool.Pool
	clock            clock.Clock
}

func NewAllocationCommands(
	applicationRepo ApplicationRepository,
	reservationRepo ReservationRepository,
	unitReads UnitReads,
	reservationReads ReservationReads,
	openingHours OpeningHoursProvider,
	validator *scheduling.Validator,
	pool *pgxpool.Pool,
	c clock.Clock,
) AllocationCommands {
	return &allocationCommandsImpl{
		applicationRepo:  applicationRepo,
		reservationRepo:  reservationRepo,
		unitReads:        unitReads,
		reservationReads: reservationReads,
		openingHours:     openingHours,
		validator:        validator,
		pool:             pool,
		clock:            c,
	}
}

func (a *allocationCommandsImpl) CreateAllocation(ctx context.Context, sectionID uuid.UUID, req reqdto.CreateAllocationRequest) (uuid.UUID, error) {
	return shared.WithDefaultRetry(ctx, a.pool, func(tx db.DBTX) (uuid.UUID, error) {
		section, err := a.applicationRepo.FindSectionByID(ctx, tx, sectionID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return uuid.Nil, errs.ErrSectionNotFound
			}
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if section.Status() == application.SectionDeclined {
			return uuid.Nil, errs.ErrStatusConflict
		}

		slot, err := application.NewAllocatedTimeSlot(
			section.ID(),
			req.UnitID,
			time.Weekday(req.Weekday),
			time.Duration(req.BeginMinutes)*time.Minute,
			time.Duration(req.EndMinutes)*time.Minute,
		)
		if err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDomainValidation)
		}

		if _, err := a.applicationRepo.CreateAllocation(ctx, tx, slot); err != nil {
			if infra.IsKind(err, infra.KindForeignKeyViolated) {
				return uuid.Nil, errs.ErrReservationUnitNotFound
			}
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return slot.ID(), nil
	})
}

func (a *allocationCommandsImpl) AdvanceSection(ctx context.Context, sectionID uuid.UUID, action string) error {
	_, err := shared.WithDefaultRetry(ctx, a.pool, func(tx db.DBTX) (struct{}, error) {
		section, err := a.applicationRepo.FindSectionByID(ctx, tx, sectionID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, errs.ErrSectionNotFound
			}
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		switch action {
		case ActionValidateSection:
			err = section.Validate()
		case ActionApproveSection:
			err = section.Approve()
		case ActionDeclineSection:
			err = section.Decline()
		default:
			return struct{}{}, ErrSectionTransition
		}
		if err != nil {
			return struct{}{}, errs.Mark(err, errs.ErrStatusConflict)
		}

		if err := a.applicationRepo.UpdateSectionStatus(ctx, tx, section); err != nil {
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	return err
}

func (a *allocationCommandsImpl) Decline(ctx context.Context, allocationID uuid.UUID) error {
	_, err := shared.WithDefaultRetry(ctx, a.pool, func(tx db.DBTX) (struct{}, error) {
		slot, err := a.applicationRepo.FindAllocationByID(ctx, tx, allocationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, errs.ErrAllocationNotFound
			}
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := slot.Decline(); err != nil {
			return struct{}{}, errs.Mark(err, errs.ErrStatusConflict)
		}
		if err := a.applicationRepo.UpdateAllocation(ctx, tx, slot); err != nil {
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	return err
}

// ApplySeries expands an allocation into one reservation per weekday
// occurrence. Occurrences are settled independently: a failed one is
// recorded as a denied reservation and the rest keep going, so there
// is deliberately no transaction spanning the series.
func (a *allocationCommandsImpl) ApplySeries(ctx context.Context, allocationID uuid.UUID) ([]OccurrenceOutcome, error) {
	slot, section, app, err := a.loadAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if section.Status() != application.SectionApproved {
		return nil, ErrSectionNotApproved
	}
	if slot.AppliedAt() != nil {
		return nil, ErrAllocationApplied
	}

	units, err := a.unitReads.Configs(ctx, []uuid.UUID{slot.UnitID()})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationUnitNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	unit := units[0]

	loc := unit.Location
	if loc == nil {
		loc = time.UTC
	}
	spec, err := slot.SeriesSpec(section, loc)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStatusConflict)
	}

	existing, spans, err := a.seriesInputs(ctx, slot, unit, section)
	if err != nil {
		return nil, err
	}

	// The allocation's own round covers the section period, so round
	// windows are not re-checked for seasonal occurrences.
	results := a.validator.ApplySeries(spec, units, existing, spans, nil)

	outcomes := make([]OccurrenceOutcome, 0, len(results))
	for _, result := range results {
		outcome, err := a.settleOccurrence(ctx, slot, app.UserID(), result)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}

	slot.MarkApplied(a.clock.Now())
	_, err = shared.WithDefaultRetry(ctx, a.pool, func(tx db.DBTX) (struct{}, error) {
		return struct{}{}, a.applicationRepo.UpdateAllocation(ctx, tx, slot)
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	return outcomes, nil
}

func (a *allocationCommandsImpl) loadAllocation(ctx context.Context, allocationID uuid.UUID) (*application.AllocatedTimeSlot, *application.Section, *application.Application, error) {
	var (
		slot    *application.AllocatedTimeSlot
		section *application.Section
		app     *application.Application
	)
	_, err := shared.RunInTx(ctx, a.pool, func(tx db.DBTX) (struct{}, error) {
		var err error
		slot, err = a.applicationRepo.FindAllocationByID(ctx, tx, allocationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, errs.ErrAllocationNotFound
			}
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		section, err = a.applicationRepo.FindSectionByID(ctx, tx, slot.SectionID())
		if err != nil {
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		app, err = a.applicationRepo.FindByID(ctx, tx, section.ApplicationID())
		if err != nil {
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return slot, section, app, nil
}

func (a *allocationCommandsImpl) seriesInputs(
	ctx context.Context,
	slot *application.AllocatedTimeSlot,
	unit scheduling.UnitConfig,
	section *application.Section,
) ([]scheduling.BookedSpan, []scheduling.ReservableSpan, error) {
	affected, err := a.unitReads.AffectedUnitIDs(ctx, []uuid.UUID{slot.UnitID()})
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	from := section.Begin().Add(-spanLookaround)
	to := section.End().AddDate(0, 0, 1).Add(spanLookaround)

	existing, err := a.reservationReads.Spans(ctx, affected, from, to)
	if err != nil {
		return nil, nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	var spans []scheduling.ReservableSpan
	if !unit.AllowReservationsWithoutOpeningHours {
		spans, err = a.openingHours.ReservableSpans(ctx, slot.UnitID(), section.Begin(), section.End().AddDate(0, 0, 1))
		if err != nil {
			return nil, nil, errs.Mark(err, errs.ErrOpeningHoursUnavailable)
		}
	}
	return existing, spans, nil
}

// settleOccurrence persists one occurrence, accepted or denied, in its
// own transaction.
func (a *allocationCommandsImpl) settleOccurrence(
	ctx context.Context,
	slot *application.AllocatedTimeSlot,
	userID uuid.UUID,
	result scheduling.OccurrenceResult,
) (OccurrenceOutcome, error) {
	outcome := OccurrenceOutcome{
		Begin:    result.Occurrence.Begin,
		End:      result.Occurrence.End,
		Accepted: result.Accepted(),
	}

	var res *reservation.Reservation
	if result.Accepted() {
		timeSlot, err := reservation.NewTimeSlot(result.Normalized.Begin, result.Normalized.End)
		if err != nil {
			return outcome, errs.Mark(err, errs.ErrInvalidTimeSlot)
		}
		res, err = reservation.NewReservation(
			[]uuid.UUID{slot.UnitID()},
			userID,
			timeSlot,
			reservation.TypeSeasonal,
			result.Normalized.BufferBefore,
			result.Normalized.BufferAfter,
			result.Normalized.Price,
		)
		if err != nil {
			return outcome, errs.Mark(err, errs.ErrDomainValidation)
		}
		if err := res.Confirm(); err != nil {
			return outcome, errs.Mark(err, errs.ErrDomainValidation)
		}
	} else {
		reason := result.Err.Error()
		outcome.Reason = &reason

		timeSlot, err := reservation.NewTimeSlot(result.Occurrence.Begin, result.Occurrence.End)
		if err != nil {
			return outcome, errs.Mark(err, errs.ErrInvalidTimeSlot)
		}
		res = reservation.NewDeniedOccurrence([]uuid.UUID{slot.UnitID()}, userID, timeSlot, reason)
	}

	_, err := shared.WithDefaultRetry(ctx, a.pool, func(tx db.DBTX) (uuid.UUID, error) {
		if result.Accepted() {
			if err := a.reservationRepo.LockUnits(ctx, tx, res.UnitIDs()); err != nil {
				return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		return a.reservationRepo.Create(ctx, tx, res)
	})
	if err != nil {
		slog.Error("failed to persist series occurrence",
			"allocation_id", slot.ID(),
			"begin", result.Occurrence.Begin,
			"error", err)
		return outcome, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	outcome.ReservationID = res.ID()
	return outcome, nil
}
