package commands

import (
	"context"
	"time"

	"booking-core/internal/domain/application"
	"booking-core/internal/domain/user"
	reqdto "booking-core/internal/handler/dto/request"
	"booking-core/internal/infra"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/queries"
	"booking-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRoundNotFound = errs.New("application round not found")
	ErrRoundClosed   = errs.New("application round is not open")
)

type ApplicationCommands interface {
	Create(ctx context.Context, req reqdto.CreateApplicationRequest, actorID uuid.UUID) (*queries.ApplicationView, error)
	Send(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole user.Role) error
	SetFlag(ctx context.Context, id uuid.UUID, flagged bool) error
	Advance(ctx context.Context, id uuid.UUID, action string) error
}

// Staff-side status progression actions.
const (
	ActionStartAllocation = "start_allocation"
	ActionMarkHandled     = "mark_handled"
	ActionMarkSent        = "mark_sent"
)

type applicationCommandsImpl struct {
	applicationRepo ApplicationRepository
	unitReads       UnitReads
	views           queries.ApplicationQueries
	pool            *pgxpool.Pool
	clock           clock.Clock
}

func NewApplicationCommands(
	applicationRepo ApplicationRepository,
	unitReads UnitReads,
	views queries.ApplicationQueries,
	pool *pgxpool.Pool,
	c clock.Clock,
) ApplicationCommands {
	return &applicationCommandsImpl{
		applicationRepo: applicationRepo,
		unitReads:       unitReads,
		views:           views,
		pool:            pool,
		clock:           c,
	}
}

func (a *applicationCommandsImpl) Create(ctx context.Context, req reqdto.CreateApplicationRequest, actorID uuid.UUID) (*queries.ApplicationView, error) {
	round, err := a.unitReads.RoundByID(ctx, req.RoundID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	now := a.clock.Now()
	if now.Before(round.ApplicationBegins) || !now.Before(round.ApplicationEnds) {
		return nil, ErrRoundClosed
	}

	app := application.NewApplication(round.ID, actorID, req.Applicant)

	sections := make([]*application.Section, 0, len(req.Sections))
	for _, sec := range req.Sections {
		section, err := application.NewSection(
			app.ID(),
			sec.Name,
			sec.EventsPerWeek,
			time.Duration(sec.MinDurationMinutes)*time.Minute,
			time.Duration(sec.MaxDurationMinutes)*time.Minute,
			sec.Begin,
			sec.End,
			sec.Biweekly,
			toSuitableRanges(sec.SuitableTimeRanges),
		)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDomainValidation)
		}
		sections = append(sections, section)
	}

	appID, err := shared.WithDefaultRetry(ctx, a.pool, func(tx db.DBTX) (uuid.UUID, error) {
		if _, err := a.applicationRepo.Create(ctx, tx, app); err != nil {
			return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		for _, section := range sections {
			if _, err := a.applicationRepo.CreateSection(ctx, tx, section); err != nil {
				return uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		return app.ID(), nil
	})
	if err != nil {
		return nil, err
	}

	view, err := a.views.GetByIDSystem(ctx, appID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}

func toSuitableRanges(ranges []reqdto.SuitableTimeRangeRequest) []application.SuitableTimeRange {
	out := make([]application.SuitableTimeRange, 0, len(ranges))
	for _, tr := range ranges {
		out = append(out, application.SuitableTimeRange{
			Weekday:  time.Weekday(tr.Weekday),
			Start:    time.Duration(tr.StartMinutes) * time.Minute,
			End:      time.Duration(tr.EndMinutes) * time.Minute,
			Priority: application.Priority(tr.Priority),
		})
	}
	return out
}

func (a *applicationCommandsImpl) Send(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole user.Role) error {
	return a.mutate(ctx, id, func(app *application.Application) error {
		if app.UserID() != actorID && !actorRole.IsStaff() {
			return errs.ErrForbidden
		}
		return app.Submit()
	})
}

func (a *applicationCommandsImpl) SetFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	return a.mutate(ctx, id, func(app *application.Application) error {
		return app.SetFlag(flagged)
	})
}

func (a *applicationCommandsImpl) Advance(ctx context.Context, id uuid.UUID, action string) error {
	return a.mutate(ctx, id, func(app *application.Application) error {
		switch action {
		case ActionStartAllocation:
			return app.StartAllocation()
		case ActionMarkHandled:
			return app.MarkHandled()
		case ActionMarkSent:
			return app.MarkSent(a.clock.Now())
		default:
			return errs.ErrDomainValidation
		}
	})
}

func (a *applicationCommandsImpl) mutate(ctx context.Context, id uuid.UUID, fn func(*application.Application) error) error {
	_, err := shared.WithDefaultRetry(ctx, a.pool, func(tx db.DBTX) (struct{}, error) {
		app, err := a.applicationRepo.FindByID(ctx, tx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, errs.ErrApplicationNotFound
			}
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := fn(app); err != nil {
			switch err {
			case errs.ErrForbidden, errs.ErrDomainValidation:
				return struct{}{}, err
			default:
				return struct{}{}, errs.Mark(err, errs.ErrStatusConflict)
			}
		}
		if err := a.applicationRepo.Update(ctx, tx, app); err != nil {
			return struct{}{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	return err
}
