package queries

import (
	"context"

	"booking-core/internal/domain/user"
	"booking-core/internal/infra"
	"booking-core/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrApplicationNotFound = errs.New("application not found")

type ApplicationQueries interface {
	GetByID(ctx context.Context, actorID uuid.UUID, actorRole user.Role, id uuid.UUID) (*ApplicationView, error)
	// GetByIDSystem bypasses ownership checks for internal read-after-write
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*ApplicationView, error)
	ListByRound(ctx context.Context, roundID uuid.UUID, limit int) ([]*ApplicationListItem, error)
}

type ApplicationViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ApplicationView, error)
	FindByRound(ctx context.Context, roundID uuid.UUID, limit int32) ([]*ApplicationListItem, error)
}

type applicationQueriesImpl struct {
	repo ApplicationViewRepo
}

func NewApplicationQueries(repo ApplicationViewRepo) ApplicationQueries {
	return &applicationQueriesImpl{repo: repo}
}

func (q *applicationQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, actorRole user.Role, id uuid.UUID) (*ApplicationView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if view.UserID != actorID && !actorRole.IsStaff() {
		return nil, ErrNotOwned
	}
	return view, nil
}

func (q *applicationQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*ApplicationView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *applicationQueriesImpl) ListByRound(ctx context.Context, roundID uuid.UUID, limit int) ([]*ApplicationListItem, error) {
	return q.repo.FindByRound(ctx, roundID, int32(ValidateLimit(limit)))
}
