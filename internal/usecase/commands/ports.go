package commands

import (
	"context"
	"time"

	"booking-core/internal/domain/application"
	"booking-core/internal/domain/reservation"
	"booking-core/internal/domain/scheduling"
	"booking-core/internal/infra/db"
	"booking-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx db.DBTX, res *reservation.Reservation) (uuid.UUID, error)
	Update(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error
	FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*reservation.Reservation, error)
	LockUnits(ctx context.Context, tx db.DBTX, unitIDs []uuid.UUID) error
}

type ApplicationRepository interface {
	Create(ctx context.Context, tx db.DBTX, app *application.Application) (uuid.UUID, error)
	Update(ctx context.Context, tx db.DBTX, app *application.Application) error
	FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*application.Application, error)
	CreateSection(ctx context.Context, tx db.DBTX, section *application.Section) (uuid.UUID, error)
	UpdateSectionStatus(ctx context.Context, tx db.DBTX, section *application.Section) error
	FindSectionByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*application.Section, error)
	CreateAllocation(ctx context.Context, tx db.DBTX, slot *application.AllocatedTimeSlot) (uuid.UUID, error)
	UpdateAllocation(ctx context.Context, tx db.DBTX, slot *application.AllocatedTimeSlot) error
	FindAllocationByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*application.AllocatedTimeSlot, error)
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key, userID uuid.UUID, now time.Time) (*shared.IdempotencyRecord, error)
	UpdateStatusCompleted(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, resultReservationID uuid.UUID) error
	Delete(ctx context.Context, key, userID uuid.UUID) error
}

// UnitReads loads the validation snapshot the scheduling engine runs on.
type UnitReads interface {
	Configs(ctx context.Context, unitIDs []uuid.UUID) ([]scheduling.UnitConfig, error)
	AffectedUnitIDs(ctx context.Context, unitIDs []uuid.UUID) ([]uuid.UUID, error)
	RoundWindows(ctx context.Context, unitIDs []uuid.UUID, now time.Time) ([]scheduling.RoundWindow, error)
	RoundByID(ctx context.Context, id uuid.UUID) (*shared.RoundSnapshot, error)
}

type ReservationReads interface {
	Spans(ctx context.Context, unitIDs []uuid.UUID, from, to time.Time) ([]scheduling.BookedSpan, error)
}

// OpeningHoursProvider reports reservable spans from the external
// opening-hours service.
type OpeningHoursProvider interface {
	ReservableSpans(ctx context.Context, unitID uuid.UUID, from, to time.Time) ([]scheduling.ReservableSpan, error)
}

// PaymentGateway fronts the webshop. CancelOrder failures are reported
// but never block local state changes.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, reservationID uuid.UUID, amountCents int64, description string) (orderID string, checkoutURL string, err error)
	CancelOrder(ctx context.Context, orderID string) error
}

// EventPublisher emits domain events to the message broker, best effort.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Mailer notifies the operations inbox about transitions that need a
// human. Failures are logged only.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}
