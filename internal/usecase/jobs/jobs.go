// Package jobs runs the periodic maintenance work: expiring unpaid
// reservations past their payment deadline and pruning stale
// idempotency records.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"booking-core/internal/domain/reservation"
	"booking-core/internal/infra/db"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

const TopicReservationExpired = "reservation.expired"

type ReservationStore interface {
	Update(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error
	FindExpiredUnpaid(ctx context.Context, now time.Time) ([]*reservation.Reservation, error)
}

type IdempotencyStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	cron         *cron.Cron
	reservations ReservationStore
	idempotency  IdempotencyStore
	payments     commands.PaymentGateway
	events       commands.EventPublisher
	pool         *pgxpool.Pool
	clock        clock.Clock
	schedule     string
}

func NewService(
	cfg config.JobsConfig,
	reservations ReservationStore,
	idempotency IdempotencyStore,
	payments commands.PaymentGateway,
	events commands.EventPublisher,
	pool *pgxpool.Pool,
	c clock.Clock,
) *Service {
	return &Service{
		cron:         cron.New(),
		reservations: reservations,
		idempotency:  idempotency,
		payments:     payments,
		events:       events,
		pool:         pool,
		clock:        c,
		schedule:     cfg.ExpireUnpaidSchedule,
	}
}

func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runExpiry); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("maintenance jobs started", "schedule", s.schedule)
	return nil
}

func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("maintenance jobs stopped")
}

func (s *Service) runExpiry() {
	ctx := context.Background()
	s.ExpireUnpaidReservations(ctx)
	s.PruneIdempotencyKeys(ctx)
}

// ExpireUnpaidReservations cancels reservations whose payment deadline
// has passed. Each reservation is settled in its own transaction so one
// bad row does not hold up the sweep.
func (s *Service) ExpireUnpaidReservations(ctx context.Context) {
	now := s.clock.Now()

	expired, err := s.reservations.FindExpiredUnpaid(ctx, now)
	if err != nil {
		slog.Error("failed to load expired reservations", "error", err)
		return
	}

	for _, res := range expired {
		if !res.ExpireUnpaid(now) {
			continue
		}

		_, err := shared.WithDefaultRetry(ctx, s.pool, func(tx db.DBTX) (struct{}, error) {
			return struct{}{}, s.reservations.Update(ctx, tx, res)
		})
		if err != nil {
			slog.Error("failed to expire reservation", "reservation_id", res.ID(), "error", err)
			continue
		}

		if orderID := res.OrderID(); orderID != nil {
			if err := s.payments.CancelOrder(ctx, *orderID); err != nil {
				slog.Warn("failed to cancel order for expired reservation",
					"reservation_id", res.ID(),
					"order_id", *orderID,
					"error", err)
				res.MarkOrderCancelFailed()
				_, _ = shared.RunInTx(ctx, s.pool, func(tx db.DBTX) (struct{}, error) {
					return struct{}{}, s.reservations.Update(ctx, tx, res)
				})
			}
		}

		if err := s.events.Publish(ctx, TopicReservationExpired, map[string]any{
			"reservation_id": res.ID(),
			"expired_at":     now,
		}); err != nil {
			slog.Warn("failed to publish expiry event", "reservation_id", res.ID(), "error", err)
		}

		slog.Info("expired unpaid reservation", "reservation_id", res.ID())
	}
}

func (s *Service) PruneIdempotencyKeys(ctx context.Context) {
	deleted, err := s.idempotency.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		slog.Error("failed to prune idempotency keys", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("pruned idempotency keys", "count", deleted)
	}
}
