package components

import (
	"context"

	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/jobs"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var JobsModule = fx.Module("jobs",
	fx.Provide(
		NewJobService,
	),
	fx.Invoke(startJobs),
)

func NewJobService(
	cfg config.Config,
	reservations jobs.ReservationStore,
	idempotency jobs.IdempotencyStore,
	payments commands.PaymentGateway,
	events commands.EventPublisher,
	pool *pgxpool.Pool,
	c clock.Clock,
) *jobs.Service {
	return jobs.NewService(cfg.Jobs, reservations, idempotency, payments, events, pool, c)
}

func startJobs(lc fx.Lifecycle, service *jobs.Service) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return service.Start()
		},
		OnStop: func(_ context.Context) error {
			service.Stop()
			return nil
		},
	})
}
