package components

import (
	"booking-core/internal/domain/scheduling"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	scheduling.NewValidator,
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewReservationQueries,
		queries.NewApplicationQueries,
		queries.NewAvailabilityQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewReservationCommands,
		commands.NewApplicationCommands,
		commands.NewAllocationCommands,
	),
)

func NewReservationCommands(
	reservationRepo commands.ReservationRepository,
	idempotencyRepo commands.IdempotencyRepository,
	unitReads commands.UnitReads,
	reservationReads commands.ReservationReads,
	openingHours commands.OpeningHoursProvider,
	payments commands.PaymentGateway,
	events commands.EventPublisher,
	mailer commands.Mailer,
	views queries.ReservationQueries,
	validator *scheduling.Validator,
	pool *pgxpool.Pool,
	c clock.Clock,
	cfg config.Config,
) commands.ReservationCommands {
	return commands.NewReservationCommands(
		reservationRepo,
		idempotencyRepo,
		unitReads,
		reservationReads,
		openingHours,
		payments,
		events,
		mailer,
		views,
		validator,
		pool,
		c,
		cfg.Webshop.PaymentTTL,
	)
}
