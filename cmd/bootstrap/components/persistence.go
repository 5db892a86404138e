package components

import (
	"booking-core/internal/infra/db"
	"booking-core/internal/infra/readstore"
	"booking-core/internal/infra/repository"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/jobs"
	"booking-core/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
	),
	repositoryModule,
	readstoreModule,
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		// Reservation
		fx.Annotate(
			repository.NewReservationRepository,
			fx.As(new(commands.ReservationRepository)),
			fx.As(new(jobs.ReservationStore)),
		),
		// Application
		fx.Annotate(
			repository.NewApplicationRepository,
			fx.As(new(commands.ApplicationRepository)),
		),
		// Idempotency
		fx.Annotate(
			repository.NewIdempotencyRepository,
			fx.As(new(commands.IdempotencyRepository)),
			fx.As(new(jobs.IdempotencyStore)),
		),
	),
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		// Unit
		fx.Annotate(
			readstore.NewUnitReadStore,
			fx.As(new(commands.UnitReads)),
			fx.As(new(queries.UnitConfigRepo)),
		),
		// Reservation
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(commands.ReservationReads)),
			fx.As(new(queries.ReservationViewRepo)),
			fx.As(new(queries.BookedSpanRepo)),
		),
		// Application
		fx.Annotate(
			readstore.NewApplicationReadStore,
			fx.As(new(queries.ApplicationViewRepo)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
