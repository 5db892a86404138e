package bootstrap

import (
	"booking-core/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	JWTModule,
	components.IntegrationsModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.JobsModule,
	components.HandlerModule,
)
