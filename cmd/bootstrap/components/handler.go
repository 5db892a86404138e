package components

import (
	"booking-core/internal/handler"
	"booking-core/internal/handler/api"
	"booking-core/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		api.NewAvailabilityHandler,
		api.NewApplicationHandler,
		api.NewAllocationHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
