package components

import (
	"context"

	"booking-core/internal/integrations/events"
	"booking-core/internal/integrations/mailer"
	"booking-core/internal/integrations/openinghours"
	"booking-core/internal/integrations/webshop"
	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var IntegrationsModule = fx.Module("integrations",
	fx.Provide(
		fx.Annotate(
			NewOpeningHoursClient,
			fx.As(new(commands.OpeningHoursProvider)),
			fx.As(new(queries.OpeningHoursProvider)),
		),
		fx.Annotate(
			NewWebshopClient,
			fx.As(new(commands.PaymentGateway)),
		),
		fx.Annotate(
			NewMailerClient,
			fx.As(new(commands.Mailer)),
		),
		fx.Annotate(
			NewEventPublisher,
			fx.As(new(commands.EventPublisher)),
		),
	),
)

func NewOpeningHoursClient(cfg config.Config, redisClient *redis.Client) *openinghours.Client {
	return openinghours.NewClient(cfg.OpeningHours, redisClient, cfg.Redis.TTL)
}

func NewWebshopClient(cfg config.Config) *webshop.Client {
	return webshop.NewClient(cfg.Webshop)
}

func NewMailerClient(cfg config.Config) *mailer.Client {
	return mailer.NewClient(cfg.Mail)
}

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config) (*events.Publisher, error) {
	publisher, cleanup, err := events.NewPublisher(cfg.AMQP)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	return publisher, nil
}
