package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/smmpanel/internal/config"
)

// Module exposes the event publisher to the fx graph.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newPublisher(p publisherParams) Publisher {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Info("order events disabled, no kafka brokers configured")
		return NopPublisher{}
	}
	p.Logger.Info("publishing order events",
		slog.Any("brokers", p.Config.KafkaBrokers),
		slog.String("topic", p.Config.KafkaTopic))
	return NewKafkaPublisher(p.Config.KafkaBrokers, p.Config.KafkaTopic, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, pub Publisher) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
}
