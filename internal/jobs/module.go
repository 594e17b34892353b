package jobs

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/smmpanel/internal/config"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
	"github.com/polkiloo/smmpanel/internal/observability"
)

// Module wires the scheduler and its jobs.
var Module = fx.Options(
	fx.Provide(
		NewScheduler,
		func(orders repository.OrderRepository, metrics *observability.Metrics, logger *slog.Logger) *OrderStatsJob {
			return NewOrderStatsJob(orders, metrics, logger)
		},
	),
	fx.Invoke(registerJobs),
)

type jobsParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Scheduler *Scheduler
	Stats     *OrderStatsJob
	Config    *config.Config
	Logger    *slog.Logger
}

func registerJobs(p jobsParams) error {
	if _, err := p.Scheduler.Register(p.Config.StatsSchedule, p.Stats); err != nil {
		return err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-p.Scheduler.Stop().Done():
			case <-ctx.Done():
				p.Logger.Warn("scheduler stop timed out")
			}
			return nil
		},
	})
	return nil
}
