package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// OrderCounter reports how many orders sit in each status.
type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error)
}

// CountSink receives the status breakdown.
type CountSink interface {
	SetOrderCounts(counts map[model.OrderStatus]int)
}

// OrderStatsJob periodically refreshes order gauges and logs the breakdown.
type OrderStatsJob struct {
	orders OrderCounter
	sink   CountSink
	logger *slog.Logger
}

func NewOrderStatsJob(orders OrderCounter, sink CountSink, logger *slog.Logger) *OrderStatsJob {
	return &OrderStatsJob{orders: orders, sink: sink, logger: logger}
}

func (j *OrderStatsJob) Name() string { return "order-stats" }

func (j *OrderStatsJob) Run(ctx context.Context) error {
	counts, err := j.orders.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count orders: %w", err)
	}
	j.sink.SetOrderCounts(counts)
	j.logger.Info("order statistics",
		slog.Int("pending", counts[model.OrderStatusPending]),
		slog.Int("processing", counts[model.OrderStatusProcessing]),
		slog.Int("completed", counts[model.OrderStatusCompleted]))
	return nil
}
