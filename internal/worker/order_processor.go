package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// LifecycleFacade exposes the subset of application functionality required by the worker.
type LifecycleFacade interface {
	PendingOrders(ctx context.Context) ([]model.Order, error)
	StrandedOrders(ctx context.Context) ([]model.Order, error)
	ClaimOrder(ctx context.Context, id int64) error
	CheckpointOrder(ctx context.Context, id int64, progress int) error
	CompleteOrder(ctx context.Context, id int64) error
}

// Settings controls pacing of the processor.
type Settings struct {
	CycleInterval   time.Duration
	ErrorBackoff    time.Duration
	MinStep         int
	MaxStep         int
	MinPause        time.Duration
	MaxPause        time.Duration
	RecoverStranded bool
}

func (s Settings) normalized() Settings {
	if s.CycleInterval <= 0 {
		s.CycleInterval = 5 * time.Second
	}
	if s.ErrorBackoff <= 0 {
		s.ErrorBackoff = 10 * time.Second
	}
	if s.MinStep <= 0 {
		s.MinStep = 1
	}
	if s.MaxStep < s.MinStep {
		s.MaxStep = s.MinStep
	}
	if s.MinPause < 0 {
		s.MinPause = 0
	}
	if s.MaxPause < s.MinPause {
		s.MaxPause = s.MinPause
	}
	return s
}

// Option customises an OrderProcessor.
type Option func(*OrderProcessor)

func WithRandomizer(r Randomizer) Option {
	return func(p *OrderProcessor) { p.rand = r }
}

func WithSleeper(s Sleeper) Option {
	return func(p *OrderProcessor) { p.sleeper = s }
}

func WithMetrics(m Metrics) Option {
	return func(p *OrderProcessor) { p.metrics = m }
}

func WithPublisher(pub EventPublisher) Option {
	return func(p *OrderProcessor) { p.publisher = pub }
}

// OrderProcessor drives pending orders through processing to completion in a
// single background loop. It keeps no order state between cycles.
type OrderProcessor struct {
	facade    LifecycleFacade
	settings  Settings
	logger    *slog.Logger
	rand      Randomizer
	sleeper   Sleeper
	metrics   Metrics
	publisher EventPublisher
	backoff   backoff.BackOff

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOrderProcessor constructs the lifecycle engine.
func NewOrderProcessor(facade LifecycleFacade, settings Settings, logger *slog.Logger, opts ...Option) *OrderProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	settings = settings.normalized()
	p := &OrderProcessor{
		facade:    facade,
		settings:  settings,
		logger:    logger,
		rand:      NewRandomizer(0),
		sleeper:   TimerSleeper{},
		metrics:   nopMetrics{},
		publisher: nopPublisher{},
		backoff:   backoff.NewConstantBackOff(settings.ErrorBackoff),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background loop.
func (p *OrderProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.loop(runCtx)
}

// Stop cancels the loop and waits for the in-flight step to return.
func (p *OrderProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *OrderProcessor) loop(ctx context.Context) {
	defer p.wg.Done()

	recovered := !p.settings.RecoverStranded
	for {
		var err error
		if !recovered {
			if err = p.RecoverStranded(ctx); err == nil {
				recovered = true
			}
		}
		if err == nil {
			err = p.RunCycle(ctx)
		}
		if ctx.Err() != nil {
			p.logger.Info("order processor stopped")
			return
		}

		wait := p.settings.CycleInterval
		if err != nil {
			wait = p.backoff.NextBackOff()
			p.metrics.CycleFailed()
			p.logger.Error("order processing cycle failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", wait))
		} else {
			p.backoff.Reset()
		}

		if err := p.sleeper.Sleep(ctx, wait); err != nil {
			p.logger.Info("order processor stopped")
			return
		}
	}
}

// RunCycle processes one snapshot of pending orders in id order. A claim
// conflict skips the order; any other error aborts the cycle.
func (p *OrderProcessor) RunCycle(ctx context.Context) error {
	started := time.Now()
	orders, err := p.facade.PendingOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch pending orders: %w", err)
	}

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.facade.ClaimOrder(ctx, order.ID); err != nil {
			if p.skippable(err) {
				p.skip(ctx, order.ID, "claim", err)
				continue
			}
			return fmt.Errorf("claim order %d: %w", order.ID, err)
		}
		p.metrics.OrderClaimed()
		p.publish(ctx, order.ID, model.OrderStatusProcessing, model.ProgressStart)
		p.logger.Info("order claimed", slog.Int64("order_id", order.ID))

		if err := p.process(ctx, order.ID, Checkpoints(model.ProgressStart, p.stepSize())); err != nil {
			if p.skippable(err) {
				p.skip(ctx, order.ID, "advance", err)
				continue
			}
			return err
		}
	}

	p.metrics.CycleCompleted(len(orders), time.Since(started))
	return nil
}

// RecoverStranded resumes orders left in processing by an earlier run from
// their stored progress. They are never reset to pending.
func (p *OrderProcessor) RecoverStranded(ctx context.Context) error {
	orders, err := p.facade.StrandedOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch stranded orders: %w", err)
	}
	if len(orders) == 0 {
		return nil
	}
	p.logger.Warn("resuming stranded orders", slog.Int("count", len(orders)))

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := p.stepSize()
		if err := p.process(ctx, order.ID, Checkpoints(order.Progress+step, step)); err != nil {
			if p.skippable(err) {
				p.skip(ctx, order.ID, "recover", err)
				continue
			}
			return err
		}
		p.metrics.OrderRecovered()
	}
	return nil
}

func (p *OrderProcessor) process(ctx context.Context, id int64, checkpoints []int) error {
	for _, progress := range checkpoints {
		if err := p.sleeper.Sleep(ctx, p.pause()); err != nil {
			return err
		}
		if err := p.facade.CheckpointOrder(ctx, id, progress); err != nil {
			return fmt.Errorf("checkpoint order %d at %d: %w", id, progress, err)
		}
		p.metrics.CheckpointWritten()
		p.publish(ctx, id, model.OrderStatusProcessing, progress)
		p.logger.Debug("order progress", slog.Int64("order_id", id), slog.Int("progress", progress))
	}

	if err := p.sleeper.Sleep(ctx, p.pause()); err != nil {
		return err
	}
	if err := p.facade.CompleteOrder(ctx, id); err != nil {
		return fmt.Errorf("complete order %d: %w", id, err)
	}
	p.metrics.OrderCompleted()
	p.publish(ctx, id, model.OrderStatusCompleted, model.ProgressDone)
	p.logger.Info("order completed", slog.Int64("order_id", id))
	return nil
}

func (p *OrderProcessor) skippable(err error) bool {
	return errors.Is(err, domainErrors.ErrInvalidTransition) || errors.Is(err, domainErrors.ErrNotFound)
}

func (p *OrderProcessor) skip(ctx context.Context, id int64, stage string, err error) {
	p.metrics.OrderSkipped()
	p.logger.ErrorContext(ctx, "order changed concurrently, skipping",
		slog.Int64("order_id", id),
		slog.String("stage", stage),
		slog.String("error", err.Error()))
}

func (p *OrderProcessor) publish(ctx context.Context, id int64, status model.OrderStatus, progress int) {
	event := model.OrderEvent{OrderID: id, Status: status, Progress: progress, OccurredAt: time.Now()}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("publish order event failed",
			slog.Int64("order_id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
	}
}

func (p *OrderProcessor) stepSize() int {
	return p.settings.MinStep + p.rand.IntN(p.settings.MaxStep-p.settings.MinStep+1)
}

func (p *OrderProcessor) pause() time.Duration {
	span := int64(p.settings.MaxPause - p.settings.MinPause)
	return p.settings.MinPause + time.Duration(p.rand.Int64N(span+1))
}

// Checkpoints lists the intermediate progress values from, from+step, ... that
// stay below 100. The final 100 is written by completion.
func Checkpoints(from, step int) []int {
	if step <= 0 {
		step = 1
	}
	if from < model.ProgressStart {
		from = model.ProgressStart
	}
	var out []int
	for progress := from; progress < model.ProgressDone; progress += step {
		out = append(out, progress)
	}
	return out
}
