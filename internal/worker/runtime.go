package worker

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// Randomizer is the randomness source for step sizes and pauses.
// *rand.Rand from math/rand/v2 satisfies it.
type Randomizer interface {
	IntN(n int) int
	Int64N(n int64) int64
}

// NewRandomizer returns a PCG generator. Seed 0 selects a time based seed.
func NewRandomizer(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sleeper pauses the engine. Sleep returns early with ctx.Err() on cancellation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper waits on a real timer.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Metrics receives engine counters.
type Metrics interface {
	OrderClaimed()
	CheckpointWritten()
	OrderCompleted()
	OrderSkipped()
	OrderRecovered()
	CycleCompleted(orders int, took time.Duration)
	CycleFailed()
}

// EventPublisher receives every applied transition.
type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
}

type nopMetrics struct{}

func (nopMetrics) OrderClaimed()                     {}
func (nopMetrics) CheckpointWritten()                {}
func (nopMetrics) OrderCompleted()                   {}
func (nopMetrics) OrderSkipped()                     {}
func (nopMetrics) OrderRecovered()                   {}
func (nopMetrics) CycleCompleted(int, time.Duration) {}
func (nopMetrics) CycleFailed()                      {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.OrderEvent) error { return nil }
