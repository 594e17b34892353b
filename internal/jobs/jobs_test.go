package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/test"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
	runs int
}

func (j *funcJob) Name() string { return j.name }

func (j *funcJob) Run(ctx context.Context) error {
	j.runs++
	return j.fn(ctx)
}

type countSink struct {
	counts map[model.OrderStatus]int
}

func (s *countSink) SetOrderCounts(counts map[model.OrderStatus]int) { s.counts = counts }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchedulerRegisterValidation(t *testing.T) {
	s := NewScheduler(discardLogger())
	job := &funcJob{name: "noop", fn: func(context.Context) error { return nil }}

	_, err := s.Register("@every 30s", nil)
	assert.Error(t, err)
	_, err = s.Register("", job)
	assert.Error(t, err)
	_, err = s.Register("not a spec", job)
	assert.Error(t, err)

	_, err = s.Register("@every 30s", job)
	require.NoError(t, err)
	_, err = s.Register("*/5 * * * * *", job)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())
}

func TestSchedulerWrapRunsJobWithDeadline(t *testing.T) {
	s := NewScheduler(nil)
	var deadline bool
	job := &funcJob{name: "tick", fn: func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return errors.New("fail")
	}}

	s.wrap(job)()
	assert.Equal(t, 1, job.runs)
	assert.True(t, deadline)
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(discardLogger())
	assert.NotNil(t, s.Stop())

	s.Start()
	s.Start()
	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("stop did not complete")
	}
}

func TestOrderStatsJob(t *testing.T) {
	repo := test.NewOrderRepositoryStub()
	repo.Seed(
		model.Order{ID: 1, Status: model.OrderStatusPending},
		model.Order{ID: 2, Status: model.OrderStatusPending},
		model.Order{ID: 3, Status: model.OrderStatusCompleted, Progress: 100},
	)
	sink := &countSink{}
	job := NewOrderStatsJob(repo, sink, discardLogger())

	assert.Equal(t, "order-stats", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 2, sink.counts[model.OrderStatusPending])
	assert.Equal(t, 1, sink.counts[model.OrderStatusCompleted])

	repo.CountErr = errors.New("db down")
	assert.Error(t, job.Run(context.Background()))
}
