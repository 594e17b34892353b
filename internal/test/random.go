package test

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomASCIIString returns a pseudo-random ASCII string within the provided bounds.
// When maxLen equals minLen the resulting string always has that exact length.
func RandomASCIIString(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += int(randomIntn(maxLen - minLen + 1))
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = asciiLetters[randomIntn(len(asciiLetters))]
	}
	return string(buf)
}

// RandomTargetURL returns a plausible target reference.
func RandomTargetURL() string {
	return "https://example.com/" + RandomASCIIString(4, 12)
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}

// FixedRandomizer returns scripted offsets. IntN and Int64N pop from their
// queues and fall back to zero when a queue is empty; results are reduced
// modulo n so they stay in range.
type FixedRandomizer struct {
	mu    sync.Mutex
	Ints  []int
	Int64 []int64
}

func (r *FixedRandomizer) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Ints) == 0 {
		return 0
	}
	v := r.Ints[0]
	r.Ints = r.Ints[1:]
	return v % n
}

func (r *FixedRandomizer) Int64N(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Int64) == 0 {
		return 0
	}
	v := r.Int64[0]
	r.Int64 = r.Int64[1:]
	return v % n
}

// SleeperStub records requested pauses without waiting. It honours context
// cancellation and can be told to cancel after a number of sleeps.
type SleeperStub struct {
	mu     sync.Mutex
	Slept  []time.Duration
	Hook   func(n int, d time.Duration)
	Cancel context.CancelFunc
	After  int
}

func (s *SleeperStub) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Slept = append(s.Slept, d)
	n := len(s.Slept)
	hook := s.Hook
	cancel := s.Cancel
	after := s.After
	s.mu.Unlock()

	if hook != nil {
		hook(n, d)
	}
	if cancel != nil && n >= after {
		cancel()
	}
	return ctx.Err()
}

// Durations returns a copy of recorded pauses.
func (s *SleeperStub) Durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.Slept...)
}
