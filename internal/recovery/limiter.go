package recovery

// limiter.go provides concurrency limiting for session initialization.
// Loading a source can mean pulling a whole file over the network and
// validating every row, so unbounded concurrent loads would let a burst
// of new sessions exhaust memory. The limiter caps in-flight loads and
// bounds how long a caller waits for a slot.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrTooManyLoads is returned when the limiter cannot grant a slot
// within the wait window.
var ErrTooManyLoads = errors.New("too many concurrent source loads, please try again later")

const (
	// DefaultMaxConcurrentLoads caps in-flight source loads.
	DefaultMaxConcurrentLoads = 4

	// DefaultMaxWaitTime bounds how long a caller queues for a slot.
	DefaultMaxWaitTime = 10 * time.Second
)

// LoadLimiter is a counting semaphore over source loads. The zero value
// is not usable; construct with NewLoadLimiter.
type LoadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration
}

// NewLoadLimiter creates a limiter allowing maxConcurrent simultaneous
// loads, queueing callers up to maxWait. Non-positive arguments fall
// back to the package defaults.
func NewLoadLimiter(maxConcurrent int, maxWait time.Duration) *LoadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentLoads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &LoadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire blocks until a slot is free, the wait window expires, or ctx
// is cancelled. Returns ErrTooManyLoads when the window expires and the
// context error when the caller gave up first.
func (ll *LoadLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, ll.maxWait)
	defer cancel()

	select {
	case ll.semaphore <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyLoads
	}
}

// TryAcquire grabs a slot without waiting. Returns false when the
// limiter is full.
func (ll *LoadLimiter) TryAcquire() bool {
	select {
	case ll.semaphore <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (ll *LoadLimiter) Release() {
	select {
	case <-ll.semaphore:
	default:
		// Release without a matching Acquire - log but don't panic
		slog.Warn("LoadLimiter.Release called without matching Acquire")
	}
}

// ActiveCount returns the number of loads currently holding a slot.
func (ll *LoadLimiter) ActiveCount() int {
	return len(ll.semaphore)
}

// MaxConcurrent returns the slot capacity.
func (ll *LoadLimiter) MaxConcurrent() int {
	return cap(ll.semaphore)
}

// Available returns how many slots are free.
func (ll *LoadLimiter) Available() int {
	return cap(ll.semaphore) - len(ll.semaphore)
}

// WaitForDrain blocks until no loads are in flight or ctx is cancelled.
// Used during shutdown so in-progress loads finish cleanly.
func (ll *LoadLimiter) WaitForDrain(ctx context.Context, checkInterval time.Duration) error {
	if checkInterval <= 0 {
		checkInterval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		if ll.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus reports limiter occupancy, for health endpoints.
type LimiterStatus struct {
	ActiveLoads   int `json:"activeLoads"`
	MaxConcurrent int `json:"maxConcurrent"`
	Available     int `json:"available"`
}

// Status returns a snapshot of limiter occupancy.
func (ll *LoadLimiter) Status() LimiterStatus {
	return LimiterStatus{
		ActiveLoads:   ll.ActiveCount(),
		MaxConcurrent: ll.MaxConcurrent(),
		Available:     ll.Available(),
	}
}
