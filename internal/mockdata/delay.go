package mockdata

import (
	"context"
	"time"
)

// DefaultLatency is the simulated network delay applied when no Delayer is
// configured.
const DefaultLatency = 300 * time.Millisecond

// Delayer simulates the latency of a remote call. Delay returns early with
// the context's error when ctx ends first.
type Delayer interface {
	Delay(ctx context.Context) error
}

// Latency is a fixed, timer-backed delay.
type Latency time.Duration

// NoDelay completes immediately unless the context is already done.
const NoDelay = Latency(0)

func (l Latency) Delay(ctx context.Context) error {
	if l <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(l))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DelayFunc adapts a function to Delayer.
type DelayFunc func(ctx context.Context) error

func (f DelayFunc) Delay(ctx context.Context) error { return f(ctx) }
