// SPDX-License-Identifier: MPL-2.0

package urlcheck

import (
	"context"
	"time"
)

// DefaultRequestInterval is the pause between consecutive checks of one
// validation call.
const DefaultRequestInterval = time.Second

type (
	// Clock is the time source used by Pacer.
	Clock interface {
		Now() time.Time
		After(d time.Duration) <-chan time.Time
	}

	realClock struct{}

	// Pacer spaces consecutive operations by a fixed minimum interval,
	// measured from the end of one operation to the start of the next.
	// A Pacer is not safe for concurrent use; each validation call owns one.
	Pacer struct {
		interval time.Duration
		clock    Clock
		last     time.Time
		started  bool
	}
)

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewPacer creates a Pacer. A nil clock means wall-clock time.
func NewPacer(interval time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = realClock{}
	}
	return &Pacer{interval: interval, clock: clock}
}

// Wait blocks until the interval since the last Done has elapsed. The first
// Wait returns immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.started || p.interval <= 0 {
		return nil
	}
	remaining := p.interval - p.clock.Now().Sub(p.last)
	if remaining <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(remaining):
		return nil
	}
}

// Done records the end of an operation.
func (p *Pacer) Done() {
	p.last = p.clock.Now()
	p.started = true
}
