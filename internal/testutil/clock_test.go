// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fired(ch <-chan time.Time) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestFakeClock_DefaultTime(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), clock.Now())
}

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	clock.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), clock.Now())
	assert.Equal(t, 90*time.Minute, clock.Since(start.Add(-30*time.Minute)))

	later := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestFakeClock_After(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})

	assert.True(t, fired(clock.After(0)), "zero duration fires immediately")
	assert.True(t, fired(clock.After(-time.Second)), "negative duration fires immediately")
	assert.Zero(t, clock.Waiters())

	first := clock.After(time.Second)
	second := clock.After(3 * time.Second)
	assert.Equal(t, 2, clock.Waiters())

	clock.Advance(500 * time.Millisecond)
	assert.False(t, fired(first))

	clock.Advance(time.Second)
	assert.True(t, fired(first))
	assert.False(t, fired(second))
	assert.Equal(t, 1, clock.Waiters())

	clock.Set(clock.Now().Add(time.Hour))
	assert.True(t, fired(second))
	assert.Zero(t, clock.Waiters())
}

func TestFakeClock_Concurrent(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 100 {
				_ = clock.Now()
				_ = clock.After(time.Millisecond)
			}
		})
	}
	wg.Go(func() {
		for range 50 {
			clock.Advance(time.Millisecond)
		}
	})
	wg.Wait()

	clock.Advance(time.Second)
	assert.Zero(t, clock.Waiters())
}
