// SPDX-License-Identifier: MPL-2.0

package urlcheck

import (
	"context"
	"testing"
	"time"

	"github.com/pkgvet/pkgvet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_WaitsRemainderOfInterval(t *testing.T) {
	t.Parallel()

	clock := &recordingClock{}
	p := NewPacer(time.Second, clock)

	require.NoError(t, p.Wait(t.Context()))
	assert.Empty(t, clock.waits, "first wait is immediate")
	p.Done()

	// Part of the interval already passed while the previous check ran.
	clock.now = clock.now.Add(400 * time.Millisecond)
	require.NoError(t, p.Wait(t.Context()))
	assert.Equal(t, []time.Duration{600 * time.Millisecond}, clock.waits)
	p.Done()

	clock.now = clock.now.Add(2 * time.Second)
	require.NoError(t, p.Wait(t.Context()))
	assert.Len(t, clock.waits, 1, "no wait once the interval has passed")
}

func TestPacer_ZeroInterval(t *testing.T) {
	t.Parallel()

	clock := &recordingClock{}
	p := NewPacer(0, clock)
	for range 3 {
		require.NoError(t, p.Wait(t.Context()))
		p.Done()
	}
	assert.Empty(t, clock.waits)
}

func TestPacer_CanceledWait(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Unix(0, 0))
	p := NewPacer(time.Minute, clock)
	p.Done()

	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- p.Wait(ctx) }()

	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, 5*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}
