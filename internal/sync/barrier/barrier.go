// FILENAME: internal/sync/barrier/barrier.go
package barrier

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/xkilldash9x/owasp-driver/internal/config"
)

// SpinBarrier lines workers up so a burst of probes leaves together.
// It busy-waits to keep release jitter low.
type SpinBarrier struct {
	target int32
	count  atomic.Int32
	flag   atomic.Bool
	ready  chan struct{}
}

// NewSpinBarrier creates a barrier for the specified number of participants.
func NewSpinBarrier(participants int) *SpinBarrier {
	return &SpinBarrier{
		target: int32(participants),
		ready:  make(chan struct{}),
	}
}

// Await registers a participant and spins until the barrier is released.
func (b *SpinBarrier) Await(ctx context.Context) error {
	if b.count.Add(1) == b.target {
		close(b.ready)
	}

	spin := 0
	for !b.flag.Load() {
		spin++
		if spin%config.SpinBarrierCheck == 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			runtime.Gosched()
		}
	}
	return nil
}

// WaitReady blocks until all participants have called Await.
func (b *SpinBarrier) WaitReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release drops the barrier for every spinning participant.
func (b *SpinBarrier) Release() {
	b.flag.Store(true)
}
