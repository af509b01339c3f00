package server

import (
	"context"
	"time"
)

// DefaultTickInterval is one simulation step per second.
const DefaultTickInterval = time.Second

// StartTicker runs the tick loop until ctx is done. Only the first call
// starts a loop.
func (g *Game) StartTicker(ctx context.Context, interval time.Duration) {
	if !g.tickerStarted.CompareAndSwap(false, true) {
		return
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				tick := g.Tick()
				elapsed := time.Since(start)
				g.metrics.AddTick(elapsed.Nanoseconds())
				if elapsed > interval {
					Log.Warnf("tick %d overran: took=%s interval=%s", tick, elapsed, interval)
				}
			}
		}
	}()
}
