package server

import (
	"sync/atomic"
)

// Metrics are counters kept for monitoring and debugging.
type Metrics struct {
	TickCount       int64 // ticks processed
	TotalTickNs     int64 // accumulated tick time
	IntentsAccepted int64 // frames decoded into an intent
	IntentsRejected int64 // frames that failed decoding
	MovesBlocked    int64 // player moves refused by the world
	LoginsFailed    int64 // logins with no spawnable tile
	SendsDropped    int64 // outbound frames dropped on a full connection queue
}

func (m *Metrics) IncAccepted()    { atomic.AddInt64(&m.IntentsAccepted, 1) }
func (m *Metrics) IncRejected()    { atomic.AddInt64(&m.IntentsRejected, 1) }
func (m *Metrics) IncMoveBlocked() { atomic.AddInt64(&m.MovesBlocked, 1) }
func (m *Metrics) IncLoginFailed() { atomic.AddInt64(&m.LoginsFailed, 1) }
func (m *Metrics) IncSendDropped() { atomic.AddInt64(&m.SendsDropped, 1) }
func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot returns a read-only copy suitable for JSON output.
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":       tick,
		"intents_accepted": atomic.LoadInt64(&m.IntentsAccepted),
		"intents_rejected": atomic.LoadInt64(&m.IntentsRejected),
		"moves_blocked":    atomic.LoadInt64(&m.MovesBlocked),
		"logins_failed":    atomic.LoadInt64(&m.LoginsFailed),
		"sends_dropped":    atomic.LoadInt64(&m.SendsDropped),
		"avg_tick_ms":      avgMs,
	}
}
