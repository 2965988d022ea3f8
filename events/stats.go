package events

import (
	"context"
	"time"
)

// StatsSnapshot is the payload carried by stats_tick events.
type StatsSnapshot struct {
	Height          uint64 `json:"height"`
	TotalTxCount    uint64 `json:"total_tx_count"`
	TotalValidators int    `json:"total_validators"`
}

// StatsSource computes the current snapshot on demand.
type StatsSource func() StatsSnapshot

// RunStatsTicker emits EventStatsTick on em every interval until ctx is
// canceled, computing the snapshot fresh each tick from source.
func RunStatsTicker(ctx context.Context, em *Emitter, source StatsSource, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			em.Emit(Event{Type: EventStatsTick, Stats: source()})
		}
	}
}
