package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// recoverUpTo fetches and commits blocks from the Consensus Client until
// the store's expected next height reaches target, in batches of at most
// MaxRecovery. Each pass re-reads h_e from the store, since a
// successful pass advances it. A short or empty fetch (the Consensus
// Client has nothing more contiguous to offer yet) stops the pass; the
// caller retries on the next submission.
func (p *Pipeline) recoverUpTo(ctx context.Context, target uint64) error {
	for {
		hE, err := p.store.GetExpectedNextHeight()
		if err != nil {
			return fmt.Errorf("get expected next height: %w", err)
		}
		if hE >= target {
			return nil
		}

		blocks, err := p.agora.GetBlocksFrom(ctx, hE, MaxRecovery)
		if p.metrics != nil {
			p.metrics.RecoveryPasses.Inc()
		}
		if err != nil {
			return fmt.Errorf("upstream unavailable fetching from %d: %w", hE, err)
		}
		if len(blocks) == 0 {
			p.log.Warn("recovery stalled: consensus client returned no blocks", zap.Uint64("from", hE))
			return nil
		}

		committed := 0
		for _, b := range blocks {
			cur, err := p.store.GetExpectedNextHeight()
			if err != nil {
				return fmt.Errorf("get expected next height: %w", err)
			}
			if b.Header.Height != cur {
				// The fetched prefix is no longer contiguous with what we
				// need next; stop here and let the next pass re-fetch.
				break
			}
			if err := p.commitOne(b); err != nil {
				return fmt.Errorf("recovery commit height %d: %w", b.Header.Height, err)
			}
			committed++
		}
		if committed == 0 {
			// Fetched a batch but none of it was usable; avoid spinning.
			p.log.Warn("recovery pass committed nothing", zap.Uint64("from", hE), zap.Int("fetched", len(blocks)))
			return nil
		}
	}
}

// CatchUp runs recovery from the store's current height to the consensus
// tip. It must complete before the service exposes its ingress endpoints
//.
func (p *Pipeline) CatchUp(ctx context.Context) error {
	tip, err := p.agora.GetTipHeight(ctx)
	if err != nil {
		return fmt.Errorf("get tip height: %w", err)
	}
	if tip == 0 {
		return nil
	}
	return p.recoverUpTo(ctx, tip+1)
}
