package validator

import (
	"encoding/hex"
	"fmt"

	"github.com/lumenledger/stoa/crypto"
	"github.com/lumenledger/stoa/ledger"
)

// DerivePreImageAt returns the hash-chain pre-image a validator published
// effective at height h. Only the latest revealed value (the "tip") is
// stored; earlier heights are derived by repeated hashing forward from the
// tip, since each reveal is constructed so that hashing it once recovers
// the previous height's reveal.
func (e *Engine) DerivePreImageAt(validator string, h uint64) (string, error) {
	tip, err := e.store.GetPreImage(validator)
	if err != nil {
		return "", err
	}
	if h > tip.TipHeight {
		return "", fmt.Errorf("validator %s has not published a preimage for height %d (tip at %d)", validator, h, tip.TipHeight)
	}
	if h == tip.TipHeight {
		return tip.TipHash, nil
	}
	cur, err := hex.DecodeString(tip.TipHash)
	if err != nil {
		return "", fmt.Errorf("corrupt preimage tip for %s: %w", validator, err)
	}
	steps := tip.TipHeight - h
	for i := uint64(0); i < steps; i++ {
		cur = crypto.HashBytes(cur)
	}
	return hex.EncodeToString(cur), nil
}

// AcceptPreImage validates an incoming preimage_received announcement
// against the current tip before it becomes a CommitEffects update:
// monotonic (tip_height must strictly increase) and, if a prior tip
// exists, consistent with the hash chain (hashing the new tip forward
// tip_height-old_tip_height times must reach the old tip).
func AcceptPreImage(current *ledger.PreImage, next *ledger.PreImage) error {
	if current != nil {
		if next.TipHeight <= current.TipHeight {
			return fmt.Errorf("preimage tip_height %d does not advance past %d", next.TipHeight, current.TipHeight)
		}
		cur, err := hex.DecodeString(next.TipHash)
		if err != nil {
			return fmt.Errorf("invalid preimage hash: %w", err)
		}
		steps := next.TipHeight - current.TipHeight
		for i := uint64(0); i < steps; i++ {
			cur = crypto.HashBytes(cur)
		}
		if hex.EncodeToString(cur) != current.TipHash {
			return fmt.Errorf("preimage %s does not chain back to current tip %s", next.TipHash, current.TipHash)
		}
	}
	return nil
}
