package ingest

import (
	"fmt"

	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/validator"
)

// validateStructure checks the structural invariants a block must satisfy
// before it is committed: everything ledger.Block.VerifyStructure already
// checks (hash, merkle root, height/prev_hash linkage), plus the one
// ingestion-specific invariant that is not a property of the block alone:
// the header's preimages vector must have exactly one slot per committee
// member at this height, in canonical address order. Stoa never
// checks the proposer's consensus signature; that is Agora's job
// (Non-goal).
func validateStructure(prev *ledger.Block, block *ledger.Block, validators *validator.Engine) error {
	if err := block.VerifyStructure(prev); err != nil {
		return fmt.Errorf("structure: %w", err)
	}
	committee, err := validators.CanonicalCommitteeOrder(block.Header.Height)
	if err != nil {
		return fmt.Errorf("committee lookup at height %d: %w", block.Header.Height, err)
	}
	if len(block.Header.PreImages) != len(committee) {
		return fmt.Errorf("preimages length %d does not match committee size %d at height %d",
			len(block.Header.PreImages), len(committee), block.Header.Height)
	}
	return nil
}
