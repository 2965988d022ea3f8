package governance

import (
	"fmt"

	"github.com/lumenledger/stoa/payload"
)

func init() {
	Register(payload.KindProposalFee, handleProposalFee)
}

// handleProposalFee validates shape only. The marker's existence and
// matching proposal_id/app_name are checked when a later Proposal
// declaration references this transaction by fee_tx_hash (handleProposal).
func handleProposalFee(ctx *Context, raw []byte) error {
	if _, err := payload.DecodeProposalFee(raw); err != nil {
		return fmt.Errorf("proposal fee marker: %w", err)
	}
	return nil
}
