package governance

import (
	"encoding/hex"
	"fmt"

	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/payload"
)

// errInvalid wraps payload.ErrDecode so a Proposal that fails the
// fee-marker linkage check is treated as a skippable PayloadDecodeError
// rather than a fatal store error: it is recorded as a plain
// transaction with no governance effect.
func errInvalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{payload.ErrDecode}, args...)...)
}

func init() {
	Register(payload.KindProposal, handleProposal)
}

// handleProposal materializes a Proposal declaration once its linked fee
// marker transaction checks out.
func handleProposal(ctx *Context, raw []byte) error {
	decl, err := payload.DecodeProposal(raw)
	if err != nil {
		return fmt.Errorf("proposal: %w", err)
	}

	feeTxHash := hex.EncodeToString(decl.FeeTxHash[:])
	feeTx, err := ctx.Store.GetTransaction(feeTxHash)
	if err != nil {
		return errInvalid("proposal %s: fee_tx_hash %s not found", decl.ProposalID, feeTxHash)
	}
	if payload.Classify(feeTx.Payload) != payload.KindProposalFee {
		return errInvalid("proposal %s: fee_tx_hash %s is not a ProposalFee transaction", decl.ProposalID, feeTxHash)
	}
	fee, err := payload.DecodeProposalFee(feeTx.Payload)
	if err != nil {
		return errInvalid("proposal %s: decode fee marker: %v", decl.ProposalID, err)
	}
	if fee.ProposalID != decl.ProposalID || fee.AppName != decl.AppName {
		return errInvalid("proposal %s: fee marker app_name/proposal_id mismatch", decl.ProposalID)
	}
	var paidToDestination uint64
	for _, out := range feeTx.Outputs {
		if out.Address == decl.FeeDestinationAddress {
			paidToDestination += out.Amount
		}
	}
	if paidToDestination < decl.ProposalFee {
		return errInvalid("proposal %s: fee_tx_hash %s pays %d to %s, want >= %d",
			decl.ProposalID, feeTxHash, paidToDestination, decl.FeeDestinationAddress, decl.ProposalFee)
	}

	typ := ledger.ProposalSystem
	if decl.Type == payload.DeclFund {
		typ = ledger.ProposalFund
	}

	p := &ledger.Proposal{
		ProposalID:      decl.ProposalID,
		AppName:         decl.AppName,
		Type:            typ,
		ProposerAddress: decl.ProposerAddress,
		FeeDestination:  decl.FeeDestinationAddress,
		FeeTxHash:       feeTxHash,
		VoteStartHeight: decl.VoteStartHeight,
		VoteEndHeight:   decl.VoteEndHeight,
		FundAmount:      decl.FundAmount,
		ProposalFee:     decl.ProposalFee,
		VoteFee:         decl.VoteFee,
		DocHash:         hex.EncodeToString(decl.DocHash[:]),
		Result:          ledger.ResultPending,
		CreatedAtHeight: ctx.Height,
	}
	p.Status = p.StatusAt(ctx.Height, ctx.GraceBlocks)
	ctx.Result.Proposals = append(ctx.Result.Proposals, p)
	return nil
}
