package governance

import (
	"fmt"

	"github.com/lumenledger/stoa/crypto"
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/payload"
)

func init() {
	Register(payload.KindBallot, handleBallot)
}

// handleBallot applies the five acceptance rules in order. A
// ballot that fails any rule is still persisted, as REJECT, never as a
// dropped transaction. Decoding the
// encrypted answer is deferred to tally time, once the vote_end_height
// pre-image that derives the decryption key is guaranteed to exist.
func handleBallot(ctx *Context, raw []byte) error {
	wire, err := payload.DecodeBallot(raw)
	if err != nil {
		return fmt.Errorf("ballot: %w", err)
	}

	bal := &ledger.Ballot{
		ProposalID:       wire.ProposalID,
		ValidatorAddress: wire.VoterCard.ValidatorAddress,
		BlockHeight:      ctx.Height,
		EncryptedBallot:  wire.EncryptedAnswer,
		VoterCard: ledger.VoterCard{
			ValidatorAddress: wire.VoterCard.ValidatorAddress,
			TemporaryAddress: wire.VoterCard.TemporaryAddress,
			TemporaryPubKey:  wire.VoterCard.TemporaryPubKey,
			ExpiresAt:        wire.VoterCard.ExpiresAt,
			Signature:        wire.VoterCard.Signature,
		},
		Signature: wire.Signature,
		Sequence:  wire.Sequence,
	}

	if reason := rejectReason(ctx, wire); reason != "" {
		bal.Answer = ledger.BallotReject
		bal.RejectReason = reason
		ctx.Result.Ballots = append(ctx.Result.Ballots, bal)
		return nil
	}

	bal.Answer = ledger.BallotPending
	ctx.Result.Ballots = append(ctx.Result.Ballots, bal)
	return nil
}

// rejectReason returns a non-empty reason if any acceptance rule fails, in
// rule order, or "" if the ballot is accepted.
func rejectReason(ctx *Context, wire payload.Ballot) string {
	// Rule 1: the proposal must exist.
	prop, err := ctx.Store.GetProposal(wire.ProposalID)
	if err != nil {
		return fmt.Sprintf("proposal %s not found", wire.ProposalID)
	}

	// Rule 2: the committing height must fall within the voting window,
	// inclusive of both boundaries.
	if ctx.Height < prop.VoteStartHeight || ctx.Height > prop.VoteEndHeight {
		return fmt.Sprintf("height %d outside voting window [%d,%d]", ctx.Height, prop.VoteStartHeight, prop.VoteEndHeight)
	}

	// Rule 3: the outer VoterCard signature must verify under the claimed
	// validator's enrollment key, and the inner ballot signature must
	// verify under the temporary key the VoterCard declares.
	enr, err := activeEnrollment(ctx, wire.VoterCard.ValidatorAddress, prop.VoteStartHeight)
	if err != nil {
		return fmt.Sprintf("validator %s not enrolled at vote_start_height %d", wire.VoterCard.ValidatorAddress, prop.VoteStartHeight)
	}
	validatorPub, err := crypto.PubKeyFromHex(enr.PubKey)
	if err != nil {
		return fmt.Sprintf("enrollment for %s has an invalid public key: %v", wire.VoterCard.ValidatorAddress, err)
	}
	cardMsg := crypto.VoterCardSigningMessage(wire.VoterCard.ValidatorAddress, wire.VoterCard.TemporaryAddress, wire.VoterCard.TemporaryPubKey, wire.VoterCard.ExpiresAt)
	if err := crypto.Verify(validatorPub, cardMsg, wire.VoterCard.Signature); err != nil {
		return fmt.Sprintf("voter card signature invalid: %v", err)
	}
	temporaryPub, err := crypto.PubKeyFromHex(wire.VoterCard.TemporaryPubKey)
	if err != nil {
		return fmt.Sprintf("voter card declares an invalid temporary public key: %v", err)
	}
	ballotMsg := crypto.BallotSigningMessage(wire.ProposalID, wire.EncryptedAnswer, wire.Sequence)
	if err := crypto.Verify(temporaryPub, ballotMsg, wire.Signature); err != nil {
		return fmt.Sprintf("ballot signature invalid: %v", err)
	}

	// Rule 4: the validator must sit on the committee at vote_start_height.
	// Eligibility and quorum are fixed to the committee at vote start,
	// independent of the committee at vote end.
	committee, err := ctx.Validators.CommitteeAt(prop.VoteStartHeight)
	if err != nil {
		return fmt.Sprintf("committee lookup failed: %v", err)
	}
	onCommittee := false
	for _, c := range committee {
		if c.Validator == wire.VoterCard.ValidatorAddress {
			onCommittee = true
			break
		}
	}
	if !onCommittee {
		return fmt.Sprintf("validator %s not on committee at vote_start_height %d", wire.VoterCard.ValidatorAddress, prop.VoteStartHeight)
	}

	// Rule 5: replay protection, a resubmission must not carry a lower
	// sequence number than the last accepted ballot for this validator; an
	// equal sequence is accepted and, committed later, replaces it.
	prior, err := ctx.Store.GetBallot(wire.ProposalID, wire.VoterCard.ValidatorAddress)
	if err == nil && prior.Answer != ledger.BallotReject && wire.Sequence < prior.Sequence {
		return fmt.Sprintf("sequence %d is below prior accepted sequence %d", wire.Sequence, prior.Sequence)
	}

	return ""
}

// activeEnrollment returns the enrollment backing validatorAddr that is
// active at h, regardless of whether it is currently seated on the
// committee (that is Rule 4's concern, not signature verification's).
func activeEnrollment(ctx *Context, validatorAddr string, h uint64) (*ledger.Enrollment, error) {
	active, err := ctx.Validators.ActiveEnrollments(h)
	if err != nil {
		return nil, err
	}
	for _, enr := range active {
		if enr.Validator == validatorAddr {
			return enr, nil
		}
	}
	return nil, fmt.Errorf("no active enrollment for %s at height %d", validatorAddr, h)
}
