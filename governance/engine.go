package governance

import (
	"encoding/hex"
	"fmt"

	"github.com/lumenledger/stoa/crypto"
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/payload"
	"github.com/lumenledger/stoa/storage"
	"github.com/lumenledger/stoa/validator"
)

// Engine drives the proposal lifecycle: dispatching governance payloads on
// commit, and advancing every proposal's height-triggered status: tallying
// the instant a proposal reaches its close height.
type Engine struct {
	store       *storage.Store
	validators  *validator.Engine
	registry    *Registry
	graceBlocks uint64
}

func NewEngine(store *storage.Store, validators *validator.Engine, graceBlocks uint64) *Engine {
	return &Engine{store: store, validators: validators, registry: globalRegistry, graceBlocks: graceBlocks}
}

// OnTransactionCommitted classifies tx's payload and dispatches it to the
// matching handler. A non-governance payload (KindUnknown) is a no-op. A
// decode or validation error is returned so the caller can record it as a
// PayloadDecodeError without failing the block commit.
func (e *Engine) OnTransactionCommitted(height uint64, tx *ledger.Transaction) (*Result, error) {
	kind := payload.Classify(tx.Payload)
	if kind == payload.KindUnknown {
		return nil, nil
	}
	ctx := &Context{
		Store:       e.store,
		Validators:  e.validators,
		Height:      height,
		TxHash:      tx.Hash,
		GraceBlocks: e.graceBlocks,
		Result:      &Result{},
	}
	if err := e.registry.Dispatch(ctx, kind, tx.Payload); err != nil {
		return nil, err
	}
	return ctx.Result, nil
}

// AdvanceHeight recomputes every known proposal's status at height and
// tallies any proposal newly reaching CLOSED. It must run once per
// committed block, independent of whether that block carried a governance
// transaction, since the status machine is driven purely by height.
func (e *Engine) AdvanceHeight(height uint64) (*Result, error) {
	proposals, err := e.store.ListProposals()
	if err != nil {
		return nil, err
	}
	result := &Result{}
	for _, p := range proposals {
		newStatus := p.StatusAt(height, e.graceBlocks)
		if newStatus == p.Status {
			continue
		}
		wasClosed := p.Status == ledger.StatusClosed
		p.Status = newStatus
		if newStatus == ledger.StatusClosed && !wasClosed {
			ballotResult, err := e.tally(p)
			if err != nil {
				return nil, fmt.Errorf("tally proposal %s: %w", p.ProposalID, err)
			}
			p.Result = ballotResult.result
			result.Ballots = append(result.Ballots, ballotResult.decoded...)
		}
		result.Proposals = append(result.Proposals, p)
	}
	return result, nil
}

type tallyOutcome struct {
	result  ledger.ProposalResult
	decoded []*ledger.Ballot
}

// tally decodes every accepted ballot and applies the result rule: PASSED
// if YES forms a strict majority among {YES,NO} (excluding BLANK/REJECT)
// and the total accepted ballots meet quorum = ceil(committee/3), where
// committee is evaluated at vote_start_height.
func (e *Engine) tally(p *ledger.Proposal) (*tallyOutcome, error) {
	ballots, err := e.store.ListBallotsByProposal(p.ProposalID)
	if err != nil {
		return nil, err
	}
	committee, err := e.validators.CommitteeAt(p.VoteStartHeight)
	if err != nil {
		return nil, err
	}
	quorum := (len(committee) + 2) / 3 // ceil(N/3)

	var decoded []*ledger.Ballot
	yes, no, accepted := 0, 0, 0
	for _, bal := range ballots {
		if bal.Answer == ledger.BallotReject {
			continue
		}
		answer, err := e.decodeBallot(p, bal)
		if err != nil {
			bal.Answer = ledger.BallotReject
			bal.RejectReason = err.Error()
			decoded = append(decoded, bal)
			continue
		}
		bal.Answer = answer
		decoded = append(decoded, bal)
		accepted++
		switch answer {
		case ledger.BallotYes:
			yes++
		case ledger.BallotNo:
			no++
		}
	}

	result := ledger.ResultRejected
	if accepted >= quorum && yes+no > 0 && yes > no {
		result = ledger.ResultPassed
	}
	return &tallyOutcome{result: result, decoded: decoded}, nil
}

// decodeBallot derives the per-validator decryption key from the
// vote_end_height pre-image and decrypts the stored ciphertext.
func (e *Engine) decodeBallot(p *ledger.Proposal, bal *ledger.Ballot) (ledger.BallotAnswer, error) {
	preimageHex, err := e.validators.DerivePreImageAt(bal.ValidatorAddress, p.VoteEndHeight)
	if err != nil {
		return "", fmt.Errorf("preimage at vote_end_height unavailable: %w", err)
	}
	preimage, err := hex.DecodeString(preimageHex)
	if err != nil {
		return "", fmt.Errorf("corrupt preimage: %w", err)
	}
	key := crypto.DeriveBallotKey(preimage, p.AppName, p.ProposalID)
	answer, err := crypto.DecryptBallot(key, bal.EncryptedBallot)
	if err != nil {
		return "", fmt.Errorf("decrypt ballot: %w", err)
	}
	switch answer {
	case crypto.AnswerYes:
		return ledger.BallotYes, nil
	case crypto.AnswerNo:
		return ledger.BallotNo, nil
	case crypto.AnswerBlank:
		return ledger.BallotBlank, nil
	default:
		return "", fmt.Errorf("unknown decrypted answer %q", answer)
	}
}
