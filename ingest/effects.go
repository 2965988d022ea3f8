package ingest

import (
	"errors"
	"fmt"

	"github.com/lumenledger/stoa/governance"
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/payload"
	"github.com/lumenledger/stoa/storage"
	"github.com/lumenledger/stoa/validator"
)

// buildEffects derives everything put_block must apply atomically alongside
// the block itself: spent/created UTXOs, new validator enrollments, the
// header's pre-image reveals, and whatever the Governance Engine produces
// from each committed transaction plus the height-triggered status advance
//.
func buildEffects(block *ledger.Block, validators *validator.Engine, gov *governance.Engine) (storage.CommitEffects, error) {
	var effects storage.CommitEffects
	h := block.Header.Height

	committee, err := validators.CanonicalCommitteeOrder(h)
	if err != nil {
		return effects, fmt.Errorf("committee at %d: %w", h, err)
	}
	for i, reveal := range block.Header.PreImages {
		if reveal == ledger.ZeroPreimage || i >= len(committee) {
			continue
		}
		enr := committee[i]
		effects.PreImageUpdates = append(effects.PreImageUpdates, &ledger.PreImage{
			Validator:    enr.Validator,
			UTXOKey:      enr.UTXOKey,
			AnchorHeight: enr.EnrolledAt + 1,
			TipHash:      reveal,
			TipHeight:    h,
		})
	}

	for _, tx := range block.Transactions {
		for _, in := range tx.Inputs {
			effects.SpentUTXOKeys = append(effects.SpentUTXOKeys, in.UTXOKey)
		}
		for i, out := range tx.Outputs {
			effects.NewUTXOs = append(effects.NewUTXOs, &ledger.UTXO{
				Key:             ledger.UTXOKey(tx.Hash, i),
				Owner:           out.Address,
				Amount:          out.Amount,
				Type:            out.Type,
				UnlockHeight:    out.UnlockHeight,
				LockType:        out.LockType,
				LockBytes:       out.LockBytes,
				CreatedAtHeight: h,
			})
		}

		if tx.Type == ledger.TxFreeze {
			decl, err := payload.DecodeEnrollment(tx.Payload)
			if err != nil {
				return effects, fmt.Errorf("tx %s: enrollment payload: %w", tx.Hash, err)
			}
			if len(tx.Outputs) == 0 {
				return effects, fmt.Errorf("tx %s: freeze transaction has no outputs to enroll", tx.Hash)
			}
			effects.NewEnrollments = append(effects.NewEnrollments, &ledger.Enrollment{
				UTXOKey:     ledger.UTXOKey(tx.Hash, 0),
				Validator:   tx.Outputs[0].Address,
				PubKey:      decl.PubKey,
				EnrolledAt:  h,
				Commitment:  decl.Commitment,
				CycleLength: decl.CycleLength,
				Signature:   decl.Signature,
			})
		}

		result, err := gov.OnTransactionCommitted(h, tx)
		if err != nil {
			if errors.Is(err, payload.ErrDecode) {
				// PayloadDecodeError: the transaction itself still
				// commits, only its governance effect is skipped.
				continue
			}
			return effects, fmt.Errorf("tx %s: governance: %w", tx.Hash, err)
		}
		if result != nil {
			effects.UpsertProposals = append(effects.UpsertProposals, result.Proposals...)
			effects.UpsertBallots = append(effects.UpsertBallots, result.Ballots...)
		}
	}

	advanced, err := gov.AdvanceHeight(h)
	if err != nil {
		return effects, fmt.Errorf("advance height %d: %w", h, err)
	}
	effects.UpsertProposals = append(effects.UpsertProposals, advanced.Proposals...)
	effects.UpsertBallots = append(effects.UpsertBallots, advanced.Ballots...)

	return effects, nil
}
