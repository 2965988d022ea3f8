// Package api implements the Query API and the private intake
// endpoints: the HTTP surface read handlers hit the Ledger Store
// directly and in parallel, while the three write endpoints only hand their
// payload to the ingestion pipeline's queue.
package api

import (
	"encoding/json"
	"strconv"

	"github.com/lumenledger/stoa/ledger"
)

// num is a uint64 that marshals as a JSON string: numeric fields that can
// exceed 2^53 are carried as decimal strings rather than native JSON numbers,
// so clients never lose precision silently.
type num uint64

func (n num) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(n), 10))
}

type blockDTO struct {
	Height     num      `json:"height"`
	Hash       string   `json:"hash"`
	PrevHash   string   `json:"prev_hash"`
	MerkleRoot string   `json:"merkle_root"`
	RandomSeed string   `json:"random_seed"`
	TimeOffset int64    `json:"time_offset"`
	PreImages  []string `json:"preimages"`
	TxCount    int      `json:"tx_count"`
}

func toBlockDTO(b *ledger.Block) blockDTO {
	return blockDTO{
		Height:     num(b.Header.Height),
		Hash:       b.Hash,
		PrevHash:   b.Header.PrevHash,
		MerkleRoot: b.Header.MerkleRoot,
		RandomSeed: b.Header.RandomSeed,
		TimeOffset: b.Header.TimeOffset,
		PreImages:  b.Header.PreImages,
		TxCount:    len(b.Transactions),
	}
}

type txDTO struct {
	Hash        string          `json:"tx_hash"`
	BlockHeight num             `json:"block_height"`
	Type        ledger.TxType   `json:"type"`
	Inputs      []ledger.TxInput `json:"inputs"`
	Outputs     []txOutDTO      `json:"outputs"`
	Fee         num             `json:"fee"`
	Size        num             `json:"size"`
}

type txOutDTO struct {
	Address      string `json:"address"`
	Amount       num    `json:"amount"`
	Type         string `json:"type"`
	UnlockHeight num    `json:"unlock_height"`
	LockType     string `json:"lock_type"`
}

func toTxDTO(tx *ledger.Transaction) txDTO {
	outs := make([]txOutDTO, len(tx.Outputs))
	for i, o := range tx.Outputs {
		outs[i] = txOutDTO{Address: o.Address, Amount: num(o.Amount), Type: o.Type, UnlockHeight: num(o.UnlockHeight), LockType: o.LockType}
	}
	return txDTO{
		Hash:        tx.Hash,
		BlockHeight: num(tx.BlockHeight),
		Type:        tx.Type,
		Inputs:      tx.Inputs,
		Outputs:     outs,
		Fee:         num(tx.Fee),
		Size:        num(tx.Size),
	}
}

type utxoDTO struct {
	Key             string `json:"utxo_key"`
	Owner           string `json:"owning_address"`
	Amount          num    `json:"amount"`
	Type            string `json:"type"`
	UnlockHeight    num    `json:"unlock_height"`
	CreatedAtHeight num    `json:"created_at_height"`
	Spent           bool   `json:"spent"`
	SpentAtHeight   *num   `json:"spent_at_height,omitempty"`
}

func toUTXODTO(u *ledger.UTXO) utxoDTO {
	d := utxoDTO{
		Key:             u.Key,
		Owner:           u.Owner,
		Amount:          num(u.Amount),
		Type:            u.Type,
		UnlockHeight:    num(u.UnlockHeight),
		CreatedAtHeight: num(u.CreatedAtHeight),
		Spent:           u.IsSpent(),
	}
	if u.SpentAtHeight != nil {
		n := num(*u.SpentAtHeight)
		d.SpentAtHeight = &n
	}
	return d
}

type enrollmentDTO struct {
	UTXOKey     string `json:"utxo_key"`
	Validator   string `json:"validator_address"`
	EnrolledAt  num    `json:"enrolled_at"`
	CycleLength num    `json:"cycle_length"`
	ExpiresAt   num    `json:"expires_at"`
}

func toEnrollmentDTO(e *ledger.Enrollment) enrollmentDTO {
	return enrollmentDTO{
		UTXOKey:     e.UTXOKey,
		Validator:   e.Validator,
		EnrolledAt:  num(e.EnrolledAt),
		CycleLength: num(e.CycleLength),
		ExpiresAt:   num(e.ExpiresAt()),
	}
}

type proposalDTO struct {
	ProposalID      string                    `json:"proposal_id"`
	AppName         string                    `json:"app_name"`
	Type            ledger.ProposalType       `json:"type"`
	ProposerAddress string                    `json:"proposer_address"`
	VoteStartHeight num                       `json:"vote_start_height"`
	VoteEndHeight   num                       `json:"vote_end_height"`
	FundAmount      num                       `json:"fund_amount"`
	Status          ledger.ProposalStatus     `json:"status"`
	Result          ledger.ProposalResult     `json:"result"`
	Metadata        *ledger.ProposalMetadata  `json:"metadata,omitempty"`
}

func toProposalDTO(p *ledger.Proposal) proposalDTO {
	return proposalDTO{
		ProposalID:      p.ProposalID,
		AppName:         p.AppName,
		Type:            p.Type,
		ProposerAddress: p.ProposerAddress,
		VoteStartHeight: num(p.VoteStartHeight),
		VoteEndHeight:   num(p.VoteEndHeight),
		FundAmount:      num(p.FundAmount),
		Status:          p.Status,
		Result:          p.Result,
		Metadata:        p.Metadata,
	}
}

type ballotDTO struct {
	ProposalID       string              `json:"proposal_id"`
	ValidatorAddress string              `json:"validator_address"`
	BlockHeight      num                 `json:"block_height"`
	Answer           ledger.BallotAnswer `json:"ballot_answer"`
	RejectReason     string              `json:"reject_reason,omitempty"`
}

func toBallotDTO(b *ledger.Ballot) ballotDTO {
	return ballotDTO{
		ProposalID:       b.ProposalID,
		ValidatorAddress: b.ValidatorAddress,
		BlockHeight:      num(b.BlockHeight),
		Answer:           b.Answer,
		RejectReason:     b.RejectReason,
	}
}
