package ledger

import (
	"bytes"

	"github.com/lumenledger/stoa/crypto"
)

// TxType identifies the kind of value-transfer a transaction performs.
type TxType string

const (
	TxPayment TxType = "payment"
	TxFreeze  TxType = "freeze"
	TxCoinbase TxType = "coinbase"
)

// TxInput references a prior UTXO being consumed.
type TxInput struct {
	UTXOKey string `json:"utxo_key"`
}

// TxOutput creates a new UTXO.
type TxOutput struct {
	Address      string `json:"address"`
	Amount       uint64 `json:"amount"`
	Type         string `json:"type"`       // mirrors the owning UTXO's type (payment/freeze)
	UnlockHeight uint64 `json:"unlock_height"`
	LockType     string `json:"lock_type"`
	LockBytes    []byte `json:"lock_bytes,omitempty"`
}

// Transaction is the atomic unit of value transfer and payload carriage.
// Hash is deterministic from the transaction's contents and is bound to
// exactly one block once committed.
type Transaction struct {
	Hash        string     `json:"tx_hash"`
	BlockHeight uint64     `json:"block_height"`
	Type        TxType     `json:"type"`
	Inputs      []TxInput  `json:"inputs"`
	Outputs     []TxOutput `json:"outputs"`
	Payload     []byte     `json:"payload,omitempty"`
	Fee         uint64     `json:"fee"`
	Size        uint64     `json:"size"`
}

// ComputeHash deterministically hashes the transaction's contents
// (everything except BlockHeight, which is assigned at commit time and is
// not part of the transaction's identity).
func (tx *Transaction) ComputeHash() string {
	var buf bytes.Buffer
	writeString(&buf, string(tx.Type))
	writeUint64(&buf, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		writeString(&buf, in.UTXOKey)
	}
	writeUint64(&buf, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		writeString(&buf, out.Address)
		writeUint64(&buf, out.Amount)
		writeString(&buf, out.Type)
		writeUint64(&buf, out.UnlockHeight)
		writeString(&buf, out.LockType)
		writeString(&buf, string(out.LockBytes))
	}
	writeString(&buf, string(tx.Payload))
	writeUint64(&buf, tx.Fee)
	return crypto.Hash(buf.Bytes())
}

// SumOutputs returns the total amount across all outputs.
func (tx *Transaction) SumOutputs() uint64 {
	var total uint64
	for _, o := range tx.Outputs {
		total += o.Amount
	}
	return total
}
