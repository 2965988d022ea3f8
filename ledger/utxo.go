package ledger

import "fmt"

// UTXO is an unspent (or historically spent) transaction output.
type UTXO struct {
	Key             string  `json:"utxo_key"`
	Owner           string  `json:"owning_address"`
	Amount          uint64  `json:"amount"`
	Type            string  `json:"type"`
	UnlockHeight    uint64  `json:"unlock_height"`
	LockType        string  `json:"lock_type"`
	LockBytes       []byte  `json:"lock_bytes,omitempty"`
	CreatedAtHeight uint64  `json:"created_at_height"`
	SpentAtHeight   *uint64 `json:"spent_at_height,omitempty"`
}

// IsSpent reports whether the UTXO has been consumed.
func (u *UTXO) IsSpent() bool {
	return u.SpentAtHeight != nil
}

// UTXOKey derives the canonical key for output index i of tx txHash.
func UTXOKey(txHash string, index int) string {
	return fmt.Sprintf("%s:%d", txHash, index)
}
