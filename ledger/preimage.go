package ledger

// PreImage is the latest published tip of a validator's hash-preimage chain.
// Earlier heights are derived on demand by repeated hashing rather than
// stored.
type PreImage struct {
	Validator    string `json:"validator_address"`
	UTXOKey      string `json:"utxo_key"`
	AnchorHeight uint64 `json:"anchor_height"`
	TipHash      string `json:"tip_hash"`
	TipHeight    uint64 `json:"tip_height"`
}

// InWindow reports whether tipHeight falls within [anchor, anchor+cycle).
func (p *PreImage) InWindow(cycleLength uint64) bool {
	return p.TipHeight >= p.AnchorHeight && p.TipHeight < p.AnchorHeight+cycleLength
}
