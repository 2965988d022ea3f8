package ledger

// Enrollment is a validator's commitment to serve for CycleLength blocks,
// backed by a frozen-stake UTXO. Active from EnrolledAt+1 through
// EnrolledAt+CycleLength inclusive.
type Enrollment struct {
	UTXOKey     string `json:"utxo_key"`
	Validator   string `json:"validator_address"`
	PubKey      string `json:"pub_key"` // hex ed25519 public key backing Validator's address
	EnrolledAt  uint64 `json:"enrolled_at"`
	Commitment  string `json:"commitment"`
	CycleLength uint64 `json:"cycle_length"`
	Signature   string `json:"signature"`
}

// ActiveAt reports whether the enrollment's committee window covers height h:
// enrolled_at < h <= enrolled_at + cycle_length.
func (e *Enrollment) ActiveAt(h uint64) bool {
	return h > e.EnrolledAt && h <= e.EnrolledAt+e.CycleLength
}

// ExpiresAt returns the height at which this enrollment's window closes
// (the last height at which it is still active).
func (e *Enrollment) ExpiresAt() uint64 {
	return e.EnrolledAt + e.CycleLength
}
