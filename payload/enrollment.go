package payload

import "fmt"

// Enrollment is the wire declaration carried by a Freeze transaction's
// payload: the validator's commitment and cycle length for the frozen-stake
// output that same transaction creates.
// Unlike ProposalFee/Proposal/Ballot this is never dispatched through the
// Kind-tagged governance registry. A transaction's Type already
// disambiguates it as an enrollment declaration, so no tag byte is spent.
type Enrollment struct {
	Commitment  string
	CycleLength uint64
	PubKey      string // hex ed25519 public key backing the enrolling address
	Signature   string
}

func (e Enrollment) Encode() []byte {
	w := newWriter()
	w.str(e.Commitment)
	w.u64(e.CycleLength)
	w.str(e.PubKey)
	w.str(e.Signature)
	return w.bytes()
}

func DecodeEnrollment(raw []byte) (Enrollment, error) {
	r := newReader(raw)
	var out Enrollment
	var err error
	if out.Commitment, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: commitment: %v", ErrDecode, err)
	}
	if out.CycleLength, err = r.u64(); err != nil {
		return out, fmt.Errorf("%w: cycle_length: %v", ErrDecode, err)
	}
	if out.CycleLength == 0 {
		return out, fmt.Errorf("%w: cycle_length must be positive", ErrDecode)
	}
	if out.PubKey, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: pub_key: %v", ErrDecode, err)
	}
	if out.Signature, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: signature: %v", ErrDecode, err)
	}
	return out, r.done()
}
