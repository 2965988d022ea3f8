// Package payload implements the tagged binary encoding transactions use to
// carry governance data. Stoa classifies every committed transaction's
// opaque payload bytes by a one-byte tag and decodes the tagged variant;
// anything else (including a genuinely empty payload) is Kind Unknown and
// the governance engine ignores it.
package payload

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Kind tags the payload variant. The tag is the first byte of the opaque
// transaction payload.
type Kind byte

const (
	KindUnknown     Kind = 0
	KindProposalFee Kind = 1
	KindProposal    Kind = 2
	KindBallot      Kind = 3
)

// ErrDecode is wrapped by every decode failure so callers (the governance
// engine) can classify it as PayloadDecodeError without
// string-matching.
var ErrDecode = errors.New("payload: decode error")

// Classify reports the Kind tag of raw, or KindUnknown if raw is empty or
// its first byte is not one of the tags above.
func Classify(raw []byte) Kind {
	if len(raw) == 0 {
		return KindUnknown
	}
	switch k := Kind(raw[0]); k {
	case KindProposalFee, KindProposal, KindBallot:
		return k
	}
	return KindUnknown
}

// ---- ProposalFee ----

// ProposalFee = {app_name, proposal_id}, a pending fee marker a later
// Proposal declaration links back to by tx hash.
type ProposalFee struct {
	AppName    string
	ProposalID string
}

func (p ProposalFee) Encode() []byte {
	w := newWriter()
	w.byte(byte(KindProposalFee))
	w.str(p.AppName)
	w.str(p.ProposalID)
	return w.bytes()
}

func DecodeProposalFee(raw []byte) (ProposalFee, error) {
	r := newReader(raw)
	if k, err := r.byteTag(); err != nil || Kind(k) != KindProposalFee {
		return ProposalFee{}, fmt.Errorf("%w: not a ProposalFee payload", ErrDecode)
	}
	appName, err := r.str()
	if err != nil {
		return ProposalFee{}, fmt.Errorf("%w: app_name: %v", ErrDecode, err)
	}
	proposalID, err := r.str()
	if err != nil {
		return ProposalFee{}, fmt.Errorf("%w: proposal_id: %v", ErrDecode, err)
	}
	return ProposalFee{AppName: appName, ProposalID: proposalID}, r.done()
}

// ---- Proposal ----

// ProposalDeclType mirrors ledger.ProposalType on the wire.
type ProposalDeclType string

const (
	DeclSystem ProposalDeclType = "System"
	DeclFund   ProposalDeclType = "Fund"
)

// Proposal declares a new governance proposal.
type Proposal struct {
	AppName               string
	Type                  ProposalDeclType
	ProposalID            string
	Title                 string
	VoteStartHeight       uint64
	VoteEndHeight         uint64
	DocHash               [32]byte
	FundAmount            uint64
	ProposalFee           uint64
	VoteFee               uint64
	FeeTxHash             [32]byte
	ProposerAddress       string
	FeeDestinationAddress string
}

func (p Proposal) Encode() []byte {
	w := newWriter()
	w.byte(byte(KindProposal))
	w.str(p.AppName)
	w.str(string(p.Type))
	w.str(p.ProposalID)
	w.str(p.Title)
	w.u64(p.VoteStartHeight)
	w.u64(p.VoteEndHeight)
	w.fixed(p.DocHash[:])
	w.u64(p.FundAmount)
	w.u64(p.ProposalFee)
	w.u64(p.VoteFee)
	w.fixed(p.FeeTxHash[:])
	w.str(p.ProposerAddress)
	w.str(p.FeeDestinationAddress)
	return w.bytes()
}

func DecodeProposal(raw []byte) (Proposal, error) {
	r := newReader(raw)
	var out Proposal
	if k, err := r.byteTag(); err != nil || Kind(k) != KindProposal {
		return out, fmt.Errorf("%w: not a Proposal payload", ErrDecode)
	}
	var err error
	if out.AppName, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: app_name: %v", ErrDecode, err)
	}
	typ, err := r.str()
	if err != nil {
		return out, fmt.Errorf("%w: type: %v", ErrDecode, err)
	}
	out.Type = ProposalDeclType(typ)
	if out.Type != DeclSystem && out.Type != DeclFund {
		return out, fmt.Errorf("%w: unknown proposal type %q", ErrDecode, typ)
	}
	if out.ProposalID, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: proposal_id: %v", ErrDecode, err)
	}
	if out.Title, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: title: %v", ErrDecode, err)
	}
	if out.VoteStartHeight, err = r.u64(); err != nil {
		return out, fmt.Errorf("%w: vote_start_height: %v", ErrDecode, err)
	}
	if out.VoteEndHeight, err = r.u64(); err != nil {
		return out, fmt.Errorf("%w: vote_end_height: %v", ErrDecode, err)
	}
	if out.VoteEndHeight <= out.VoteStartHeight {
		return out, fmt.Errorf("%w: vote_start_height must be < vote_end_height", ErrDecode)
	}
	docHash, err := r.fixed(32)
	if err != nil {
		return out, fmt.Errorf("%w: doc_hash: %v", ErrDecode, err)
	}
	copy(out.DocHash[:], docHash)
	if out.FundAmount, err = r.u64(); err != nil {
		return out, fmt.Errorf("%w: fund_amount: %v", ErrDecode, err)
	}
	if out.ProposalFee, err = r.u64(); err != nil {
		return out, fmt.Errorf("%w: proposal_fee: %v", ErrDecode, err)
	}
	if out.VoteFee, err = r.u64(); err != nil {
		return out, fmt.Errorf("%w: vote_fee: %v", ErrDecode, err)
	}
	feeTxHash, err := r.fixed(32)
	if err != nil {
		return out, fmt.Errorf("%w: fee_tx_hash: %v", ErrDecode, err)
	}
	copy(out.FeeTxHash[:], feeTxHash)
	if out.ProposerAddress, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: proposer_address: %v", ErrDecode, err)
	}
	if out.FeeDestinationAddress, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: fee_destination_address: %v", ErrDecode, err)
	}
	return out, r.done()
}

// ---- Ballot ----

// VoterCard is the wire form of ledger.VoterCard.
type VoterCard struct {
	ValidatorAddress string
	TemporaryAddress string
	TemporaryPubKey  string
	ExpiresAt        string
	Signature        string
}

// Ballot carries an encrypted vote.
type Ballot struct {
	AppName         string
	ProposalID      string
	EncryptedAnswer []byte
	VoterCard       VoterCard
	Sequence        uint32
	Signature       string
}

func (b Ballot) Encode() []byte {
	w := newWriter()
	w.byte(byte(KindBallot))
	w.str(b.AppName)
	w.str(b.ProposalID)
	w.blob(b.EncryptedAnswer)
	w.str(b.VoterCard.ValidatorAddress)
	w.str(b.VoterCard.TemporaryAddress)
	w.str(b.VoterCard.TemporaryPubKey)
	w.str(b.VoterCard.ExpiresAt)
	w.str(b.VoterCard.Signature)
	w.u32(b.Sequence)
	w.str(b.Signature)
	return w.bytes()
}

func DecodeBallot(raw []byte) (Ballot, error) {
	r := newReader(raw)
	var out Ballot
	if k, err := r.byteTag(); err != nil || Kind(k) != KindBallot {
		return out, fmt.Errorf("%w: not a Ballot payload", ErrDecode)
	}
	var err error
	if out.AppName, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: app_name: %v", ErrDecode, err)
	}
	if out.ProposalID, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: proposal_id: %v", ErrDecode, err)
	}
	if out.EncryptedAnswer, err = r.blob(); err != nil {
		return out, fmt.Errorf("%w: encrypted_answer: %v", ErrDecode, err)
	}
	if out.VoterCard.ValidatorAddress, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: voter_card.validator_address: %v", ErrDecode, err)
	}
	if out.VoterCard.TemporaryAddress, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: voter_card.temporary_address: %v", ErrDecode, err)
	}
	if out.VoterCard.TemporaryPubKey, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: voter_card.temporary_pub_key: %v", ErrDecode, err)
	}
	if out.VoterCard.ExpiresAt, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: voter_card.expires_at: %v", ErrDecode, err)
	}
	if out.VoterCard.Signature, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: voter_card.signature: %v", ErrDecode, err)
	}
	if out.Sequence, err = r.u32(); err != nil {
		return out, fmt.Errorf("%w: sequence: %v", ErrDecode, err)
	}
	if out.Signature, err = r.str(); err != nil {
		return out, fmt.Errorf("%w: signature: %v", ErrDecode, err)
	}
	return out, r.done()
}

// ---- binary reader/writer helpers ----
// Length-prefix everything variable-length (4-byte big-endian) for
// deterministic, unambiguous encoding.

type writer struct{ buf []byte }

func newWriter() *writer { return &writer{} }

func (w *writer) byte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) str(s string) { w.blob([]byte(s)) }

func (w *writer) fixed(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) bytes() []byte { return w.buf }

type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) byteTag() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errors.New("unexpected end of payload")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, errors.New("unexpected end of payload")
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, errors.New("unexpected end of payload")
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) fixed(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errors.New("unexpected end of payload")
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) blob() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.fixed(int(n))
}

func (r *reader) str() (string, error) {
	b, err := r.blob()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) done() error {
	if r.pos != len(r.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(r.buf)-r.pos)
	}
	return nil
}
