package payload

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	if got := Classify(nil); got != KindUnknown {
		t.Errorf("Classify(nil) = %v, want KindUnknown", got)
	}
	if got := Classify([]byte{}); got != KindUnknown {
		t.Errorf("Classify(empty) = %v, want KindUnknown", got)
	}
	if got := Classify([]byte{byte(KindProposal), 1, 2}); got != KindProposal {
		t.Errorf("Classify = %v, want KindProposal", got)
	}
}

func TestProposalFeeRoundtrip(t *testing.T) {
	p := ProposalFee{AppName: "myapp", ProposalID: "prop-1"}
	raw := p.Encode()
	if Classify(raw) != KindProposalFee {
		t.Fatalf("encoded payload classified as %v, want KindProposalFee", Classify(raw))
	}
	decoded, err := DecodeProposalFee(raw)
	if err != nil {
		t.Fatalf("DecodeProposalFee: %v", err)
	}
	if decoded != p {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, p)
	}
}

func TestProposalRoundtrip(t *testing.T) {
	p := Proposal{
		AppName:               "myapp",
		Type:                  DeclFund,
		ProposalID:            "prop-1",
		Title:                 "Fund my thing",
		VoteStartHeight:       100,
		VoteEndHeight:         200,
		DocHash:               [32]byte{1, 2, 3},
		FundAmount:            5000,
		ProposalFee:           10,
		VoteFee:               1,
		FeeTxHash:             [32]byte{4, 5, 6},
		ProposerAddress:       "addr-proposer",
		FeeDestinationAddress: "addr-dest",
	}
	raw := p.Encode()
	decoded, err := DecodeProposal(raw)
	if err != nil {
		t.Fatalf("DecodeProposal: %v", err)
	}
	if decoded != p {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, p)
	}
}

func TestProposalRejectsInvalidVoteWindow(t *testing.T) {
	p := Proposal{Type: DeclSystem, VoteStartHeight: 200, VoteEndHeight: 100}
	raw := p.Encode()
	if _, err := DecodeProposal(raw); !errors.Is(err, ErrDecode) {
		t.Fatal("expected ErrDecode for vote_end_height <= vote_start_height")
	}
}

func TestProposalRejectsUnknownType(t *testing.T) {
	w := newWriter()
	w.byte(byte(KindProposal))
	w.str("app")
	w.str("NotAType")
	raw := w.bytes()
	if _, err := DecodeProposal(raw); !errors.Is(err, ErrDecode) {
		t.Fatal("expected ErrDecode for an unrecognised proposal type")
	}
}

func TestBallotRoundtrip(t *testing.T) {
	b := Ballot{
		AppName:         "myapp",
		ProposalID:      "prop-1",
		EncryptedAnswer: []byte{9, 9, 9},
		VoterCard: VoterCard{
			ValidatorAddress: "val-addr",
			TemporaryAddress: "temp-addr",
			ExpiresAt:        "2026-01-01T00:00:00Z",
			Signature:        "card-sig",
		},
		Sequence:  3,
		Signature: "inner-sig",
	}
	raw := b.Encode()
	decoded, err := DecodeBallot(raw)
	if err != nil {
		t.Fatalf("DecodeBallot: %v", err)
	}
	if decoded.AppName != b.AppName || decoded.ProposalID != b.ProposalID ||
		string(decoded.EncryptedAnswer) != string(b.EncryptedAnswer) ||
		decoded.VoterCard != b.VoterCard || decoded.Sequence != b.Sequence ||
		decoded.Signature != b.Signature {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, b)
	}
}

func TestDecodeRejectsWrongTag(t *testing.T) {
	ballotBytes := Ballot{AppName: "a", ProposalID: "b"}.Encode()
	if _, err := DecodeProposalFee(ballotBytes); !errors.Is(err, ErrDecode) {
		t.Fatal("decoding a Ballot payload as ProposalFee must fail")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	raw := append(ProposalFee{AppName: "a", ProposalID: "b"}.Encode(), 0xFF)
	if _, err := DecodeProposalFee(raw); !errors.Is(err, ErrDecode) {
		t.Fatal("trailing bytes after a well-formed payload must be rejected")
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	raw := ProposalFee{AppName: "a", ProposalID: "b"}.Encode()
	truncated := raw[:len(raw)-2]
	if _, err := DecodeProposalFee(truncated); !errors.Is(err, ErrDecode) {
		t.Fatal("truncated payload must be rejected")
	}
}
