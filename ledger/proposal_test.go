package ledger

import "testing"

func TestProposalStatusAt(t *testing.T) {
	p := &Proposal{VoteStartHeight: 100, VoteEndHeight: 200}
	const grace = 7

	cases := []struct {
		height uint64
		want   ProposalStatus
	}{
		{50, StatusPending},
		{99, StatusPending},
		{100, StatusVoting},
		{150, StatusVoting},
		{200, StatusVoting},
		{201, StatusCountingVotes},
		{206, StatusCountingVotes},
		{207, StatusClosed},
		{300, StatusClosed},
	}
	for _, c := range cases {
		if got := p.StatusAt(c.height, grace); got != c.want {
			t.Errorf("StatusAt(%d) = %s, want %s", c.height, got, c.want)
		}
	}
}

func TestProposalStatusAtZeroGrace(t *testing.T) {
	p := &Proposal{VoteStartHeight: 10, VoteEndHeight: 20}
	if got := p.StatusAt(21, 0); got != StatusClosed {
		t.Fatalf("StatusAt(21) with grace=0 = %s, want CLOSED", got)
	}
}
