package ledger

import "testing"

func TestPreImageInWindow(t *testing.T) {
	p := &PreImage{AnchorHeight: 100}
	cases := []struct {
		tipHeight uint64
		want      bool
	}{
		{99, false},
		{100, true},
		{105, true},
		{110, false},
	}
	for _, c := range cases {
		p.TipHeight = c.tipHeight
		if got := p.InWindow(10); got != c.want {
			t.Errorf("InWindow tip=%d = %v, want %v", c.tipHeight, got, c.want)
		}
	}
}
