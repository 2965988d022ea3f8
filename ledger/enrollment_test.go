package ledger

import "testing"

func TestEnrollmentActiveAt(t *testing.T) {
	e := &Enrollment{EnrolledAt: 10, CycleLength: 5}

	cases := []struct {
		height uint64
		active bool
	}{
		{10, false}, // enrolled_at itself is exclusive
		{11, true},
		{15, true}, // enrolled_at + cycle_length is inclusive
		{16, false},
	}
	for _, c := range cases {
		if got := e.ActiveAt(c.height); got != c.active {
			t.Errorf("ActiveAt(%d) = %v, want %v", c.height, got, c.active)
		}
	}
}

func TestEnrollmentExpiresAt(t *testing.T) {
	e := &Enrollment{EnrolledAt: 10, CycleLength: 5}
	if got := e.ExpiresAt(); got != 15 {
		t.Fatalf("ExpiresAt() = %d, want 15", got)
	}
}
