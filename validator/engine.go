// Package validator implements the Validator Set Engine and Pre-Image
// Registry: who is on the committee at a given height, and what
// pre-image each committee member has published.
package validator

import (
	"sort"

	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/storage"
)

// Engine answers committee-membership and pre-image-derivation questions
// against the Ledger Store. It holds no mutable state of its own: every
// query reads the store fresh, consistent with the read track's unbounded
// parallelism.
type Engine struct {
	store *storage.Store
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// ActiveEnrollments returns every enrollment whose window covers height h:
// enrolled_at < h <= enrolled_at + cycle_length.
func (e *Engine) ActiveEnrollments(h uint64) ([]*ledger.Enrollment, error) {
	all, err := e.store.ListEnrollments()
	if err != nil {
		return nil, err
	}
	var active []*ledger.Enrollment
	for _, enr := range all {
		if enr.ActiveAt(h) {
			active = append(active, enr)
		}
	}
	return active, nil
}

// CommitteeAt returns the active enrollments at height h that have also
// published a pre-image reaching h. A validator enrolled but silent at h
// is active but not seated; the block header's PreImages slots follow
// CanonicalCommitteeOrder (every active enrollment), and a silent
// validator's slot there carries ledger.ZeroPreimage.
func (e *Engine) CommitteeAt(h uint64) ([]*ledger.Enrollment, error) {
	active, err := e.ActiveEnrollments(h)
	if err != nil {
		return nil, err
	}
	var seated []*ledger.Enrollment
	for _, enr := range active {
		if _, err := e.DerivePreImageAt(enr.Validator, h); err == nil {
			seated = append(seated, enr)
		}
	}
	return seated, nil
}

// CanonicalCommitteeOrder returns the enrollments active at h sorted by
// validator address, the order the block header's PreImages slots are
// indexed against.
func (e *Engine) CanonicalCommitteeOrder(h uint64) ([]*ledger.Enrollment, error) {
	active, err := e.ActiveEnrollments(h)
	if err != nil {
		return nil, err
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Validator < active[j].Validator })
	return active, nil
}

// IsReEnrollment reports whether next continues prev's committee seat
// without a gap: same frozen-stake UTXO, and next's window picks up exactly
// where prev's left off.
func IsReEnrollment(prev, next *ledger.Enrollment) bool {
	return prev.UTXOKey == next.UTXOKey && next.EnrolledAt == prev.ExpiresAt()
}
