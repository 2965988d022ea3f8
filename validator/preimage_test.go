package validator_test

import (
	"encoding/hex"
	"testing"

	"github.com/lumenledger/stoa/crypto"
	"github.com/lumenledger/stoa/internal/testutil"
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/validator"
)

// chainFromSeed builds a hash chain of length n+1 where chain[n] is the
// deepest value and hashing it forward n times recovers chain[0], matching
// the validator package's "tip hashes forward to recover earlier heights"
// convention.
func chainFromSeed(seed []byte, n int) [][]byte {
	chain := make([][]byte, n+1)
	chain[n] = seed
	cur := seed
	for i := n - 1; i >= 0; i-- {
		cur = crypto.HashBytes(cur)
		chain[i] = cur
	}
	return chain
}

func TestDerivePreImageAt(t *testing.T) {
	store := testutil.NewStore()
	chain := chainFromSeed([]byte("anchor"), 5) // chain[5] is the tip's underlying seed
	tip := hex.EncodeToString(chain[5])
	if err := store.PutPreImage(&ledger.PreImage{Validator: "val-a", TipHeight: 10, TipHash: tip}); err != nil {
		t.Fatal(err)
	}
	engine := validator.NewEngine(store)

	got, err := engine.DerivePreImageAt("val-a", 10)
	if err != nil {
		t.Fatalf("DerivePreImageAt(tip): %v", err)
	}
	if got != tip {
		t.Errorf("at tip height, expected the tip hash itself: got %s want %s", got, tip)
	}

	earlier, err := engine.DerivePreImageAt("val-a", 5)
	if err != nil {
		t.Fatalf("DerivePreImageAt(earlier): %v", err)
	}
	if earlier != hex.EncodeToString(chain[0]) {
		t.Errorf("derived earlier preimage mismatch: got %s want %s", earlier, hex.EncodeToString(chain[0]))
	}
}

func TestDerivePreImageAtFutureHeightFails(t *testing.T) {
	store := testutil.NewStore()
	if err := store.PutPreImage(&ledger.PreImage{Validator: "val-a", TipHeight: 10, TipHash: "deadbeef"}); err != nil {
		t.Fatal(err)
	}
	engine := validator.NewEngine(store)
	if _, err := engine.DerivePreImageAt("val-a", 11); err == nil {
		t.Fatal("deriving beyond the published tip must fail")
	}
}

func TestAcceptPreImageMonotonic(t *testing.T) {
	chain := chainFromSeed([]byte("anchor"), 5)
	current := &ledger.PreImage{Validator: "val-a", TipHeight: 5, TipHash: hex.EncodeToString(chain[5])}
	next := &ledger.PreImage{Validator: "val-a", TipHeight: 3, TipHash: hex.EncodeToString(chain[3])}

	if err := validator.AcceptPreImage(current, next); err == nil {
		t.Fatal("a tip_height that does not advance must be rejected")
	}
}

func TestAcceptPreImageChainConsistency(t *testing.T) {
	chain := chainFromSeed([]byte("anchor"), 5)
	current := &ledger.PreImage{Validator: "val-a", TipHeight: 0, TipHash: hex.EncodeToString(chain[0])}
	validNext := &ledger.PreImage{Validator: "val-a", TipHeight: 5, TipHash: hex.EncodeToString(chain[5])}
	if err := validator.AcceptPreImage(current, validNext); err != nil {
		t.Fatalf("valid chained preimage rejected: %v", err)
	}

	invalidNext := &ledger.PreImage{Validator: "val-a", TipHeight: 5, TipHash: hex.EncodeToString([]byte("not-a-real-chain-value-000000"))}
	if err := validator.AcceptPreImage(current, invalidNext); err == nil {
		t.Fatal("a preimage that doesn't chain back to the current tip must be rejected")
	}
}

func TestAcceptPreImageNoCurrentAlwaysAccepted(t *testing.T) {
	next := &ledger.PreImage{Validator: "val-a", TipHeight: 0, TipHash: "anything"}
	if err := validator.AcceptPreImage(nil, next); err != nil {
		t.Fatalf("first-ever preimage for a validator must be accepted: %v", err)
	}
}
