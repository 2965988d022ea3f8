package ingest

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenledger/stoa/agora"
	"github.com/lumenledger/stoa/crypto"
	"github.com/lumenledger/stoa/events"
	"github.com/lumenledger/stoa/governance"
	"github.com/lumenledger/stoa/internal/testutil"
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/storage"
	"github.com/lumenledger/stoa/validator"
)

func newTestPipeline(t *testing.T, baseURL string) (*Pipeline, *storage.Store) {
	t.Helper()
	store := testutil.NewStore()
	validators := validator.NewEngine(store)
	gov := governance.NewEngine(store, validators, 7)
	em := events.NewEmitter()
	if baseURL == "" {
		baseURL = "http://127.0.0.1:0"
	}
	p := New(store, validators, gov, agora.New(baseURL), em, nil, nil)
	return p, store
}

func TestHandleBlockCommitsAtExpectedHeight(t *testing.T) {
	p, store := newTestPipeline(t, "")
	genesis := buildBlock(0, ledger.GenesisPrevHash, nil, nil)

	if err := p.handleBlock(context.Background(), genesis); err != nil {
		t.Fatalf("handleBlock: %v", err)
	}
	hE, err := store.GetExpectedNextHeight()
	if err != nil {
		t.Fatal(err)
	}
	if hE != 1 {
		t.Fatalf("GetExpectedNextHeight() = %d, want 1", hE)
	}
}

func TestHandleBlockIgnoresStaleResubmission(t *testing.T) {
	p, store := newTestPipeline(t, "")
	genesis := buildBlock(0, ledger.GenesisPrevHash, nil, nil)
	if err := p.handleBlock(context.Background(), genesis); err != nil {
		t.Fatal(err)
	}

	// Resubmitting the already-committed genesis block must be a silent
	// no-op, not an attempt to commit height 0 a second time.
	if err := p.handleBlock(context.Background(), genesis); err != nil {
		t.Fatalf("stale resubmission should be ignored, got: %v", err)
	}
	hE, err := store.GetExpectedNextHeight()
	if err != nil {
		t.Fatal(err)
	}
	if hE != 1 {
		t.Fatalf("GetExpectedNextHeight() = %d, want 1", hE)
	}
}

func TestHandleBlockRecoversGapThenCommitsSubmission(t *testing.T) {
	genesis := buildBlock(0, ledger.GenesisPrevHash, nil, nil)
	block1 := buildBlock(1, genesis.Hash, nil, nil)
	block2 := buildBlock(2, block1.Hash, nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]*ledger.Block{block1})
	}))
	defer srv.Close()

	p, store := newTestPipeline(t, srv.URL)
	if err := p.handleBlock(context.Background(), genesis); err != nil {
		t.Fatal(err)
	}

	// block2 arrives directly, skipping block1; the pipeline must recover
	// block1 from the consensus client first, then commit block2.
	if err := p.handleBlock(context.Background(), block2); err != nil {
		t.Fatalf("handleBlock: %v", err)
	}
	hE, err := store.GetExpectedNextHeight()
	if err != nil {
		t.Fatal(err)
	}
	if hE != 3 {
		t.Fatalf("GetExpectedNextHeight() = %d, want 3 after recovering the gap", hE)
	}
}

func TestHandleBlockRecoveryStallLeavesNothingCommitted(t *testing.T) {
	genesis := buildBlock(0, ledger.GenesisPrevHash, nil, nil)
	block2 := buildBlock(2, "some-other-block-hash", nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p, store := newTestPipeline(t, srv.URL)
	if err := p.handleBlock(context.Background(), genesis); err != nil {
		t.Fatal(err)
	}

	if err := p.handleBlock(context.Background(), block2); err != nil {
		t.Fatalf("a stalled recovery pass should not surface as an error: %v", err)
	}
	hE, err := store.GetExpectedNextHeight()
	if err != nil {
		t.Fatal(err)
	}
	if hE != 1 {
		t.Fatalf("GetExpectedNextHeight() = %d, want 1 (still waiting on height 1)", hE)
	}
}

func TestSubmitBlockRejectsNilOrUnhashedBlock(t *testing.T) {
	p, _ := newTestPipeline(t, "")
	if err := p.SubmitBlock(nil); err == nil {
		t.Fatal("expected an error for a nil block")
	}
	if err := p.SubmitBlock(&ledger.Block{}); err == nil {
		t.Fatal("expected an error for a block with no hash")
	}
}

func TestSubmitBlockDropsWhenQueueFull(t *testing.T) {
	p, _ := newTestPipeline(t, "")
	for i := 0; i < cap(p.queue); i++ {
		p.queue <- task{block: &ledger.Block{Hash: "filler"}}
	}
	// The queue is now full; SubmitBlock must drop this one rather than
	// block the caller, and still report success to the submitter.
	if err := p.SubmitBlock(&ledger.Block{Hash: "overflow"}); err != nil {
		t.Fatalf("SubmitBlock on a full queue should not error: %v", err)
	}
	if len(p.queue) != cap(p.queue) {
		t.Fatalf("queue length = %d, want unchanged at capacity %d", len(p.queue), cap(p.queue))
	}
}

func TestSubmitPreimageRejectsNil(t *testing.T) {
	p, _ := newTestPipeline(t, "")
	if err := p.SubmitPreimage(nil); err == nil {
		t.Fatal("expected an error for a nil preimage")
	}
}

func TestSubmitTransactionRejectsNilOrUnhashed(t *testing.T) {
	p, _ := newTestPipeline(t, "")
	if err := p.SubmitTransaction(nil); err == nil {
		t.Fatal("expected an error for a nil transaction")
	}
	if err := p.SubmitTransaction(&ledger.Transaction{}); err == nil {
		t.Fatal("expected an error for a transaction with no hash")
	}
}

func TestProcessTransactionTaskStoresInPool(t *testing.T) {
	p, store := newTestPipeline(t, "")
	tx := &ledger.Transaction{Hash: "pending-tx"}
	p.process(context.Background(), task{tx: tx})
	if _, err := store.GetPendingTransaction("pending-tx"); err != nil {
		t.Fatalf("GetPendingTransaction: %v", err)
	}
}

func chainFromSeed(seed []byte, n int) [][]byte {
	chain := make([][]byte, n)
	cur := seed
	for i := n - 1; i >= 0; i-- {
		chain[i] = cur
		cur = crypto.HashBytes(cur)
	}
	return chain
}

func TestHandlePreimageAppliesValidAdvance(t *testing.T) {
	p, store := newTestPipeline(t, "")
	if err := store.CommitBlock(buildBlock(0, ledger.GenesisPrevHash, nil, nil), storage.CommitEffects{
		NewEnrollments: []*ledger.Enrollment{{UTXOKey: "stake1", Validator: "val-a", EnrolledAt: 0, CycleLength: 1000}},
	}); err != nil {
		t.Fatal(err)
	}

	chain := chainFromSeed([]byte("seed"), 10)
	next := &ledger.PreImage{UTXOKey: "stake1", TipHash: hex.EncodeToString(chain[5]), TipHeight: 5}
	if err := p.handlePreimage(next); err != nil {
		t.Fatalf("handlePreimage: %v", err)
	}
	stored, err := store.GetPreImage("val-a")
	if err != nil {
		t.Fatal(err)
	}
	if stored.TipHeight != 5 {
		t.Fatalf("stored preimage tip_height = %d, want 5", stored.TipHeight)
	}
}

func TestHandlePreimageDropsUnknownUTXOKey(t *testing.T) {
	p, _ := newTestPipeline(t, "")
	err := p.handlePreimage(&ledger.PreImage{UTXOKey: "no-such-stake", TipHash: "ab", TipHeight: 5})
	if err != nil {
		t.Fatalf("an unknown utxo_key must be dropped silently, not errored: %v", err)
	}
}

func TestHandlePreimageDropsNonMonotonicAdvance(t *testing.T) {
	p, store := newTestPipeline(t, "")
	if err := store.CommitBlock(buildBlock(0, ledger.GenesisPrevHash, nil, nil), storage.CommitEffects{
		NewEnrollments: []*ledger.Enrollment{{UTXOKey: "stake1", Validator: "val-a", EnrolledAt: 0, CycleLength: 1000}},
	}); err != nil {
		t.Fatal(err)
	}

	chain := chainFromSeed([]byte("seed"), 10)
	first := &ledger.PreImage{UTXOKey: "stake1", TipHash: hex.EncodeToString(chain[5]), TipHeight: 5}
	if err := p.handlePreimage(first); err != nil {
		t.Fatal(err)
	}

	stale := &ledger.PreImage{UTXOKey: "stake1", TipHash: hex.EncodeToString(chain[3]), TipHeight: 3}
	if err := p.handlePreimage(stale); err != nil {
		t.Fatalf("a non-advancing preimage must be dropped silently, not errored: %v", err)
	}
	stored, err := store.GetPreImage("val-a")
	if err != nil {
		t.Fatal(err)
	}
	if stored.TipHeight != 5 {
		t.Fatalf("a stale update must not overwrite the tip: stored tip_height = %d, want 5", stored.TipHeight)
	}
}
