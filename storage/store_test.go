package storage_test

import (
	"errors"
	"testing"

	"github.com/lumenledger/stoa/internal/testutil"
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/storage"
)

func makeBlock(height uint64, prevHash string, txs []*ledger.Transaction) *ledger.Block {
	b := &ledger.Block{
		Header: ledger.BlockHeader{
			Height:     height,
			PrevHash:   prevHash,
			RandomSeed: "seed",
			TimeOffset: int64(1000 + height),
		},
		Transactions: txs,
	}
	b.Header.MerkleRoot = ledger.ComputeMerkleRoot(txs)
	b.Hash = b.ComputeHash()
	return b
}

func TestGetExpectedNextHeightEmptyStore(t *testing.T) {
	store := testutil.NewStore()
	next, err := store.GetExpectedNextHeight()
	if err != nil {
		t.Fatalf("GetExpectedNextHeight on empty store: %v", err)
	}
	if next != 0 {
		t.Fatalf("expected next height 0 on empty store, got %d", next)
	}
}

func TestTipHeightEmptyStoreReturnsNotFound(t *testing.T) {
	store := testutil.NewStore()
	if _, err := store.TipHeight(); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ledger.ErrNotFound on empty store, got %v", err)
	}
}

func TestCommitBlockAdvancesHeightAndTxCount(t *testing.T) {
	store := testutil.NewStore()
	genesis := makeBlock(0, ledger.GenesisPrevHash, nil)

	if err := store.CommitBlock(genesis, storage.CommitEffects{}); err != nil {
		t.Fatalf("CommitBlock: %v", err)
	}

	next, err := store.GetExpectedNextHeight()
	if err != nil {
		t.Fatal(err)
	}
	if next != 1 {
		t.Fatalf("expected next height 1, got %d", next)
	}

	tip, err := store.TipHeight()
	if err != nil {
		t.Fatal(err)
	}
	if tip != 0 {
		t.Fatalf("expected tip 0, got %d", tip)
	}

	tx := &ledger.Transaction{Hash: "tx1", Type: ledger.TxCoinbase, Outputs: []ledger.TxOutput{{Address: "a", Amount: 1}}}
	next2 := makeBlock(1, genesis.Hash, []*ledger.Transaction{tx})
	if err := store.CommitBlock(next2, storage.CommitEffects{}); err != nil {
		t.Fatal(err)
	}

	total, err := store.GetTotalTxCount()
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("expected total tx count 1, got %d", total)
	}
}

func TestCommitBlockStoresUTXOsAndAddressIndex(t *testing.T) {
	store := testutil.NewStore()
	u := &ledger.UTXO{Key: "tx1:0", Owner: "addr-a", Amount: 50, Type: "payment", CreatedAtHeight: 0}
	block := makeBlock(0, ledger.GenesisPrevHash, nil)

	err := store.CommitBlock(block, storage.CommitEffects{NewUTXOs: []*ledger.UTXO{u}})
	if err != nil {
		t.Fatalf("CommitBlock: %v", err)
	}

	got, err := store.GetUTXO("tx1:0")
	if err != nil {
		t.Fatalf("GetUTXO: %v", err)
	}
	if got.Owner != "addr-a" || got.Amount != 50 {
		t.Errorf("unexpected UTXO: %+v", got)
	}

	byAddr, err := store.ListUTXOsByAddress("addr-a")
	if err != nil {
		t.Fatalf("ListUTXOsByAddress: %v", err)
	}
	if len(byAddr) != 1 || byAddr[0].Key != "tx1:0" {
		t.Fatalf("ListUTXOsByAddress returned %+v, want one UTXO keyed tx1:0", byAddr)
	}
}

func TestListUTXOsByAddressDoesNotCrossContaminateAddresses(t *testing.T) {
	store := testutil.NewStore()
	u1 := &ledger.UTXO{Key: "tx1:0", Owner: "addr-a", Amount: 1}
	u2 := &ledger.UTXO{Key: "tx2:0", Owner: "addr-ab", Amount: 2} // prefix-shares "addr-a"
	block := makeBlock(0, ledger.GenesisPrevHash, nil)

	err := store.CommitBlock(block, storage.CommitEffects{NewUTXOs: []*ledger.UTXO{u1, u2}})
	if err != nil {
		t.Fatal(err)
	}

	byAddr, err := store.ListUTXOsByAddress("addr-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(byAddr) != 1 || byAddr[0].Key != "tx1:0" {
		t.Fatalf("ListUTXOsByAddress(addr-a) leaked addr-ab's UTXO: %+v", byAddr)
	}
}

func TestCommitBlockSpendsUTXO(t *testing.T) {
	store := testutil.NewStore()
	u := &ledger.UTXO{Key: "tx1:0", Owner: "addr-a", Amount: 50}
	genesis := makeBlock(0, ledger.GenesisPrevHash, nil)
	if err := store.CommitBlock(genesis, storage.CommitEffects{NewUTXOs: []*ledger.UTXO{u}}); err != nil {
		t.Fatal(err)
	}

	next := makeBlock(1, genesis.Hash, nil)
	if err := store.CommitBlock(next, storage.CommitEffects{SpentUTXOKeys: []string{"tx1:0"}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetUTXO("tx1:0")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsSpent() {
		t.Fatal("expected UTXO to be marked spent")
	}
	if got.SpentAtHeight == nil || *got.SpentAtHeight != 1 {
		t.Fatalf("expected SpentAtHeight=1, got %v", got.SpentAtHeight)
	}
}

func TestCommitBlockPreImageMonotonic(t *testing.T) {
	store := testutil.NewStore()
	block := makeBlock(0, ledger.GenesisPrevHash, nil)

	p1 := &ledger.PreImage{Validator: "val-a", TipHeight: 5, TipHash: "hash5"}
	if err := store.CommitBlock(block, storage.CommitEffects{PreImageUpdates: []*ledger.PreImage{p1}}); err != nil {
		t.Fatal(err)
	}

	block2 := makeBlock(1, block.Hash, nil)
	stale := &ledger.PreImage{Validator: "val-a", TipHeight: 3, TipHash: "hash3"}
	if err := store.CommitBlock(block2, storage.CommitEffects{PreImageUpdates: []*ledger.PreImage{stale}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetPreImage("val-a")
	if err != nil {
		t.Fatal(err)
	}
	if got.TipHeight != 5 {
		t.Fatalf("a stale preimage update must not move the tip backwards: got TipHeight=%d, want 5", got.TipHeight)
	}
}

func TestGetBlockByHashNotFound(t *testing.T) {
	store := testutil.NewStore()
	if _, err := store.GetBlockByHash("nonexistent"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ledger.ErrNotFound, got %v", err)
	}
}

func TestListTransactionsAtHeight(t *testing.T) {
	store := testutil.NewStore()
	tx := &ledger.Transaction{Hash: "tx1", Type: ledger.TxCoinbase}
	block := makeBlock(0, ledger.GenesisPrevHash, []*ledger.Transaction{tx})
	if err := store.CommitBlock(block, storage.CommitEffects{}); err != nil {
		t.Fatal(err)
	}

	txs, err := store.ListTransactionsAtHeight(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 || txs[0].Hash != "tx1" {
		t.Fatalf("ListTransactionsAtHeight(0) = %+v, want one tx hash tx1", txs)
	}
}

func TestPutAndGetTransactionPool(t *testing.T) {
	store := testutil.NewStore()
	tx := &ledger.Transaction{Hash: "pending1", Type: ledger.TxPayment}
	if err := store.PutTransactionPool(tx); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetPendingTransaction("pending1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hash != "pending1" {
		t.Fatalf("got %+v", got)
	}
}

func TestCommitBlockRemovesCommittedTxFromPool(t *testing.T) {
	store := testutil.NewStore()
	tx := &ledger.Transaction{Hash: "tx1", Type: ledger.TxPayment}
	if err := store.PutTransactionPool(tx); err != nil {
		t.Fatal(err)
	}

	block := makeBlock(0, ledger.GenesisPrevHash, []*ledger.Transaction{tx})
	if err := store.CommitBlock(block, storage.CommitEffects{}); err != nil {
		t.Fatal(err)
	}

	if _, err := store.GetPendingTransaction("tx1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatal("a committed transaction must be evicted from the pending pool")
	}
}

func TestListBallotsByProposalScopedToProposal(t *testing.T) {
	store := testutil.NewStore()
	block := makeBlock(0, ledger.GenesisPrevHash, nil)
	b1 := &ledger.Ballot{ProposalID: "prop-1", ValidatorAddress: "val-a"}
	b2 := &ledger.Ballot{ProposalID: "prop-2", ValidatorAddress: "val-a"}
	err := store.CommitBlock(block, storage.CommitEffects{UpsertBallots: []*ledger.Ballot{b1, b2}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.ListBallotsByProposal("prop-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ProposalID != "prop-1" {
		t.Fatalf("ListBallotsByProposal(prop-1) = %+v, want one ballot for prop-1", got)
	}
}
