package ledger

import "testing"

func genesisBlock() *Block {
	b := &Block{Header: BlockHeader{
		Height:     0,
		PrevHash:   GenesisPrevHash,
		RandomSeed: "seed0",
		TimeOffset: 1000,
	}}
	b.Header.MerkleRoot = ComputeMerkleRoot(nil)
	b.Hash = b.ComputeHash()
	return b
}

func TestComputeHashDeterministic(t *testing.T) {
	b := genesisBlock()
	if b.ComputeHash() != b.ComputeHash() {
		t.Fatal("ComputeHash is not deterministic")
	}
	other := genesisBlock()
	other.Header.RandomSeed = "seed1"
	if other.ComputeHash() == b.Hash {
		t.Fatal("changing random seed should change the hash")
	}
}

func TestVerifyStructureGenesis(t *testing.T) {
	b := genesisBlock()
	if err := b.VerifyStructure(nil); err != nil {
		t.Fatalf("genesis should verify: %v", err)
	}

	bad := genesisBlock()
	bad.Header.Height = 1
	bad.Hash = bad.ComputeHash()
	if err := bad.VerifyStructure(nil); err == nil {
		t.Fatal("genesis at height 1 must fail verification")
	}
}

func TestVerifyStructureChain(t *testing.T) {
	genesis := genesisBlock()
	next := &Block{Header: BlockHeader{
		Height:     1,
		PrevHash:   genesis.Hash,
		RandomSeed: "seed1",
		TimeOffset: 1010,
	}}
	next.Header.MerkleRoot = ComputeMerkleRoot(nil)
	next.Hash = next.ComputeHash()
	if err := next.VerifyStructure(genesis); err != nil {
		t.Fatalf("block 1 should verify against genesis: %v", err)
	}

	wrongPrev := *next
	wrongPrev.Header.PrevHash = "deadbeef"
	wrongPrev.Hash = wrongPrev.ComputeHash()
	if err := wrongPrev.VerifyStructure(genesis); err == nil {
		t.Fatal("mismatched prev_hash must fail verification")
	}

	skippedHeight := *next
	skippedHeight.Header.Height = 5
	skippedHeight.Hash = skippedHeight.ComputeHash()
	if err := skippedHeight.VerifyStructure(genesis); err == nil {
		t.Fatal("non-contiguous height must fail verification")
	}
}

func TestComputeMerkleRootOddCount(t *testing.T) {
	txs := []*Transaction{
		{Hash: "a"}, {Hash: "b"}, {Hash: "c"},
	}
	root := ComputeMerkleRoot(txs)
	if root == "" {
		t.Fatal("expected non-empty root")
	}

	reordered := []*Transaction{
		{Hash: "a"}, {Hash: "b"}, {Hash: "d"},
	}
	if ComputeMerkleRoot(reordered) == root {
		t.Fatal("changing a leaf hash should change the root")
	}
}

func TestComputeMerkleRootEmpty(t *testing.T) {
	if ComputeMerkleRoot(nil) == "" {
		t.Fatal("empty transaction set should still produce a root")
	}
}
