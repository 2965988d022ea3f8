package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lumenledger/stoa/crypto"
)

// BlockHeader is the hashed portion of a Block.
type BlockHeader struct {
	Height     uint64   `json:"height"`
	PrevHash   string   `json:"prev_hash"`
	MerkleRoot string   `json:"merkle_root"`
	Signature  string   `json:"signature"`
	RandomSeed string   `json:"random_seed"`
	TimeOffset int64    `json:"time_offset"`
	PreImages  []string `json:"preimages"` // one slot per committee member at this height; zero-hash sentinel if unpublished
}

// Block is a committed ledger entry: a signed header plus its transactions.
// Height is contiguous from 0 and immutable once committed.
type Block struct {
	Header       BlockHeader    `json:"header"`
	Hash         string         `json:"hash"`
	Transactions []*Transaction `json:"transactions"`
}

// ZeroPreimage is the sentinel used in BlockHeader.PreImages for committee
// members who had not published a pre-image at commit time.
const ZeroPreimage = "0000000000000000000000000000000000000000000000000000000000000000"

// GenesisPrevHash is the canonical previous-hash of block 0.
const GenesisPrevHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ComputeHash deterministically hashes the header using length-prefixed
// encoding of its fields, so hashing never depends on field ordering
// assumptions leaking from a generic marshaller.
func (b *Block) ComputeHash() string {
	var buf bytes.Buffer
	writeUint64(&buf, b.Header.Height)
	writeString(&buf, b.Header.PrevHash)
	writeString(&buf, b.Header.MerkleRoot)
	writeString(&buf, b.Header.RandomSeed)
	writeUint64(&buf, uint64(b.Header.TimeOffset))
	writeUint64(&buf, uint64(len(b.Header.PreImages)))
	for _, p := range b.Header.PreImages {
		writeString(&buf, p)
	}
	return crypto.Hash(buf.Bytes())
}

// VerifyStructure checks the structural invariants required of a
// block independent of consensus signatures: the stored hash matches the
// recomputed hash, prev_hash links to prev (nil prev means this must be
// genesis), height is exactly one past prev, and the Merkle root matches the
// committed transaction set. Stoa never validates the proposer's consensus
// signature; that is Agora's job (Non-goal).
func (b *Block) VerifyStructure(prev *Block) error {
	if computed := b.ComputeHash(); b.Hash != computed {
		return fmt.Errorf("block hash mismatch: stored %s computed %s", b.Hash, computed)
	}
	if root := ComputeMerkleRoot(b.Transactions); root != b.Header.MerkleRoot {
		return fmt.Errorf("merkle_root mismatch: stored %s computed %s", b.Header.MerkleRoot, root)
	}
	if prev == nil {
		if b.Header.PrevHash != GenesisPrevHash {
			return fmt.Errorf("height %d: expected genesis prev_hash, got %s", b.Header.Height, b.Header.PrevHash)
		}
		if b.Header.Height != 0 {
			return fmt.Errorf("first committed block must be height 0, got %d", b.Header.Height)
		}
		return nil
	}
	if b.Header.Height != prev.Header.Height+1 {
		return fmt.Errorf("height %d does not follow tip %d", b.Header.Height, prev.Header.Height)
	}
	if b.Header.PrevHash != prev.Hash {
		return fmt.Errorf("prev_hash mismatch: got %s want %s", b.Header.PrevHash, prev.Hash)
	}
	return nil
}

// ComputeMerkleRoot builds the block's Merkle root over transaction hashes,
// using the same pairwise-hash fold the SPV path verification uses so that
// the root stored in the header is reproducible from the tx set alone.
func ComputeMerkleRoot(txs []*Transaction) string {
	if len(txs) == 0 {
		return crypto.Hash([]byte("empty"))
	}
	level := make([][]byte, len(txs))
	for i, tx := range txs {
		level[i] = crypto.HashBytes([]byte(tx.Hash))
	}
	for len(level) > 1 {
		var next [][]byte
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, crypto.HashBytes(append(append([]byte{}, level[i]...), level[i]...)))
				continue
			}
			next = append(next, crypto.HashBytes(append(append([]byte{}, level[i]...), level[i+1]...)))
		}
		level = next
	}
	return fmt.Sprintf("%x", level[0])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}
