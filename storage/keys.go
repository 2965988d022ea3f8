package storage

import "encoding/binary"

// Key layout. Every committed entity lives under a short prefix followed by
// its natural composite key; heights are encoded big-endian fixed-width so
// LevelDB's byte-lexicographic iteration order matches numeric order.

const (
	prefixBlockByHash   = "b/h/"
	prefixBlockByHeight = "b/n/"
	prefixTx            = "tx/"
	prefixTxByHeight    = "tx/n/" // index: height -> list of tx hashes, for pagination
	prefixUTXO          = "u/k/" // distinct from u/addr/ below so prefix scans never collide
	prefixUTXOByAddr    = "u/addr/"
	prefixEnrollment    = "e/"
	prefixPreImage      = "p/"
	prefixProposal      = "g/prop/"
	prefixBallot        = "g/ballot/" // g/ballot/<proposal_id>/<validator_address>
	prefixPendingTx     = "mem/"
	metaTipHeight       = "meta/tip_height"
	metaTotalTxCount    = "meta/total_tx_count"
)

func encodeHeight(h uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, h)
	return b
}

func decodeHeight(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func blockByHashKey(hash string) []byte {
	return append([]byte(prefixBlockByHash), []byte(hash)...)
}

func blockByHeightKey(h uint64) []byte {
	return append([]byte(prefixBlockByHeight), encodeHeight(h)...)
}

func txKey(hash string) []byte {
	return append([]byte(prefixTx), []byte(hash)...)
}

func txByHeightKey(h uint64, hash string) []byte {
	k := append([]byte(prefixTxByHeight), encodeHeight(h)...)
	return append(k, []byte("/"+hash)...)
}

func utxoKey(key string) []byte {
	return append([]byte(prefixUTXO), []byte(key)...)
}

func utxoByAddrKey(addr, utxoKeyStr string) []byte {
	k := append([]byte(prefixUTXOByAddr), []byte(addr)...)
	return append(k, []byte("/"+utxoKeyStr)...)
}

func enrollmentKey(utxoKeyStr string) []byte {
	return append([]byte(prefixEnrollment), []byte(utxoKeyStr)...)
}

func preImageKey(validator string) []byte {
	return append([]byte(prefixPreImage), []byte(validator)...)
}

func proposalKey(proposalID string) []byte {
	return append([]byte(prefixProposal), []byte(proposalID)...)
}

func ballotKey(proposalID, validator string) []byte {
	k := append([]byte(prefixBallot), []byte(proposalID)...)
	return append(k, []byte("/"+validator)...)
}

func pendingTxKey(hash string) []byte {
	return append([]byte(prefixPendingTx), []byte(hash)...)
}
