package api

import (
	"encoding/json"
	"net/http"

	"github.com/lumenledger/stoa/ledger"
)

type privateHandlers struct {
	deps Deps
}

// decodeBody decodes r's JSON body into v, writing a 400 InvalidInput and
// returning false on failure. maxBodyBytes guards against a misbehaving or
// hostile consensus node sending an oversized body.
const maxBodyBytes = 8 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, invalidInput("malformed request body: "+err.Error()))
		return false
	}
	return true
}

// POST /block_externalized  body: {block: <block-json>}
// Replies 200 immediately after shape validation; the block itself is only
// enqueued onto the mutator track.
func (h *privateHandlers) blockExternalized(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Block *ledger.Block `json:"block"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Block == nil || req.Block.Hash == "" {
		writeError(w, invalidInput("block is required"))
		return
	}
	if err := h.deps.Pipeline.SubmitBlock(req.Block); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// POST /preimage_received  body: {preimage: {utxo, hash, height}}
func (h *privateHandlers) preimageReceived(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preimage *struct {
			UTXO   string `json:"utxo"`
			Hash   string `json:"hash"`
			Height uint64 `json:"height"`
		} `json:"preimage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Preimage == nil || req.Preimage.UTXO == "" || req.Preimage.Hash == "" {
		writeError(w, invalidInput("preimage.utxo and preimage.hash are required"))
		return
	}
	pi := &ledger.PreImage{
		UTXOKey:   req.Preimage.UTXO,
		TipHash:   req.Preimage.Hash,
		TipHeight: req.Preimage.Height,
	}
	if err := h.deps.Pipeline.SubmitPreimage(pi); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// POST /transaction_received  body: {tx: <tx-json>}
// Replies 200 immediately after shape validation; the pool write itself is
// enqueued onto the mutator track so it can never race a block commit's
// removal of the same pending entry.
func (h *privateHandlers) transactionReceived(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tx *ledger.Transaction `json:"tx"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Tx == nil || req.Tx.Hash == "" {
		writeError(w, invalidInput("tx is required"))
		return
	}
	if err := h.deps.Pipeline.SubmitTransaction(req.Tx); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
