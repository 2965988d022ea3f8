package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/lumenledger/stoa/agora"
	"github.com/lumenledger/stoa/crypto"
	"github.com/lumenledger/stoa/ledger"
)

type publicHandlers struct {
	deps Deps
}

func (h *publicHandlers) tipOrHeightParam(r *http.Request) (uint64, error) {
	if height, ok, err := parseOptionalHeight(r); ok || err != nil {
		return height, err
	}
	return h.deps.Store.TipHeight()
}

// GET /block_height
func (h *publicHandlers) blockHeight(w http.ResponseWriter, r *http.Request) {
	tip, err := h.deps.Store.TipHeight()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"height": num(tip)})
}

// GET /block_height_at/{unix} binary-searches committed blocks for the
// greatest height whose header.time_offset does not exceed the requested
// unix timestamp.
func (h *publicHandlers) blockHeightAt(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.ParseInt(r.PathValue("unix"), 10, 64)
	if err != nil {
		writeError(w, invalidInput("unix_seconds must be an integer"))
		return
	}
	tip, err := h.deps.Store.TipHeight()
	if err != nil {
		writeError(w, err)
		return
	}
	lo, hi := uint64(0), tip
	var best *uint64
	for lo <= hi {
		mid := lo + (hi-lo)/2
		block, err := h.deps.Store.GetBlockByHeight(mid)
		if err != nil {
			writeError(w, err)
			return
		}
		if block.Header.TimeOffset <= target {
			best = &mid
			if mid == tip {
				break
			}
			lo = mid + 1
		} else {
			if mid == 0 {
				break
			}
			hi = mid - 1
		}
	}
	if best == nil {
		writeError(w, notFound("no committed block at or before that time"))
		return
	}
	writeJSON(w, map[string]any{"height": num(*best)})
}

// GET /validators[?height=H]
func (h *publicHandlers) validators(w http.ResponseWriter, r *http.Request) {
	height, err := h.tipOrHeightParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	active, err := h.deps.Validators.ActiveEnrollments(height)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]enrollmentDTO, len(active))
	for i, e := range active {
		out[i] = toEnrollmentDTO(e)
	}
	writeJSON(w, out)
}

// GET /validator/{address}[?height=H]
func (h *publicHandlers) validator(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("address")
	height, err := h.tipOrHeightParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	active, err := h.deps.Validators.ActiveEnrollments(height)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, e := range active {
		if e.Validator == addr {
			writeJSON(w, toEnrollmentDTO(e))
			return
		}
	}
	writeError(w, notFound("validator not active at requested height"))
}

// GET /transaction/{hash}
func (h *publicHandlers) transaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.deps.Store.GetTransaction(r.PathValue("hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toTxDTO(tx))
}

// GET /transaction/pending/{hash}
func (h *publicHandlers) transactionPending(w http.ResponseWriter, r *http.Request) {
	tx, err := h.deps.Store.GetPendingTransaction(r.PathValue("hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toTxDTO(tx))
}

// GET /transaction/status/{hash}
func (h *publicHandlers) transactionStatus(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if _, err := h.deps.Store.GetTransaction(hash); err == nil {
		writeJSON(w, map[string]string{"status": "committed"})
		return
	}
	if _, err := h.deps.Store.GetPendingTransaction(hash); err == nil {
		writeJSON(w, map[string]string{"status": "pending"})
		return
	}
	writeError(w, notFound("transaction unknown"))
}

// feeSampleSize bounds how many of the most recent blocks' transactions
// feed the fee-per-byte estimate /transaction/fees uses.
const feeSampleSize = 20

// GET /transaction/fees/{size}
func (h *publicHandlers) transactionFees(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.ParseUint(r.PathValue("size"), 10, 64)
	if err != nil {
		writeError(w, invalidInput("tx_size_bytes must be a non-negative integer"))
		return
	}
	tip, err := h.deps.Store.TipHeight()
	if err != nil {
		writeError(w, err)
		return
	}
	var totalFee, totalSize uint64
	sampled := 0
	for height := tip; sampled < feeSampleSize; height-- {
		block, err := h.deps.Store.GetBlockByHeight(height)
		if err != nil {
			break
		}
		for _, tx := range block.Transactions {
			if tx.Size > 0 {
				totalFee += tx.Fee
				totalSize += tx.Size
			}
		}
		sampled++
		if height == 0 {
			break
		}
	}
	const minFeeRate = 1 // fallback: 1 unit per byte when no recent sample exists
	feeRate := uint64(minFeeRate)
	if totalSize > 0 {
		feeRate = totalFee / totalSize
		if feeRate == 0 {
			feeRate = minFeeRate
		}
	}
	writeJSON(w, map[string]any{"estimated_fee": num(feeRate * size), "fee_rate_per_byte": num(feeRate)})
}

// GET /utxo/{address}
func (h *publicHandlers) utxo(w http.ResponseWriter, r *http.Request) {
	utxos, err := h.deps.Store.ListUTXOsByAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]utxoDTO, len(utxos))
	for i, u := range utxos {
		out[i] = toUTXODTO(u)
	}
	writeJSON(w, out)
}

// POST /utxos  body: {utxos:[hash…]}
func (h *publicHandlers) utxosBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UTXOs []string `json:"utxos"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UTXOs == nil {
		writeError(w, invalidInput("utxos is required"))
		return
	}
	out := make([]utxoDTO, 0, len(req.UTXOs))
	for _, key := range req.UTXOs {
		u, err := h.deps.Store.GetUTXO(key)
		if err != nil {
			continue
		}
		out = append(out, toUTXODTO(u))
	}
	writeJSON(w, out)
}

type historyEntry struct {
	txDTO
	Direction string `json:"direction"`
}

// GET /wallet/transactions/history/{addr}
// query: page, pageSize, type, beginDate, endDate, peer
func (h *publicHandlers) walletHistory(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("addr")
	page, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	typeFilter := r.URL.Query().Get("type")
	peerFilter := r.URL.Query().Get("peer")

	owned, err := h.deps.Store.ListUTXOsByAddress(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	seen := make(map[string]struct{})
	var entries []historyEntry
	for _, u := range owned {
		txHash := u.Key[:strings.LastIndex(u.Key, ":")]
		if _, ok := seen[txHash]; ok {
			continue
		}
		seen[txHash] = struct{}{}
		tx, err := h.deps.Store.GetTransaction(txHash)
		if err != nil {
			continue
		}
		dir := classifyDirection(tx, addr)
		if typeFilter != "" && !matchesTypeFilter(typeFilter, tx, dir) {
			continue
		}
		if peerFilter != "" && !involvesPeer(tx, addr, peerFilter) {
			continue
		}
		entries = append(entries, historyEntry{txDTO: toTxDTO(tx), Direction: dir})
	}
	start, end := page.slice(len(entries))
	writeJSON(w, map[string]any{
		"page":     page.page,
		"pageSize": page.pageSize,
		"total":    len(entries),
		"items":    entries[start:end],
	})
}

func classifyDirection(tx *ledger.Transaction, addr string) string {
	if tx.Type == ledger.TxFreeze {
		return "freeze"
	}
	if len(tx.Payload) > 0 {
		return "payload"
	}
	for _, o := range tx.Outputs {
		if o.Address == addr {
			return "inbound"
		}
	}
	return "outbound"
}

func matchesTypeFilter(filter string, tx *ledger.Transaction, dir string) bool {
	switch filter {
	case "inbound", "outbound", "freeze", "payload":
		return dir == filter
	default:
		return true
	}
}

func involvesPeer(tx *ledger.Transaction, self, peer string) bool {
	for _, o := range tx.Outputs {
		if o.Address == peer && o.Address != self {
			return true
		}
	}
	return false
}

// GET /wallet/transaction/overview/{hash}
func (h *publicHandlers) walletOverview(w http.ResponseWriter, r *http.Request) {
	tx, err := h.deps.Store.GetTransaction(r.PathValue("hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	block, err := h.deps.Store.GetBlockByHeight(tx.BlockHeight)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"transaction": toTxDTO(tx),
		"block_hash":  block.Hash,
		"confirmations": func() uint64 {
			tip, _ := h.deps.Store.TipHeight()
			if tip < tx.BlockHeight {
				return 0
			}
			return tip - tx.BlockHeight + 1
		}(),
	})
}

// GET /wallet/transactions/pending/{addr}
func (h *publicHandlers) walletPending(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("addr")
	owned, err := h.deps.Store.ListUTXOsByAddress(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	var out []txDTO
	seen := make(map[string]struct{})
	for _, u := range owned {
		txHash := u.Key[:strings.LastIndex(u.Key, ":")]
		if _, ok := seen[txHash]; ok {
			continue
		}
		seen[txHash] = struct{}{}
		if tx, err := h.deps.Store.GetPendingTransaction(txHash); err == nil {
			out = append(out, toTxDTO(tx))
		}
	}
	writeJSON(w, out)
}

// GET /wallet/blocks/header[?height=H]
func (h *publicHandlers) walletBlockHeader(w http.ResponseWriter, r *http.Request) {
	height, err := h.tipOrHeightParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	block, err := h.deps.Store.GetBlockByHeight(height)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toBlockDTO(block))
}

const latestListSize = 20

// GET /latest-blocks
func (h *publicHandlers) latestBlocks(w http.ResponseWriter, r *http.Request) {
	tip, err := h.deps.Store.TipHeight()
	if err != nil {
		writeError(w, err)
		return
	}
	var out []blockDTO
	for height := tip; len(out) < latestListSize; {
		block, err := h.deps.Store.GetBlockByHeight(height)
		if err != nil {
			break
		}
		out = append(out, toBlockDTO(block))
		if height == 0 {
			break
		}
		height--
	}
	writeJSON(w, out)
}

// GET /latest-transactions
func (h *publicHandlers) latestTransactions(w http.ResponseWriter, r *http.Request) {
	tip, err := h.deps.Store.TipHeight()
	if err != nil {
		writeError(w, err)
		return
	}
	var out []txDTO
	for height := tip; len(out) < latestListSize; {
		block, err := h.deps.Store.GetBlockByHeight(height)
		if err != nil {
			break
		}
		for _, tx := range block.Transactions {
			out = append(out, toTxDTO(tx))
			if len(out) >= latestListSize {
				break
			}
		}
		if height == 0 {
			break
		}
		height--
	}
	writeJSON(w, out)
}

func (h *publicHandlers) resolveBlock(r *http.Request) (*ledger.Block, error) {
	if hashParam := r.URL.Query().Get("hash"); hashParam != "" {
		return h.deps.Store.GetBlockByHash(hashParam)
	}
	height, ok, err := parseOptionalHeight(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		tip, err := h.deps.Store.TipHeight()
		if err != nil {
			return nil, err
		}
		height = tip
	}
	return h.deps.Store.GetBlockByHeight(height)
}

// GET /block-summary?height=H|hash=H
func (h *publicHandlers) blockSummary(w http.ResponseWriter, r *http.Request) {
	block, err := h.resolveBlock(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toBlockDTO(block))
}

// GET /block-enrollments?height=H|hash=H
func (h *publicHandlers) blockEnrollments(w http.ResponseWriter, r *http.Request) {
	block, err := h.resolveBlock(r)
	if err != nil {
		writeError(w, err)
		return
	}
	committee, err := h.deps.Validators.CanonicalCommitteeOrder(block.Header.Height)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]enrollmentDTO, len(committee))
	for i, e := range committee {
		out[i] = toEnrollmentDTO(e)
	}
	writeJSON(w, out)
}

// GET /block-transactions?height=H|hash=H
func (h *publicHandlers) blockTransactions(w http.ResponseWriter, r *http.Request) {
	block, err := h.resolveBlock(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]txDTO, len(block.Transactions))
	for i, tx := range block.Transactions {
		out[i] = toTxDTO(tx)
	}
	writeJSON(w, out)
}

// GET /boa-stats aggregates circulating supply, frozen stake and holder
// count across every unspent UTXO, alongside the tip height and the number
// of validators active at it, the "BOA" naming mirroring the Agora
// network's native unit the way an explorer's landing-page stats panel
// would.
func (h *publicHandlers) boaStats(w http.ResponseWriter, r *http.Request) {
	utxos, err := h.deps.Store.ListUTXOs()
	if err != nil {
		writeError(w, err)
		return
	}
	var circulating, frozen uint64
	holderSet := make(map[string]struct{})
	for _, u := range utxos {
		if u.IsSpent() {
			continue
		}
		if u.Type == string(ledger.TxFreeze) {
			frozen += u.Amount
		} else {
			circulating += u.Amount
		}
		holderSet[u.Owner] = struct{}{}
	}
	tip, err := h.deps.Store.TipHeight()
	if err != nil {
		writeError(w, err)
		return
	}
	active, err := h.deps.Validators.ActiveEnrollments(tip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"height":             num(tip),
		"circulating_supply": num(circulating),
		"frozen_stake":       num(frozen),
		"holder_count":       len(holderSet),
		"active_validators":  len(active),
	})
}

// GET /holders
func (h *publicHandlers) holders(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	utxos, err := h.deps.Store.ListUTXOs()
	if err != nil {
		writeError(w, err)
		return
	}
	balances := make(map[string]uint64)
	for _, u := range utxos {
		if u.IsSpent() {
			continue
		}
		balances[u.Owner] += u.Amount
	}
	type holder struct {
		Address string `json:"address"`
		Balance num    `json:"balance"`
	}
	out := make([]holder, 0, len(balances))
	for addr, bal := range balances {
		out = append(out, holder{Address: addr, Balance: num(bal)})
	}
	start, end := page.slice(len(out))
	writeJSON(w, map[string]any{
		"page":     page.page,
		"pageSize": page.pageSize,
		"total":    len(out),
		"items":    out[start:end],
	})
}

// GET /spv/{hash} proves the transaction's membership in its committing
// block by fetching the audit path from the Consensus Client and folding
// it up to the stored Merkle root.
func (h *publicHandlers) spv(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	tx, err := h.deps.Store.GetTransaction(hash)
	if err != nil {
		writeError(w, err)
		return
	}
	block, err := h.deps.Store.GetBlockByHeight(tx.BlockHeight)
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := h.deps.Agora.GetMerklePath(r.Context(), tx.BlockHeight, hash)
	if err != nil {
		writeError(w, upstream(err.Error()))
		return
	}
	leaf := crypto.HashBytes([]byte(hash))
	if err := agora.VerifySPV(leaf, path, block.Header.MerkleRoot); err != nil {
		writeError(w, invalidInput(err.Error()))
		return
	}
	writeJSON(w, map[string]any{"verified": true, "height": num(tx.BlockHeight), "block_hash": block.Hash})
}

// GET /proposals
func (h *publicHandlers) proposals(w http.ResponseWriter, r *http.Request) {
	all, err := h.deps.Store.ListProposals()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]proposalDTO, len(all))
	for i, p := range all {
		out[i] = toProposalDTO(p)
	}
	writeJSON(w, out)
}

// GET /proposal/{proposal_id}
func (h *publicHandlers) proposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Store.GetProposal(r.PathValue("proposal_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ballots, err := h.deps.Store.ListBallotsByProposal(p.ProposalID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ballotDTO, len(ballots))
	for i, b := range ballots {
		out[i] = toBallotDTO(b)
	}
	writeJSON(w, map[string]any{
		"proposal": toProposalDTO(p),
		"ballots":  out,
	})
}
