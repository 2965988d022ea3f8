// Package storage projects the committed ledger into a key-value engine.
// It plays the role of the Ledger Store: the one piece of
// shared mutable state in the whole service. Every write of a block commit
// goes through CommitBlock's single batch, so a block and everything it
// produces (transactions, UTXOs, enrollments, pre-images, governance state)
// becomes visible atomically, or not at all. PutPreImage and
// PutTransactionPool are single-key writes outside any block commit.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/lumenledger/stoa/ledger"
)

// Store is the concrete Ledger Store, backed by any DB implementation
// (LevelDB in production, an in-memory DB in tests).
type Store struct {
	db DB
}

// NewStore wraps db as a Store. db must not be shared with another Store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// CommitEffects bundles everything a single committed block produces beyond
// the block and its transactions, so CommitBlock can apply it all in one
// atomic batch.
type CommitEffects struct {
	NewUTXOs        []*ledger.UTXO
	SpentUTXOKeys   []string
	NewEnrollments  []*ledger.Enrollment
	PreImageUpdates []*ledger.PreImage
	UpsertProposals []*ledger.Proposal
	UpsertBallots   []*ledger.Ballot
}

// CommitBlock atomically writes block, its transactions and effects, and
// advances the expected-next-height counter. This is the
// only mutating entry point the ingestion pipeline calls on commit; a
// caller must have already verified height contiguity.
func (s *Store) CommitBlock(block *ledger.Block, effects CommitEffects) error {
	b := s.db.NewBatch()

	blockData, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("marshal block: %w", err)
	}
	b.Set(blockByHashKey(block.Hash), blockData)
	b.Set(blockByHeightKey(block.Header.Height), []byte(block.Hash))

	for _, tx := range block.Transactions {
		txData, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("marshal tx %s: %w", tx.Hash, err)
		}
		b.Set(txKey(tx.Hash), txData)
		b.Set(txByHeightKey(block.Header.Height, tx.Hash), []byte{})
		b.Delete(pendingTxKey(tx.Hash))
	}

	for _, u := range effects.NewUTXOs {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal utxo %s: %w", u.Key, err)
		}
		b.Set(utxoKey(u.Key), data)
		b.Set(utxoByAddrKey(u.Owner, u.Key), []byte{})
	}
	for _, key := range effects.SpentUTXOKeys {
		existing, err := s.GetUTXO(key)
		if err != nil && err != ledger.ErrNotFound {
			return fmt.Errorf("spend utxo %s: %w", key, err)
		}
		if existing != nil {
			h := block.Header.Height
			existing.SpentAtHeight = &h
			data, err := json.Marshal(existing)
			if err != nil {
				return err
			}
			b.Set(utxoKey(key), data)
		}
	}

	for _, e := range effects.NewEnrollments {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal enrollment %s: %w", e.UTXOKey, err)
		}
		b.Set(enrollmentKey(e.UTXOKey), data)
	}

	for _, p := range effects.PreImageUpdates {
		current, err := s.GetPreImage(p.Validator)
		if err != nil && err != ledger.ErrNotFound {
			return fmt.Errorf("preimage %s: %w", p.Validator, err)
		}
		if current != nil && p.TipHeight <= current.TipHeight {
			continue // monotonic: never move the tip backwards or sideways
		}
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		b.Set(preImageKey(p.Validator), data)
	}

	for _, p := range effects.UpsertProposals {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal proposal %s: %w", p.ProposalID, err)
		}
		b.Set(proposalKey(p.ProposalID), data)
	}

	for _, bal := range effects.UpsertBallots {
		data, err := json.Marshal(bal)
		if err != nil {
			return fmt.Errorf("marshal ballot %s/%s: %w", bal.ProposalID, bal.ValidatorAddress, err)
		}
		b.Set(ballotKey(bal.ProposalID, bal.ValidatorAddress), data)
	}

	b.Set([]byte(metaTipHeight), encodeHeight(block.Header.Height))

	total, err := s.GetTotalTxCount()
	if err != nil {
		return fmt.Errorf("get total tx count: %w", err)
	}
	b.Set([]byte(metaTotalTxCount), encodeHeight(total+uint64(len(block.Transactions))))

	return b.Write()
}

// GetTotalTxCount returns the running count of every transaction ever
// committed, maintained incrementally in CommitBlock so callers like the
// stats ticker never need a full chain scan.
func (s *Store) GetTotalTxCount() (uint64, error) {
	val, err := s.db.Get([]byte(metaTotalTxCount))
	if err == ErrNotFoundDB {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeHeight(val), nil
}

// GetExpectedNextHeight returns the height the pipeline should next accept:
// one past the current tip, or 0 if the store is empty.
func (s *Store) GetExpectedNextHeight() (uint64, error) {
	val, err := s.db.Get([]byte(metaTipHeight))
	if err == ErrNotFoundDB {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeHeight(val) + 1, nil
}

func (s *Store) GetBlockByHash(hash string) (*ledger.Block, error) {
	data, err := s.db.Get(blockByHashKey(hash))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var b ledger.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetBlockByHeight(h uint64) (*ledger.Block, error) {
	hash, err := s.db.Get(blockByHeightKey(h))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return s.GetBlockByHash(string(hash))
}

func (s *Store) GetTransaction(hash string) (*ledger.Transaction, error) {
	data, err := s.db.Get(txKey(hash))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var tx ledger.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) GetUTXO(key string) (*ledger.UTXO, error) {
	data, err := s.db.Get(utxoKey(key))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var u ledger.UTXO
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUTXOsByAddress returns every UTXO key ever owned by addr, spent or
// not; callers filter by IsSpent() for a spendable balance.
func (s *Store) ListUTXOsByAddress(addr string) ([]*ledger.UTXO, error) {
	fullPrefix := prefixUTXOByAddr + addr + "/"
	it := s.db.NewIterator([]byte(fullPrefix))
	defer it.Release()
	var out []*ledger.UTXO
	for it.Next() {
		utxoKeyStr := extractSuffix(string(it.Key()), fullPrefix)
		u, err := s.GetUTXO(utxoKeyStr)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, it.Error()
}

// ListUTXOs returns every UTXO ever recorded, spent or not: the base for
// aggregate endpoints like /holders and /boa-stats.
func (s *Store) ListUTXOs() ([]*ledger.UTXO, error) {
	it := s.db.NewIterator([]byte(prefixUTXO))
	defer it.Release()
	var out []*ledger.UTXO
	for it.Next() {
		var u ledger.UTXO
		if err := json.Unmarshal(it.Value(), &u); err != nil {
			continue
		}
		out = append(out, &u)
	}
	return out, it.Error()
}

// TipHeight returns the current committed tip height, or (0, ledger.ErrNotFound)
// if the store is empty.
func (s *Store) TipHeight() (uint64, error) {
	next, err := s.GetExpectedNextHeight()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return 0, ledger.ErrNotFound
	}
	return next - 1, nil
}

// ListTransactionsAtHeight returns every transaction committed in the block
// at h, in the block's own order.
func (s *Store) ListTransactionsAtHeight(h uint64) ([]*ledger.Transaction, error) {
	block, err := s.GetBlockByHeight(h)
	if err != nil {
		return nil, err
	}
	return block.Transactions, nil
}

func (s *Store) GetEnrollment(utxoKeyStr string) (*ledger.Enrollment, error) {
	data, err := s.db.Get(enrollmentKey(utxoKeyStr))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var e ledger.Enrollment
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEnrollments returns every enrollment ever recorded, active or expired;
// the validator engine filters by ActiveAt.
func (s *Store) ListEnrollments() ([]*ledger.Enrollment, error) {
	it := s.db.NewIterator([]byte(prefixEnrollment))
	defer it.Release()
	var out []*ledger.Enrollment
	for it.Next() {
		var e ledger.Enrollment
		if err := json.Unmarshal(it.Value(), &e); err != nil {
			continue
		}
		out = append(out, &e)
	}
	return out, it.Error()
}

// PutPreImage writes a single validator's pre-image tip outside of a block
// commit, for the submit_preimage ingress path. Callers are
// expected to have already run the monotonic/chain-consistency checks
// (validator.AcceptPreImage); this is a plain set.
func (s *Store) PutPreImage(p *ledger.PreImage) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preimage %s: %w", p.Validator, err)
	}
	return s.db.Set(preImageKey(p.Validator), data)
}

func (s *Store) GetPreImage(validator string) (*ledger.PreImage, error) {
	data, err := s.db.Get(preImageKey(validator))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var p ledger.PreImage
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProposal(id string) (*ledger.Proposal, error) {
	data, err := s.db.Get(proposalKey(id))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var p ledger.Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProposals() ([]*ledger.Proposal, error) {
	it := s.db.NewIterator([]byte(prefixProposal))
	defer it.Release()
	var out []*ledger.Proposal
	for it.Next() {
		var p ledger.Proposal
		if err := json.Unmarshal(it.Value(), &p); err != nil {
			continue
		}
		out = append(out, &p)
	}
	return out, it.Error()
}

func (s *Store) GetBallot(proposalID, validator string) (*ledger.Ballot, error) {
	data, err := s.db.Get(ballotKey(proposalID, validator))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var bal ledger.Ballot
	if err := json.Unmarshal(data, &bal); err != nil {
		return nil, err
	}
	return &bal, nil
}

func (s *Store) ListBallotsByProposal(proposalID string) ([]*ledger.Ballot, error) {
	it := s.db.NewIterator(append([]byte(prefixBallot), []byte(proposalID+"/")...))
	defer it.Release()
	var out []*ledger.Ballot
	for it.Next() {
		var bal ledger.Ballot
		if err := json.Unmarshal(it.Value(), &bal); err != nil {
			continue
		}
		out = append(out, &bal)
	}
	return out, it.Error()
}

// PutTransactionPool records a not-yet-committed transaction the private
// intake port accepted, as a single-key write outside CommitBlock's batch;
// the ingestion pipeline calls it from its mutator queue.
func (s *Store) PutTransactionPool(tx *ledger.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	return s.db.Set(pendingTxKey(tx.Hash), data)
}

func (s *Store) GetPendingTransaction(hash string) (*ledger.Transaction, error) {
	data, err := s.db.Get(pendingTxKey(hash))
	if err != nil {
		if err == ErrNotFoundDB {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	var tx ledger.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func extractSuffix(full, prefix string) string {
	if len(full) < len(prefix) {
		return ""
	}
	return full[len(prefix):]
}
