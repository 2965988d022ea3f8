// Package ingest implements the Ingestion Pipeline: the single
// serialized mutator queue that reconciles Stoa's local ledger height with
// the remote consensus node, and the gap-filling recovery loop that keeps
// them in sync across drops and restarts.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumenledger/stoa/agora"
	"github.com/lumenledger/stoa/events"
	"github.com/lumenledger/stoa/governance"
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/metrics"
	"github.com/lumenledger/stoa/storage"
	"github.com/lumenledger/stoa/validator"
)

// MaxRecovery bounds how many blocks a single recovery pass fetches from
// the Consensus Client in one pass.
const MaxRecovery = 64

// defaultQueueSize is the bound on the pending-work channel; beyond it the
// ingress endpoints log a warning and drop the submission rather than
// block.
const defaultQueueSize = 1024

// task is the single unit the serial mutator queue carries: exactly one of
// block, preimage or tx is set.
type task struct {
	block    *ledger.Block
	preimage *ledger.PreImage
	tx       *ledger.Transaction
}

// Pipeline is the one goroutine in the whole service allowed to mutate the
// Ledger Store. Every other component only reads.
type Pipeline struct {
	store      *storage.Store
	validators *validator.Engine
	governance *governance.Engine
	agora      *agora.Client
	events     *events.Emitter
	log        *zap.Logger
	metrics    *metrics.Metrics

	queue chan task
}

// New builds a Pipeline. log and m may both be nil.
func New(store *storage.Store, validators *validator.Engine, gov *governance.Engine, ac *agora.Client, em *events.Emitter, log *zap.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		store:      store,
		validators: validators,
		governance: gov,
		agora:      ac,
		events:     em,
		log:        log,
		metrics:    m,
		queue:      make(chan task, defaultQueueSize),
	}
}

// Run drains the queue until ctx is cancelled. It is the single goroutine
// the whole service runs this function in.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.queue:
			p.reportQueueDepth()
			p.process(ctx, t)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, t task) {
	switch {
	case t.block != nil:
		if err := p.handleBlock(ctx, t.block); err != nil {
			p.log.Error("block intake failed", zap.Uint64("height", t.block.Header.Height), zap.Error(err))
		}
	case t.preimage != nil:
		if err := p.handlePreimage(t.preimage); err != nil {
			p.log.Warn("preimage intake dropped", zap.String("validator", t.preimage.Validator), zap.Error(err))
		}
	case t.tx != nil:
		if err := p.store.PutTransactionPool(t.tx); err != nil {
			p.log.Warn("pooled transaction intake failed", zap.String("hash", t.tx.Hash), zap.Error(err))
		}
	}
}

// SubmitBlock enqueues block for intake. It does only the cheapest shape
// check here. The consensus node gets its 200 immediately regardless of
// queue depth or eventual validation outcome.
func (p *Pipeline) SubmitBlock(block *ledger.Block) error {
	if block == nil {
		return errors.New("ingest: nil block")
	}
	if block.Hash == "" {
		return errors.New("ingest: block missing hash")
	}
	select {
	case p.queue <- task{block: block}:
		p.reportQueueDepth()
	default:
		p.log.Warn("ingest queue full, dropping block submission", zap.Uint64("height", block.Header.Height))
	}
	return nil
}

// SubmitPreimage enqueues a pre-image advance announcement.
func (p *Pipeline) SubmitPreimage(pi *ledger.PreImage) error {
	if pi == nil {
		return errors.New("ingest: nil preimage")
	}
	select {
	case p.queue <- task{preimage: pi}:
		p.reportQueueDepth()
	default:
		p.log.Warn("ingest queue full, dropping preimage submission", zap.String("validator", pi.Validator))
	}
	return nil
}

// SubmitTransaction enqueues a pooled transaction announcement. Like block
// and pre-image intake, the actual store write is serialized through the
// mutator queue rather than performed on the caller's goroutine, so a pool
// write can never race a concurrent CommitBlock's removal of the same
// pending entry.
func (p *Pipeline) SubmitTransaction(tx *ledger.Transaction) error {
	if tx == nil {
		return errors.New("ingest: nil transaction")
	}
	if tx.Hash == "" {
		return errors.New("ingest: transaction missing hash")
	}
	select {
	case p.queue <- task{tx: tx}:
		p.reportQueueDepth()
	default:
		p.log.Warn("ingest queue full, dropping transaction submission", zap.String("hash", tx.Hash))
	}
	return nil
}

func (p *Pipeline) reportQueueDepth() {
	if p.metrics != nil {
		p.metrics.IngestQueueDepth.Set(float64(len(p.queue)))
	}
}

// refreshProposalGauge recomputes the proposals-by-status gauge from the
// store's current state, since gauges reflect a point-in-time count rather
// than a running total.
func (p *Pipeline) refreshProposalGauge() {
	proposals, err := p.store.ListProposals()
	if err != nil {
		return
	}
	counts := map[ledger.ProposalStatus]int{
		ledger.StatusPending:       0,
		ledger.StatusVoting:        0,
		ledger.StatusCountingVotes: 0,
		ledger.StatusClosed:        0,
	}
	for _, prop := range proposals {
		counts[prop.Status]++
	}
	for status, n := range counts {
		p.metrics.ProposalsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

// handleBlock implements the three-case intake algorithm against h_e, the
// locally expected next height.
func (p *Pipeline) handleBlock(ctx context.Context, block *ledger.Block) error {
	hE, err := p.store.GetExpectedNextHeight()
	if err != nil {
		return fmt.Errorf("get expected next height: %w", err)
	}

	switch {
	case block.Header.Height == hE:
		return p.commitOne(block)

	case block.Header.Height > hE:
		if err := p.recoverUpTo(ctx, block.Header.Height); err != nil {
			return fmt.Errorf("recovery toward %d: %w", block.Header.Height, err)
		}
		hE, err = p.store.GetExpectedNextHeight()
		if err != nil {
			return fmt.Errorf("get expected next height after recovery: %w", err)
		}
		if block.Header.Height == hE {
			return p.commitOne(block)
		}
		// Recovery already folded this height in via the fetched prefix, or
		// could not yet reach it; either way nothing more to do with this
		// specific submission.
		return nil

	default: // block.Header.Height < hE
		p.log.Debug("ignoring stale block resubmission", zap.Uint64("height", block.Header.Height), zap.Uint64("expected", hE))
		return nil
	}
}

// commitOne validates and commits a single block at the store's expected
// next height.
func (p *Pipeline) commitOne(block *ledger.Block) error {
	var prev *ledger.Block
	if block.Header.Height > 0 {
		var err error
		prev, err = p.store.GetBlockByHeight(block.Header.Height - 1)
		if err != nil {
			return fmt.Errorf("load prev block %d: %w", block.Header.Height-1, err)
		}
	}
	if err := validateStructure(prev, block, p.validators); err != nil {
		return fmt.Errorf("validate height %d: %w", block.Header.Height, err)
	}
	effects, err := buildEffects(block, p.validators, p.governance)
	if err != nil {
		return fmt.Errorf("build effects height %d: %w", block.Header.Height, err)
	}
	if err := p.store.CommitBlock(block, effects); err != nil {
		return fmt.Errorf("commit height %d: %w", block.Header.Height, err)
	}
	if p.metrics != nil {
		p.metrics.BlocksCommitted.Inc()
	}
	for _, bal := range effects.UpsertBallots {
		if p.metrics == nil {
			break
		}
		if bal.Answer == ledger.BallotReject {
			p.metrics.BallotsRejected.Inc()
		} else if bal.Answer == ledger.BallotPending {
			p.metrics.BallotsAccepted.Inc()
		}
	}
	if p.metrics != nil {
		p.refreshProposalGauge()
	}
	// Event emission strictly after visibility.
	p.events.EmitBlockCommitted(block)
	return nil
}

// handlePreimage applies a submit_preimage announcement. An update that
// references an unknown utxo_key, or that fails the monotonic/chain
// consistency check, is dropped silently as out-of-order delivery.
func (p *Pipeline) handlePreimage(pi *ledger.PreImage) error {
	enr, err := p.store.GetEnrollment(pi.UTXOKey)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup enrollment %s: %w", pi.UTXOKey, err)
	}
	pi.Validator = enr.Validator
	pi.AnchorHeight = enr.EnrolledAt + 1
	current, err := p.store.GetPreImage(enr.Validator)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("lookup current preimage for %s: %w", enr.Validator, err)
	}
	if errors.Is(err, ledger.ErrNotFound) {
		current = nil
	}
	if pi.TipHeight >= enr.EnrolledAt+enr.CycleLength+1 {
		return fmt.Errorf("tip_height %d outside enrollment window", pi.TipHeight)
	}
	if err := validator.AcceptPreImage(current, pi); err != nil {
		return nil // monotonic/chain-consistency failure: drop silently
	}
	return p.store.PutPreImage(pi)
}
