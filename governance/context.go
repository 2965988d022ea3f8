package governance

import (
	"github.com/lumenledger/stoa/ledger"
	"github.com/lumenledger/stoa/storage"
	"github.com/lumenledger/stoa/validator"
)

// Context is handed to a payload handler for a single committed
// transaction. Store is read-only from the handler's perspective: new or
// changed entities go into Result, which the Engine folds into the
// block's CommitEffects alongside everything else the block produced.
type Context struct {
	Store       *storage.Store
	Validators  *validator.Engine
	Height      uint64
	TxHash      string
	GraceBlocks uint64
	Result      *Result
}

// Result accumulates what a handler (or an engine.AdvanceHeight pass)
// decided should be written back.
type Result struct {
	Proposals []*ledger.Proposal
	Ballots   []*ledger.Ballot
}
