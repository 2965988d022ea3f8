// Package events is the Event Bus: a best-effort fan-out of what
// just committed, emitted once per block in commit order, strictly after
// the new state is visible in the Ledger Store.
package events

import (
	"log"
	"sync"

	"github.com/lumenledger/stoa/ledger"
)

// EventType labels what happened.
type EventType string

const (
	EventNewBlock       EventType = "new_block"
	EventNewTransaction EventType = "new_transaction"
	EventStatsTick      EventType = "stats_tick"
)

// Event carries a typed payload emitted after a state change.
type Event struct {
	Type        EventType    `json:"type"`
	BlockHeight uint64       `json:"block_height"`
	Block       *ledger.Block `json:"block,omitempty"`
	Transactions []*ledger.Transaction `json:"transactions,omitempty"`
	Stats       any          `json:"stats,omitempty"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously.
// Each handler is guarded by panic recovery so a misbehaving subscriber
// cannot stall the ingestion pipeline.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[events] handler panicked for %s: %v", ev.Type, r)
				}
			}()
			h(ev)
		}()
	}
}

// EmitBlockCommitted publishes new_block followed by new_transaction for a
// just-committed block, in that order.
func (e *Emitter) EmitBlockCommitted(block *ledger.Block) {
	e.Emit(Event{Type: EventNewBlock, BlockHeight: block.Header.Height, Block: block})
	if len(block.Transactions) > 0 {
		e.Emit(Event{Type: EventNewTransaction, BlockHeight: block.Header.Height, Transactions: block.Transactions})
	}
}
