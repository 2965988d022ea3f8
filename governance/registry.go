// Package governance projects proposal declarations and ballots into the
// height-driven status machine a proposal moves through. Payload kinds
// dispatch through a self-registering handler registry, the same shape the
// teacher used to dispatch transaction types to VM modules: each governance
// payload kind's handler lives in its own file and registers itself from
// init(), so adding a new payload kind never touches engine.go.
package governance

import (
	"fmt"
	"sync"

	"github.com/lumenledger/stoa/payload"
)

// Handler decodes and applies one payload kind, writing results into
// ctx.Result. Returning an error marks the enclosing transaction as
// PayloadDecodeError, the transaction itself is still recorded, only
// its governance effect is skipped.
type Handler func(ctx *Context, raw []byte) error

// Registry maps payload kinds to handlers. Thread-safe for concurrent
// registration during package init.
type Registry struct {
	mu       sync.RWMutex
	handlers map[payload.Kind]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[payload.Kind]Handler)}
}

// Register associates k with h. Panics on duplicate registration.
func (r *Registry) Register(k payload.Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[k]; exists {
		panic(fmt.Sprintf("governance: handler already registered for kind %v", k))
	}
	r.handlers[k] = h
}

// Dispatch runs the handler registered for k.
func (r *Registry) Dispatch(ctx *Context, k payload.Kind, raw []byte) error {
	r.mu.RLock()
	h, ok := r.handlers[k]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("governance: no handler registered for kind %v", k)
	}
	return h(ctx, raw)
}

// globalRegistry is the package-level singleton handler files register
// into from their init() functions.
var globalRegistry = NewRegistry()

// Register adds a handler to the global registry.
func Register(k payload.Kind, h Handler) {
	globalRegistry.Register(k, h)
}
