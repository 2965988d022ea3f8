// Package ledger defines the normalized data model Stoa projects from Agora:
// blocks, transactions, UTXOs, validator enrollments, pre-images, governance
// proposals and ballots. Types here carry canonical hashing; persistence
// lives in the storage package, consensus lives in Agora.
package ledger

import "errors"

// ErrNotFound is returned when a requested entity does not exist in the
// ledger store.
var ErrNotFound = errors.New("ledger: not found")
