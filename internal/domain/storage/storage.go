// Package storage defines the transactional scope abstraction shared by the
// domain services and the persistence layer.
//
// A Tx is an opaque handle to one atomic unit of work. Repositories that can
// participate in a transaction take the handle as an explicit argument; the
// concrete type is owned by the storage implementation (pgx.Tx for PostgreSQL)
// and is never inspected by domain code.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// Tx is an opaque transactional scope handle. All reads and writes performed
// with the same handle commit together or not at all.
type Tx any

// TxManager opens transactional scopes. WithinTx begins a transaction, runs fn
// with its handle, and commits when fn returns nil. Any error from fn, or a
// cancelled context, rolls the whole scope back; no partial state survives.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// ErrConflict indicates the underlying store detected a write conflict
// (serialization failure, deadlock victim, lost decrement race). The enclosing
// transaction has been aborted; callers may retry the whole operation.
var ErrConflict = errors.New("storage: write conflict")
