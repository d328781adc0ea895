package database

import "context"

// Transactor runs fn inside a transaction. Repositories called with txCtx join
// the transaction; fn returning an error rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
