// Package tx carries a transactional boundary through context so stores can join
// the caller's transaction without it appearing in their signatures.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

type lockKeyCtx struct{}

// Runner executes fn inside one transactional boundary. Stores called with the
// ctx passed to fn take part in the same transaction.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok && tx != nil
}

// Detach hides any transaction in ctx, so writes through the result commit on
// their own even if the caller's transaction rolls back.
func Detach(ctx context.Context) context.Context {
	if _, ok := From(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, txKey, (*sql.Tx)(nil))
}

// WithLockKey names the entities a transaction is about. In-memory runners use
// the keys to pick lock shards; SQL runners rely on row locks instead.
func WithLockKey(ctx context.Context, keys ...string) context.Context {
	return context.WithValue(ctx, lockKeyCtx{}, keys)
}

func lockKeys(ctx context.Context) []string {
	keys, _ := ctx.Value(lockKeyCtx{}).([]string)
	return keys
}
