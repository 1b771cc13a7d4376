package tx

import (
	"context"
	"slices"
	"sync"
	"time"

	dErrors "coliving/pkg/domain-errors"
)

// numShards spreads in-memory transactions across independent locks.
const numShards = 64

const defaultTimeout = 5 * time.Second

// ShardedRunner is the in-memory Runner. Transactions sharing any lock key are
// serialized; transactions without a key share shard 0. Shards are taken in
// ascending order so multi-key transactions cannot deadlock.
type ShardedRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewShardedRunner() *ShardedRunner {
	return &ShardedRunner{timeout: defaultTimeout}
}

func (r *ShardedRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	shards := shardsFor(lockKeys(ctx))
	for _, shard := range shards {
		r.shards[shard].Lock()
	}
	defer func() {
		for i := len(shards) - 1; i >= 0; i-- {
			r.shards[shards[i]].Unlock()
		}
	}()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// shardsFor returns the distinct shards of keys in ascending order.
func shardsFor(keys []string) []int {
	if len(keys) == 0 {
		return []int{0}
	}
	shards := make([]int, 0, len(keys))
	for _, key := range keys {
		shards = append(shards, shardFor(key))
	}
	slices.Sort(shards)
	return slices.Compact(shards)
}

// shardFor hashes key with FNV-1a.
func shardFor(key string) int {
	if key == "" {
		return 0
	}
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= fnvPrime
	}
	return int(h % numShards)
}
