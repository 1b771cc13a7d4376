package lockout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldFailures    = "failures"
	fieldLastFailure = "last_failure_at"
	fieldLockedUntil = "locked_until"
)

// Redis shares lockout state between API instances. Each key is a hash that
// expires one window after the last failure, or when its lock ends.
type Redis struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (*Record, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get lockout: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	rec := &Record{}
	if v, ok := fields[fieldFailures]; ok {
		if rec.Failures, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parse lockout failures: %w", err)
		}
	}
	if v, ok := fields[fieldLastFailure]; ok {
		t, err := parseNanos(v)
		if err != nil {
			return nil, err
		}
		rec.LastFailureAt = t
	}
	if v, ok := fields[fieldLockedUntil]; ok {
		t, err := parseNanos(v)
		if err != nil {
			return nil, err
		}
		rec.LockedUntil = &t
	}
	return rec, nil
}

func (r *Redis) RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (*Record, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, key, fieldFailures, 1)
		p.HSet(ctx, key, fieldLastFailure, now.UnixNano())
		p.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record login failure: %w", err)
	}
	return &Record{Failures: int(incr.Val()), LastFailureAt: now}, nil
}

func (r *Redis) Lock(ctx context.Context, key string, until time.Time) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fieldFailures, 0, fieldLockedUntil, until.UnixNano())
		p.PExpireAt(ctx, key, until)
		return nil
	})
	if err != nil {
		return fmt.Errorf("lock login: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

func parseNanos(v string) (time.Time, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse lockout timestamp: %w", err)
	}
	return time.Unix(0, n).UTC(), nil
}
