//go:build integration

package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coliving/internal/account/lockout"
	"coliving/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *lockout.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = lockout.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestCountAndLock() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	rec, err := s.store.Get(ctx, "login:a:b")
	s.Require().NoError(err)
	s.Nil(rec)

	for i := 1; i <= 3; i++ {
		rec, err = s.store.RecordFailure(ctx, "login:a:b", now, time.Minute)
		s.Require().NoError(err)
		s.Equal(i, rec.Failures)
	}

	ttl, err := s.redis.Client.PTTL(ctx, "login:a:b").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	until := now.Add(30 * time.Second)
	s.Require().NoError(s.store.Lock(ctx, "login:a:b", until))
	rec, err = s.store.Get(ctx, "login:a:b")
	s.Require().NoError(err)
	s.Zero(rec.Failures)
	s.True(rec.LockedAt(now))
	s.True(until.Equal(*rec.LockedUntil))
	s.True(now.Equal(rec.LastFailureAt))

	s.Require().NoError(s.store.Clear(ctx, "login:a:b"))
	rec, err = s.store.Get(ctx, "login:a:b")
	s.Require().NoError(err)
	s.Nil(rec)
}
