//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"coliving/internal/platform/outbox"
	audit "coliving/pkg/platform/audit"
	auditpostgres "coliving/pkg/platform/audit/store/postgres"
	"coliving/pkg/testutil"
	"coliving/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	brokers  []string
	pool     *pgxpool.Pool
	kafka    *kgo.Client
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	ctx := context.Background()
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers

	var err error
	s.pool, err = pgxpool.New(ctx, s.postgres.DSN)
	s.Require().NoError(err)
	s.kafka, err = kgo.NewClient(kgo.SeedBrokers(s.brokers...))
	s.Require().NoError(err)
}

func (s *RelaySuite) TearDownSuite() {
	s.kafka.Close()
	s.pool.Close()
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *RelaySuite) TestPublishesAndMarksProcessed() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	topic := "audit-" + testutil.NewUserID().String()

	s.Require().NoError(outbox.EnsureTopic(ctx, kadm.NewClient(s.kafka), topic, 1, 1))
	s.Require().NoError(outbox.EnsureTopic(ctx, kadm.NewClient(s.kafka), topic, 1, 1), "second call is a no-op")

	store := auditpostgres.New(s.postgres.DB)
	actor := testutil.NewUserID()
	for _, action := range []audit.AuditEvent{audit.EventListingPublished, audit.EventUserCreated, audit.EventAccessDenied} {
		s.Require().NoError(store.Append(ctx, audit.Event{
			Timestamp: time.Now(),
			ActorID:   actor,
			Subject:   "ColivingSpace:" + uuid.NewString(),
			Action:    string(action),
		}))
	}

	relay := outbox.New(s.pool, s.kafka, topic, outbox.WithBatchSize(2))
	n, err := relay.DrainOnce(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
	n, err = relay.DrainOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
	n, err = relay.DrainOnce(ctx)
	s.Require().NoError(err)
	s.Zero(n)

	var pending int
	s.Require().NoError(s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE processed_at IS NULL`).Scan(&pending))
	s.Zero(pending)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var actions []string
	for len(actions) < 3 {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err())
		fetches.EachRecord(func(rec *kgo.Record) {
			var p auditpostgres.Payload
			s.Require().NoError(json.Unmarshal(rec.Value, &p))
			s.Equal(actor.String(), p.ActorID)
			actions = append(actions, p.Action)
		})
	}
	s.ElementsMatch([]string{"listing_published", "user_created", "access_denied"}, actions)
}
