package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	accountHandler "coliving/internal/account/handler"
	"coliving/internal/account/lockout"
	"coliving/internal/account/secrets"
	accountService "coliving/internal/account/service"
	accountStore "coliving/internal/account/store"
	"coliving/internal/account/store/revocation"
	jwttoken "coliving/internal/jwt_token"
	listingHandler "coliving/internal/listing/handler"
	listingService "coliving/internal/listing/service"
	listingStore "coliving/internal/listing/store"
	messagingHandler "coliving/internal/messaging/handler"
	messagingService "coliving/internal/messaging/service"
	messagingStore "coliving/internal/messaging/store"
	"coliving/internal/platform/config"
	"coliving/internal/platform/metrics"
	pgplatform "coliving/internal/platform/postgres"
	redisplatform "coliving/internal/platform/redis"
	"coliving/internal/policy"
	reservationHandler "coliving/internal/reservation/handler"
	reservationService "coliving/internal/reservation/service"
	reservationStore "coliving/internal/reservation/store"
	httptransport "coliving/internal/transport/http"
	verificationHandler "coliving/internal/verification/handler"
	verificationService "coliving/internal/verification/service"
	verificationStore "coliving/internal/verification/store"
	"coliving/migrations"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/audit/publishers/compliance"
	"coliving/pkg/platform/audit/publishers/security"
	auditmemory "coliving/pkg/platform/audit/store/memory"
	auditpostgres "coliving/pkg/platform/audit/store/postgres"
	authmw "coliving/pkg/platform/middleware/auth"
	"coliving/pkg/platform/tx"
)

type listingBackend interface {
	listingService.SpaceStore
	listingService.CatalogStore
	accountService.UserReferences
}

type reservationBackend interface {
	reservationService.Store
	listingService.ReservationCounter
	accountService.UserReferences
}

type verificationBackend interface {
	verificationService.Store
	accountService.UserReferences
}

type messagingBackend interface {
	messagingService.Store
	accountService.UserReferences
}

type revocationList interface {
	accountService.TokenRevoker
	authmw.TokenRevocationChecker
}

// backends is one consistent set of stores: all PostgreSQL or all in-memory.
type backends struct {
	name          string
	listings      listingBackend
	reservations  reservationBackend
	verifications verificationBackend
	users         accountService.Store
	messages      messagingBackend
	audit         audit.Store
	revocations   revocationList
	lockouts      lockout.Store
	runner        tx.Runner
}

type app struct {
	router  http.Handler
	storage string
	closers []func() error
}

func (a *app) close(log *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	checks := map[string]httptransport.HealthCheck{}

	var b backends
	if cfg.Database.URL != "" {
		db, err := pgplatform.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := migrations.Apply(ctx, db); err != nil {
			a.close(log)
			return nil, err
		}
		b = postgresBackends(db)
		checks["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, state is kept in memory and lost on restart")
		b = memoryBackends()
	}

	rc, err := redisplatform.New(ctx, cfg.Redis)
	if err != nil {
		a.close(log)
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
		b.revocations = revocation.NewRedisTRL(rc.Client)
		b.lockouts = lockout.NewRedis(rc.Client)
		checks["redis"] = rc.Health
	}
	a.storage = b.name

	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)

	securityAudit := security.New(b.audit, security.WithLogger(log), security.WithDroppedCounter())
	complianceAudit := compliance.New(b.audit, compliance.WithLogger(log), compliance.WithMetrics(compliance.NewMetrics()))
	engine := policy.New(b.listings,
		policy.WithLogger(log),
		policy.WithMetrics(policy.NewMetrics(reg)),
		policy.WithDenialRecorder(securityAudit),
	)
	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)

	listings := listingService.New(b.listings, b.listings, engine,
		listingService.WithLogger(log),
		listingService.WithMetrics(m),
		listingService.WithAuditPublisher(complianceAudit),
		listingService.WithTx(b.runner),
		listingService.WithReservationCounter(b.reservations),
	)
	reservations := reservationService.New(b.reservations, b.listings, engine,
		reservationService.WithLogger(log),
		reservationService.WithMetrics(m),
		reservationService.WithAuditPublisher(complianceAudit),
		reservationService.WithTx(b.runner),
	)
	verifications := verificationService.New(b.verifications, b.listings, b.users, engine,
		verificationService.WithLogger(log),
		verificationService.WithMetrics(m),
		verificationService.WithAuditPublisher(complianceAudit),
		verificationService.WithTx(b.runner),
	)
	accounts := accountService.New(b.users, engine, jwt, b.revocations,
		accountService.WithLogger(log),
		accountService.WithMetrics(m),
		accountService.WithAuditPublisher(complianceAudit),
		accountService.WithSecurityRecorder(securityAudit),
		accountService.WithTx(b.runner),
		accountService.WithTokenTTL(cfg.Auth.TokenTTL),
		accountService.WithHasher(secrets.NewHasher(cfg.Auth.BcryptCost)),
		accountService.WithUserReferences(b.listings, b.reservations, b.verifications, b.messages),
		accountService.WithLockout(lockout.New(b.lockouts,
			lockout.WithLogger(log),
			lockout.WithConfig(lockout.Config{
				Attempts:     cfg.Auth.LoginAttempts,
				Window:       cfg.Auth.LoginWindow,
				LockDuration: cfg.Auth.LoginLockDuration,
			}),
		)),
	)
	if cfg.Auth.BootstrapAdminEmail != "" {
		if _, _, err := accounts.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
			a.close(log)
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	messages := messagingService.New(b.messages, b.users, engine,
		messagingService.WithLogger(log),
		messagingService.WithTx(b.runner),
	)

	a.router = httptransport.NewRouter(httptransport.Options{
		Logger:      log,
		CORSOrigins: cfg.Server.CORSOrigins,
		Validator:   jwttoken.NewJWTServiceAdapter(jwt),
		Revocations: b.revocations,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		Checks:      checks,
	},
		accountHandler.New(accounts, log),
		listingHandler.New(listings, log),
		listingHandler.NewActions(listings, log),
		reservationHandler.New(reservations, log),
		verificationHandler.New(verifications, log),
		messagingHandler.New(messages, log),
	)
	return a, nil
}

func postgresBackends(db *sql.DB) backends {
	return backends{
		name:          "postgres",
		listings:      listingStore.NewPostgres(db),
		reservations:  reservationStore.NewPostgres(db),
		verifications: verificationStore.NewPostgres(db),
		users:         accountStore.NewPostgres(db),
		messages:      messagingStore.NewPostgres(db),
		audit:         auditpostgres.New(db),
		revocations:   revocation.NewPostgresTRL(db, nil),
		lockouts:      lockout.NewInMemory(),
		runner:        pgplatform.NewTxRunner(db),
	}
}

func memoryBackends() backends {
	listings := listingStore.NewInMemory()
	return backends{
		name:          "memory",
		listings:      listings,
		reservations:  reservationStore.NewInMemory(policy.NewResolver(listings)),
		verifications: verificationStore.NewInMemory(),
		users:         accountStore.NewInMemory(),
		messages:      messagingStore.NewInMemory(),
		audit:         auditmemory.NewInMemoryStore(),
		revocations:   revocation.NewInMemoryTRL(nil),
		lockouts:      lockout.NewInMemory(),
		runner:        tx.NewShardedRunner(),
	}
}
