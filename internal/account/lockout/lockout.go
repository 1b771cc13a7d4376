// Package lockout counts failed logins per email and client address and locks
// the pair out once the count reaches the configured limit.
package lockout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/requestcontext"
)

// Record is the failure state of one email and address pair.
type Record struct {
	Failures      int
	LastFailureAt time.Time
	LockedUntil   *time.Time
}

// LockedAt reports whether the lock is still running at now.
func (r *Record) LockedAt(now time.Time) bool {
	return r != nil && r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// Store keeps records. Get returns nil, nil for an unknown key. RecordFailure
// starts a fresh count when the previous failure is older than window. Lock
// resets the count so the pair starts over once the lock expires.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (*Record, error)
	Lock(ctx context.Context, key string, until time.Time) error
	Clear(ctx context.Context, key string) error
}

type Config struct {
	Attempts     int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultConfig allows five failures in fifteen minutes.
func DefaultConfig() Config {
	return Config{Attempts: 5, Window: 15 * time.Minute, LockDuration: 15 * time.Minute}
}

var errLocked = dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts, try again later")

type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConfig replaces the defaults. Non-positive fields keep their default.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.Attempts > 0 {
			s.cfg.Attempts = cfg.Attempts
		}
		if cfg.Window > 0 {
			s.cfg.Window = cfg.Window
		}
		if cfg.LockDuration > 0 {
			s.cfg.LockDuration = cfg.LockDuration
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key builds the store key. Colons are escaped so an email cannot collide with
// another pair's address segment.
func Key(email, ip string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return "login:" + strings.ReplaceAll(email, ":", "_") + ":" + strings.ReplaceAll(ip, ":", "_")
}

// Check fails with CodeTooManyRequests while the pair is locked.
func (s *Service) Check(ctx context.Context, email, ip string) error {
	rec, err := s.store.Get(ctx, Key(email, ip))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login lockout")
	}
	if rec.LockedAt(requestcontext.Now(ctx)) {
		return errLocked
	}
	return nil
}

// RecordFailure counts a failed login and starts the lock when the limit is
// reached.
func (s *Service) RecordFailure(ctx context.Context, email, ip string) error {
	now := requestcontext.Now(ctx)
	key := Key(email, ip)
	rec, err := s.store.RecordFailure(ctx, key, now, s.cfg.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if rec.Failures < s.cfg.Attempts {
		return nil
	}
	until := now.Add(s.cfg.LockDuration)
	if err := s.store.Lock(ctx, key, until); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock login")
	}
	s.logger.WarnContext(ctx, "login locked",
		"request_id", requestcontext.RequestID(ctx),
		"failures", rec.Failures,
		"locked_until", until,
	)
	return nil
}

// Clear forgets the failures after a successful login.
func (s *Service) Clear(ctx context.Context, email, ip string) error {
	if err := s.store.Clear(ctx, Key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}
