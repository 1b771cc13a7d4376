// Package security emits access-violation and authentication-failure events.
// Emission is best-effort: a failed write is logged and counted, never returned.
package security

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "coliving/pkg/platform/audit"
	txcontext "coliving/pkg/platform/tx"
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	dropped prometheus.Counter
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithDroppedCounter registers the coliving_audit_security_dropped_total counter.
func WithDroppedCounter() Option {
	return func(p *Publisher) {
		p.dropped = promauto.NewCounter(prometheus.CounterOpts{
			Name: "coliving_audit_security_dropped_total",
			Help: "Total number of security audit events that could not be persisted",
		})
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records event, swallowing persistence failures. It detaches from the
// request's cancellation and transaction so a rolled-back request still leaves
// a trace.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) {
	if p == nil || p.store == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Category = audit.CategorySecurity
	if err := p.store.Append(txcontext.Detach(context.WithoutCancel(ctx)), event); err != nil {
		if p.dropped != nil {
			p.dropped.Inc()
		}
		if p.logger != nil {
			p.logger.WarnContext(ctx, "security audit dropped",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
}
