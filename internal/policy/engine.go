// Package policy decides whether an actor may perform an operation on a resource.
//
// Rules live in a single table keyed by (resource type, operation). Each rule is a
// predicate over the actor and a lazily resolved resource instance. A missing entry
// denies. Authorize never mutates state.
package policy

import (
	"context"
	"errors"
	"log/slog"

	accountModels "coliving/internal/account/models"
	"coliving/internal/identity"
	listingModels "coliving/internal/listing/models"
	messagingModels "coliving/internal/messaging/models"
	reservationModels "coliving/internal/reservation/models"
	verificationModels "coliving/internal/verification/models"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/requestcontext"
)

// errNoInstance is returned by rules that need a resource but were given none.
var errNoInstance = errors.New("resource instance required")

type ruleKey struct {
	resource ResourceType
	op       Operation
}

type rule func(a identity.Actor, in *Instance) (Decision, error)

// DenialRecorder receives best-effort audit events for denied requests.
type DenialRecorder interface {
	Emit(ctx context.Context, event audit.Event)
}

// Engine evaluates the rule table.
type Engine struct {
	resolver *Resolver
	rules    map[ruleKey]rule
	logger   *slog.Logger
	metrics  *Metrics
	denials  DenialRecorder
}

// Option configures the Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDenialRecorder sends an access_denied audit event for every denial.
func WithDenialRecorder(r DenialRecorder) Option {
	return func(e *Engine) {
		e.denials = r
	}
}

// New builds an engine that resolves ownership through listings.
func New(listings ListingLookup, opts ...Option) *Engine {
	e := &Engine{
		resolver: NewResolver(listings),
		rules:    defaultRules(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver exposes the ownership resolver the engine uses.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Authorize evaluates op on resource for actor. resource may be nil for LIST and
// CREATE. A non-nil error means the decision could not be made (broken ownership
// chain, store failure) and is always CodeInternal.
func (e *Engine) Authorize(ctx context.Context, actor identity.Actor, op Operation, rt ResourceType, resource any) (Decision, error) {
	r, ok := e.rules[ruleKey{resource: rt, op: op}]
	if !ok {
		d := Deny(reasonNotPermitted)
		e.observe(ctx, actor, op, rt, resource, d)
		return d, nil
	}

	d, err := r(actor, newInstance(ctx, e.resolver, resource))
	if err != nil {
		e.metrics.IncErrors()
		e.logger.ErrorContext(ctx, "authorization could not be evaluated",
			"request_id", requestcontext.RequestID(ctx),
			"resource", string(rt),
			"operation", string(op),
			"actor_id", actor.ID.String(),
			"error", err,
		)
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "authorization failed")
	}
	e.observe(ctx, actor, op, rt, resource, d)
	return d, nil
}

// Require is Authorize collapsed into a single error: nil on Allow, the coded
// denial otherwise.
func (e *Engine) Require(ctx context.Context, actor identity.Actor, op Operation, rt ResourceType, resource any) error {
	d, err := e.Authorize(ctx, actor, op, rt, resource)
	if err != nil {
		return err
	}
	return d.Err()
}

func (e *Engine) observe(ctx context.Context, actor identity.Actor, op Operation, rt ResourceType, resource any, d Decision) {
	e.metrics.ObserveDecision(string(rt), string(op), d.Effect())
	if d.Allowed {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	e.logger.WarnContext(ctx, "access denied",
		"request_id", requestID,
		"resource", string(rt),
		"operation", string(op),
		"actor_id", actor.ID.String(),
		"authenticated", actor.Authenticated,
		"reason", d.Reason,
	)
	if e.denials != nil {
		e.denials.Emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			ActorID:   actor.ID,
			Subject:   SubjectOf(rt, resource),
			Action:    string(audit.EventAccessDenied),
			Decision:  string(op),
			Reason:    d.Reason,
			RequestID: requestID,
			UserAgent: requestcontext.UserAgent(ctx),
			IP:        requestcontext.ClientIP(ctx),
		})
	}
}

// SubjectOf renders "<type>:<id>" for audit subjects.
func SubjectOf(rt ResourceType, resource any) string {
	var rid string
	switch r := resource.(type) {
	case *listingModels.ColivingSpace:
		rid = r.ID.String()
	case *listingModels.PrivateSpace:
		rid = r.ID.String()
	case *reservationModels.Reservation:
		rid = r.ID.String()
	case *reservationModels.Review:
		rid = r.ID.String()
	case *verificationModels.VerificationSpace:
		rid = r.ID.String()
	case *verificationModels.VerificationUser:
		rid = r.ID.String()
	case *accountModels.User:
		rid = r.ID.String()
	case *messagingModels.Message:
		rid = r.ID.String()
	}
	if rid == "" {
		return string(rt)
	}
	return string(rt) + ":" + rid
}

// Instance is the resource a rule is evaluated against. Ownership is resolved on
// first use and memoized, so rules that never ask for the owner never hit the store.
type Instance struct {
	ctx      context.Context
	resolver *Resolver
	Resource any

	ownerResolved bool
	owner         id.UserID
	ownerErr      error
}

func newInstance(ctx context.Context, resolver *Resolver, resource any) *Instance {
	return &Instance{ctx: ctx, resolver: resolver, Resource: resource}
}

// Present reports whether a resource instance was supplied.
func (in *Instance) Present() bool {
	return in.Resource != nil
}

// IsOwnedBy reports whether actor is the controlling owner of the resource.
func (in *Instance) IsOwnedBy(a identity.Actor) (bool, error) {
	if !in.ownerResolved {
		owner, err := in.resolver.ControllingOwner(in.ctx, in.Resource)
		in.owner, in.ownerErr, in.ownerResolved = owner, err, true
	}
	if in.ownerErr != nil {
		return false, in.ownerErr
	}
	return a.Is(in.owner), nil
}

// ParentSpace loads the parent coliving space of a private space instance.
func (in *Instance) ParentSpace() (*listingModels.ColivingSpace, error) {
	room, ok := in.Resource.(*listingModels.PrivateSpace)
	if !ok || room == nil {
		return nil, errNoInstance
	}
	return in.resolver.ParentSpace(in.ctx, room)
}
