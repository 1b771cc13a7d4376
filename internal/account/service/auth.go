package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"

	"coliving/internal/account/models"
	"coliving/internal/account/secrets"
	"coliving/internal/identity"
	"coliving/internal/platform/tracing"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/requestcontext"
)

// Token is the result of a successful login.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

// Login checks credentials and issues an access token carrying the user's roles.
// Unknown emails, wrong passwords and disabled accounts all answer
// CodeUnauthorized and count towards the lockout.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	ctx, span := tracing.Start(ctx, "account.login")
	defer span.End()

	ip := requestcontext.ClientIP(ctx)
	if s.lockout != nil {
		if err := s.lockout.Check(ctx, email, ip); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
			return nil, err
		}
	}

	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		if s.lockout != nil && dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			if lerr := s.lockout.RecordFailure(ctx, email, ip); lerr != nil {
				s.logger.WarnContext(ctx, "failed to record login failure",
					"request_id", requestcontext.RequestID(ctx),
					"error", lerr,
				)
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, email, ip); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login failures",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	signed, claims, err := s.tokens.GenerateAccessToken(u.ID, roles, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	s.logger.InfoContext(ctx, "user logged in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID.String(),
	)
	return &Token{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.store.FindUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordSecurity(ctx, id.UserID{}, audit.EventAuthFailed, "User:unknown", "unknown email")
			return nil, errInvalidCredentials
		}
		return nil, loadErr(err, "user")
	}
	subject := policy.SubjectOf(policy.ResourceUser, u)
	if err := secrets.Verify(password, u.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.recordSecurity(ctx, u.ID, audit.EventAuthFailed, subject, "wrong password")
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}
	if err := u.CanLogin(); err != nil {
		s.recordSecurity(ctx, u.ID, audit.EventAuthFailed, subject, "account disabled")
		return nil, err
	}
	return u, nil
}

// Logout revokes the token the request was authenticated with until it expires.
func (s *Service) Logout(ctx context.Context, actor identity.Actor) error {
	if !actor.Authenticated {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	jti := requestcontext.TokenID(ctx)
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "token has no id")
	}
	ttl := requestcontext.TokenExpiry(ctx).Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logger.InfoContext(ctx, "user logged out",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", actor.ID.String(),
	)
	return nil
}
