package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"coliving/internal/account/models"
	"coliving/internal/identity"
	"coliving/internal/platform/tracing"
	"coliving/internal/policy"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
	audit "coliving/pkg/platform/audit"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
	"coliving/pkg/platform/tx"
	"coliving/pkg/requestcontext"
)

// RegisterInput is a self-registration request.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// UpdateInput edits an account. Roles and IsActive are administrator fields.
type UpdateInput struct {
	models.Profile
	Password *string
	Roles    []identity.Role
	IsActive *bool
}

func (in UpdateInput) touchesAdminFields() bool {
	return in.Roles != nil || in.IsActive != nil
}

// Register creates an active account with no stored role.
func (s *Service) Register(ctx context.Context, actor identity.Actor, in RegisterInput) (*models.User, error) {
	ctx, span := tracing.Start(ctx, "account.register")
	defer span.End()

	if err := s.policy.Require(ctx, actor, policy.OpCreate, policy.ResourceUser, nil); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	now := requestcontext.Now(ctx)
	u, err := models.NewUser(id.UserID(uuid.New()), in.Email, hash, in.FirstName, in.LastName, now)
	if err != nil {
		return nil, validation(err)
	}
	u.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	err = s.tx.RunInTx(tx.WithLockKey(ctx, "email:"+u.Email), func(ctx context.Context) error {
		if err := s.store.CreateUser(ctx, u); err != nil {
			return writeErr(err, "email already registered", "create user")
		}
		return s.emit(ctx, u.ID, audit.EventUserCreated, policy.SubjectOf(policy.ResourceUser, u), "created", "")
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncrementUsersCreated()
	s.logger.InfoContext(ctx, "user registered",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID.String(),
	)
	return u, nil
}

// EnsureAdmin creates an administrator account at startup unless the email is
// already registered. It runs outside any request, so no policy applies. The
// boolean reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	existing, err := s.store.FindUserByEmail(ctx, models.NormalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, loadErr(err, "user")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return nil, false, err
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	now := requestcontext.Now(ctx)
	u, err := models.NewUser(id.UserID(uuid.New()), email, hash, "Admin", "", now)
	if err != nil {
		return nil, false, validation(err)
	}
	u.SetRoles([]identity.Role{identity.RoleAdmin}, now)

	err = s.tx.RunInTx(tx.WithLockKey(ctx, "email:"+u.Email), func(ctx context.Context) error {
		if err := s.store.CreateUser(ctx, u); err != nil {
			return writeErr(err, "email already registered", "create user")
		}
		return s.emit(ctx, u.ID, audit.EventUserCreated, policy.SubjectOf(policy.ResourceUser, u), "created", "bootstrap admin")
	})
	if err != nil {
		return nil, false, err
	}
	s.metrics.IncrementUsersCreated()
	s.logger.InfoContext(ctx, "bootstrap admin created", "user_id", u.ID.String())
	return u, true, nil
}

func (s *Service) GetUser(ctx context.Context, actor identity.Actor, userID id.UserID) (*models.User, error) {
	u, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, loadErr(err, "user")
	}
	if err := s.policy.Require(ctx, actor, policy.OpRead, policy.ResourceUser, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers is staff only.
func (s *Service) ListUsers(ctx context.Context, actor identity.Actor, filter models.Filter, page paging.Page) ([]*models.User, int, error) {
	if err := s.policy.Require(ctx, actor, policy.OpList, policy.ResourceUser, nil); err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListUsers(ctx, filter, page)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return items, total, nil
}

// UpdateUser lets users edit their own profile. Changing roles or the active
// flag requires ADMIN.
func (s *Service) UpdateUser(ctx context.Context, actor identity.Actor, userID id.UserID, in UpdateInput) (*models.User, error) {
	ctx, span := tracing.Start(ctx, "account.update")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var newHash string
	if in.Password != nil {
		h, err := s.hasher.Hash(*in.Password)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeValidation) {
				return nil, err
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		newHash = h
	}

	var (
		updated      *models.User
		rolesChanged bool
		oldRoles     []identity.Role
	)
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "user:"+userID.String()), func(ctx context.Context) error {
		u, err := s.store.LockUser(ctx, userID)
		if err != nil {
			return loadErr(err, "user")
		}
		if err := s.policy.Require(ctx, actor, policy.OpUpdate, policy.ResourceUser, u); err != nil {
			return err
		}
		if in.touchesAdminFields() && !identity.HasRole(actor, identity.RoleAdmin) {
			return dErrors.New(dErrors.CodeForbidden, "only administrators may change roles or activation")
		}
		now := requestcontext.Now(ctx)
		if err := u.UpdateProfile(in.Profile, now); err != nil {
			return validation(err)
		}
		if newHash != "" {
			u.SetPassword(newHash, now)
		}
		if in.IsActive != nil && *in.IsActive != u.IsActive {
			if *in.IsActive {
				err = u.Reactivate(now)
			} else {
				err = u.Deactivate(now)
			}
			if err != nil {
				return err
			}
		}
		if in.Roles != nil {
			oldRoles = slices.Clone(u.Roles)
			u.SetRoles(in.Roles, now)
			rolesChanged = !slices.Equal(oldRoles, u.Roles)
		}
		if err := s.store.UpdateUser(ctx, u); err != nil {
			return writeErr(err, "email already registered", "update user")
		}
		if rolesChanged {
			if err := s.emit(ctx, actor.ID, audit.EventUserRolesChanged, policy.SubjectOf(policy.ResourceUser, u),
				"updated", joinRoles(oldRoles)+" -> "+joinRoles(u.Roles)); err != nil {
				return err
			}
		}
		updated = u
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.logger.InfoContext(ctx, "user updated",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"actor_id", actor.ID.String(),
		"roles_changed", rolesChanged,
	)
	return updated, nil
}

// DeleteUser is ADMIN only. Users still referenced by listings or bookings
// cannot be removed.
func (s *Service) DeleteUser(ctx context.Context, actor identity.Actor, userID id.UserID) error {
	err := s.tx.RunInTx(tx.WithLockKey(ctx, "user:"+userID.String()), func(ctx context.Context) error {
		u, err := s.store.LockUser(ctx, userID)
		if err != nil {
			return loadErr(err, "user")
		}
		if err := s.policy.Require(ctx, actor, policy.OpDelete, policy.ResourceUser, u); err != nil {
			return err
		}
		if err := s.ensureUnreferenced(ctx, userID); err != nil {
			return err
		}
		if err := s.store.DeleteUser(ctx, userID); err != nil {
			return writeErr(err, "user is still referenced", "delete user")
		}
		return s.emit(ctx, actor.ID, audit.EventUserDeleted, policy.SubjectOf(policy.ResourceUser, u), "deleted", "")
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"actor_id", actor.ID.String(),
	)
	return nil
}

func (s *Service) ensureUnreferenced(ctx context.Context, userID id.UserID) error {
	for _, refs := range s.refs {
		found, err := refs.ReferencesUser(ctx, userID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check user references")
		}
		if found {
			return dErrors.New(dErrors.CodeConflict, "user is still referenced")
		}
	}
	return nil
}

func joinRoles(roles []identity.Role) string {
	if len(roles) == 0 {
		return "-"
	}
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
