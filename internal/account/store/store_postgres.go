package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"coliving/internal/account/models"
	"coliving/internal/identity"
	pgplatform "coliving/internal/platform/postgres"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

// Postgres persists users. The UNIQUE(email) constraint enforces uniqueness.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone_number, roles,
	is_active, is_email_verified, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		userID    uuid.UUID
		roles     []string
		updatedAt sql.NullTime
		u         models.User
	)
	err := row.Scan(&userID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber,
		pq.Array(&roles), &u.IsActive, &u.IsEmailVerified, &u.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.Roles = make([]identity.Role, 0, len(roles))
	for _, r := range roles {
		u.Roles = append(u.Roles, identity.Role(r))
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	return &u, nil
}

func roleArray(roles []identity.Role) any {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return pq.Array(out)
}

func (s *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(u.ID), u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
		roleArray(u.Roles), u.IsActive, u.IsEmailVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return fmt.Errorf("insert user: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(userID))
}

func (s *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `WHERE email = $1`, models.NormalizeEmail(email))
}

func (s *Postgres) LockUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, `WHERE id = $1 FOR UPDATE`, uuid.UUID(userID))
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Postgres) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE users SET email = $2, password_hash = $3, first_name = $4, last_name = $5,
			phone_number = $6, roles = $7, is_active = $8, is_email_verified = $9, updated_at = $10
		WHERE id = $1`,
		uuid.UUID(u.ID), u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber,
		roleArray(u.Roles), u.IsActive, u.IsEmailVerified, u.UpdatedAt)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

// DeleteUser returns sentinel.ErrConflict while listings, reservations or
// messages still reference the user.
func (s *Postgres) DeleteUser(ctx context.Context, userID id.UserID) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		if pgplatform.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete user: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListUsers(ctx context.Context, filter models.Filter, page paging.Page) ([]*models.User, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Email != "" {
		add("email = $%d", models.NormalizeEmail(filter.Email))
	}
	if filter.FirstName != "" {
		add("first_name ILIKE '%%' || $%d || '%%'", filter.FirstName)
	}
	if filter.LastName != "" {
		add("last_name ILIKE '%%' || $%d || '%%'", filter.LastName)
	}
	if filter.Role != "" {
		add("$%d = ANY(roles)", string(filter.Role))
	}
	if filter.IsActive != nil {
		add("is_active = $%d", *filter.IsActive)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	args = append(args, page.Limit(), page.Offset())
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT `+userColumns+` FROM users`+clause+
		` ORDER BY created_at, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return out, total, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
