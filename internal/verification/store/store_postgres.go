package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pgplatform "coliving/internal/platform/postgres"
	"coliving/internal/verification/models"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	spaceColumns = `id, coliving_space_id, private_space_id, verifier_id, status, notes, created_at, verified_at`
	userColumns  = `id, user_id, verifier_id, document_type, document_url, status, notes, created_at, verified_at`
)

func scanLifecycle(l *models.Lifecycle, status string, notes sql.NullString, verifiedAt sql.NullTime) {
	l.Status = models.Status(status)
	if notes.Valid {
		l.Notes = &notes.String
	}
	if verifiedAt.Valid {
		l.VerifiedAt = &verifiedAt.Time
	}
}

func scanSpace(row rowScanner) (*models.VerificationSpace, error) {
	var (
		vID, spaceID, verifierID uuid.UUID
		roomID                   uuid.NullUUID
		status                   string
		notes                    sql.NullString
		verifiedAt               sql.NullTime
		v                        models.VerificationSpace
	)
	if err := row.Scan(&vID, &spaceID, &roomID, &verifierID, &status, &notes, &v.CreatedAt, &verifiedAt); err != nil {
		return nil, err
	}
	v.ID = id.VerificationID(vID)
	v.ColivingSpaceID = id.ColivingSpaceID(spaceID)
	v.VerifierID = id.UserID(verifierID)
	if roomID.Valid {
		room := id.PrivateSpaceID(roomID.UUID)
		v.PrivateSpaceID = &room
	}
	scanLifecycle(&v.Lifecycle, status, notes, verifiedAt)
	return &v, nil
}

func scanUser(row rowScanner) (*models.VerificationUser, error) {
	var (
		vID, subjectID uuid.UUID
		verifierID     uuid.NullUUID
		status         string
		notes          sql.NullString
		verifiedAt     sql.NullTime
		v              models.VerificationUser
	)
	if err := row.Scan(&vID, &subjectID, &verifierID, &v.DocumentType, &v.DocumentURL, &status, &notes, &v.CreatedAt, &verifiedAt); err != nil {
		return nil, err
	}
	v.ID = id.VerificationID(vID)
	v.SubjectID = id.UserID(subjectID)
	if verifierID.Valid {
		verifier := id.UserID(verifierID.UUID)
		v.VerifierID = &verifier
	}
	scanLifecycle(&v.Lifecycle, status, notes, verifiedAt)
	return &v, nil
}

func nullRoom(room *id.PrivateSpaceID) uuid.NullUUID {
	if room == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*room), Valid: true}
}

func nullUser(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func (s *Postgres) CreateSpaceVerification(ctx context.Context, v *models.VerificationSpace) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO verification_spaces (`+spaceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(v.ID), uuid.UUID(v.ColivingSpaceID), nullRoom(v.PrivateSpaceID), uuid.UUID(v.VerifierID),
		string(v.Status), v.Notes, v.CreatedAt, v.VerifiedAt)
	if err != nil {
		return translateWrite(err, "insert space verification")
	}
	return nil
}

func (s *Postgres) FindSpaceVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationSpace, error) {
	return s.findSpace(ctx, vID, "")
}

// LockSpaceVerification loads the row with FOR UPDATE. It must run inside RunInTx.
func (s *Postgres) LockSpaceVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationSpace, error) {
	return s.findSpace(ctx, vID, " FOR UPDATE")
}

func (s *Postgres) findSpace(ctx context.Context, vID id.VerificationID, suffix string) (*models.VerificationSpace, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+spaceColumns+` FROM verification_spaces WHERE id = $1`+suffix, uuid.UUID(vID))
	v, err := scanSpace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find space verification: %w", err)
	}
	return v, nil
}

func (s *Postgres) UpdateSpaceVerification(ctx context.Context, v *models.VerificationSpace) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE verification_spaces SET status = $2, notes = $3, verified_at = $4 WHERE id = $1`,
		uuid.UUID(v.ID), string(v.Status), v.Notes, v.VerifiedAt)
	if err != nil {
		return translateWrite(err, "update space verification")
	}
	return requireRow(res)
}

func (s *Postgres) ListSpaceVerifications(ctx context.Context, filter models.SpaceFilter, page paging.Page) ([]*models.VerificationSpace, int, error) {
	var q query
	if filter.Status != "" {
		q.add("status = $%d", string(filter.Status))
	}
	if filter.ColivingSpaceID != nil {
		q.add("coliving_space_id = $%d", uuid.UUID(*filter.ColivingSpaceID))
	}
	if filter.PrivateSpaceID != nil {
		q.add("private_space_id = $%d", uuid.UUID(*filter.PrivateSpaceID))
	}
	return list(ctx, pgplatform.Conn(ctx, s.db), "verification_spaces", spaceColumns, q, page, scanSpace)
}

func (s *Postgres) CreateUserVerification(ctx context.Context, v *models.VerificationUser) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO verification_users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(v.ID), uuid.UUID(v.SubjectID), nullUser(v.VerifierID), v.DocumentType, v.DocumentURL,
		string(v.Status), v.Notes, v.CreatedAt, v.VerifiedAt)
	if err != nil {
		return translateWrite(err, "insert user verification")
	}
	return nil
}

func (s *Postgres) FindUserVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationUser, error) {
	return s.findUser(ctx, vID, "")
}

func (s *Postgres) LockUserVerification(ctx context.Context, vID id.VerificationID) (*models.VerificationUser, error) {
	return s.findUser(ctx, vID, " FOR UPDATE")
}

func (s *Postgres) findUser(ctx context.Context, vID id.VerificationID, suffix string) (*models.VerificationUser, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM verification_users WHERE id = $1`+suffix, uuid.UUID(vID))
	v, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user verification: %w", err)
	}
	return v, nil
}

func (s *Postgres) UpdateUserVerification(ctx context.Context, v *models.VerificationUser) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE verification_users SET verifier_id = $2, status = $3, notes = $4, verified_at = $5 WHERE id = $1`,
		uuid.UUID(v.ID), nullUser(v.VerifierID), string(v.Status), v.Notes, v.VerifiedAt)
	if err != nil {
		return translateWrite(err, "update user verification")
	}
	return requireRow(res)
}

func (s *Postgres) ListUserVerifications(ctx context.Context, filter models.UserFilter, page paging.Page) ([]*models.VerificationUser, int, error) {
	var q query
	if filter.Status != "" {
		q.add("status = $%d", string(filter.Status))
	}
	if filter.UserID != nil {
		q.add("user_id = $%d", uuid.UUID(*filter.UserID))
	}
	if filter.DocumentType != "" {
		q.add("document_type ILIKE $%d", "%"+escapeLike(filter.DocumentType)+"%")
	}
	return list(ctx, pgplatform.Conn(ctx, s.db), "verification_users", userColumns, q, page, scanUser)
}

type query struct {
	where []string
	args  []any
}

func (q *query) add(cond string, v any) {
	q.args = append(q.args, v)
	q.where = append(q.where, fmt.Sprintf(cond, len(q.args)))
}

func (q query) clause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

func list[T any](ctx context.Context, conn pgplatform.Executor, table, columns string, q query, page paging.Page, scan func(rowScanner) (T, error)) ([]T, int, error) {
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+q.clause(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}
	args := append(q.args, page.Limit(), page.Offset())
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT `+columns+` FROM `+table+q.clause()+
		` ORDER BY created_at, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list %s: %w", table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	return out, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func translateWrite(err error, what string) error {
	if pgplatform.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	if pgplatform.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
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

// ReferencesUser reports whether the user is the subject or verifier of any
// verification.
func (s *Postgres) ReferencesUser(ctx context.Context, userID id.UserID) (bool, error) {
	var found bool
	err := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM verification_spaces WHERE verifier_id = $1)
		    OR EXISTS (SELECT 1 FROM verification_users WHERE user_id = $1 OR verifier_id = $1)`,
		uuid.UUID(userID)).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check verification users: %w", err)
	}
	return found, nil
}
