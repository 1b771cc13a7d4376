package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"coliving/internal/policy"
	"coliving/internal/reservation/models"
	pgplatform "coliving/internal/platform/postgres"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

// Postgres persists reservations and reviews. Owner scoping joins through
// private_spaces to coliving_spaces.owner_id.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const reservationColumns = `r.id, r.private_space_id, r.client_id, r.start_date, r.end_date, r.is_for_two,
	r.lodging_tax, r.total_price, r.status, r.created_at, r.updated_at`

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		reservationID, roomID, clientID uuid.UUID
		status                          string
		updatedAt                       sql.NullTime
		r                               models.Reservation
	)
	err := row.Scan(&reservationID, &roomID, &clientID, &r.StartDate, &r.EndDate, &r.IsForTwo,
		&r.LodgingTax, &r.TotalPrice, &status, &r.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = id.ReservationID(reservationID)
	r.PrivateSpaceID = id.PrivateSpaceID(roomID)
	r.ClientID = id.UserID(clientID)
	r.Status = models.Status(status)
	if updatedAt.Valid {
		r.UpdatedAt = &updatedAt.Time
	}
	return &r, nil
}

func scanReview(row rowScanner) (*models.Review, error) {
	var (
		reviewID, reservationID, authorID uuid.UUID
		rv                                models.Review
	)
	if err := row.Scan(&reviewID, &reservationID, &authorID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return nil, err
	}
	rv.ID = id.ReviewID(reviewID)
	rv.ReservationID = id.ReservationID(reservationID)
	rv.AuthorID = id.UserID(authorID)
	return &rv, nil
}

func (s *Postgres) CreateReservation(ctx context.Context, r *models.Reservation) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO reservations (id, private_space_id, client_id, start_date, end_date, is_for_two,
			lodging_tax, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(r.ID), uuid.UUID(r.PrivateSpaceID), uuid.UUID(r.ClientID), r.StartDate, r.EndDate,
		r.IsForTwo, r.LodgingTax, r.TotalPrice, string(r.Status), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return translateWrite(err, "insert reservation")
	}
	return nil
}

func (s *Postgres) FindReservation(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error) {
	return s.findReservation(ctx, reservationID, "")
}

// LockReservation loads the row with FOR UPDATE. It must run inside RunInTx.
func (s *Postgres) LockReservation(ctx context.Context, reservationID id.ReservationID) (*models.Reservation, error) {
	return s.findReservation(ctx, reservationID, " FOR UPDATE")
}

func (s *Postgres) findReservation(ctx context.Context, reservationID id.ReservationID, suffix string) (*models.Reservation, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations r WHERE r.id = $1`+suffix, uuid.UUID(reservationID))
	r, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	return r, nil
}

// UpdateReservation writes the mutable columns. Room and client never change.
func (s *Postgres) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE reservations SET status = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(r.ID), string(r.Status), r.UpdatedAt)
	if err != nil {
		return translateWrite(err, "update reservation")
	}
	return requireRow(res)
}

func (s *Postgres) DeleteReservation(ctx context.Context, reservationID id.ReservationID) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM reservations WHERE id = $1`, uuid.UUID(reservationID))
	if err != nil {
		return translateWrite(err, "delete reservation")
	}
	return requireRow(res)
}

func (s *Postgres) ListReservations(ctx context.Context, scope policy.Scope, filter models.Filter, page paging.Page) ([]*models.Reservation, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	from := ` FROM reservations r`
	switch scope.Kind {
	case policy.ScopeAll:
	case policy.ScopeClient:
		add("r.client_id = $%d", uuid.UUID(scope.UserID))
	case policy.ScopeOwner:
		from += ` JOIN private_spaces ps ON ps.id = r.private_space_id
			JOIN coliving_spaces cs ON cs.id = ps.coliving_space_id`
		add("cs.owner_id = $%d", uuid.UUID(scope.UserID))
	default:
		return nil, 0, nil
	}
	if filter.Status != "" {
		add("r.status = $%d", string(filter.Status))
	}
	if filter.ClientID != nil {
		add("r.client_id = $%d", uuid.UUID(*filter.ClientID))
	}
	if filter.PrivateSpaceID != nil {
		add("r.private_space_id = $%d", uuid.UUID(*filter.PrivateSpaceID))
	}
	if filter.StartsAfter != nil {
		add("r.start_date >= $%d", *filter.StartsAfter)
	}
	if filter.EndsBefore != nil {
		add("r.end_date <= $%d", *filter.EndsBefore)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*)`+from+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT `+reservationColumns+from+clause+
		` ORDER BY r.created_at, r.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	out, err := collect(rows, scanReservation)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	return out, total, nil
}

func (s *Postgres) CountByPrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) (int, error) {
	var n int
	err := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE private_space_id = $1`, uuid.UUID(roomID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

// CreateReview relies on the UNIQUE(reservation_id) constraint for the
// one-review-per-reservation rule.
func (s *Postgres) CreateReview(ctx context.Context, rv *models.Review) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO reviews (id, reservation_id, author_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(rv.ID), uuid.UUID(rv.ReservationID), uuid.UUID(rv.AuthorID), rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		if pgplatform.IsForeignKeyViolation(err) {
			return fmt.Errorf("insert review: %w", sentinel.ErrNotFound)
		}
		return translateWrite(err, "insert review")
	}
	return nil
}

func (s *Postgres) FindReview(ctx context.Context, reviewID id.ReviewID) (*models.Review, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, reservation_id, author_id, rating, comment, created_at
		FROM reviews WHERE id = $1`, uuid.UUID(reviewID))
	rv, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return rv, nil
}

func (s *Postgres) DeleteReview(ctx context.Context, reviewID id.ReviewID) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, uuid.UUID(reviewID))
	if err != nil {
		return translateWrite(err, "delete review")
	}
	return requireRow(res)
}

func (s *Postgres) ListReviews(ctx context.Context, filter models.ReviewFilter, page paging.Page) ([]*models.Review, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.ReservationID != nil {
		args = append(args, uuid.UUID(*filter.ReservationID))
		where = append(where, fmt.Sprintf("reservation_id = $%d", len(args)))
	}
	if filter.AuthorID != nil {
		args = append(args, uuid.UUID(*filter.AuthorID))
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	args = append(args, page.Limit(), page.Offset())
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, reservation_id, author_id, rating, comment, created_at FROM reviews`+clause+
		` ORDER BY created_at, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()
	out, err := collect(rows, scanReview)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return out, total, nil
}

func translateWrite(err error, what string) error {
	if pgplatform.IsUniqueViolation(err) || pgplatform.IsForeignKeyViolation(err) {
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

func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReferencesUser reports whether the user booked a room or wrote a review.
func (s *Postgres) ReferencesUser(ctx context.Context, userID id.UserID) (bool, error) {
	var found bool
	err := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM reservations WHERE client_id = $1)
		    OR EXISTS (SELECT 1 FROM reviews WHERE author_id = $1)`, uuid.UUID(userID)).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check reservation clients: %w", err)
	}
	return found, nil
}
