package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"coliving/internal/messaging/models"
	pgplatform "coliving/internal/platform/postgres"
	"coliving/internal/policy"
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

const messageColumns = `id, sender_id, receiver_id, content, sent_at, seen_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		msgID, sender, receiver uuid.UUID
		seenAt                  sql.NullTime
		m                       models.Message
	)
	if err := row.Scan(&msgID, &sender, &receiver, &m.Content, &m.SentAt, &seenAt); err != nil {
		return nil, err
	}
	m.ID = id.MessageID(msgID)
	m.SenderID = id.UserID(sender)
	m.ReceiverID = id.UserID(receiver)
	if seenAt.Valid {
		m.SeenAt = &seenAt.Time
	}
	return &m, nil
}

// CreateMessage maps a missing sender or receiver row to sentinel.ErrNotFound.
func (s *Postgres) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(m.ID), uuid.UUID(m.SenderID), uuid.UUID(m.ReceiverID), m.Content, m.SentAt, m.SeenAt)
	switch {
	case err == nil:
		return nil
	case pgplatform.IsForeignKeyViolation(err):
		return fmt.Errorf("insert message: %w", sentinel.ErrNotFound)
	case pgplatform.IsUniqueViolation(err):
		return fmt.Errorf("insert message: %w", sentinel.ErrConflict)
	default:
		return fmt.Errorf("insert message: %w", err)
	}
}

func (s *Postgres) FindMessage(ctx context.Context, msgID id.MessageID) (*models.Message, error) {
	return s.find(ctx, msgID, "")
}

// LockMessage loads the row with FOR UPDATE. It must run inside RunInTx.
func (s *Postgres) LockMessage(ctx context.Context, msgID id.MessageID) (*models.Message, error) {
	return s.find(ctx, msgID, " FOR UPDATE")
}

func (s *Postgres) find(ctx context.Context, msgID id.MessageID, suffix string) (*models.Message, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`+suffix, uuid.UUID(msgID))
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return m, nil
}

// UpdateMessage only writes seen_at. Content is immutable once sent.
func (s *Postgres) UpdateMessage(ctx context.Context, m *models.Message) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE messages SET seen_at = $2 WHERE id = $1`, uuid.UUID(m.ID), m.SeenAt)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListMessages(ctx context.Context, scope policy.Scope, filter models.Filter, page paging.Page) ([]*models.Message, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	switch scope.Kind {
	case policy.ScopeAll:
	case policy.ScopeParticipant:
		add("(sender_id = ? OR receiver_id = ?)", uuid.UUID(scope.UserID))
	default:
		return nil, 0, nil
	}
	if filter.SenderID != nil {
		add("sender_id = ?", uuid.UUID(*filter.SenderID))
	}
	if filter.ReceiverID != nil {
		add("receiver_id = ?", uuid.UUID(*filter.ReceiverID))
	}
	if filter.Unseen {
		where = append(where, "seen_at IS NULL")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	args = append(args, page.Limit(), page.Offset())
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT `+messageColumns+` FROM messages`+clause+
		` ORDER BY sent_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var out []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list messages: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return out, total, nil
}

// ReferencesUser reports whether the user sent or received any message.
func (s *Postgres) ReferencesUser(ctx context.Context, userID id.UserID) (bool, error) {
	var found bool
	err := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE sender_id = $1 OR receiver_id = $1)`,
		uuid.UUID(userID)).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check message parties: %w", err)
	}
	return found, nil
}
