package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"civic/internal/notifications/models"
	"civic/internal/platform/postgres"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const columns = `id, user_id, kind, title, body, link, silent, read_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n      models.Notification
		kind   string
		readAt sql.NullTime
	)
	if err := row.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &n.Link, &n.Silent, &readAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Kind = models.Kind(kind)
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO notifications (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, string(n.Kind), n.Title, n.Body, n.Link, n.Silent, n.ReadAt, n.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID id.UserID, filter models.Filter) ([]*models.Notification, int, error) {
	conn := postgres.Conn(ctx, s.db)
	const where = ` WHERE user_id = $1 AND (NOT $2 OR read_at IS NULL)`

	var total int
	if err := conn.QueryRowContext(ctx, `SELECT count(*) FROM notifications`+where,
		userID, filter.UnreadOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	limit, offset := filter.Page.Limit, filter.Page.Offset
	if limit <= 0 {
		limit = 20
	}
	rows, err := conn.QueryContext(ctx, `SELECT `+columns+` FROM notifications`+where+`
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		userID, filter.UnreadOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID, now time.Time) (*models.Notification, bool, error) {
	conn := postgres.Conn(ctx, s.db)
	n, err := scanNotification(conn.QueryRowContext(ctx, `
		UPDATE notifications SET read_at = $3
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL
		RETURNING `+columns, notificationID, userID, now))
	if err == nil {
		return n, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("mark notification read: %w", err)
	}

	n, err = scanNotification(conn.QueryRowContext(ctx,
		`SELECT `+columns+` FROM notifications WHERE id = $1 AND user_id = $2`, notificationID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("find notification: %w", err)
	}
	return n, false, nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, userID id.UserID, now time.Time) (int, error) {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`, userID, now)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) CountUnread(ctx context.Context, userID id.UserID) (int, error) {
	var n int
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetPreferences(ctx context.Context, userID id.UserID) (*models.Preferences, error) {
	var (
		p          models.Preferences
		categories []byte
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT user_id, email, sms, push, categories, quiet_enabled, quiet_start, quiet_end, timezone, updated_at
		FROM notification_preferences WHERE user_id = $1`, userID).Scan(
		&p.UserID, &p.Email, &p.SMS, &p.Push, &categories,
		&p.QuietHours.Enabled, &p.QuietHours.Start, &p.QuietHours.End, &p.Timezone, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find preferences: %w", err)
	}
	if err := json.Unmarshal(categories, &p.Categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) SavePreferences(ctx context.Context, p *models.Preferences) error {
	categories := p.Categories
	if categories == nil {
		categories = map[models.Kind]bool{}
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO notification_preferences
			(user_id, email, sms, push, categories, quiet_enabled, quiet_start, quiet_end, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			sms = EXCLUDED.sms,
			push = EXCLUDED.push,
			categories = EXCLUDED.categories,
			quiet_enabled = EXCLUDED.quiet_enabled,
			quiet_start = EXCLUDED.quiet_start,
			quiet_end = EXCLUDED.quiet_end,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Email, p.SMS, p.Push, string(encoded),
		p.QuietHours.Enabled, p.QuietHours.Start, p.QuietHours.End, p.Timezone, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
