package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic/internal/notices/models"
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

const columns = `id, title, body, category, ward_ids, tags, status, published_at, expires_at, author_id, created_at, updated_at`

// wardClause matches notices reaching a ward: city-wide or listing it.
const wardClause = `(jsonb_array_length(ward_ids) = 0 OR ward_ids @> jsonb_build_array($%d::text))`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (*models.Notice, error) {
	var (
		n                    models.Notice
		category, status     string
		wardsJSON, tagsJSON  []byte
		publishedAt, expires sql.NullTime
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Body, &category, &wardsJSON, &tagsJSON, &status,
		&publishedAt, &expires, &n.AuthorID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Category = models.Category(category)
	n.Status = models.Status(status)
	if err := json.Unmarshal(wardsJSON, &n.WardIDs); err != nil {
		return nil, fmt.Errorf("decode ward_ids: %w", err)
	}
	if err := json.Unmarshal(tagsJSON, &n.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		n.PublishedAt = &t
	}
	if expires.Valid {
		t := expires.Time
		n.ExpiresAt = &t
	}
	return &n, nil
}

func encode(n *models.Notice) (string, string, error) {
	wards := n.WardIDs
	if wards == nil {
		wards = []id.WardID{}
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	wardsJSON, err := json.Marshal(wards)
	if err != nil {
		return "", "", fmt.Errorf("encode ward_ids: %w", err)
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return string(wardsJSON), string(tagsJSON), nil
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notice) error {
	wards, tags, err := encode(n)
	if err != nil {
		return err
	}
	_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO notices (`+columns+`)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.Title, n.Body, string(n.Category), wards, tags, string(n.Status),
		n.PublishedAt, n.ExpiresAt, n.AuthorID, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert notice: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, noticeID id.NoticeID) (*models.Notice, error) {
	n, err := scanNotice(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+columns+` FROM notices WHERE id = $1`, noticeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find notice: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Update(ctx context.Context, noticeID id.NoticeID, mutate func(*models.Notice) error) (*models.Notice, error) {
	var updated *models.Notice
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		n, err := scanNotice(conn.QueryRowContext(ctx,
			`SELECT `+columns+` FROM notices WHERE id = $1 FOR UPDATE`, noticeID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock notice: %w", err)
		}
		if err := mutate(n); err != nil {
			return err
		}
		wards, tags, err := encode(n)
		if err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx, `
			UPDATE notices SET title = $2, body = $3, category = $4, ward_ids = $5::jsonb, tags = $6::jsonb,
				status = $7, published_at = $8, expires_at = $9, updated_at = $10
			WHERE id = $1`,
			n.ID, n.Title, n.Body, string(n.Category), wards, tags, string(n.Status),
			n.PublishedAt, n.ExpiresAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update notice: %w", err)
		}
		updated = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]*models.Notice, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()
	out := []*models.Notice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Notice, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if !filter.WardID.IsNil() {
		args = append(args, filter.WardID.String())
		conds = append(conds, fmt.Sprintf(wardClause, len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	var total int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT count(*) FROM notices`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}
	limit := filter.Page.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Page.Offset)
	out, err := s.query(ctx, `SELECT `+columns+` FROM notices`+where+
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *PostgresStore) ListPublished(ctx context.Context, wardID id.WardID, now time.Time) ([]*models.Notice, error) {
	q := `SELECT ` + columns + ` FROM notices
		WHERE status = 'published' AND (expires_at IS NULL OR expires_at > $1)`
	args := []any{now}
	if !wardID.IsNil() {
		args = append(args, wardID.String())
		q += " AND " + fmt.Sprintf(wardClause, len(args))
	}
	return s.query(ctx, q+` ORDER BY published_at DESC, id`, args...)
}
