package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"civic/internal/identity/models"
	"civic/internal/platform/postgres"
	id "civic/pkg/domain"
)

// PostgresUserStore persists users in the users table.
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed user store.
func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `id, email, display_name, phone, role, ward_id, status, password_hash,
	last_login_at, last_login_device, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u           models.User
		role        string
		status      string
		lastLoginAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Phone, &role, &u.WardID, &status,
		&u.PasswordHash, &lastLoginAt, &u.LastLoginDevice, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = id.Role(role)
	u.Status = models.UserStatus(status)
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.Email, user.DisplayName, user.Phone, string(user.Role), user.WardID,
		string(user.Status), user.PasswordHash, user.LastLoginAt, user.LastLoginDevice,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, "id = $1", userID)
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = $1", email)
}

// Update locks the row, applies mutate, and writes it back in one transaction.
func (s *PostgresUserStore) Update(ctx context.Context, userID id.UserID, mutate func(*models.User) error) (*models.User, error) {
	var updated *models.User
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		row := conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
		u, err := scanUser(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if err := mutate(u); err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx, `
			UPDATE users SET display_name = $2, phone = $3, role = $4, ward_id = $5, status = $6,
				password_hash = $7, last_login_at = $8, last_login_device = $9, updated_at = $10
			WHERE id = $1`,
			u.ID, u.DisplayName, u.Phone, string(u.Role), u.WardID, string(u.Status),
			u.PasswordHash, u.LastLoginAt, u.LastLoginDevice, u.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresUserStore) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.WardID.IsNil() {
		args = append(args, filter.WardID)
		conds = append(conds, fmt.Sprintf("ward_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	conn := postgres.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit := filter.Page.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Page.Offset)
	rows, err := conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+where+
			fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

func (s *PostgresUserStore) ListIDs(ctx context.Context, role id.Role, wardID id.WardID) ([]id.UserID, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id FROM users
		WHERE role = $1 AND status = 'active' AND ($2::uuid IS NULL OR ward_id = $2)
		ORDER BY id`, string(role), wardID)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()
	var out []id.UserID
	for rows.Next() {
		var userID id.UserID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}
