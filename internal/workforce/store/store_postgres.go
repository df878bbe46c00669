package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"civic/internal/platform/postgres"
	"civic/internal/workforce/models"
	id "civic/pkg/domain"
)

// PostgresStore persists profiles; ward lists are stored as JSONB arrays.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const staffColumns = `user_id, department_id, ward_ids, current_load, max_load, active, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*models.StaffProfile, error) {
	var (
		p     models.StaffProfile
		wards []byte
	)
	if err := row.Scan(&p.UserID, &p.DepartmentID, &wards, &p.CurrentLoad, &p.MaxLoad, &p.Active, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(wards, &p.WardIDs); err != nil {
		return nil, fmt.Errorf("decode ward ids: %w", err)
	}
	return &p, nil
}

func encodeWards(wardIDs []id.WardID) (string, error) {
	if wardIDs == nil {
		wardIDs = []id.WardID{}
	}
	b, err := json.Marshal(wardIDs)
	if err != nil {
		return "", fmt.Errorf("encode ward ids: %w", err)
	}
	return string(b), nil
}

func (s *PostgresStore) UpsertStaff(ctx context.Context, p *models.StaffProfile) (*models.StaffProfile, error) {
	wards, err := encodeWards(p.WardIDs)
	if err != nil {
		return nil, err
	}
	stored, err := scanStaff(postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO staff_profiles (user_id, department_id, ward_ids, current_load, max_load, active, updated_at)
		VALUES ($1, $2, $3::jsonb, 0, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET department_id = EXCLUDED.department_id,
			ward_ids = EXCLUDED.ward_ids, max_load = EXCLUDED.max_load,
			active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
		RETURNING `+staffColumns,
		p.UserID, p.DepartmentID, wards, p.MaxLoad, p.Active, p.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("upsert staff profile: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) FindStaff(ctx context.Context, userID id.UserID) (*models.StaffProfile, error) {
	p, err := scanStaff(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff_profiles WHERE user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find staff profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListStaff(ctx context.Context, filter models.StaffFilter) ([]*models.StaffProfile, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_profiles
		WHERE ($1::uuid IS NULL OR ward_ids @> jsonb_build_array($1::text))
		  AND ($2::uuid IS NULL OR department_id = $2)
		  AND (NOT $3 OR active)
		ORDER BY user_id`
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, filter.WardID, filter.DepartmentID, filter.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list staff profiles: %w", err)
	}
	defer rows.Close()
	out := []*models.StaffProfile{}
	for rows.Next() {
		p, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AdjustLoad applies delta in a single conditional UPDATE, so concurrent
// reservations cannot overshoot max_load.
func (s *PostgresStore) AdjustLoad(ctx context.Context, userID id.UserID, delta int, now time.Time) (*models.StaffProfile, error) {
	conn := postgres.Conn(ctx, s.db)
	p, err := scanStaff(conn.QueryRowContext(ctx, `
		UPDATE staff_profiles SET current_load = GREATEST(current_load + $2, 0), updated_at = $3
		WHERE user_id = $1 AND ($2 <= 0 OR (active AND current_load + $2 <= max_load))
		RETURNING `+staffColumns, userID, delta, now))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("adjust staff load: %w", err)
	}
	var exists bool
	if err := conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM staff_profiles WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check staff profile: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrNoCapacity
}

func (s *PostgresStore) UpsertSupervisor(ctx context.Context, p *models.SupervisorProfile) error {
	wards, err := encodeWards(p.WardIDs)
	if err != nil {
		return err
	}
	_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO supervisor_profiles (user_id, department_id, ward_ids, updated_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (user_id) DO UPDATE SET department_id = EXCLUDED.department_id,
			ward_ids = EXCLUDED.ward_ids, updated_at = EXCLUDED.updated_at`,
		p.UserID, p.DepartmentID, wards, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert supervisor profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSupervisor(ctx context.Context, userID id.UserID) (*models.SupervisorProfile, error) {
	var (
		p     models.SupervisorProfile
		wards []byte
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT user_id, department_id, ward_ids, updated_at FROM supervisor_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.DepartmentID, &wards, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find supervisor profile: %w", err)
	}
	if err := json.Unmarshal(wards, &p.WardIDs); err != nil {
		return nil, fmt.Errorf("decode ward ids: %w", err)
	}
	return &p, nil
}
