package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"civic/internal/directory/models"
	"civic/internal/platform/postgres"
	id "civic/pkg/domain"
)

// PostgresStore persists wards and departments. Case-insensitive name
// uniqueness is enforced by unique indexes on lower(name).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const wardColumns = `id, name, code, zone, created_at`

func scanWard(row rowScanner) (*models.Ward, error) {
	var w models.Ward
	if err := row.Scan(&w.ID, &w.Name, &w.Code, &w.Zone, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresStore) CreateWard(ctx context.Context, w *models.Ward) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO wards (`+wardColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.Name, w.Code, w.Zone, w.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert ward: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindWard(ctx context.Context, wardID id.WardID) (*models.Ward, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+wardColumns+` FROM wards WHERE id = $1`, wardID)
	w, err := scanWard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ward: %w", err)
	}
	return w, nil
}

func (s *PostgresStore) ListWards(ctx context.Context) ([]*models.Ward, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+wardColumns+` FROM wards ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	defer rows.Close()
	out := []*models.Ward{}
	for rows.Next() {
		w, err := scanWard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ward: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateWard(ctx context.Context, wardID id.WardID, mutate func(*models.Ward) error) (*models.Ward, error) {
	var updated *models.Ward
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		w, err := scanWard(conn.QueryRowContext(ctx,
			`SELECT `+wardColumns+` FROM wards WHERE id = $1 FOR UPDATE`, wardID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock ward: %w", err)
		}
		if err := mutate(w); err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx,
			`UPDATE wards SET name = $2, code = $3, zone = $4 WHERE id = $1`,
			w.ID, w.Name, w.Code, w.Zone)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("update ward: %w", err)
		}
		updated = w
		return nil
	})
	return updated, err
}

const departmentColumns = `id, name, description, is_active, created_at, updated_at`

func scanDepartment(row rowScanner) (*models.Department, error) {
	var d models.Department
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) CreateDepartment(ctx context.Context, d *models.Department) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO departments (`+departmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.Name, d.Description, d.IsActive, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindDepartment(ctx context.Context, deptID id.DepartmentID) (*models.Department, error) {
	d, err := scanDepartment(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE id = $1`, deptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find department: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDepartments(ctx context.Context, includeInactive bool) ([]*models.Department, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE is_active OR $1 ORDER BY lower(name)`,
		includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()
	out := []*models.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDepartment(ctx context.Context, deptID id.DepartmentID, mutate func(*models.Department) error) (*models.Department, error) {
	var updated *models.Department
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		d, err := scanDepartment(conn.QueryRowContext(ctx,
			`SELECT `+departmentColumns+` FROM departments WHERE id = $1 FOR UPDATE`, deptID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock department: %w", err)
		}
		if err := mutate(d); err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx,
			`UPDATE departments SET name = $2, description = $3, is_active = $4, updated_at = $5 WHERE id = $1`,
			d.ID, d.Name, d.Description, d.IsActive, d.UpdatedAt)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("update department: %w", err)
		}
		updated = d
		return nil
	})
	return updated, err
}
