package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic/internal/billing/models"
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

const billColumns = `id, citizen_id, kind, reference, description, amount, due_date, status, paid_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*models.Bill, error) {
	var (
		b            models.Bill
		kind, status string
		paidAt       sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.CitizenID, &kind, &b.Reference, &b.Description, &b.Amount,
		&b.DueDate, &status, &paidAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Kind = models.Kind(kind)
	b.Status = models.Status(status)
	if paidAt.Valid {
		t := paidAt.Time
		b.PaidAt = &t
	}
	return &b, nil
}

func (s *PostgresStore) Create(ctx context.Context, b *models.Bill) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO bills (`+billColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.CitizenID, string(b.Kind), b.Reference, b.Description, b.Amount, b.DueDate,
		string(b.Status), b.PaidAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if postgres.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, billID id.BillID) (*models.Bill, error) {
	b, err := scanBill(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1`, billID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find bill: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Bill, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !filter.CitizenID.IsNil() {
		add("citizen_id = $%d", filter.CitizenID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Overdue {
		conds = append(conds, "status = 'unpaid'")
		add("due_date < $%d", filter.Now)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	conn := postgres.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT count(*) FROM bills`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}
	limit := filter.Page.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Page.Offset)
	rows, err := conn.QueryContext(ctx, `SELECT `+billColumns+` FROM bills`+where+
		fmt.Sprintf(" ORDER BY due_date, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	var out []*models.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bills: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) lock(ctx context.Context, billID id.BillID) (*models.Bill, error) {
	b, err := scanBill(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1 FOR UPDATE`, billID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock bill: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) write(ctx context.Context, b *models.Bill) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE bills SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`,
		b.ID, string(b.Status), b.PaidAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, billID id.BillID, mutate func(*models.Bill) error) (*models.Bill, error) {
	var updated *models.Bill
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.lock(ctx, billID)
		if err != nil {
			return err
		}
		if err := mutate(b); err != nil {
			return err
		}
		if err := s.write(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Settle locks the bill, applies settle and inserts the payment in one
// transaction. The unique bill_id on payments backs up the status check.
func (s *PostgresStore) Settle(ctx context.Context, billID id.BillID, settle SettleFunc) (*models.Bill, *models.Payment, error) {
	var (
		bill    *models.Bill
		payment *models.Payment
	)
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		b, err := s.lock(ctx, billID)
		if err != nil {
			return err
		}
		if b.Status == models.StatusPaid {
			return ErrAlreadyPaid
		}
		p, err := settle(b)
		if err != nil {
			return err
		}
		if err := s.write(ctx, b); err != nil {
			return err
		}
		_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
			INSERT INTO payments (id, bill_id, citizen_id, amount, late_fee, method, reference, paid_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.BillID, p.CitizenID, p.Amount, p.LateFee, string(p.Method), p.Reference, p.PaidAt)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return ErrAlreadyPaid
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		bill, payment = b, p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return bill, payment, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, citizenID id.UserID) ([]*models.Payment, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, bill_id, citizen_id, amount, late_fee, method, reference, paid_at
		FROM payments WHERE ($1::uuid IS NULL OR citizen_id = $1)
		ORDER BY paid_at DESC, id`, citizenID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	out := []*models.Payment{}
	for rows.Next() {
		var (
			p      models.Payment
			method string
		)
		if err := rows.Scan(&p.ID, &p.BillID, &p.CitizenID, &p.Amount, &p.LateFee, &method, &p.Reference, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Method = models.Method(method)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (*models.Stats, error) {
	conn := postgres.Conn(ctx, s.db)
	stats := &models.Stats{}
	err := conn.QueryRowContext(ctx, `
		SELECT count(*),
			COALESCE(sum(amount), 0),
			COALESCE(sum(amount) FILTER (WHERE status = 'unpaid'), 0),
			count(*) FILTER (WHERE status = 'unpaid' AND due_date < $1)
		FROM bills WHERE status <> 'cancelled'`, now).
		Scan(&stats.Bills, &stats.Issued, &stats.Outstanding, &stats.Overdue)
	if err != nil {
		return nil, fmt.Errorf("bill stats: %w", err)
	}
	err = conn.QueryRowContext(ctx,
		`SELECT COALESCE(sum(amount + late_fee), 0), COALESCE(sum(late_fee), 0) FROM payments`).
		Scan(&stats.Collected, &stats.LateFees)
	if err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}
	return stats, nil
}
