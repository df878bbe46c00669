package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic/internal/complaints/models"
	"civic/internal/platform/postgres"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

// PostgresStore persists complaints, comments and SLA policies.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const complaintColumns = `id, citizen_id, title, description, category, ward_id, department_id,
	location, priority, status, assignee_id, due_at, resolved_at, resolution_note, created_at, updated_at`

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var (
		c          models.Complaint
		priority   string
		status     string
		resolvedAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.CitizenID, &c.Title, &c.Description, &c.Category, &c.WardID,
		&c.DepartmentID, &c.Location, &priority, &status, &c.AssigneeID, &c.DueAt, &resolvedAt,
		&c.ResolutionNote, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Priority = models.Priority(priority)
	c.Status = models.Status(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Complaint) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO complaints (`+complaintColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.CitizenID, c.Title, c.Description, c.Category, c.WardID, c.DepartmentID,
		c.Location, string(c.Priority), string(c.Status), c.AssigneeID, c.DueAt, c.ResolvedAt,
		c.ResolutionNote, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	c, err := scanComplaint(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, complaintID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return c, nil
}

// Update locks the row for the duration of mutate. mutate receives the
// transaction's context; writes made through it commit or roll back with
// the complaint.
func (s *PostgresStore) Update(ctx context.Context, complaintID id.ComplaintID, mutate func(context.Context, *models.Complaint) error) (*models.Complaint, error) {
	var updated *models.Complaint
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		c, err := scanComplaint(conn.QueryRowContext(ctx,
			`SELECT `+complaintColumns+` FROM complaints WHERE id = $1 FOR UPDATE`, complaintID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock complaint: %w", err)
		}
		if err := mutate(ctx, c); err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx, `
			UPDATE complaints SET title = $2, description = $3, category = $4, department_id = $5,
				location = $6, priority = $7, status = $8, assignee_id = $9, due_at = $10,
				resolved_at = $11, resolution_note = $12, updated_at = $13
			WHERE id = $1`,
			c.ID, c.Title, c.Description, c.Category, c.DepartmentID, c.Location,
			string(c.Priority), string(c.Status), c.AssigneeID, c.DueAt, c.ResolvedAt,
			c.ResolutionNote, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Complaint, int, error) {
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
	if !filter.WardID.IsNil() {
		add("ward_id = $%d", filter.WardID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.AssigneeID.IsNil() {
		add("assignee_id = $%d", filter.AssigneeID)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	conn := postgres.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT count(*) FROM complaints`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	limit := filter.Page.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Page.Offset)
	rows, err := conn.QueryContext(ctx, `SELECT `+complaintColumns+` FROM complaints`+where+
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	out, err := collectComplaints(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func collectComplaints(rows *sql.Rows) ([]*models.Complaint, error) {
	defer rows.Close()
	var out []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return out, nil
}

var openStatuses = []string{
	string(models.StatusSubmitted),
	string(models.StatusAssigned),
	string(models.StatusInProgress),
	string(models.StatusReopened),
}

func (s *PostgresStore) ListOverdue(ctx context.Context, now time.Time) ([]*models.Complaint, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT `+complaintColumns+` FROM complaints
		WHERE status IN ($1, $2, $3, $4) AND due_at < $5
		ORDER BY due_at, id`,
		openStatuses[0], openStatuses[1], openStatuses[2], openStatuses[3], now)
	if err != nil {
		return nil, fmt.Errorf("list overdue complaints: %w", err)
	}
	return collectComplaints(rows)
}

func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (*models.Stats, error) {
	conn := postgres.Conn(ctx, s.db)
	stats := &models.Stats{ByStatus: map[string]int{}, ByWard: map[string]int{}}

	rows, err := conn.QueryContext(ctx, `SELECT status, ward_id, count(*) FROM complaints GROUP BY status, ward_id`)
	if err != nil {
		return nil, fmt.Errorf("complaint stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			wardID id.WardID
			n      int
		)
		if err := rows.Scan(&status, &wardID, &n); err != nil {
			return nil, fmt.Errorf("scan complaint stats: %w", err)
		}
		stats.Total += n
		stats.ByStatus[status] += n
		stats.ByWard[wardID.String()] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaint stats: %w", err)
	}

	err = conn.QueryRowContext(ctx, `
		SELECT count(*) FROM complaints WHERE status IN ($1, $2, $3, $4) AND due_at < $5`,
		openStatuses[0], openStatuses[1], openStatuses[2], openStatuses[3], now).Scan(&stats.Overdue)
	if err != nil {
		return nil, fmt.Errorf("count overdue complaints: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) AddComment(ctx context.Context, c *models.Comment) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO complaint_comments (id, complaint_id, author_id, body, internal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ComplaintID, c.AuthorID, c.Body, c.Internal, c.CreatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComments(ctx context.Context, complaintID id.ComplaintID, includeInternal bool) ([]*models.Comment, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, complaint_id, author_id, body, internal, created_at
		FROM complaint_comments
		WHERE complaint_id = $1 AND (NOT internal OR $2)
		ORDER BY created_at, id`, complaintID, includeInternal)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	out := []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ComplaintID, &c.AuthorID, &c.Body, &c.Internal, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertSLAPolicy(ctx context.Context, p *models.SLAPolicy) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO sla_policies (category, resolution_hours, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (category) DO UPDATE SET resolution_hours = EXCLUDED.resolution_hours,
			updated_at = EXCLUDED.updated_at`,
		p.Category, p.ResolutionHours, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert sla policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSLAPolicy(ctx context.Context, category string) (*models.SLAPolicy, error) {
	var p models.SLAPolicy
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT category, resolution_hours, updated_at FROM sla_policies WHERE category = $1`, category).
		Scan(&p.Category, &p.ResolutionHours, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sla policy: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListSLAPolicies(ctx context.Context) ([]*models.SLAPolicy, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT category, resolution_hours, updated_at FROM sla_policies ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list sla policies: %w", err)
	}
	defer rows.Close()
	out := []*models.SLAPolicy{}
	for rows.Next() {
		var p models.SLAPolicy
		if err := rows.Scan(&p.Category, &p.ResolutionHours, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sla policy: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
