package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"civic/internal/platform/postgres"
	"civic/internal/reports/models"
	id "civic/pkg/domain"
	"civic/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const scheduleColumns = `id, name, frequency, recipients, next_run_at, last_run_at, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var (
		sch        models.Schedule
		freq       string
		recipients []byte
		lastRun    sql.NullTime
	)
	if err := row.Scan(&sch.ID, &sch.Name, &freq, &recipients, &sch.NextRunAt, &lastRun, &sch.CreatedBy, &sch.CreatedAt); err != nil {
		return nil, err
	}
	sch.Frequency = models.Frequency(freq)
	if err := json.Unmarshal(recipients, &sch.Recipients); err != nil {
		return nil, fmt.Errorf("decode recipients: %w", err)
	}
	if lastRun.Valid {
		t := lastRun.Time
		sch.LastRunAt = &t
	}
	return &sch, nil
}

func (s *PostgresStore) CreateSchedule(ctx context.Context, sch *models.Schedule) error {
	recipients, err := json.Marshal(sch.Recipients)
	if err != nil {
		return fmt.Errorf("encode recipients: %w", err)
	}
	_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO report_schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)`,
		sch.ID, sch.Name, string(sch.Frequency), string(recipients), sch.NextRunAt, sch.LastRunAt, sch.CreatedBy, sch.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSchedule(ctx context.Context, scheduleID id.ScheduleID) (*models.Schedule, error) {
	sch, err := scanSchedule(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM report_schedules WHERE id = $1`, scheduleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return sch, nil
}

func (s *PostgresStore) querySchedules(ctx context.Context, query string, args ...any) ([]*models.Schedule, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	var out []*models.Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, sch)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	return s.querySchedules(ctx,
		`SELECT `+scheduleColumns+` FROM report_schedules ORDER BY next_run_at, id`)
}

func (s *PostgresStore) DueSchedules(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	return s.querySchedules(ctx,
		`SELECT `+scheduleColumns+` FROM report_schedules WHERE next_run_at <= $1 ORDER BY next_run_at, id`, now)
}

// DeleteSchedule relies on ON DELETE CASCADE to drop the runs.
func (s *PostgresStore) DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM report_schedules WHERE id = $1`, scheduleID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, run *models.Run, claimed time.Time) (*models.Schedule, error) {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	var advanced *models.Schedule
	err = postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		sch, err := scanSchedule(conn.QueryRowContext(ctx,
			`SELECT `+scheduleColumns+` FROM report_schedules WHERE id = $1 FOR UPDATE`, run.ScheduleID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock schedule: %w", err)
		}
		if !sch.NextRunAt.Equal(claimed) {
			return ErrAlreadyRun
		}
		sch.Advance(run.GeneratedAt)
		if _, err := conn.ExecContext(ctx,
			`UPDATE report_schedules SET next_run_at = $2, last_run_at = $3 WHERE id = $1`,
			sch.ID, sch.NextRunAt, sch.LastRunAt); err != nil {
			return fmt.Errorf("advance schedule: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `
			INSERT INTO report_runs (id, schedule_id, generated_at, summary)
			VALUES ($1, $2, $3, $4::jsonb)`,
			run.ID, run.ScheduleID, run.GeneratedAt, string(summary)); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		advanced = sch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return advanced, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, scheduleID id.ScheduleID, limit int) ([]*models.Run, error) {
	if _, err := s.FindSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, schedule_id, generated_at, summary FROM report_runs
		WHERE schedule_id = $1 ORDER BY generated_at DESC, id DESC LIMIT $2`, scheduleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []*models.Run
	for rows.Next() {
		var (
			run     models.Run
			summary []byte
		)
		if err := rows.Scan(&run.ID, &run.ScheduleID, &run.GeneratedAt, &summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal(summary, &run.Summary); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}
