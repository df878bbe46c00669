package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"civic/internal/budget/models"
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

const (
	cycleColumns    = `id, name, ward_id, total_budget, votes_per_citizen, status, opens_at, closes_at, created_at, updated_at`
	proposalColumns = `id, cycle_id, author_id, title, description, estimated_cost, status, vote_count, created_at, updated_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (*models.Cycle, error) {
	var (
		c      models.Cycle
		status string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.WardID, &c.TotalBudget, &c.VotesPerCitizen, &status,
		&c.OpensAt, &c.ClosesAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = models.CycleStatus(status)
	return &c, nil
}

func scanProposal(row rowScanner) (*models.Proposal, error) {
	var (
		p      models.Proposal
		status string
	)
	if err := row.Scan(&p.ID, &p.CycleID, &p.AuthorID, &p.Title, &p.Description, &p.EstimatedCost,
		&status, &p.VoteCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.ProposalStatus(status)
	return &p, nil
}

func (s *PostgresStore) CreateCycle(ctx context.Context, c *models.Cycle) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO budget_cycles (`+cycleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, c.WardID, c.TotalBudget, c.VotesPerCitizen, string(c.Status),
		c.OpensAt, c.ClosesAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if postgres.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

func (s *PostgresStore) findCycle(ctx context.Context, cycleID id.CycleID, lock string) (*models.Cycle, error) {
	c, err := scanCycle(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM budget_cycles WHERE id = $1`+lock, cycleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find cycle: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindCycle(ctx context.Context, cycleID id.CycleID) (*models.Cycle, error) {
	return s.findCycle(ctx, cycleID, "")
}

func (s *PostgresStore) writeCycle(ctx context.Context, c *models.Cycle) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE budget_cycles SET status = $2, updated_at = $3 WHERE id = $1`,
		c.ID, string(c.Status), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCycle(ctx context.Context, cycleID id.CycleID, mutate func(*models.Cycle) error) (*models.Cycle, error) {
	var updated *models.Cycle
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.findCycle(ctx, cycleID, " FOR UPDATE")
		if err != nil {
			return err
		}
		if err := mutate(c); err != nil {
			return err
		}
		if err := s.writeCycle(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) ListCycles(ctx context.Context) ([]*models.Cycle, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+cycleColumns+` FROM budget_cycles ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()
	out := []*models.Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateProposal inserts only while the cycle row is in the proposals phase.
func (s *PostgresStore) CreateProposal(ctx context.Context, p *models.Proposal) error {
	return postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.findCycle(ctx, p.CycleID, " FOR SHARE")
		if err != nil {
			return err
		}
		if !c.AcceptsProposals() {
			return ErrPhaseClosed
		}
		_, err = postgres.Conn(ctx, s.db).ExecContext(ctx, `
			INSERT INTO budget_proposals (`+proposalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.CycleID, p.AuthorID, p.Title, p.Description, p.EstimatedCost, string(p.Status),
			p.VoteCount, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert proposal: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) findProposal(ctx context.Context, proposalID id.ProposalID, lock string) (*models.Proposal, error) {
	p, err := scanProposal(postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+proposalColumns+` FROM budget_proposals WHERE id = $1`+lock, proposalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindProposal(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	return s.findProposal(ctx, proposalID, "")
}

func (s *PostgresStore) writeProposal(ctx context.Context, p *models.Proposal) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE budget_proposals SET status = $2, vote_count = $3, updated_at = $4 WHERE id = $1`,
		p.ID, string(p.Status), p.VoteCount, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProposal(ctx context.Context, proposalID id.ProposalID, mutate func(*models.Proposal) error) (*models.Proposal, error) {
	var updated *models.Proposal
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.findProposal(ctx, proposalID, " FOR UPDATE")
		if err != nil {
			return err
		}
		if err := mutate(p); err != nil {
			return err
		}
		if err := s.writeProposal(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) ListProposals(ctx context.Context, cycleID id.CycleID) ([]*models.Proposal, error) {
	return s.listProposals(ctx, cycleID, "")
}

func (s *PostgresStore) listProposals(ctx context.Context, cycleID id.CycleID, lock string) ([]*models.Proposal, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+proposalColumns+` FROM budget_proposals WHERE cycle_id = $1 ORDER BY created_at, id`+lock, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()
	out := []*models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// lockForVote locks the cycle row first so that votes in one cycle
// serialise, which keeps the per-citizen count exact.
func (s *PostgresStore) lockForVote(ctx context.Context, proposalID id.ProposalID, check VoteCheck) (*models.Cycle, *models.Proposal, error) {
	p, err := s.findProposal(ctx, proposalID, "")
	if err != nil {
		return nil, nil, err
	}
	c, err := s.findCycle(ctx, p.CycleID, " FOR UPDATE")
	if err != nil {
		return nil, nil, err
	}
	if p, err = s.findProposal(ctx, proposalID, " FOR UPDATE"); err != nil {
		return nil, nil, err
	}
	if err := check(c, p); err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

func (s *PostgresStore) CastVote(ctx context.Context, v models.Vote, check VoteCheck) (*models.Proposal, error) {
	var updated *models.Proposal
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		c, p, err := s.lockForVote(ctx, v.ProposalID, check)
		if err != nil {
			return err
		}
		conn := postgres.Conn(ctx, s.db)
		var used int
		if err := conn.QueryRowContext(ctx,
			`SELECT count(*) FROM budget_votes WHERE cycle_id = $1 AND citizen_id = $2`, c.ID, v.CitizenID).Scan(&used); err != nil {
			return fmt.Errorf("count votes: %w", err)
		}
		_, err = conn.ExecContext(ctx,
			`INSERT INTO budget_votes (cycle_id, proposal_id, citizen_id, cast_at) VALUES ($1, $2, $3, $4)`,
			c.ID, v.ProposalID, v.CitizenID, v.CastAt)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return ErrAlreadyVoted
			}
			return fmt.Errorf("insert vote: %w", err)
		}
		if used >= c.VotesPerCitizen {
			return ErrVoteLimit
		}
		p.VoteCount++
		if err := s.writeProposal(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) WithdrawVote(ctx context.Context, proposalID id.ProposalID, citizenID id.UserID, check VoteCheck) (*models.Proposal, error) {
	var updated *models.Proposal
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		_, p, err := s.lockForVote(ctx, proposalID, check)
		if err != nil {
			return err
		}
		res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
			`DELETE FROM budget_votes WHERE proposal_id = $1 AND citizen_id = $2`, proposalID, citizenID)
		if err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		p.VoteCount = max(p.VoteCount-1, 0)
		if err := s.writeProposal(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) ListVotes(ctx context.Context, cycleID id.CycleID, citizenID id.UserID) ([]models.Vote, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT cycle_id, proposal_id, citizen_id, cast_at FROM budget_votes
		WHERE cycle_id = $1 AND citizen_id = $2 ORDER BY cast_at, proposal_id`, cycleID, citizenID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()
	out := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.CycleID, &v.ProposalID, &v.CitizenID, &v.CastAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CloseCycle(ctx context.Context, cycleID id.CycleID, decide CloseFunc) (*models.Cycle, []*models.Proposal, error) {
	var (
		cycle     *models.Cycle
		proposals []*models.Proposal
	)
	err := postgres.NewTxRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.findCycle(ctx, cycleID, " FOR UPDATE")
		if err != nil {
			return err
		}
		ps, err := s.listProposals(ctx, cycleID, " FOR UPDATE")
		if err != nil {
			return err
		}
		if err := decide(c, ps); err != nil {
			return err
		}
		if err := s.writeCycle(ctx, c); err != nil {
			return err
		}
		for _, p := range ps {
			if err := s.writeProposal(ctx, p); err != nil {
				return err
			}
		}
		cycle, proposals = c, ps
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return cycle, proposals, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT (SELECT count(*) FROM budget_cycles),
			(SELECT count(*) FROM budget_proposals),
			(SELECT count(*) FROM budget_votes)`).Scan(&stats.Cycles, &stats.Proposals, &stats.Votes)
	if err != nil {
		return nil, fmt.Errorf("budget stats: %w", err)
	}
	return &stats, nil
}
