package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"college-budgeting-backend/internal/model"
)

const goalColumns = `id, user_email, purpose, target_amount, collected_amount, status, created_at`

// CreateGoal inserts g and fills in its ID.
func (s *Store) CreateGoal(ctx context.Context, g *model.SavingsGoal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	if g.Status == "" {
		g.Status = model.GoalActive
	}
	query := s.rebind(`
		INSERT INTO savings_goals (user_email, purpose, target_amount, collected_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query,
		g.UserEmail, g.Purpose, g.Target, g.Collected, g.Status, g.CreatedAt.UTC(),
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("failed to insert savings goal: %w", err)
	}
	return nil
}

// ListGoals returns every goal owned by userEmail, oldest first.
func (s *Store) ListGoals(ctx context.Context, userEmail string) ([]model.SavingsGoal, error) {
	query := s.rebind(`SELECT ` + goalColumns + ` FROM savings_goals WHERE user_email = ? ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query savings goals: %w", err)
	}
	defer rows.Close()

	goals := make([]model.SavingsGoal, 0)
	for rows.Next() {
		var g model.SavingsGoal
		if err := rows.Scan(&g.ID, &g.UserEmail, &g.Purpose, &g.Target, &g.Collected, &g.Status, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan savings goal: %w", err)
		}
		g.CreatedAt = g.CreatedAt.UTC()
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// Deposit adds amount to goal id owned by userEmail and marks the goal
// achieved once the collected amount reaches the target.
func (s *Store) Deposit(ctx context.Context, id int64, userEmail string, amount decimal.Decimal) (*model.SavingsGoal, error) {
	if s.driver != DriverPostgres {
		return s.depositText(ctx, id, userEmail, amount)
	}

	query := s.rebind(`
		UPDATE savings_goals
		SET collected_amount = collected_amount + ?,
			status = CASE WHEN collected_amount + ? >= target_amount THEN '` + model.GoalAchieved + `' ELSE status END
		WHERE id = ? AND user_email = ?
		RETURNING ` + goalColumns)

	var g model.SavingsGoal
	err := s.db.QueryRowContext(ctx, query, amount, amount, id, userEmail).Scan(
		&g.ID, &g.UserEmail, &g.Purpose, &g.Target, &g.Collected, &g.Status, &g.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("savings goal %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update savings goal: %w", err)
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}

// depositText does the deposit arithmetic in Go. SQLite keeps amounts as TEXT
// because its NUMERIC affinity would turn them into floats.
func (s *Store) depositText(ctx context.Context, id int64, userEmail string, amount decimal.Decimal) (*model.SavingsGoal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var g model.SavingsGoal
	err = tx.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_email = ?`, id, userEmail,
	).Scan(&g.ID, &g.UserEmail, &g.Purpose, &g.Target, &g.Collected, &g.Status, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("savings goal %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load savings goal: %w", err)
	}

	g.Collected = g.Collected.Add(amount)
	if g.Collected.GreaterThanOrEqual(g.Target) {
		g.Status = model.GoalAchieved
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE savings_goals SET collected_amount = ?, status = ? WHERE id = ?`,
		g.Collected.String(), g.Status, g.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update savings goal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}
