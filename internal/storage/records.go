package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"college-budgeting-backend/internal/model"
	"college-budgeting-backend/internal/zone"
)

const recordColumns = `id, user_email, balance, daily_spend, description, category,
	days_remaining, zone, message, created_at`

// CreateRecord inserts r and fills in its ID. A zero CreatedAt is set to now.
func (s *Store) CreateRecord(ctx context.Context, r *model.SpendingRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	query := s.rebind(`
		INSERT INTO spending_records (user_email, balance, daily_spend, description, category,
			days_remaining, zone, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query,
		r.UserEmail, r.Balance, r.DailySpend, r.Description, r.Category,
		r.DaysRemaining, string(r.Zone), r.Message, r.CreatedAt.UTC(),
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to insert spending record: %w", err)
	}
	return nil
}

// ListRecords returns every record owned by userEmail, newest first.
func (s *Store) ListRecords(ctx context.Context, userEmail string) ([]model.SpendingRecord, error) {
	query := s.rebind(`SELECT ` + recordColumns + `
		FROM spending_records
		WHERE user_email = ?
		ORDER BY id DESC`)
	return s.queryRecords(ctx, query, userEmail)
}

// ListRecordsInRange returns records owned by userEmail created in [from, to), newest first.
func (s *Store) ListRecordsInRange(ctx context.Context, userEmail string, from, to time.Time) ([]model.SpendingRecord, error) {
	query := s.rebind(`SELECT ` + recordColumns + `
		FROM spending_records
		WHERE user_email = ? AND created_at >= ? AND created_at < ?
		ORDER BY id DESC`)
	return s.queryRecords(ctx, query, userEmail, from.UTC(), to.UTC())
}

// CategoryTotals sums daily spend per category for userEmail, largest first.
func (s *Store) CategoryTotals(ctx context.Context, userEmail string) ([]model.CategoryTotal, error) {
	query := s.rebind(`
		SELECT category, COALESCE(SUM(daily_spend), 0) AS total
		FROM spending_records
		WHERE user_email = ?
		GROUP BY category
		ORDER BY total DESC, category
	`)
	rows, err := s.db.QueryContext(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	// ensure empty array ([]) instead of null when no rows
	totals := make([]model.CategoryTotal, 0)
	for rows.Next() {
		var t model.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// LabeledHistory returns every (description, category) pair with a
// non-blank description, across all users, oldest first.
func (s *Store) LabeledHistory(ctx context.Context) ([]model.LabeledExample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, category
		FROM spending_records
		WHERE TRIM(description) <> '' AND TRIM(category) <> ''
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labeled history: %w", err)
	}
	defer rows.Close()

	var examples []model.LabeledExample
	for rows.Next() {
		var ex model.LabeledExample
		if err := rows.Scan(&ex.Description, &ex.Category); err != nil {
			return nil, fmt.Errorf("failed to scan labeled example: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

// CountRecords returns the total number of spending records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spending_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count spending records: %w", err)
	}
	return n, nil
}

// CountLabeled returns how many records LabeledHistory would return.
func (s *Store) CountLabeled(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM spending_records
		WHERE TRIM(description) <> '' AND TRIM(category) <> ''
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count labeled records: %w", err)
	}
	return n, nil
}

// DeleteRecord removes record id if it belongs to userEmail.
func (s *Store) DeleteRecord(ctx context.Context, id int64, userEmail string) error {
	query := s.rebind(`DELETE FROM spending_records WHERE id = ? AND user_email = ?`)
	res, err := s.db.ExecContext(ctx, query, id, userEmail)
	if err != nil {
		return fmt.Errorf("failed to delete spending record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("spending record %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]model.SpendingRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending records: %w", err)
	}
	defer rows.Close()

	records := make([]model.SpendingRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (model.SpendingRecord, error) {
	var (
		r  model.SpendingRecord
		zn string
	)
	err := rows.Scan(
		&r.ID, &r.UserEmail, &r.Balance, &r.DailySpend, &r.Description, &r.Category,
		&r.DaysRemaining, &zn, &r.Message, &r.CreatedAt,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan spending record: %w", err)
	}
	r.Zone = zone.Zone(zn)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
