package storage

import (
	"context"
	"fmt"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		provider VARCHAR(20) NOT NULL DEFAULT 'local',
		photo_url TEXT,
		occupation VARCHAR(100),
		age INTEGER,
		birth_date VARCHAR(20),
		name_changed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS spending_records (
		id BIGSERIAL PRIMARY KEY,
		user_email VARCHAR(255) NOT NULL,
		balance DOUBLE PRECISION NOT NULL,
		daily_spend DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category VARCHAR(100) NOT NULL,
		days_remaining VARCHAR(20) NOT NULL,
		zone VARCHAR(10) NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_spending_records_user_created
		ON spending_records(user_email, created_at);

	CREATE TABLE IF NOT EXISTS savings_goals (
		id BIGSERIAL PRIMARY KEY,
		user_email VARCHAR(255) NOT NULL,
		purpose VARCHAR(255) NOT NULL,
		target_amount NUMERIC(14,2) NOT NULL,
		collected_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_savings_goals_user ON savings_goals(user_email);
`

// SQLite runs one statement per Exec, so the schema is split.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT 'local',
		photo_url TEXT,
		occupation TEXT,
		age INTEGER,
		birth_date TEXT,
		name_changed_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS spending_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_email TEXT NOT NULL,
		balance REAL NOT NULL,
		daily_spend REAL NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		days_remaining TEXT NOT NULL,
		zone TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spending_records_user_created
		ON spending_records(user_email, created_at)`,
	`CREATE TABLE IF NOT EXISTS savings_goals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_email TEXT NOT NULL,
		purpose TEXT NOT NULL,
		target_amount TEXT NOT NULL,
		collected_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_savings_goals_user ON savings_goals(user_email)`,
}

// Setup creates every table and index. It is safe to run repeatedly.
func (s *Store) Setup(ctx context.Context) error {
	if s.driver == DriverPostgres {
		if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
