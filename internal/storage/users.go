package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"college-budgeting-backend/internal/model"
)

const userColumns = `id, name, email, password_hash, provider, photo_url, occupation,
	age, birth_date, name_changed_at, created_at`

// CreateUser inserts u and fills in its ID. It returns ErrDuplicate when the
// email is already registered.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Provider == "" {
		u.Provider = "local"
	}
	query := s.rebind(`
		INSERT INTO users (name, email, password_hash, provider, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Provider, u.CreatedAt.UTC()).Scan(&u.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail looks a user up by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)

	var (
		u             model.User
		photo, occup  sql.NullString
		birth         sql.NullString
		age           sql.NullInt64
		nameChangedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Provider, &photo, &occup,
		&age, &birth, &nameChangedAt, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.PhotoURL = nullableString(photo)
	u.Occupation = nullableString(occup)
	u.BirthDate = nullableString(birth)
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	if nameChangedAt.Valid {
		t := nameChangedAt.Time.UTC()
		u.NameChangedAt = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// UpdateUser writes every mutable profile field of u.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	var nameChangedAt any
	if u.NameChangedAt != nil {
		nameChangedAt = u.NameChangedAt.UTC()
	}
	var age any
	if u.Age != nil {
		age = *u.Age
	}

	query := s.rebind(`
		UPDATE users
		SET name = ?, photo_url = ?, occupation = ?, age = ?, birth_date = ?, name_changed_at = ?
		WHERE id = ?
	`)
	res, err := s.db.ExecContext(ctx, query,
		u.Name, stringOrNil(u.PhotoURL), stringOrNil(u.Occupation), age, stringOrNil(u.BirthDate), nameChangedAt, u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
	}
	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
