package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserDirectory = (*UserRepo)(nil)

// UserRepo is the local user directory.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts or replaces a user.
func (r *UserRepo) Upsert(ctx context.Context, u model.User) error {
	const query = `
		INSERT INTO users (id, full_name, enabled) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Writer.ExecContext(ctx, query, u.ID, u.FullName, u.Enabled); err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

// FullName returns the user's full name, or "" when the user is unknown.
func (r *UserRepo) FullName(ctx context.Context, user string) (string, error) {
	var name string
	err := r.db.Reader.QueryRowContext(ctx, `SELECT full_name FROM users WHERE id = ?`, user).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get full name of %s: %w", user, err)
	}
	return name, nil
}

// List returns all users ordered by ID.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `SELECT id, full_name, enabled FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUser(s scanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.FullName, &u.Enabled)
	return u, err
}
