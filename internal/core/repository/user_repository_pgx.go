package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/duynhne/course-service/internal/core/domain"
)

// PgxUserRepository implements domain.UserRepository on PostgreSQL.
type PgxUserRepository struct {
	db DBTX
}

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(db DBTX) *PgxUserRepository {
	return &PgxUserRepository{db: db}
}

// GetByEmail returns the user matching the given email.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRow, error) {
	query := `SELECT id, username, email, password_hash, points, created_at FROM users WHERE email = $1`

	var row domain.UserRow
	err := r.db.QueryRow(ctx, query, email).Scan(
		&row.ID, &row.Username, &row.Email, &row.PasswordHash, &row.Points, &row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user by email: %w", err)
	}

	return &row, nil
}

// GetByID returns the user with the given id.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, username, email, points, created_at FROM users WHERE id = $1`

	var u domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.Points, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}

	return &u, nil
}

// ExistsByUsernameOrEmail returns true when a user with the given
// username or email already exists.
func (r *PgxUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}

// Create inserts a new user. A unique constraint hit, e.g. from a concurrent
// registration, is reported as domain.ErrDuplicate.
func (r *PgxUserRepository) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	query := `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id, points, created_at`

	u := domain.User{Username: username, Email: email}
	err := r.db.QueryRow(ctx, query, username, email, passwordHash).Scan(&u.ID, &u.Points, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &u, nil
}
