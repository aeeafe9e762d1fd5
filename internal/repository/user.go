package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-catalog/internal/domain/user"
)

const (
	userColumns = "id, username, email, first_name, last_name, created_at"

	createUserSQL = `INSERT INTO users (username, email, first_name, last_name)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`

	getUserSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	getUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	getProfileSQL = `SELECT user_id, phone, company, position FROM user_profiles WHERE user_id = $1`

	// ON CONFLICT DO NOTHING keeps the lazy create race-safe: the loser of
	// a concurrent create falls through to the following read.
	createProfileSQL = `INSERT INTO user_profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	updateProfileSQL = `UPDATE user_profiles SET phone = $2, company = $3, position = $4
		WHERE user_id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx, createUserSQL,
		u.Username, u.Email, u.FirstName, u.LastName,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.Username, err)
	}
	return nil
}

// GetByID returns a single user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getUser(ctx, getUserSQL, id)
}

// GetByUsername returns a single user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getUser(ctx, getUserByUsernameSQL, username)
}

func (r *UserRepository) getUser(ctx context.Context, sql string, arg any) (*user.User, error) {
	var u user.User
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// GetOrCreateProfile returns the user's profile, creating an empty one on
// first access.
func (r *UserRepository) GetOrCreateProfile(ctx context.Context, userID int64) (*user.Profile, error) {
	if _, err := r.pool.Exec(ctx, createProfileSQL, userID); err != nil {
		return nil, fmt.Errorf("creating profile for user %d: %w", userID, err)
	}

	var p user.Profile
	err := r.pool.QueryRow(ctx, getProfileSQL, userID).Scan(
		&p.UserID, &p.Phone, &p.Company, &p.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("getting profile for user %d: %w", userID, err)
	}
	return &p, nil
}

// UpdateProfile rewrites the profile's free-form fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, p *user.Profile) error {
	tag, err := r.pool.Exec(ctx, updateProfileSQL, p.UserID, p.Phone, p.Company, p.Position)
	if err != nil {
		return fmt.Errorf("updating profile for user %d: %w", p.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
