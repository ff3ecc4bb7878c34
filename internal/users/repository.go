package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/residence-hub/residence/internal/rbac"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User, withPassword bool) (User, error)
	Delete(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, username, password_hash, display_name, role, is_active, created_at, last_login_at`

// List returns all users ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return out, nil
}

// Get fetches a user by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (User, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByUsername fetches a user by username, case-insensitively.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, strings.TrimSpace(username)))
}

// Create inserts a user and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, display_name, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+userColumns,
		u.Username, u.PasswordHash, u.DisplayName, string(u.Role), u.IsActive)
	created, err := scanOne(row)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return created, nil
}

// Update changes a user's profile, and its password hash when withPassword is set.
func (r *PGRepository) Update(ctx context.Context, u User, withPassword bool) (User, error) {
	var row pgx.Row
	if withPassword {
		row = r.pool.QueryRow(ctx, `
			UPDATE users SET username = $2, display_name = $3, role = $4, is_active = $5, password_hash = $6
			WHERE id = $1
			RETURNING `+userColumns,
			u.ID, u.Username, u.DisplayName, string(u.Role), u.IsActive, u.PasswordHash)
	} else {
		row = r.pool.QueryRow(ctx, `
			UPDATE users SET username = $2, display_name = $3, role = $4, is_active = $5
			WHERE id = $1
			RETURNING `+userColumns,
			u.ID, u.Username, u.DisplayName, string(u.Role), u.IsActive)
	}
	updated, err := scanOne(row)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return updated, nil
}

// Delete removes a user. Returns ErrNotFound if nothing was deleted.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin stamps the last successful login.
func (r *PGRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("users: touch last login: %w", err)
	}
	return nil
}

func scanOne(row pgx.Row) (User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return User{}, err
	}
	// An unrecognised stored role stays RoleUnknown, which the policy denies.
	u.Role, _ = rbac.ParseRole(role)
	return u, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateUsername
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("users: write: %w", err)
}

var _ Repository = (*PGRepository)(nil)
