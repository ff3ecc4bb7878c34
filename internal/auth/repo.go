package auth

import (
	"context"
	"time"

	"github.com/residence-hub/residence/internal/users"
)

// Repository defines the account lookups the login flow needs.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (users.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

var _ Repository = (*users.PGRepository)(nil)
