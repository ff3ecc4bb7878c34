package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/residence-hub/residence/internal/shared"
	"github.com/residence-hub/residence/internal/users"
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Authenticate validates username/password credentials. Unknown, inactive and
// mismatched accounts all fail with shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		// Compare anyway so unknown usernames cost the same as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(fallbackHash(), []byte(password))
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RecordLogin stamps the account's last successful login.
func (s *Service) RecordLogin(ctx context.Context, userID int64) (time.Time, error) {
	at := s.now().UTC()
	return at, s.repo.TouchLastLogin(ctx, userID, at)
}

func fallbackHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("residence-dummy-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}
