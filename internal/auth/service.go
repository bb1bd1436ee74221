package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin-app/admin-api/internal/observability"
	"github.com/admin-app/admin-api/internal/shared"
	"github.com/admin-app/admin-api/internal/users"
)

// Accounts is the user store surface authentication flows depend on.
type Accounts interface {
	Register(ctx context.Context, in users.RegisterInput) (users.User, error)
	Credentials(ctx context.Context, email string) (users.Credentials, error)
	Get(ctx context.Context, id string) (users.User, error)
	UpdateProfile(ctx context.Context, id string, in users.ProfilePatch) (users.User, error)
	UpdatePassword(ctx context.Context, id, password string) error
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Service wraps authentication business rules.
type Service struct {
	accounts  Accounts
	hasher    PasswordVerifier
	tokens    *TokenService
	throttle  *Throttle
	metrics   *observability.Metrics
	dummyHash string
}

// Session is the result of a successful login.
type Session struct {
	User  users.User
	Token string
}

// NewService constructs a new Service. throttle and metrics may be nil.
func NewService(accounts Accounts, hasher PasswordVerifier, tokens *TokenService, throttle *Throttle, metrics *observability.Metrics) (*Service, error) {
	// Unknown emails are checked against this hash so both failure paths cost one bcrypt compare.
	dummy, err := hasher.Hash("unknown-account-placeholder")
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}
	return &Service{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		throttle:  throttle,
		metrics:   metrics,
		dummyHash: dummy,
	}, nil
}

// Register creates a self-service account.
func (s *Service) Register(ctx context.Context, in users.RegisterInput) (users.User, error) {
	return s.accounts.Register(ctx, in)
}

// Login validates email/password credentials and issues a session token. Unknown
// emails and wrong passwords yield the same error.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if s.throttle.Blocked(ctx, email) {
		s.metrics.RecordLogin(observability.LoginThrottled)
		return Session{}, shared.ErrTooManyAttempts
	}

	creds, err := s.accounts.Credentials(ctx, email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		s.hasher.Verify(password, s.dummyHash)
		return Session{}, s.failLogin(ctx, email)
	case err != nil:
		return Session{}, err
	}
	if !s.hasher.Verify(password, creds.PasswordHash) {
		return Session{}, s.failLogin(ctx, email)
	}

	user, err := s.accounts.Get(ctx, creds.ID)
	if err != nil {
		return Session{}, err
	}
	token, err := s.tokens.Issue(Claims{ID: user.ID, Email: user.Email})
	if err != nil {
		return Session{}, err
	}
	s.throttle.Reset(ctx, email)
	s.metrics.RecordLogin(observability.LoginSuccess)
	return Session{User: user, Token: token}, nil
}

func (s *Service) failLogin(ctx context.Context, email string) error {
	s.throttle.Fail(ctx, email)
	s.metrics.RecordLogin(observability.LoginFailed)
	return shared.ErrInvalidCredentials
}

// UpdateProfile applies a partial profile change to the current user.
func (s *Service) UpdateProfile(ctx context.Context, id string, in users.ProfilePatch) (users.User, error) {
	return s.accounts.UpdateProfile(ctx, id, in)
}

// UpdatePassword replaces the current user's password.
func (s *Service) UpdatePassword(ctx context.Context, id, password string) error {
	return s.accounts.UpdatePassword(ctx, id, password)
}
