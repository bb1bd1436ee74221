package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/admin-app/admin-api/internal/shared"
	"github.com/admin-app/admin-api/internal/users"
)

type fakeAccounts struct {
	user      users.User
	hash      string
	storeErr  error
	passwords []string
}

var errUnknownUser = shared.NewError(shared.ErrNotFound, "User not found")

func (f *fakeAccounts) Register(ctx context.Context, in users.RegisterInput) (users.User, error) {
	return users.User{ID: "u2", FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}, nil
}

func (f *fakeAccounts) Credentials(ctx context.Context, email string) (users.Credentials, error) {
	if f.storeErr != nil {
		return users.Credentials{}, f.storeErr
	}
	if email != f.user.Email {
		return users.Credentials{}, errUnknownUser
	}
	return users.Credentials{ID: f.user.ID, Email: f.user.Email, PasswordHash: f.hash}, nil
}

func (f *fakeAccounts) Get(ctx context.Context, id string) (users.User, error) {
	if f.storeErr != nil {
		return users.User{}, f.storeErr
	}
	if id != f.user.ID {
		return users.User{}, errUnknownUser
	}
	return f.user, nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id string, in users.ProfilePatch) (users.User, error) {
	u := f.user
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	return u, nil
}

func (f *fakeAccounts) UpdatePassword(ctx context.Context, id, password string) error {
	f.passwords = append(f.passwords, password)
	return nil
}

type fixture struct {
	accounts *fakeAccounts
	tokens   *TokenService
	service  *Service
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hasher := NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("Secret123")
	require.NoError(t, err)

	accounts := &fakeAccounts{
		user: users.User{ID: "u1", FirstName: "Jane", LastName: "Doe", FullName: "Jane Doe", Email: "jane@example.com", RoleID: "r1"},
		hash: hash,
	}
	tokens, err := NewTokenService(TokenConfig{Secret: "test-secret"})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(accounts, hasher, tokens, NewThrottle(client, 3, time.Minute, nil), nil)
	require.NoError(t, err)
	return fixture{accounts: accounts, tokens: tokens, service: svc, redis: mr}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)

	session, err := f.service.Login(context.Background(), "jane@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)

	claims, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.ID)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, wrongPassword := f.service.Login(ctx, "jane@example.com", "Wrong1234")
	_, unknownEmail := f.service.Login(ctx, "nobody@example.com", "Secret123")

	require.ErrorIs(t, wrongPassword, shared.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, shared.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginStoreErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.accounts.storeErr = errors.New("connection refused")

	_, err := f.service.Login(context.Background(), "jane@example.com", "Secret123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginThrottle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.Login(ctx, "jane@example.com", "Wrong1234")
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}

	_, err := f.service.Login(ctx, "jane@example.com", "Secret123")
	require.ErrorIs(t, err, shared.ErrTooManyAttempts)

	f.redis.FastForward(time.Minute + time.Second)
	_, err = f.service.Login(ctx, "jane@example.com", "Secret123")
	require.NoError(t, err)
	assert.False(t, f.redis.Exists(throttleKey("jane@example.com")))
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = f.service.Login(ctx, "jane@example.com", "Wrong1234")
	}
	_, err := f.service.Login(ctx, "jane@example.com", "Secret123")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _ = f.service.Login(ctx, "jane@example.com", "Wrong1234")
	}
	_, err = f.service.Login(ctx, "jane@example.com", "Secret123")
	require.NoError(t, err)
}
