package v1

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/course-service/internal/core/domain"
	"github.com/duynhne/course-service/internal/core/repository"
)

func newAuthService(t *testing.T) (*AuthService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := NewAuthService(store.Users(), NewTokenService("test-secret", time.Hour), WithBcryptCost(bcrypt.MinCost))
	return svc, store
}

func register(t *testing.T, svc *AuthService, username, email, password string) *domain.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), domain.RegisterRequest{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return resp
}

func TestRegister_Success(t *testing.T) {
	svc, store := newAuthService(t)

	resp := register(t, svc, "  alice ", " Alice@Example.COM ", "secret1")

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Zero(t, resp.User.Points)

	row, err := store.Users().GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", row.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), prehash("secret1")))
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthService(t)

	tests := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"empty username", domain.RegisterRequest{Username: " ", Email: "a@x.io", Password: "secret1"}},
		{"empty email", domain.RegisterRequest{Username: "a", Email: "", Password: "secret1"}},
		{"short password", domain.RegisterRequest{Username: "a", Email: "a@x.io", Password: "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_SixCharacterPasswordAccepted(t *testing.T) {
	svc, _ := newAuthService(t)

	register(t, svc, "bob", "bob@x.io", "123456")
}

func TestRegisterAndLogin_PasswordLongerThanBcryptLimit(t *testing.T) {
	svc, _ := newAuthService(t)
	long := strings.Repeat("a", 80)

	register(t, svc, "bob", "bob@example.com", long)

	resp, err := svc.Login(context.Background(), domain.LoginRequest{Email: "bob@example.com", Password: long})
	require.NoError(t, err)
	assert.Equal(t, "bob", resp.User.Username)

	// bytes past 72 still count
	_, err = svc.Login(context.Background(), domain.LoginRequest{Email: "bob@example.com", Password: strings.Repeat("a", 79) + "b"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_Conflicts(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "alice", "alice@example.com", "secret1")

	_, err := svc.Register(context.Background(), domain.RegisterRequest{Username: "alice2", Email: "ALICE@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(context.Background(), domain.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)
}

// racyUsers reports no existing user so Create hits the unique constraint.
type racyUsers struct{ domain.UserRepository }

func (racyUsers) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestRegister_ConcurrentDuplicateMapsToConflict(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAuthService(racyUsers{store.Users()}, NewTokenService("k", time.Hour), WithBcryptCost(bcrypt.MinCost))
	register(t, svc, "alice", "alice@example.com", "secret1")

	_, err := svc.Register(context.Background(), domain.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	created := register(t, svc, "alice", "alice@example.com", "secret1")

	resp, err := svc.Login(context.Background(), domain.LoginRequest{Email: " ALICE@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, resp.User.ID)

	id, err := svc.UserID(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, id)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "alice", "alice@example.com", "secret1")

	_, wrongPassword := svc.Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "nope-nope"})
	_, unknownEmail := svc.Login(context.Background(), domain.LoginRequest{Email: "ghost@example.com", Password: "anything"})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newAuthService(t)
	created := register(t, svc, "alice", "alice@example.com", "secret1")

	user, err := svc.Authenticate(context.Background(), created.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticate_VanishedUser(t *testing.T) {
	svc, _ := newAuthService(t)

	tok, err := svc.tokens.Issue(999)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tok)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type failingUsers struct{ domain.UserRepository }

func (failingUsers) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, errors.New("db down")
}

func TestAuthenticate_StorageError(t *testing.T) {
	tokens := NewTokenService("k", time.Hour)
	svc := NewAuthService(failingUsers{}, tokens, WithBcryptCost(bcrypt.MinCost))
	tok, err := tokens.Issue(1)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestIsAuthError(t *testing.T) {
	svc, _ := newAuthService(t)
	tok, err := svc.tokens.Issue(999)
	require.NoError(t, err)

	_, badToken := svc.Authenticate(context.Background(), "garbage")
	_, vanished := svc.Authenticate(context.Background(), tok)
	assert.True(t, IsAuthError(badToken))
	assert.True(t, IsAuthError(vanished))

	storage := NewAuthService(failingUsers{}, svc.tokens, WithBcryptCost(bcrypt.MinCost))
	_, dbDown := storage.Authenticate(context.Background(), tok)
	assert.False(t, IsAuthError(dbDown))
	assert.False(t, IsAuthError(nil))
}
