package v1

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/course-service/internal/core/domain"
	"github.com/duynhne/course-service/middleware"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// AuthService implements account and session rules.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the database or SQL directly.
type AuthService struct {
	users     domain.UserRepository
	tokens    *TokenService
	cost      int
	dummyHash []byte
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, tokens *TokenService, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Compared against when the email is unknown so both login failures cost
	// one bcrypt comparison.
	s.dummyHash, _ = bcrypt.GenerateFromPassword(prehash("not-a-real-password"), s.cost)

	return s
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", username),
	))
	defer span.End()

	if username == "" || email == "" {
		authAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, validationError("username and email are required")
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		authAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, validationError("password must be at least %d characters", MinPasswordLength)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		span.SetAttributes(attribute.Bool("registration.success", false))
		authAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		return nil, fmt.Errorf("register user %q: %w", username, ErrUserExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword(prehash(req.Password), s.cost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, email, string(passwordHash))
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, domain.ErrDuplicate) {
			authAttemptsTotal.WithLabelValues("register", "conflict").Inc()
			return nil, fmt.Errorf("register user %q: %w", username, ErrUserExists)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", strconv.FormatInt(user.ID, 10)),
		attribute.Bool("registration.success", true),
	)
	span.AddEvent("user.registered")
	authAttemptsTotal.WithLabelValues("register", "success").Inc()

	return &domain.AuthResponse{Token: token, User: *user}, nil
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if email == "" || req.Password == "" {
		authAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return nil, validationError("email and password are required")
	}

	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user: %w", err)
	}

	hash := s.dummyHash
	if row != nil {
		hash = []byte(row.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, prehash(req.Password)); err != nil || row == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		authAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return nil, fmt.Errorf("authenticate: %w", ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(row.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", strconv.FormatInt(row.ID, 10)),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")
	authAttemptsTotal.WithLabelValues("login", "success").Inc()

	return &domain.AuthResponse{Token: token, User: row.User}, nil
}

// Authenticate resolves a bearer token to its user. It fails with
// ErrUnauthenticated for any token problem and ErrUserNotFound when the
// token outlived its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.authenticate", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	userID, err := s.tokens.Verify(token)
	if err != nil {
		span.SetAttributes(attribute.Bool("token.valid", false))
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %d: %w", userID, err)
	}
	if user == nil {
		span.SetAttributes(attribute.Bool("user.exists", false))
		return nil, fmt.Errorf("lookup user %d: %w", userID, ErrUserNotFound)
	}

	span.SetAttributes(
		attribute.String("user.id", strconv.FormatInt(user.ID, 10)),
		attribute.Bool("token.valid", true),
	)
	return user, nil
}

// UserID verifies token without touching storage.
func (s *AuthService) UserID(token string) (int64, error) {
	return s.tokens.Verify(token)
}

// prehash keeps bcrypt input at 44 bytes, under its 72 byte limit, so long
// passwords are neither rejected nor silently truncated.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
