package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"movierank/internal/models"
	"movierank/internal/store"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	MinPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Service issues and verifies sessions against the store.
type Service struct {
	store      store.Store
	ttl        time.Duration
	iterations int
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL sets how long issued sessions stay valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIterations sets the PBKDF2 work factor for new password hashes.
func WithIterations(n int) Option {
	return func(s *Service) { s.iterations = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service over st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		ttl:        DefaultSessionTTL,
		iterations: DefaultIterations,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return models.NewValidationError("email", "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return models.NewValidationError("password", "password must be at least 6 characters")
	}
	return nil
}

// SignUp registers an account and opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password, s.iterations)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	slog.Info("user signed up", "user_id", user.ID)
	return s.openSession(ctx, user)
}

// SignInWithPassword checks credentials and opens a session.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password for %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// SignOut revokes a session token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// SessionFromToken resolves a bearer token into a live session.
func (s *Service) SessionFromToken(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		// Expired sessions are dropped lazily.
		if err := s.store.DeleteSession(ctx, token); err != nil {
			slog.Warn("failed to delete expired session", "error", err)
		}
		return nil, ErrInvalidSession
	}
	return session, nil
}

func (s *Service) openSession(ctx context.Context, user *models.User) (*models.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
