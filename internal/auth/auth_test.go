package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/models"
	"movierank/internal/store"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, append([]Option{WithIterations(1000)}, opts...)...)
}

func TestGenerateToken(t *testing.T) {
	tokens := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 43)
		assert.NotContains(t, token, "=")
		assert.False(t, tokens[token], "duplicate token generated")
		tokens[token] = true
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", 1000)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "pbkdf2-sha256$1000$"))

	ok, err := CheckPassword(hash, "hunter22")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "hunter23")
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("hunter22", 1000)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts should differ")
}

func TestCheckPassword_Malformed(t *testing.T) {
	for _, encoded := range []string{"", "plain", "md5$1$a$b", "pbkdf2-sha256$x$a$b", "pbkdf2-sha256$10$!!$b"} {
		_, err := CheckPassword(encoded, "pw")
		assert.ErrorIs(t, err, errMalformedHash, encoded)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "Ada@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.Email)
	assert.NotEmpty(t, session.UserID)

	_, err = svc.SignUp(ctx, "ada@example.com", "another")
	assert.ErrorIs(t, err, ErrEmailTaken)

	signedIn, err := svc.SignInWithPassword(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, signedIn.UserID)
	assert.NotEqual(t, session.Token, signedIn.Token)

	_, err = svc.SignInWithPassword(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignInWithPassword(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUp_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		email, password, field string
	}{
		{"", "secret1", "email"},
		{"not-an-email", "secret1", "email"},
		{"a@b.c", "12345", "password"},
	}
	for _, tt := range tests {
		_, err := svc.SignUp(ctx, tt.email, tt.password)
		var v *models.ValidationError
		require.ErrorAs(t, err, &v)
		assert.Equal(t, tt.field, v.Field)
	}
}

func TestSessionFromToken(t *testing.T) {
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithSessionTTL(time.Hour), WithClock(func() time.Time { return current }))
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	got, err := svc.SessionFromToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)

	_, err = svc.SessionFromToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = svc.SessionFromToken(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidSession)

	current = current.Add(time.Hour)
	_, err = svc.SessionFromToken(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// The expired session was removed, so rewinding the clock does not revive it.
	current = current.Add(-30 * time.Minute)
	_, err = svc.SessionFromToken(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSignOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, session.Token))

	_, err = svc.SessionFromToken(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLocalProvider_StateChanges(t *testing.T) {
	p := NewLocalProvider(newTestService(t))
	ctx := context.Background()

	var events []Event
	unsubscribe := p.OnAuthStateChange(func(ev Event, s *models.Session) {
		events = append(events, ev)
		if ev == EventSignedIn {
			assert.NotNil(t, s)
		} else {
			assert.Nil(t, s)
		}
	})

	_, err := p.GetSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = p.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	session, err := p.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.Email)

	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignOut(ctx), "second sign-out is a no-op")

	_, err = p.SignInWithPassword(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	unsubscribe()
	require.NoError(t, p.SignOut(ctx))

	assert.Equal(t, []Event{EventSignedIn, EventSignedOut, EventSignedIn}, events)
}

func TestLocalProvider_FailedSignInKeepsState(t *testing.T) {
	p := NewLocalProvider(newTestService(t))
	ctx := context.Background()

	calls := 0
	p.OnAuthStateChange(func(Event, *models.Session) { calls++ })

	_, err := p.SignInWithPassword(ctx, "ada@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Zero(t, calls)
}

func TestLocalProvider_ExpiredSessionSignsOut(t *testing.T) {
	current := time.Now()
	svc := newTestService(t, WithSessionTTL(time.Minute), WithClock(func() time.Time { return current }))
	p := NewLocalProvider(svc)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	var last Event
	p.OnAuthStateChange(func(ev Event, _ *models.Session) { last = ev })

	current = current.Add(2 * time.Minute)
	_, err = p.GetSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, EventSignedOut, last)
}
