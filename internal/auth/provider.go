package auth

import (
	"context"
	"errors"
	"sync"

	"movierank/internal/models"
)

// Event names an auth-state transition.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = errors.New("not signed in")

// Provider is the identity/session surface the client consumes.
type Provider interface {
	GetSession(ctx context.Context) (*models.Session, error)
	OnAuthStateChange(cb func(Event, *models.Session)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
}

// LocalProvider holds one client's session on top of a Service.
type LocalProvider struct {
	svc *Service

	mu        sync.Mutex
	session   *models.Session
	listeners map[int]func(Event, *models.Session)
	nextID    int
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider returns a signed-out provider.
func NewLocalProvider(svc *Service) *LocalProvider {
	return &LocalProvider{svc: svc, listeners: make(map[int]func(Event, *models.Session))}
}

// GetSession returns the current session, re-verifying it. A session that
// has expired or been revoked signs the provider out.
func (p *LocalProvider) GetSession(ctx context.Context) (*models.Session, error) {
	p.mu.Lock()
	current := p.session
	p.mu.Unlock()
	if current == nil {
		return nil, ErrNoSession
	}

	session, err := p.svc.SessionFromToken(ctx, current.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			p.set(nil, EventSignedOut)
			return nil, ErrNoSession
		}
		return nil, err
	}
	return session, nil
}

// OnAuthStateChange registers cb for sign-in and sign-out transitions.
func (p *LocalProvider) OnAuthStateChange(cb func(Event, *models.Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// SignInWithPassword opens a session for the given credentials.
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	session, err := p.svc.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	p.set(session, EventSignedIn)
	return session, nil
}

// SignUp registers an account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	session, err := p.svc.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	p.set(session, EventSignedIn)
	return session, nil
}

// SignOut revokes the current session. Signing out while signed out is a
// no-op.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	current := p.session
	p.mu.Unlock()
	if current == nil {
		return nil
	}
	if err := p.svc.SignOut(ctx, current.Token); err != nil {
		return err
	}
	p.set(nil, EventSignedOut)
	return nil
}

func (p *LocalProvider) set(session *models.Session, ev Event) {
	p.mu.Lock()
	p.session = session
	listeners := make([]func(Event, *models.Session), 0, len(p.listeners))
	for i := 0; i < p.nextID; i++ {
		if cb, ok := p.listeners[i]; ok {
			listeners = append(listeners, cb)
		}
	}
	p.mu.Unlock()

	for _, cb := range listeners {
		cb(ev, session)
	}
}
