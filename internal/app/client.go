// Package app is the client-side data-access layer. It scopes every query
// to the signed-in user, keeps the application state in step with the
// remote store and applies ranking changes optimistically.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"movierank/internal/auth"
	"movierank/internal/catalog"
	"movierank/internal/debounce"
	"movierank/internal/models"
	"movierank/internal/state"
	"movierank/internal/store"
)

// Catalog is the slice of the movie catalog the client uses.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, f catalog.Filters) ([]catalog.Movie, error)
	GetMovieDetails(ctx context.Context, id int64) (*catalog.MovieDetails, error)
	GetTrendingMovies(ctx context.Context) ([]catalog.Movie, error)
	GetGenres(ctx context.Context) ([]catalog.Genre, error)
}

// Options wires a Client to its collaborators.
type Options struct {
	Auth    auth.Provider
	Store   store.Store
	Catalog Catalog
	// State defaults to a fresh store.
	State *state.Store
	// Clock drives the search debounce. Defaults to the real clock.
	Clock debounce.Clock
	// SearchWindow defaults to debounce.DefaultWindow.
	SearchWindow time.Duration
}

// Client is one signed-in user's view of the backend.
type Client struct {
	auth    auth.Provider
	store   store.Store
	catalog Catalog
	state   *state.Store

	searcher *debounce.Searcher[[]catalog.Movie]
	cancel   context.CancelFunc

	closeOnce   sync.Once
	unsubscribe func()
}

// New builds a Client and subscribes it to auth-state changes.
func New(opts Options) *Client {
	if opts.State == nil {
		opts.State = state.New()
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		auth:    opts.Auth,
		store:   opts.Store,
		catalog: opts.Catalog,
		state:   opts.State,
		cancel:  cancel,
	}
	c.searcher = debounce.NewSearcher(ctx, debounce.SearchConfig[[]catalog.Movie]{
		Window: opts.SearchWindow,
		Clock:  opts.Clock,
		Fetch: func(ctx context.Context, q string) ([]catalog.Movie, error) {
			return c.catalog.SearchMovies(ctx, q, catalog.Filters{})
		},
		Fallback: func(ctx context.Context) ([]catalog.Movie, error) {
			return c.catalog.GetTrendingMovies(ctx)
		},
		OnResult: c.onSearchResult,
	})
	c.unsubscribe = c.auth.OnAuthStateChange(c.onAuthStateChange)
	return c
}

// State exposes the application state for subscribers.
func (c *Client) State() *state.Store {
	return c.state
}

// Close stops pending searches and detaches from the auth provider.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.searcher.Cancel()
		c.cancel()
		c.unsubscribe()
	})
}

func (c *Client) onAuthStateChange(ev auth.Event, session *models.Session) {
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		if ev == auth.EventSignedOut {
			// Nothing user-scoped survives a sign-out.
			return state.Snapshot{Items: map[string][]models.Movie{}}
		}
		s.Session = session
		return s
	})
}

// SignUp registers and signs in.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	_, err := c.auth.SignUp(ctx, email, password)
	return c.report("sign up", err)
}

// SignIn signs in with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	_, err := c.auth.SignInWithPassword(ctx, email, password)
	return c.report("sign in", err)
}

// SignOut ends the session and clears user state.
func (c *Client) SignOut(ctx context.Context) error {
	return c.report("sign out", c.auth.SignOut(ctx))
}

// userID returns the signed-in user, re-checking the session with the
// provider.
func (c *Client) userID(ctx context.Context) (string, error) {
	session, err := c.auth.GetSession(ctx)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

// report records a failure for display and passes it through. Validation
// errors carry their own message; everything else is shown generically.
func (c *Client) report(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := "Something went wrong. Please try again."
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		msg = verr.Message
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrEmailTaken):
		msg = err.Error()
	default:
		slog.Warn("client operation failed", "op", op, "error", err)
	}
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		s.LastError = msg
		return s
	})
	return err
}

// ClearError dismisses the last reported failure.
func (c *Client) ClearError() {
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		s.LastError = ""
		return s
	})
}
