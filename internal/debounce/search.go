package debounce

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultWindow    = 500 * time.Millisecond
	DefaultMinLength = 2
)

// SearchConfig configures a Searcher.
type SearchConfig[R any] struct {
	// Window is the quiescence period after the last edit.
	Window time.Duration
	// MinLength is the shortest query, in runes, that reaches Fetch.
	MinLength int
	// Fetch runs the remote search.
	Fetch func(ctx context.Context, query string) (R, error)
	// Fallback, when set, supplies results for queries below MinLength.
	Fallback func(ctx context.Context) (R, error)
	// OnResult receives every result that was not superseded.
	OnResult func(query string, result R, err error)
	Clock    Clock
}

// Searcher debounces query edits into remote search calls.
type Searcher[R any] struct {
	cfg   SearchConfig[R]
	timer *Timer

	// deliverMu spans the staleness check and OnResult, so an edit cannot
	// land between them.
	deliverMu sync.Mutex

	mu    sync.Mutex
	ctx   context.Context
	seq   uint64
	query string
}

// NewSearcher returns a Searcher whose calls run with ctx.
func NewSearcher[R any](ctx context.Context, cfg SearchConfig[R]) *Searcher[R] {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.OnResult == nil {
		cfg.OnResult = func(string, R, error) {}
	}
	return &Searcher[R]{
		cfg:   cfg,
		timer: NewTimer(cfg.Clock),
		ctx:   ctx,
	}
}

// NormalizeQuery trims and NFC-normalizes a raw query.
func NormalizeQuery(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// OnQueryChange records an edit. Any pending call is cancelled; a new one
// is scheduled after the quiescence window.
func (s *Searcher[R]) OnQueryChange(text string) {
	q := NormalizeQuery(text)
	short := utf8.RuneCountInString(q) < s.cfg.MinLength

	s.deliverMu.Lock()
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.query = q
	s.mu.Unlock()
	if short {
		s.timer.Cancel()
		var zero R
		s.cfg.OnResult(q, zero, nil)
	}
	s.deliverMu.Unlock()

	if short {
		if s.cfg.Fallback != nil {
			s.timer.Schedule(0, func() {
				r, err := s.cfg.Fallback(s.ctx)
				s.deliver(seq, q, r, err)
			})
		}
		return
	}

	s.timer.Schedule(s.cfg.Window, func() {
		r, err := s.cfg.Fetch(s.ctx, q)
		s.deliver(seq, q, r, err)
	})
}

// Query returns the latest normalized query.
func (s *Searcher[R]) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Cancel drops any pending call.
func (s *Searcher[R]) Cancel() {
	s.deliverMu.Lock()
	s.mu.Lock()
	s.seq++
	s.mu.Unlock()
	s.deliverMu.Unlock()
	s.timer.Cancel()
}

// deliver drops results for queries that were edited after the call started.
func (s *Searcher[R]) deliver(seq uint64, q string, r R, err error) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	stale := seq != s.seq
	s.mu.Unlock()
	if stale {
		return
	}
	s.cfg.OnResult(q, r, err)
}
