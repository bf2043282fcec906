// Package state holds the client's application state as immutable
// snapshots behind a single mutator.
package state

import (
	"maps"
	"slices"
	"sync"

	"movierank/internal/catalog"
	"movierank/internal/models"
)

// Snapshot is one version of the application state. Values handed out by
// the Store must be treated as read-only.
type Snapshot struct {
	Session *models.Session
	Profile *models.Profile
	Lists   []models.List
	Items   map[string][]models.Movie
	Podium  []models.PodiumEntry

	Query   string
	Results []catalog.Movie

	LastError string
}

// ItemsFor returns the ranked items cached for a list.
func (s Snapshot) ItemsFor(listID string) []models.Movie {
	return s.Items[listID]
}

// WithItems returns a copy of s with the items of listID replaced.
func (s Snapshot) WithItems(listID string, items []models.Movie) Snapshot {
	next := s.clone()
	next.Items[listID] = items
	return next
}

// SignedIn reports whether the snapshot carries a session.
func (s Snapshot) SignedIn() bool {
	return s.Session != nil
}

func (s Snapshot) clone() Snapshot {
	next := s
	next.Lists = slices.Clone(s.Lists)
	next.Podium = slices.Clone(s.Podium)
	next.Results = slices.Clone(s.Results)
	if s.Items == nil {
		next.Items = make(map[string][]models.Movie)
	} else {
		next.Items = maps.Clone(s.Items)
	}
	for id, items := range next.Items {
		next.Items[id] = slices.Clone(items)
	}
	return next
}

// Store serializes updates to the snapshot and notifies subscribers.
type Store struct {
	mu      sync.Mutex
	current Snapshot

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New returns a Store holding an empty snapshot.
func New() *Store {
	return &Store{
		current: Snapshot{Items: make(map[string][]models.Movie)},
		subs:    make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update replaces the state with fn applied to a copy of the current
// snapshot, then notifies subscribers in registration order.
func (s *Store) Update(fn func(Snapshot) Snapshot) Snapshot {
	s.mu.Lock()
	next := fn(s.current.clone())
	s.current = next
	s.mu.Unlock()

	for _, sub := range s.subscribers() {
		sub(next)
	}
	return next
}

// Subscribe registers fn to receive every new snapshot.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) subscribers() []func(Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ids := slices.Sorted(maps.Keys(s.subs))
	out := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}
