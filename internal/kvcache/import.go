package kvcache

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"movierank/internal/catalog"
	"movierank/internal/models"
	"movierank/internal/ranking"
	"movierank/internal/store"
)

// DefaultListName names the list the global ranking imports into.
const DefaultListName = "My Ranking"

// CachedList is a list entry under @movie_lists.
type CachedList struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Name      string    `json:"name,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CachedItem is a ranked movie as the cache stored it. Image fields may be
// relative paths or absolute CDN URLs.
type CachedItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Rank        int     `json:"rank"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	BackdropURL string  `json:"backdropUrl,omitempty"`
	TMDBID      int64   `json:"tmdbId,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// ImportResult counts what an import created.
type ImportResult struct {
	Lists   int
	Movies  int
	Skipped int
}

// Import moves every cached list and ranking into st for userID. Imported
// keys are deleted from the cache, so running it again only picks up what
// failed before.
func Import(ctx context.Context, c *Cache, st store.Store, userID string) (ImportResult, error) {
	var res ImportResult

	var lists []CachedList
	if _, err := c.Get(KeyMovieLists, &lists); err != nil {
		return res, err
	}
	known := make(map[string]bool, len(lists))
	for _, l := range lists {
		known[l.ID] = true
		name := cmp.Or(strings.TrimSpace(l.Title), strings.TrimSpace(l.Name))
		if err := importList(ctx, c, st, userID, ListItemsKey(l.ID), name, l.Color, l.CreatedAt, &res); err != nil {
			return res, err
		}
	}
	if err := c.Delete(KeyMovieLists); err != nil {
		return res, err
	}

	// Rankings whose list metadata was lost still get a list of their own.
	for _, key := range c.Keys() {
		if !strings.HasPrefix(key, listItemsPrefix) || known[strings.TrimPrefix(key, listItemsPrefix)] {
			continue
		}
		if err := importList(ctx, c, st, userID, key, "Imported list", "", time.Time{}, &res); err != nil {
			return res, err
		}
	}

	if err := importList(ctx, c, st, userID, KeyRankingItems, DefaultListName, "", time.Time{}, &res); err != nil {
		return res, err
	}
	return res, nil
}

func importList(ctx context.Context, c *Cache, st store.Store, userID, key, name, color string, createdAt time.Time, res *ImportResult) error {
	var cached []CachedItem
	found, err := c.Get(key, &cached)
	if err != nil {
		return err
	}
	// The global ranking only becomes a list when it has items.
	if !found || (key == KeyRankingItems && len(cached) == 0) {
		return c.Delete(key)
	}

	list := &models.List{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Name:      cmp.Or(name, DefaultListName),
		Color:     color,
		CreatedAt: createdAt,
	}
	if err := list.Validate(); err != nil {
		slog.Warn("renaming invalid cached list", "key", key, "error", err)
		list.Name = DefaultListName
		list.Color = ""
	}
	if err := st.CreateList(ctx, list); err != nil {
		return fmt.Errorf("import %s: %w", key, err)
	}
	res.Lists++

	for _, m := range toMovies(list.ID, cached) {
		if err := m.Validate(); err != nil {
			slog.Warn("skipping cached item", "key", key, "id", m.ID, "error", err)
			res.Skipped++
			continue
		}
		if err := st.AddMovie(ctx, &m); err != nil {
			return fmt.Errorf("import %s: %w", key, err)
		}
		res.Movies++
	}

	slog.Info("imported cached list", "key", key, "list_id", list.ID, "name", list.Name)
	return c.Delete(key)
}

// toMovies orders cached items by their stored rank and renumbers them so
// gaps and duplicates left by older app versions disappear.
func toMovies(listID string, cached []CachedItem) []models.Movie {
	sorted := slices.Clone(cached)
	slices.SortStableFunc(sorted, func(a, b CachedItem) int { return cmp.Compare(a.Rank, b.Rank) })

	movies := make([]models.Movie, 0, len(sorted))
	for _, it := range sorted {
		movies = append(movies, models.Movie{
			ID:           uuid.Must(uuid.NewV7()).String(),
			ListID:       listID,
			Title:        strings.TrimSpace(it.Title),
			ImagePath:    catalog.NormalizeImagePath(it.ImageURL),
			BackdropPath: catalog.NormalizeImagePath(it.BackdropURL),
			TMDBID:       it.TMDBID,
			ReleaseDate:  it.ReleaseDate,
			VoteAverage:  it.VoteAverage,
			Notes:        it.Notes,
		})
	}
	return ranking.Renumber(movies)
}
