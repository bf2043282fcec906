package app

import (
	"context"
	"errors"

	"movierank/internal/catalog"
	"movierank/internal/state"
	"movierank/internal/store"
)

// Search records a query edit. Results land in state once the query has
// been quiet for the debounce window; short queries show trending movies.
func (c *Client) Search(text string) {
	c.searcher.OnQueryChange(text)
}

// MovieDetails fetches the full catalog record for one movie.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*catalog.MovieDetails, error) {
	details, err := c.catalog.GetMovieDetails(ctx, id)
	return details, c.report("movie details", err)
}

// Genres lists the catalog genres for list filters.
func (c *Client) Genres(ctx context.Context) ([]catalog.Genre, error) {
	genres, err := c.catalog.GetGenres(ctx)
	return genres, c.report("genres", err)
}

func (c *Client) onSearchResult(query string, results []catalog.Movie, err error) {
	if err != nil {
		c.report("search", err)
		results = nil
	}
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		s.Query = query
		s.Results = results
		return s
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
