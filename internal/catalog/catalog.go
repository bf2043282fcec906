// Package catalog is a client for the TMDB v3 movie catalog.
//
// Every upstream failure, whether transport, rate limiting, bad status or an
// undecodable body, surfaces as ErrUpstream. Callers do not distinguish them.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ErrUpstream is returned for any failure talking to the catalog.
var ErrUpstream = errors.New("catalog request failed")

// Movie is a catalog search or listing entry.
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full record for one movie.
type MovieDetails struct {
	Movie
	Genres  []Genre `json:"genres"`
	Runtime int     `json:"runtime"`
	Tagline string  `json:"tagline"`
}

// Filters narrow a search or discover call.
type Filters struct {
	Year      int
	GenreIDs  []int
	MinRating float64
	Page      int
}

type pagedMovies struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

// Client talks to the catalog over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a catalog client. An empty baseURL means DefaultBaseURL;
// a nil httpClient gets a client with a 10 second timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// SearchMovies searches by title. An empty query lists popular movies
// matching the filters instead.
func (c *Client) SearchMovies(ctx context.Context, query string, f Filters) ([]Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.discover(ctx, f)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	if f.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(f.Year))
	}
	setPage(params, f.Page)

	var page pagedMovies
	if err := c.get(ctx, "/search/movie", params, &page); err != nil {
		return nil, err
	}
	return applyFilters(page.Results, f), nil
}

func (c *Client) discover(ctx context.Context, f Filters) ([]Movie, error) {
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	if f.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(f.Year))
	}
	if len(f.GenreIDs) > 0 {
		ids := make([]string, len(f.GenreIDs))
		for i, id := range f.GenreIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	if f.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	setPage(params, f.Page)

	var page pagedMovies
	if err := c.get(ctx, "/discover/movie", params, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// GetMovieDetails fetches one movie by catalog id.
func (c *Client) GetMovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetTrendingMovies lists this week's trending movies.
func (c *Client) GetTrendingMovies(ctx context.Context) ([]Movie, error) {
	var page pagedMovies
	if err := c.get(ctx, "/trending/movie/week", nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// GetGenres lists the catalog's movie genres.
func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	var body struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, &body); err != nil {
		return nil, err
	}
	return body.Genres, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	params.Set("language", "en-US")

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		slog.Debug("catalog returned non-200", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	return nil
}

func setPage(params url.Values, page int) {
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
}

// applyFilters narrows search results locally; the search endpoint does not
// accept genre or rating filters.
func applyFilters(movies []Movie, f Filters) []Movie {
	if len(f.GenreIDs) == 0 && f.MinRating <= 0 {
		return movies
	}
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if m.VoteAverage < f.MinRating {
			continue
		}
		if len(f.GenreIDs) > 0 && !hasAnyGenre(m.GenreIDs, f.GenreIDs) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func hasAnyGenre(have, want []int) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
