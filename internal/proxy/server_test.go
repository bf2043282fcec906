package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/catalog"
)

type fakeCatalog struct {
	err     error
	queries []string
}

func (f *fakeCatalog) SearchMovies(_ context.Context, query string, _ catalog.Filters) ([]catalog.Movie, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return []catalog.Movie{
		{ID: 949, Title: "Heat", Overview: "A heist.", ReleaseDate: "1995-12-15", PosterPath: "/heat.jpg", VoteAverage: 7.9},
		{ID: 348, Title: "Alien", Overview: "In space.", ReleaseDate: "1979-05-25", BackdropPath: "/alien-bg.jpg", VoteAverage: 8.1},
	}, nil
}

func (f *fakeCatalog) GetMovieDetails(_ context.Context, id int64) (*catalog.MovieDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.MovieDetails{
		Movie:  catalog.Movie{ID: id, Title: "Heat", Overview: "A heist.", ReleaseDate: "1995-12-15", PosterPath: "/heat.jpg", VoteAverage: 7.9},
		Genres: []catalog.Genre{{ID: 28, Name: "Action"}, {ID: 80, Name: "Crime"}},
	}, nil
}

func serve(t *testing.T, c Catalog, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := New(c, catalog.NewImages("")).Routes()
	req := httptest.NewRequest("GET", target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func assertGolden(t *testing.T, name string, rec *httptest.ResponseRecorder) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, rec.Body.Bytes())
}

func TestProxy(t *testing.T) {
	upstreamDown := fmt.Errorf("%w: status 503", catalog.ErrUpstream)

	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"health", "/health", nil, http.StatusOK},
		{"search", "/api/movies/search?q=heat", nil, http.StatusOK},
		{"search_missing_query", "/api/movies/search", nil, http.StatusBadRequest},
		{"search_upstream_error", "/api/movies/search?q=heat", upstreamDown, http.StatusInternalServerError},
		{"details", "/api/movies/949", nil, http.StatusOK},
		{"details_bad_id", "/api/movies/abc", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeCatalog{err: tt.err}, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assertGolden(t, tt.name, rec)
		})
	}
}

func TestSearch_BlankQueryNeverReachesCatalog(t *testing.T) {
	c := &fakeCatalog{}
	rec := serve(t, c, "/api/movies/search?q=%20%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, c.queries)
}

func TestSearch_TrimsQuery(t *testing.T) {
	c := &fakeCatalog{}
	rec := serve(t, c, "/api/movies/search?q=%20heat%20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"heat"}, c.queries)
}

func TestDetails_DetailsErrorIsGeneric(t *testing.T) {
	rec := serve(t, &fakeCatalog{err: catalog.ErrUpstream}, "/api/movies/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","message":"failed to fetch movie details"}`, rec.Body.String())
}

func TestCORSHeaders(t *testing.T) {
	rec := serve(t, &fakeCatalog{}, "/health")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
