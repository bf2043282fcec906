// Package proxy serves a thin JSON mirror of catalog search and details
// with absolute image URLs.
package proxy

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"movierank/internal/catalog"
	"movierank/internal/middleware"
)

// Catalog is what the proxy needs from the catalog client.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, f catalog.Filters) ([]catalog.Movie, error)
	GetMovieDetails(ctx context.Context, id int64) (*catalog.MovieDetails, error)
}

// Movie is the proxy's movie shape. Missing images are null.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"releaseDate"`
	PosterURL   *string `json:"posterUrl"`
	BackdropURL *string `json:"backdropUrl"`
	VoteAverage float64 `json:"voteAverage"`
}

// MovieDetails adds genre names to Movie.
type MovieDetails struct {
	Movie
	Genres []string `json:"genres"`
}

// Server handles the proxy routes.
type Server struct {
	catalog Catalog
	images  catalog.Images
}

// New creates a proxy over c resolving images against images.
func New(c Catalog, images catalog.Images) *Server {
	return &Server{catalog: c, images: images}
}

// Routes builds the proxy router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/health", s.Health)
	r.Get("/api/movies/search", s.Search)
	r.Get("/api/movies/{id}", s.Details)
	return r
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Search proxies a title search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	movies, err := s.catalog.SearchMovies(r.Context(), q, catalog.Filters{})
	if err != nil {
		slog.Error("catalog search failed", "query", q, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch movies")
		return
	}

	out := make([]Movie, len(movies))
	for i, m := range movies {
		out[i] = s.toMovie(m)
	}
	middleware.JSONResponse(w, http.StatusOK, out)
}

// Details proxies one movie's full record.
func (s *Server) Details(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	details, err := s.catalog.GetMovieDetails(r.Context(), id)
	if err != nil {
		slog.Error("catalog details failed", "id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch movie details")
		return
	}

	out := MovieDetails{Movie: s.toMovie(details.Movie), Genres: make([]string, 0, len(details.Genres))}
	for _, g := range details.Genres {
		out.Genres = append(out.Genres, g.Name)
	}
	middleware.JSONResponse(w, http.StatusOK, out)
}

func (s *Server) toMovie(m catalog.Movie) Movie {
	return Movie{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		PosterURL:   optional(s.images.Poster(m.PosterPath)),
		BackdropURL: optional(s.images.Backdrop(m.BackdropPath)),
		VoteAverage: m.VoteAverage,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
