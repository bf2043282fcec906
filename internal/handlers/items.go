package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"movierank/internal/catalog"
	"movierank/internal/middleware"
	"movierank/internal/models"
	"movierank/internal/ranking"
)

// movieView is a ranked movie with its image paths resolved.
type movieView struct {
	models.Movie
	ImageURL    string `json:"image_url,omitempty"`
	BackdropURL string `json:"backdrop_url,omitempty"`
}

func (h *Handlers) movieViews(movies []models.Movie) []movieView {
	out := make([]movieView, len(movies))
	for i, m := range movies {
		out[i] = h.movieView(m)
	}
	return out
}

func (h *Handlers) movieView(m models.Movie) movieView {
	return movieView{
		Movie:       m,
		ImageURL:    h.images.Poster(m.ImagePath),
		BackdropURL: h.images.Backdrop(m.BackdropPath),
	}
}

// ownedList loads the list named in the URL if the caller owns it, writing
// the error response otherwise.
func (h *Handlers) ownedList(w http.ResponseWriter, r *http.Request) (*models.List, bool) {
	list, err := h.store.GetList(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "list not found")
		return nil, false
	}
	return list, true
}

// ListItems returns a list with its ranked movies.
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	movies, err := h.store.ListMovies(r.Context(), list.ID)
	if err != nil {
		respondServerError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.movieViews(movies))
}

// AddItem appends a movie to the end of a list.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	var body struct {
		TMDBID       int64   `json:"tmdb_id"`
		Title        string  `json:"title"`
		PosterPath   string  `json:"poster_path"`
		BackdropPath string  `json:"backdrop_path"`
		ReleaseDate  string  `json:"release_date"`
		VoteAverage  float64 `json:"vote_average"`
		Notes        string  `json:"notes"`
	}
	if !decode(w, r, &body) {
		return
	}

	movie := &models.Movie{
		ID:           uuid.Must(uuid.NewV7()).String(),
		ListID:       list.ID,
		Title:        strings.TrimSpace(body.Title),
		ImagePath:    catalog.NormalizeImagePath(body.PosterPath),
		BackdropPath: catalog.NormalizeImagePath(body.BackdropPath),
		TMDBID:       body.TMDBID,
		ReleaseDate:  body.ReleaseDate,
		VoteAverage:  body.VoteAverage,
		Notes:        body.Notes,
	}

	if err := movie.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Rank is assigned by the store at the end of the list
	if err := h.store.AddMovie(r.Context(), movie); err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, h.movieView(*movie))
}

// UpdateItem changes the notes on a ranked movie.
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var body struct {
		Notes string `json:"notes"`
	}
	if !decode(w, r, &body) {
		return
	}

	movie, err := h.store.GetMovie(ctx, list.ID, itemID)
	if err != nil {
		respondStoreError(w, err, "item not found")
		return
	}
	movie.Notes = body.Notes
	if err := movie.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateMovieNotes(ctx, list.ID, itemID, body.Notes); err != nil {
		respondStoreError(w, err, "item not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.movieView(*movie))
}

// DeleteItem removes a movie; the rest of the list is renumbered.
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteMovie(r.Context(), list.ID, chi.URLParam(r, "itemID")); err != nil {
		respondStoreError(w, err, "item not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderItems rewrites the ranks of a list. The body is either a single
// move ({"from": 0, "to": 2}) or the complete new order ({"ids": [...]}).
func (h *Handlers) ReorderItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, ok := h.ownedList(w, r)
	if !ok {
		return
	}

	var payload struct {
		From *int     `json:"from"`
		To   *int     `json:"to"`
		IDs  []string `json:"ids"`
	}
	if !decode(w, r, &payload) {
		return
	}

	ids := payload.IDs
	switch {
	case payload.From != nil && payload.To != nil && ids == nil:
		movies, err := h.store.ListMovies(ctx, list.ID)
		if err != nil {
			respondServerError(w, err)
			return
		}
		reordered, err := ranking.Reorder(movies, *payload.From, *payload.To)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		ids = make([]string, len(reordered))
		for i, m := range reordered {
			ids[i] = m.ID
		}
	case payload.From == nil && payload.To == nil && ids != nil:
	default:
		respondError(w, http.StatusBadRequest, "provide either from and to, or ids")
		return
	}

	if err := h.store.ReplaceRanks(ctx, list.ID, ids); err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	movies, err := h.store.ListMovies(ctx, list.ID)
	if err != nil {
		respondServerError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.movieViews(movies))
}
