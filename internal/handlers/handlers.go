// Package handlers implements the application API server.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"movierank/internal/auth"
	"movierank/internal/catalog"
	"movierank/internal/middleware"
	"movierank/internal/models"
	"movierank/internal/store"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store   store.Store
	auth    *auth.Service
	images  catalog.Images
	anonKey string
}

// New creates a new Handlers instance.
func New(s store.Store, a *auth.Service, images catalog.Images, anonKey string) *Handlers {
	return &Handlers{
		store:   s,
		auth:    a,
		images:  images,
		anonKey: anonKey,
	}
}

// Routes builds the API router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAnonKey(h.anonKey))

		r.Post("/auth/signup", h.SignUp)
		r.Post("/auth/token", h.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Post("/auth/logout", h.SignOut)
			r.Get("/auth/session", h.GetSession)

			// List routes
			r.Get("/api/lists", h.ListLists)
			r.Post("/api/lists", h.CreateList)
			r.Put("/api/lists/{id}", h.UpdateList)
			r.Delete("/api/lists/{id}", h.DeleteList)
			r.Post("/api/lists/{id}/pin", h.PinList)

			// Ranked item routes
			r.Get("/api/lists/{id}/items", h.ListItems)
			r.Post("/api/lists/{id}/items", h.AddItem)
			r.Post("/api/lists/{id}/items/reorder", h.ReorderItems)
			r.Patch("/api/lists/{id}/items/{itemID}", h.UpdateItem)
			r.Delete("/api/lists/{id}/items/{itemID}", h.DeleteItem)

			// Profile and follow routes
			r.Get("/api/profile", h.GetProfile)
			r.Put("/api/profile", h.UpdateProfile)
			r.Get("/api/profiles/{username}", h.PublicProfile)
			r.Post("/api/profiles/{id}/follow", h.Follow)
			r.Delete("/api/profiles/{id}/follow", h.Unfollow)
			r.Get("/api/profiles/{id}/followers", h.Followers)
			r.Get("/api/profiles/{id}/following", h.Following)

			// Podium routes
			r.Get("/api/podium", h.GetPodium)
			r.Put("/api/podium/{rank}", h.SetPodium)
			r.Delete("/api/podium/{rank}", h.ClearPodium)
		})
	})
	return r
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionKey struct{}

// RequireSession resolves the bearer token into a session or rejects the
// request with 401.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		session, err := h.auth.SessionFromToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidSession) {
				respondError(w, http.StatusUnauthorized, err.Error())
				return
			}
			respondServerError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session attached by RequireSession.
func sessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey{}).(*models.Session)
	return s
}

func userID(r *http.Request) string {
	if s := sessionFrom(r.Context()); s != nil {
		return s.UserID
	}
	return ""
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, code int, message string) {
	middleware.ErrorResponse(w, code, message)
}

func respondServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// respondStoreError maps store and validation failures onto statuses.
func respondStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case models.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrRankMismatch):
		respondError(w, http.StatusConflict, "ids do not match list contents")
	default:
		respondServerError(w, err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := middleware.ParseJSONBody(r, v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
