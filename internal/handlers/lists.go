package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"movierank/internal/middleware"
	"movierank/internal/models"
)

type listPayload struct {
	Name     string             `json:"name"`
	Color    string             `json:"color"`
	Filters  models.ListFilters `json:"filters"`
	IsPinned *bool              `json:"is_pinned,omitempty"`
}

// ListLists returns the caller's lists, pinned first.
func (h *Handlers) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.store.ListLists(r.Context(), userID(r))
	if err != nil {
		respondServerError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, lists)
}

// CreateList creates an empty list.
func (h *Handlers) CreateList(w http.ResponseWriter, r *http.Request) {
	var body listPayload
	if !decode(w, r, &body) {
		return
	}

	list := &models.List{
		ID:       uuid.Must(uuid.NewV7()).String(),
		UserID:   userID(r),
		Name:     strings.TrimSpace(body.Name),
		Color:    body.Color,
		Filters:  body.Filters,
		IsPinned: body.IsPinned != nil && *body.IsPinned,
	}

	if err := list.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateList(r.Context(), list); err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, list)
}

// UpdateList updates an existing list.
func (h *Handlers) UpdateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.store.GetList(ctx, userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	var body listPayload
	if !decode(w, r, &body) {
		return
	}

	list.Name = strings.TrimSpace(body.Name)
	list.Color = body.Color
	list.Filters = body.Filters
	if body.IsPinned != nil {
		list.IsPinned = *body.IsPinned
	}

	if err := list.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateList(ctx, list); err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// PinList pins or unpins a list.
func (h *Handlers) PinList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.store.GetList(ctx, userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	var body struct {
		Pinned bool `json:"pinned"`
	}
	if !decode(w, r, &body) {
		return
	}

	list.IsPinned = body.Pinned
	if err := h.store.UpdateList(ctx, list); err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, list)
}

// DeleteList deletes a list and its items.
func (h *Handlers) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteList(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err, "list not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
