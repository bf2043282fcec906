package handlers

import (
	"errors"
	"net/http"

	"movierank/internal/auth"
	"movierank/internal/middleware"
	"movierank/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers an account and returns its first session.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decode(w, r, &body) {
		return
	}

	session, err := h.auth.SignUp(r.Context(), body.Email, body.Password)
	switch {
	case err == nil:
		middleware.JSONResponse(w, http.StatusCreated, session)
	case models.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondServerError(w, err)
	}
}

// SignIn exchanges email and password for a session.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decode(w, r, &body) {
		return
	}

	session, err := h.auth.SignInWithPassword(r.Context(), body.Email, body.Password)
	switch {
	case err == nil:
		middleware.JSONResponse(w, http.StatusOK, session)
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		respondServerError(w, err)
	}
}

// SignOut revokes the calling session.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	if err := h.auth.SignOut(r.Context(), session.Token); err != nil {
		respondServerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession returns the calling session.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, sessionFrom(r.Context()))
}
