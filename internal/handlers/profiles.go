package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"movierank/internal/catalog"
	"movierank/internal/middleware"
	"movierank/internal/models"
)

// GetProfile returns the caller's profile.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetProfile(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, err, "profile not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profile)
}

// UpdateProfile creates or updates the caller's profile.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username  string `json:"username"`
		IsPublic  bool   `json:"is_public"`
		PushToken string `json:"push_token"`
	}
	if !decode(w, r, &body) {
		return
	}

	profile := &models.Profile{
		ID:        userID(r),
		Username:  strings.TrimSpace(body.Username),
		IsPublic:  body.IsPublic,
		PushToken: body.PushToken,
	}
	if err := profile.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpsertProfile(r.Context(), profile); err != nil {
		respondStoreError(w, err, "profile not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profile)
}

// publicProfileView is what other users see of an account.
type publicProfileView struct {
	Profile        models.Profile    `json:"profile"`
	FollowerCount  int               `json:"follower_count"`
	FollowingCount int               `json:"following_count"`
	Podium         []podiumEntryView `json:"podium"`
	Lists          []listView        `json:"lists,omitempty"`
}

// listView is a list with its ranked movies resolved for display.
type listView struct {
	models.List
	Items []movieView `json:"items"`
}

// PublicProfile returns what other users see of an account: counts and
// podium always, lists only when the profile is public or the caller's own.
func (h *Handlers) PublicProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.store.GetProfileByUsername(ctx, chi.URLParam(r, "username"))
	if err != nil {
		respondStoreError(w, err, "profile not found")
		return
	}

	followers, following, err := h.store.CountFollows(ctx, profile.ID)
	if err != nil {
		respondServerError(w, err)
		return
	}
	podium, err := h.store.GetPodium(ctx, profile.ID)
	if err != nil {
		respondServerError(w, err)
		return
	}

	out := publicProfileView{
		Profile:        *profile,
		FollowerCount:  followers,
		FollowingCount: following,
		Podium:         h.podiumView(podium),
	}

	if profile.IsPublic || profile.ID == userID(r) {
		lists, err := h.store.ListLists(ctx, profile.ID)
		if err != nil {
			respondServerError(w, err)
			return
		}
		out.Lists = make([]listView, len(lists))
		for i, l := range lists {
			movies, err := h.store.ListMovies(ctx, l.ID)
			if err != nil {
				respondServerError(w, err)
				return
			}
			out.Lists[i] = listView{List: l, Items: h.movieViews(movies)}
		}
	}

	middleware.JSONResponse(w, http.StatusOK, out)
}

func (h *Handlers) relationship(r *http.Request) models.Relationship {
	return models.Relationship{FollowerID: userID(r), FollowingID: chi.URLParam(r, "id")}
}

// Follow makes the caller follow the user in the URL.
func (h *Handlers) Follow(w http.ResponseWriter, r *http.Request) {
	rel := h.relationship(r)
	if err := rel.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.store.GetProfile(r.Context(), rel.FollowingID); err != nil {
		respondStoreError(w, err, "profile not found")
		return
	}
	if err := h.store.Follow(r.Context(), rel); err != nil {
		respondStoreError(w, err, "profile not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unfollow removes the caller's follow of the user in the URL.
func (h *Handlers) Unfollow(w http.ResponseWriter, r *http.Request) {
	rel := h.relationship(r)
	if err := rel.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Unfollow(r.Context(), rel); err != nil {
		respondStoreError(w, err, "not following")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Followers lists who follows the user in the URL.
func (h *Handlers) Followers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListFollowers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServerError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profiles)
}

// Following lists whom the user in the URL follows.
func (h *Handlers) Following(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListFollowing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServerError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, profiles)
}

// podiumEntryView is a podium place with its poster resolved.
type podiumEntryView struct {
	models.PodiumEntry
	PosterURL string `json:"poster_url,omitempty"`
}

func (h *Handlers) podiumView(entries []models.PodiumEntry) []podiumEntryView {
	out := make([]podiumEntryView, len(entries))
	for i, e := range entries {
		out[i] = podiumEntryView{PodiumEntry: e, PosterURL: h.images.Poster(e.Movie.PosterPath)}
	}
	return out
}

func parseRank(r *http.Request) (int, bool) {
	rank, err := strconv.Atoi(chi.URLParam(r, "rank"))
	if err != nil || rank < 1 || rank > models.PodiumSize {
		return 0, false
	}
	return rank, true
}

// GetPodium returns the caller's podium.
func (h *Handlers) GetPodium(w http.ResponseWriter, r *http.Request) {
	podium, err := h.store.GetPodium(r.Context(), userID(r))
	if err != nil {
		respondServerError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.podiumView(podium))
}

// SetPodium places a movie at a podium rank, moving it if it already holds
// another place.
func (h *Handlers) SetPodium(w http.ResponseWriter, r *http.Request) {
	rank, ok := parseRank(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "podium rank must be between 1 and 3")
		return
	}

	var body struct {
		TMDBID int64              `json:"tmdb_id"`
		Movie  models.PodiumMovie `json:"movie_data"`
	}
	if !decode(w, r, &body) {
		return
	}

	body.Movie.PosterPath = catalog.NormalizeImagePath(body.Movie.PosterPath)
	entry := &models.PodiumEntry{UserID: userID(r), Rank: rank, TMDBID: body.TMDBID, Movie: body.Movie}
	if err := entry.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SetPodiumEntry(r.Context(), entry); err != nil {
		respondStoreError(w, err, "podium not found")
		return
	}

	h.GetPodium(w, r)
}

// ClearPodium empties a podium rank.
func (h *Handlers) ClearPodium(w http.ResponseWriter, r *http.Request) {
	rank, ok := parseRank(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "podium rank must be between 1 and 3")
		return
	}
	if err := h.store.DeletePodiumEntry(r.Context(), userID(r), rank); err != nil {
		respondStoreError(w, err, "podium place is empty")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
