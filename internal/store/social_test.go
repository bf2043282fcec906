package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"movierank/internal/models"
)

func TestUsersAndSessions(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "  Ada@Example.com ", PasswordHash: "hash"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(ctx, &models.User{ID: "u2", Email: "ada@example.com", PasswordHash: "x"}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != "u1" || got.PasswordHash != "hash" {
		t.Errorf("unexpected user: %+v", got)
	}

	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	if err := store.CreateSession(ctx, &models.Session{Token: "tok", UserID: "u1", ExpiresAt: expires}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	session, err := store.GetSession(ctx, "tok")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.Email != "ada@example.com" || !session.ExpiresAt.Equal(expires) {
		t.Errorf("unexpected session: %+v", session)
	}

	if err := store.DeleteSession(ctx, "tok"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "tok"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpsertProfile(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	createUser(t, store, "u1")
	createUser(t, store, "u2")

	p := &models.Profile{ID: "u1", Username: "ada", IsPublic: true}
	if err := store.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}
	p.Username = "ada_l"
	p.IsPublic = false
	if err := store.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("second UpsertProfile failed: %v", err)
	}

	got, err := store.GetProfileByUsername(ctx, "ada_l")
	if err != nil {
		t.Fatalf("GetProfileByUsername failed: %v", err)
	}
	if got.ID != "u1" || got.IsPublic {
		t.Errorf("unexpected profile: %+v", got)
	}

	taken := &models.Profile{ID: "u2", Username: "ada_l"}
	if err := store.UpsertProfile(ctx, taken); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for taken username, got %v", err)
	}

	if _, err := store.GetProfile(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFollowAndCounts(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	for _, id := range []string{"u1", "u2", "u3"} {
		createUser(t, store, id)
		store.UpsertProfile(ctx, &models.Profile{ID: id, Username: "user_" + id, IsPublic: true})
	}

	store.Follow(ctx, models.Relationship{FollowerID: "u2", FollowingID: "u1"})
	store.Follow(ctx, models.Relationship{FollowerID: "u3", FollowingID: "u1"})
	// Following twice is a no-op.
	if err := store.Follow(ctx, models.Relationship{FollowerID: "u3", FollowingID: "u1"}); err != nil {
		t.Fatalf("repeat Follow failed: %v", err)
	}
	store.Follow(ctx, models.Relationship{FollowerID: "u1", FollowingID: "u2"})

	followers, following, err := store.CountFollows(ctx, "u1")
	if err != nil {
		t.Fatalf("CountFollows failed: %v", err)
	}
	if followers != 2 || following != 1 {
		t.Errorf("expected 2 followers and 1 following, got %d and %d", followers, following)
	}

	list, err := store.ListFollowers(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFollowers failed: %v", err)
	}
	if len(list) != 2 || list[0].Username != "user_u2" {
		t.Errorf("unexpected followers: %+v", list)
	}

	following2, _ := store.ListFollowing(ctx, "u1")
	if len(following2) != 1 || following2[0].ID != "u2" {
		t.Errorf("unexpected following: %+v", following2)
	}

	if err := store.Unfollow(ctx, models.Relationship{FollowerID: "u2", FollowingID: "u1"}); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if err := store.Unfollow(ctx, models.Relationship{FollowerID: "u2", FollowingID: "u1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound unfollowing twice, got %v", err)
	}
}

func TestPodium(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	createUser(t, store, "u1")

	heat := models.PodiumMovie{Title: "Heat", PosterPath: "/heat.jpg"}
	alien := models.PodiumMovie{Title: "Alien"}

	store.SetPodiumEntry(ctx, &models.PodiumEntry{UserID: "u1", Rank: 1, TMDBID: 949, Movie: heat})
	store.SetPodiumEntry(ctx, &models.PodiumEntry{UserID: "u1", Rank: 2, TMDBID: 348, Movie: alien})

	// Moving Heat to third place vacates first place.
	if err := store.SetPodiumEntry(ctx, &models.PodiumEntry{UserID: "u1", Rank: 3, TMDBID: 949, Movie: heat}); err != nil {
		t.Fatalf("SetPodiumEntry failed: %v", err)
	}

	podium, err := store.GetPodium(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPodium failed: %v", err)
	}
	if len(podium) != 2 {
		t.Fatalf("expected 2 podium entries, got %+v", podium)
	}
	if podium[0].Rank != 2 || podium[0].Movie.Title != "Alien" {
		t.Errorf("unexpected first entry: %+v", podium[0])
	}
	if podium[1].Rank != 3 || podium[1].Movie.PosterPath != "/heat.jpg" {
		t.Errorf("unexpected second entry: %+v", podium[1])
	}

	if err := store.DeletePodiumEntry(ctx, "u1", 2); err != nil {
		t.Fatalf("DeletePodiumEntry failed: %v", err)
	}
	if err := store.DeletePodiumEntry(ctx, "u1", 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
