package store

import (
	"context"
	"errors"

	"movierank/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to
	// the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("already exists")
	// ErrRankMismatch is returned when a rank rewrite does not cover exactly
	// the movies of the list.
	ErrRankMismatch = errors.New("ids do not match list contents")
)

// Store defines the interface for data persistence operations.
type Store interface {
	// Identity operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// List operations, scoped to the owning user
	CreateList(ctx context.Context, list *models.List) error
	GetList(ctx context.Context, userID, id string) (*models.List, error)
	ListLists(ctx context.Context, userID string) ([]models.List, error)
	UpdateList(ctx context.Context, list *models.List) error
	DeleteList(ctx context.Context, userID, id string) error

	// Movie operations
	AddMovie(ctx context.Context, movie *models.Movie) error
	GetMovie(ctx context.Context, listID, id string) (*models.Movie, error)
	ListMovies(ctx context.Context, listID string) ([]models.Movie, error)
	UpdateMovieNotes(ctx context.Context, listID, id, notes string) error
	DeleteMovie(ctx context.Context, listID, id string) error
	ReplaceRanks(ctx context.Context, listID string, ids []string) error

	// Profile operations
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error)

	// Relationship operations
	Follow(ctx context.Context, rel models.Relationship) error
	Unfollow(ctx context.Context, rel models.Relationship) error
	ListFollowers(ctx context.Context, userID string) ([]models.Profile, error)
	ListFollowing(ctx context.Context, userID string) ([]models.Profile, error)
	CountFollows(ctx context.Context, userID string) (followers, following int, err error)

	// Podium operations
	GetPodium(ctx context.Context, userID string) ([]models.PodiumEntry, error)
	SetPodiumEntry(ctx context.Context, entry *models.PodiumEntry) error
	DeletePodiumEntry(ctx context.Context, userID string, rank int) error

	// Lifecycle
	Close() error
}
