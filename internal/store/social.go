package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"movierank/internal/models"
)

// UpsertProfile creates or updates a profile keyed by user id.
func (s *SQLStore) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = now()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO profiles (id, username, is_public, push_token, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			is_public = excluded.is_public,
			push_token = excluded.push_token,
			updated_at = excluded.updated_at
	`), p.ID, p.Username, p.IsPublic, p.PushToken, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %s: %w", p.Username, ErrConflict)
		}
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

const profileColumns = `id, username, is_public, push_token, updated_at`

func scanProfile(row interface{ Scan(...any) error }, p *models.Profile) error {
	return row.Scan(&p.ID, &p.Username, &p.IsPublic, &p.PushToken, &p.UpdatedAt)
}

// GetProfile retrieves a profile by user id.
func (s *SQLStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.getProfile(ctx, `id = ?`, id)
}

// GetProfileByUsername retrieves a profile by username.
func (s *SQLStore) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.getProfile(ctx, `username = ?`, username)
}

func (s *SQLStore) getProfile(ctx context.Context, where string, arg string) (*models.Profile, error) {
	p := &models.Profile{}
	err := scanProfile(s.db.QueryRowContext(ctx, s.q(`SELECT `+profileColumns+` FROM profiles WHERE `+where), arg), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Follow records that rel.FollowerID follows rel.FollowingID. Following
// twice is a no-op.
func (s *SQLStore) Follow(ctx context.Context, rel models.Relationship) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO relationships (follower_id, following_id) VALUES (?, ?)
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`), rel.FollowerID, rel.FollowingID)
	if err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

// Unfollow removes a follow edge.
func (s *SQLStore) Unfollow(ctx context.Context, rel models.Relationship) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM relationships WHERE follower_id = ? AND following_id = ?
	`), rel.FollowerID, rel.FollowingID)
	if err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return expectOne(res, "relationship", rel.FollowingID)
}

// ListFollowers returns the profiles following userID.
func (s *SQLStore) ListFollowers(ctx context.Context, userID string) ([]models.Profile, error) {
	return s.listProfiles(ctx, `
		SELECT p.id, p.username, p.is_public, p.push_token, p.updated_at
		FROM relationships r JOIN profiles p ON p.id = r.follower_id
		WHERE r.following_id = ? ORDER BY p.username
	`, userID)
}

// ListFollowing returns the profiles userID follows.
func (s *SQLStore) ListFollowing(ctx context.Context, userID string) ([]models.Profile, error) {
	return s.listProfiles(ctx, `
		SELECT p.id, p.username, p.is_public, p.push_token, p.updated_at
		FROM relationships r JOIN profiles p ON p.id = r.following_id
		WHERE r.follower_id = ? ORDER BY p.username
	`, userID)
}

func (s *SQLStore) listProfiles(ctx context.Context, query, userID string) ([]models.Profile, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// CountFollows returns follower and following counts for userID.
func (s *SQLStore) CountFollows(ctx context.Context, userID string) (followers, following int, err error) {
	err = s.db.QueryRowContext(ctx, s.q(`
		SELECT
			(SELECT COUNT(*) FROM relationships WHERE following_id = ?),
			(SELECT COUNT(*) FROM relationships WHERE follower_id = ?)
	`), userID, userID).Scan(&followers, &following)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count follows: %w", err)
	}
	return followers, following, nil
}

// GetPodium returns a user's podium ordered by place.
func (s *SQLStore) GetPodium(ctx context.Context, userID string) ([]models.PodiumEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT user_id, rank, tmdb_id, movie_data FROM podium
		WHERE user_id = ? ORDER BY rank ASC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get podium: %w", err)
	}
	defer rows.Close()

	entries := []models.PodiumEntry{}
	for rows.Next() {
		var e models.PodiumEntry
		if err := rows.Scan(&e.UserID, &e.Rank, &e.TMDBID, &e.Movie); err != nil {
			return nil, fmt.Errorf("failed to scan podium entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetPodiumEntry places a movie on the podium. A movie holds at most one
// place, so it is removed from any other place first.
func (s *SQLStore) SetPodiumEntry(ctx context.Context, e *models.PodiumEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`
		DELETE FROM podium WHERE user_id = ? AND tmdb_id = ? AND rank <> ?
	`), e.UserID, e.TMDBID, e.Rank); err != nil {
		return fmt.Errorf("failed to clear podium duplicate: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO podium (user_id, rank, tmdb_id, movie_data) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, rank) DO UPDATE SET
			tmdb_id = excluded.tmdb_id,
			movie_data = excluded.movie_data
	`), e.UserID, e.Rank, e.TMDBID, e.Movie); err != nil {
		return fmt.Errorf("failed to set podium entry: %w", err)
	}

	return tx.Commit()
}

// DeletePodiumEntry clears one podium place.
func (s *SQLStore) DeletePodiumEntry(ctx context.Context, userID string, rank int) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM podium WHERE user_id = ? AND rank = ?`), userID, rank)
	if err != nil {
		return fmt.Errorf("failed to delete podium entry: %w", err)
	}
	return expectOne(res, "podium place", fmt.Sprint(rank))
}
