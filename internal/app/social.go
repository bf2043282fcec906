package app

import (
	"context"
	"strings"

	"movierank/internal/catalog"
	"movierank/internal/models"
	"movierank/internal/state"
)

// LoadProfile fetches the user's profile into state. A user without a
// profile yet gets nil.
func (c *Client) LoadProfile(ctx context.Context) (*models.Profile, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, c.report("load profile", err)
	}
	profile, err := c.store.GetProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, c.report("load profile", err)
	}
	c.setProfile(profile)
	return profile, nil
}

// UpdateProfile sets the username and visibility.
func (c *Client) UpdateProfile(ctx context.Context, username string, isPublic bool) (*models.Profile, error) {
	profile := &models.Profile{
		Username: strings.TrimSpace(username),
		IsPublic: isPublic,
	}
	if err := profile.Validate(); err != nil {
		return nil, c.report("update profile", err)
	}
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, c.report("update profile", err)
	}
	profile.ID = userID
	if err := c.store.UpsertProfile(ctx, profile); err != nil {
		return nil, c.report("update profile", err)
	}
	c.setProfile(profile)
	return profile, nil
}

func (c *Client) setProfile(p *models.Profile) {
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		s.Profile = p
		return s
	})
}

// Follow starts following another user.
func (c *Client) Follow(ctx context.Context, targetID string) error {
	rel, err := c.relationship(ctx, targetID)
	if err != nil {
		return c.report("follow", err)
	}
	return c.report("follow", c.store.Follow(ctx, rel))
}

// Unfollow stops following another user.
func (c *Client) Unfollow(ctx context.Context, targetID string) error {
	rel, err := c.relationship(ctx, targetID)
	if err != nil {
		return c.report("unfollow", err)
	}
	return c.report("unfollow", c.store.Unfollow(ctx, rel))
}

func (c *Client) relationship(ctx context.Context, targetID string) (models.Relationship, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return models.Relationship{}, err
	}
	rel := models.Relationship{FollowerID: userID, FollowingID: targetID}
	return rel, rel.Validate()
}

// LoadPodium fetches the user's podium into state.
func (c *Client) LoadPodium(ctx context.Context) ([]models.PodiumEntry, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, c.report("load podium", err)
	}
	podium, err := c.store.GetPodium(ctx, userID)
	if err != nil {
		return nil, c.report("load podium", err)
	}
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		s.Podium = podium
		return s
	})
	return podium, nil
}

// SetPodium places a catalog movie at rank 1..3. A movie already on the
// podium moves rather than appearing twice.
func (c *Client) SetPodium(ctx context.Context, rank int, m catalog.Movie) error {
	entry := &models.PodiumEntry{
		Rank:   rank,
		TMDBID: m.ID,
		Movie: models.PodiumMovie{
			Title:       m.Title,
			PosterPath:  catalog.NormalizeImagePath(m.PosterPath),
			ReleaseDate: m.ReleaseDate,
			VoteAverage: m.VoteAverage,
		},
	}
	if err := entry.Validate(); err != nil {
		return c.report("set podium", err)
	}
	userID, err := c.userID(ctx)
	if err != nil {
		return c.report("set podium", err)
	}
	entry.UserID = userID
	if err := c.store.SetPodiumEntry(ctx, entry); err != nil {
		return c.report("set podium", err)
	}
	_, err = c.LoadPodium(ctx)
	return err
}

// ClearPodium empties one podium place.
func (c *Client) ClearPodium(ctx context.Context, rank int) error {
	userID, err := c.userID(ctx)
	if err != nil {
		return c.report("clear podium", err)
	}
	if err := c.store.DeletePodiumEntry(ctx, userID, rank); err != nil {
		return c.report("clear podium", err)
	}
	_, err = c.LoadPodium(ctx)
	return err
}
