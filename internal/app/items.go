package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"movierank/internal/catalog"
	"movierank/internal/models"
	"movierank/internal/optimistic"
	"movierank/internal/ranking"
	"movierank/internal/state"
	"movierank/internal/store"
)

// LoadItems fetches a list's ranked movies into state.
func (c *Client) LoadItems(ctx context.Context, listID string) ([]models.Movie, error) {
	if err := c.ownList(ctx, listID); err != nil {
		return nil, c.report("load items", err)
	}
	items, err := c.fetchItems(ctx, listID)
	if err != nil {
		return nil, c.report("load items", err)
	}
	return items, nil
}

// fetchItems reads a list's movies from the store into state.
func (c *Client) fetchItems(ctx context.Context, listID string) ([]models.Movie, error) {
	items, err := c.store.ListMovies(ctx, listID)
	if err != nil {
		return nil, err
	}
	c.setItems(listID, items)
	return items, nil
}

// ensureItems loads a list into state unless it is already there, so
// optimistic mutations start from the stored rows.
func (c *Client) ensureItems(ctx context.Context, listID string) error {
	if _, ok := c.state.Snapshot().Items[listID]; ok {
		return nil
	}
	_, err := c.fetchItems(ctx, listID)
	return err
}

// AddMovie appends a catalog movie to the end of a list.
func (c *Client) AddMovie(ctx context.Context, listID string, m catalog.Movie) (*models.Movie, error) {
	movie := &models.Movie{
		ID:           uuid.Must(uuid.NewV7()).String(),
		ListID:       listID,
		Title:        m.Title,
		ImagePath:    catalog.NormalizeImagePath(m.PosterPath),
		BackdropPath: catalog.NormalizeImagePath(m.BackdropPath),
		TMDBID:       m.ID,
		ReleaseDate:  m.ReleaseDate,
		VoteAverage:  m.VoteAverage,
	}
	if err := movie.Validate(); err != nil {
		return nil, c.report("add movie", err)
	}
	if err := c.ownList(ctx, listID); err != nil {
		return nil, c.report("add movie", err)
	}
	if err := c.store.AddMovie(ctx, movie); err != nil {
		return nil, c.report("add movie", err)
	}

	// The store assigns the rank. Appending locally is only right when the
	// cached list is exactly the rows before it.
	local, cached := c.state.Snapshot().Items[listID]
	if cached && movie.Rank == len(local)+1 {
		c.state.Update(func(s state.Snapshot) state.Snapshot {
			return s.WithItems(listID, ranking.Append(s.ItemsFor(listID), *movie))
		})
		return movie, nil
	}
	if _, err := c.fetchItems(ctx, listID); err != nil {
		return movie, c.report("add movie", err)
	}
	return movie, nil
}

// UpdateNotes changes the notes kept on a ranked movie.
func (c *Client) UpdateNotes(ctx context.Context, listID, itemID, notes string) error {
	if err := models.ValidateNotes(notes); err != nil {
		return c.report("update notes", err)
	}
	if err := c.ownList(ctx, listID); err != nil {
		return c.report("update notes", err)
	}
	if err := c.store.UpdateMovieNotes(ctx, listID, itemID, notes); err != nil {
		return c.report("update notes", err)
	}
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		items := s.ItemsFor(listID)
		if i := indexOf(items, itemID); i >= 0 {
			items[i].Notes = notes
		}
		return s
	})
	return nil
}

// DeleteMovie removes a movie. The survivors are renumbered locally right
// away and reloaded if the delete fails.
func (c *Client) DeleteMovie(ctx context.Context, listID, itemID string) error {
	if err := c.ownList(ctx, listID); err != nil {
		return c.report("delete movie", err)
	}
	if err := c.ensureItems(ctx, listID); err != nil {
		return c.report("delete movie", err)
	}
	err := optimistic.Run(ctx, c.itemsCell(listID), optimistic.Mutation[[]models.Movie]{
		Name: "delete movie",
		Apply: func(items []models.Movie) ([]models.Movie, error) {
			i := indexOf(items, itemID)
			if i < 0 {
				return nil, fmt.Errorf("movie %s: %w", itemID, store.ErrNotFound)
			}
			return ranking.RemoveAt(items, i)
		},
		Commit: func(ctx context.Context, _ []models.Movie) error {
			return c.store.DeleteMovie(ctx, listID, itemID)
		},
		Reconcile: c.reloadItems(listID),
	})
	return c.report("delete movie", err)
}

// ApplyReorder moves the item at from to to. The new order is visible in
// state before the write; if the write fails the list is reloaded from the
// store and a *optimistic.PersistenceError is returned.
func (c *Client) ApplyReorder(ctx context.Context, listID string, from, to int) error {
	if err := c.ownList(ctx, listID); err != nil {
		return c.report("reorder", err)
	}
	if err := c.ensureItems(ctx, listID); err != nil {
		return c.report("reorder", err)
	}
	err := optimistic.Run(ctx, c.itemsCell(listID), optimistic.Mutation[[]models.Movie]{
		Name: "reorder",
		Apply: func(items []models.Movie) ([]models.Movie, error) {
			return ranking.Reorder(items, from, to)
		},
		Commit: func(ctx context.Context, items []models.Movie) error {
			ids := make([]string, len(items))
			for i, m := range items {
				ids[i] = m.ID
			}
			return c.store.ReplaceRanks(ctx, listID, ids)
		},
		Reconcile: c.reloadItems(listID),
	})
	return c.report("reorder", err)
}

// DropAt finishes a drag gesture: the item at from was released dragOffset
// units away from its slot.
func (c *Client) DropAt(ctx context.Context, listID string, from int, dragOffset, rowHeight float64) error {
	if err := c.ownList(ctx, listID); err != nil {
		return c.report("reorder", err)
	}
	if err := c.ensureItems(ctx, listID); err != nil {
		return c.report("reorder", err)
	}
	n := len(c.state.Snapshot().ItemsFor(listID))
	to := ranking.DropIndex(from, dragOffset, rowHeight, n)
	if to == from {
		return nil
	}
	return c.ApplyReorder(ctx, listID, from, to)
}

func (c *Client) ownList(ctx context.Context, listID string) error {
	userID, err := c.userID(ctx)
	if err != nil {
		return err
	}
	_, err = c.store.GetList(ctx, userID, listID)
	return err
}

func (c *Client) setItems(listID string, items []models.Movie) {
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		return s.WithItems(listID, items)
	})
}

func (c *Client) itemsCell(listID string) optimistic.Cell[[]models.Movie] {
	return optimistic.FuncCell[[]models.Movie]{
		Get: func() []models.Movie { return slices.Clone(c.state.Snapshot().ItemsFor(listID)) },
		Set: func(items []models.Movie) { c.setItems(listID, items) },
	}
}

func (c *Client) reloadItems(listID string) func(context.Context) ([]models.Movie, error) {
	return func(ctx context.Context) ([]models.Movie, error) {
		return c.store.ListMovies(ctx, listID)
	}
}

func indexOf(items []models.Movie, id string) int {
	return slices.IndexFunc(items, func(m models.Movie) bool { return m.ID == id })
}
