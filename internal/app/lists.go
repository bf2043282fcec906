package app

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"movierank/internal/models"
	"movierank/internal/state"
)

// LoadLists fetches the user's lists into state.
func (c *Client) LoadLists(ctx context.Context) ([]models.List, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, c.report("load lists", err)
	}
	lists, err := c.store.ListLists(ctx, userID)
	if err != nil {
		return nil, c.report("load lists", err)
	}
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		s.Lists = lists
		return s
	})
	return lists, nil
}

// CreateList validates and creates an empty list.
func (c *Client) CreateList(ctx context.Context, name, color string, filters models.ListFilters) (*models.List, error) {
	list := &models.List{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Name:    strings.TrimSpace(name),
		Color:   color,
		Filters: filters,
	}
	if err := list.Validate(); err != nil {
		return nil, c.report("create list", err)
	}

	userID, err := c.userID(ctx)
	if err != nil {
		return nil, c.report("create list", err)
	}
	list.UserID = userID
	if err := c.store.CreateList(ctx, list); err != nil {
		return nil, c.report("create list", err)
	}

	if _, err := c.LoadLists(ctx); err != nil {
		return nil, err
	}
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		return s.WithItems(list.ID, []models.Movie{})
	})
	return list, nil
}

// RenameList changes a list's name and color.
func (c *Client) RenameList(ctx context.Context, listID, name, color string) error {
	return c.updateList(ctx, "rename list", listID, func(l *models.List) {
		l.Name = strings.TrimSpace(name)
		l.Color = color
	})
}

// PinList pins or unpins a list. Pinned lists sort first.
func (c *Client) PinList(ctx context.Context, listID string, pinned bool) error {
	return c.updateList(ctx, "pin list", listID, func(l *models.List) {
		l.IsPinned = pinned
	})
}

func (c *Client) updateList(ctx context.Context, op, listID string, change func(*models.List)) error {
	userID, err := c.userID(ctx)
	if err != nil {
		return c.report(op, err)
	}
	list, err := c.store.GetList(ctx, userID, listID)
	if err != nil {
		return c.report(op, err)
	}
	change(list)
	if err := list.Validate(); err != nil {
		return c.report(op, err)
	}
	if err := c.store.UpdateList(ctx, list); err != nil {
		return c.report(op, err)
	}
	_, err = c.LoadLists(ctx)
	return err
}

// DeleteList removes a list and its items.
func (c *Client) DeleteList(ctx context.Context, listID string) error {
	userID, err := c.userID(ctx)
	if err != nil {
		return c.report("delete list", err)
	}
	if err := c.store.DeleteList(ctx, userID, listID); err != nil {
		return c.report("delete list", err)
	}
	c.state.Update(func(s state.Snapshot) state.Snapshot {
		s.Lists = slices.DeleteFunc(s.Lists, func(l models.List) bool { return l.ID == listID })
		delete(s.Items, listID)
		return s
	})
	return nil
}
