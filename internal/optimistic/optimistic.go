// Package optimistic applies a state change locally before the remote write
// confirms it, and reloads the authoritative state when the write fails.
//
// A mutation runs in two phases:
//
//  1. Apply computes the new state from the current one and stores it
//     locally before any I/O happens.
//  2. Commit pushes the new state to the remote store. If it fails, Reconcile
//     loads the authoritative state and it overwrites the local one.
//
// There is no retry and no merge: the last authoritative read wins.
package optimistic

import (
	"context"
	"fmt"
	"log/slog"
)

// Cell is the slot of local state a mutation reads and writes.
type Cell[S any] interface {
	Load() S
	Store(S)
}

// Mutation describes one optimistic change.
type Mutation[S any] struct {
	// Name identifies the mutation in errors and logs.
	Name string
	// Apply computes the optimistic state. An error aborts before any
	// local or remote change.
	Apply func(current S) (S, error)
	// Commit persists the optimistic state remotely.
	Commit func(ctx context.Context, next S) error
	// Reconcile reloads the authoritative state after a failed commit.
	Reconcile func(ctx context.Context) (S, error)
}

// PersistenceError is returned when the remote write of a mutation fails.
type PersistenceError struct {
	Op string
	// Err is the commit failure.
	Err error
	// ReloadErr is set when the reload after the failure also failed.
	ReloadErr error
}

func (e *PersistenceError) Error() string {
	if e.ReloadErr != nil {
		return fmt.Sprintf("%s: persist failed: %v (reload failed: %v)", e.Op, e.Err, e.ReloadErr)
	}
	return fmt.Sprintf("%s: persist failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Run executes m against cell. The optimistic state is visible through cell
// before Commit is called.
//
// When the commit fails and the reload also fails, cell is restored to the
// state it held before Apply.
func Run[S any](ctx context.Context, cell Cell[S], m Mutation[S]) error {
	prev := cell.Load()

	next, err := m.Apply(prev)
	if err != nil {
		return err
	}
	cell.Store(next)

	if err := m.Commit(ctx, next); err != nil {
		perr := &PersistenceError{Op: m.Name, Err: err}
		slog.Warn("optimistic commit failed, reloading", "op", m.Name, "error", err)

		if m.Reconcile == nil {
			cell.Store(prev)
			return perr
		}
		fresh, rerr := m.Reconcile(ctx)
		if rerr != nil {
			perr.ReloadErr = rerr
			cell.Store(prev)
			return perr
		}
		cell.Store(fresh)
		return perr
	}
	return nil
}

// FuncCell adapts a getter and setter pair to a Cell.
type FuncCell[S any] struct {
	Get func() S
	Set func(S)
}

func (c FuncCell[S]) Load() S    { return c.Get() }
func (c FuncCell[S]) Store(v S) { c.Set(v) }
