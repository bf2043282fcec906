// Package ranking keeps ordered collections of ranked items consistent.
//
// Every function here returns a sequence whose ranks are exactly 1..N in
// position order. Inputs are never mutated.
package ranking

import (
	"errors"
	"fmt"
	"math"
)

// ErrIndexOutOfRange is returned when a position does not address an item.
var ErrIndexOutOfRange = errors.New("index out of range")

// Ranked is satisfied by a pointer to an element that carries a 1-based rank.
type Ranked[T any] interface {
	*T
	GetRank() int
	SetRank(int)
}

// Reorder removes the element at from and reinserts it at to, where to is
// interpreted against the sequence after removal. All ranks are rewritten.
func Reorder[T any, P Ranked[T]](items []T, from, to int) ([]T, error) {
	n := len(items)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("reorder from %d of %d: %w", from, n, ErrIndexOutOfRange)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("reorder to %d of %d: %w", to, n, ErrIndexOutOfRange)
	}

	out := make([]T, 0, n)
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	moved := items[from]
	out = append(out, moved)
	copy(out[to+1:], out[to:n-1])
	out[to] = moved

	renumber[T, P](out)
	return out, nil
}

// Renumber returns a copy of items with rank = position + 1.
func Renumber[T any, P Ranked[T]](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	renumber[T, P](out)
	return out
}

// Append returns items with item added last at rank len+1.
func Append[T any, P Ranked[T]](items []T, item T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	out = append(out, item)
	renumber[T, P](out)
	return out
}

// RemoveAt deletes the element at p and renumbers the survivors.
func RemoveAt[T any, P Ranked[T]](items []T, p int) ([]T, error) {
	if p < 0 || p >= len(items) {
		return nil, fmt.Errorf("remove %d of %d: %w", p, len(items), ErrIndexOutOfRange)
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:p]...)
	out = append(out, items[p+1:]...)
	renumber[T, P](out)
	return out, nil
}

// Contiguous checks that ranks read 1..N in position order.
func Contiguous[T any, P Ranked[T]](items []T) error {
	for i := range items {
		if got := P(&items[i]).GetRank(); got != i+1 {
			return fmt.Errorf("position %d has rank %d, want %d", i, got, i+1)
		}
	}
	return nil
}

// DropIndex translates a continuous drag offset into a destination index.
// The result is clamped into [0, n-1].
func DropIndex(from int, dragOffset, rowHeight float64, n int) int {
	if n <= 0 {
		return 0
	}
	to := from
	if rowHeight > 0 {
		to = from + int(math.Round(dragOffset/rowHeight))
	}
	return max(0, min(to, n-1))
}

func renumber[T any, P Ranked[T]](items []T) {
	for i := range items {
		P(&items[i]).SetRank(i + 1)
	}
}
