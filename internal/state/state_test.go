package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"movierank/internal/models"
)

func TestUpdate_CopyOnWrite(t *testing.T) {
	s := New()
	s.Update(func(snap Snapshot) Snapshot {
		return snap.WithItems("l1", []models.Movie{{ID: "a", Rank: 1}})
	})
	before := s.Snapshot()

	s.Update(func(snap Snapshot) Snapshot {
		items := snap.ItemsFor("l1")
		items[0].Title = "changed"
		snap.Items["l2"] = nil
		return snap
	})

	assert.Empty(t, before.ItemsFor("l1")[0].Title, "earlier snapshot must not change")
	assert.NotContains(t, before.Items, "l2")
	assert.Equal(t, "changed", s.Snapshot().ItemsFor("l1")[0].Title)
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	s := New()
	var calls []string

	unsubA := s.Subscribe(func(snap Snapshot) { calls = append(calls, "a:"+snap.Query) })
	s.Subscribe(func(snap Snapshot) { calls = append(calls, "b:"+snap.Query) })

	s.Update(func(snap Snapshot) Snapshot { snap.Query = "x"; return snap })
	unsubA()
	s.Update(func(snap Snapshot) Snapshot { snap.Query = "y"; return snap })

	assert.Equal(t, []string{"a:x", "b:x", "b:y"}, calls)
}

func TestSignedIn(t *testing.T) {
	s := New()
	assert.False(t, s.Snapshot().SignedIn())
	s.Update(func(snap Snapshot) Snapshot {
		snap.Session = &models.Session{UserID: "u1"}
		return snap
	})
	assert.True(t, s.Snapshot().SignedIn())
}
