package debounce_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/debounce"
	"movierank/internal/testutil"
)

type recorder struct {
	calls   []string
	results []string
	errs    []error
}

func newSearcher(t *testing.T, clock *testutil.ManualClock, rec *recorder, fallback bool) *debounce.Searcher[[]string] {
	t.Helper()
	cfg := debounce.SearchConfig[[]string]{
		Clock: clock,
		Fetch: func(ctx context.Context, q string) ([]string, error) {
			rec.calls = append(rec.calls, q)
			return []string{"result:" + q}, nil
		},
		OnResult: func(q string, r []string, err error) {
			rec.results = append(rec.results, q)
			rec.errs = append(rec.errs, err)
		},
	}
	if fallback {
		cfg.Fallback = func(ctx context.Context) ([]string, error) {
			rec.calls = append(rec.calls, "trending")
			return []string{"trending"}, nil
		}
	}
	return debounce.NewSearcher(context.Background(), cfg)
}

func TestSearcher_TypingBurstIssuesOneCall(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := newSearcher(t, clock, rec, false)

	s.OnQueryChange("a")
	clock.Advance(100 * time.Millisecond)
	s.OnQueryChange("ab")
	clock.Advance(100 * time.Millisecond)
	s.OnQueryChange("abc")

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, rec.calls)

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"abc"}, rec.calls)
}

func TestSearcher_ShortQueryIssuesNoCall(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := newSearcher(t, clock, rec, false)

	s.OnQueryChange("a")
	clock.Advance(time.Second)

	assert.Empty(t, rec.calls)
	// Results are cleared immediately.
	assert.Equal(t, []string{"a"}, rec.results)
}

func TestSearcher_MinLengthQueryIssuesOneCall(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := newSearcher(t, clock, rec, false)

	s.OnQueryChange("ab")
	clock.Advance(debounce.DefaultWindow)

	assert.Equal(t, []string{"ab"}, rec.calls)
}

func TestSearcher_ShortQueryCancelsPending(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := newSearcher(t, clock, rec, false)

	s.OnQueryChange("star")
	clock.Advance(200 * time.Millisecond)
	s.OnQueryChange("s")
	clock.Advance(time.Second)

	assert.Empty(t, rec.calls)
	assert.Equal(t, 0, clock.PendingCount())
}

func TestSearcher_ShortQueryFallsBackToTrending(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := newSearcher(t, clock, rec, true)

	s.OnQueryChange(" ")
	clock.Advance(0)

	assert.Equal(t, []string{"trending"}, rec.calls)
	assert.Equal(t, []string{"", ""}, rec.results)
}

func TestSearcher_NormalizesQuery(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := newSearcher(t, clock, rec, false)

	// "e" followed by a combining acute accent composes to a single rune.
	s.OnQueryChange("  Ame\u0301lie ")
	clock.Advance(debounce.DefaultWindow)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "Am\u00e9lie", rec.calls[0])
	assert.Equal(t, "Am\u00e9lie", s.Query())
}

func TestSearcher_DropsSupersededResult(t *testing.T) {
	clock := testutil.NewManualClock()
	var delivered []string
	var s *debounce.Searcher[string]
	s = debounce.NewSearcher(context.Background(), debounce.SearchConfig[string]{
		Clock: clock,
		Fetch: func(ctx context.Context, q string) (string, error) {
			if q == "first" {
				// The user edits while the first call is in flight.
				s.OnQueryChange("second")
			}
			return q, nil
		},
		OnResult: func(q string, r string, err error) {
			delivered = append(delivered, r)
		},
	})

	s.OnQueryChange("first")
	clock.Advance(debounce.DefaultWindow)
	assert.Empty(t, delivered)

	clock.Advance(debounce.DefaultWindow)
	assert.Equal(t, []string{"second"}, delivered)
}

func TestSearcher_EditWaitsForInFlightDelivery(t *testing.T) {
	clock := testutil.NewManualClock()
	var delivered []string
	started := make(chan struct{})
	edited := make(chan struct{})

	var s *debounce.Searcher[string]
	s = debounce.NewSearcher(context.Background(), debounce.SearchConfig[string]{
		Clock: clock,
		Fetch: func(ctx context.Context, q string) (string, error) { return q, nil },
		OnResult: func(q string, r string, err error) {
			if q == "heat" {
				// A keystroke arrives while this result is being applied.
				go func() {
					close(started)
					s.OnQueryChange("h")
					close(edited)
				}()
				<-started
				time.Sleep(20 * time.Millisecond)
			}
			delivered = append(delivered, q)
		},
	})

	s.OnQueryChange("heat")
	clock.Advance(debounce.DefaultWindow)
	<-edited

	assert.Equal(t, []string{"heat", "h"}, delivered, "the newer edit must land last")
	assert.Equal(t, "h", s.Query())
}

func TestSearcher_PassesFetchError(t *testing.T) {
	clock := testutil.NewManualClock()
	boom := errors.New("catalog down")
	var gotErr error
	s := debounce.NewSearcher(context.Background(), debounce.SearchConfig[int]{
		Clock:    clock,
		Fetch:    func(ctx context.Context, q string) (int, error) { return 0, boom },
		OnResult: func(q string, r int, err error) { gotErr = err },
	})

	s.OnQueryChange("heat")
	clock.Advance(debounce.DefaultWindow)

	assert.ErrorIs(t, gotErr, boom)
}

func TestSearcher_Cancel(t *testing.T) {
	clock := testutil.NewManualClock()
	rec := &recorder{}
	s := newSearcher(t, clock, rec, false)

	s.OnQueryChange("heat")
	s.Cancel()
	clock.Advance(time.Second)

	assert.Empty(t, rec.calls)
}

func TestTimer_ScheduleReplacesPending(t *testing.T) {
	clock := testutil.NewManualClock()
	timer := debounce.NewTimer(clock)
	var fired []int

	timer.Schedule(time.Second, func() { fired = append(fired, 1) })
	assert.True(t, timer.Pending())
	timer.Schedule(time.Second, func() { fired = append(fired, 2) })

	clock.Advance(2 * time.Second)
	assert.Equal(t, []int{2}, fired)
	assert.False(t, timer.Pending())
}

func TestTimer_Cancel(t *testing.T) {
	clock := testutil.NewManualClock()
	timer := debounce.NewTimer(clock)
	fired := false

	timer.Schedule(time.Second, func() { fired = true })
	timer.Cancel()
	clock.Advance(time.Minute)

	assert.False(t, fired)
	assert.False(t, timer.Pending())
}

func TestTimer_RealClock(t *testing.T) {
	timer := debounce.NewTimer(nil)
	var n atomic.Int32
	done := make(chan struct{})

	timer.Schedule(time.Millisecond, func() {
		n.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, int32(1), n.Load())
}
