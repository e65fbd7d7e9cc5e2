package exercise

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/nihongo/internal/model"
)

type fakeTimer struct {
	delay    time.Duration
	fn       func()
	canceled bool
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	ft := &fakeTimer{delay: d, fn: fn}
	s.timers = append(s.timers, ft)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ft.canceled = true
	}
}

// fire runs every timer, including canceled ones, to prove stale callbacks
// are ignored.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	for _, ft := range timers {
		ft.fn()
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ft := range s.timers {
		if !ft.canceled {
			n++
		}
	}
	return n
}

var threePairs = []model.Pair{
	{ID: 1, Japanese: "いぬ", Meaning: "dog"},
	{ID: 2, Japanese: "ねこ", Meaning: "cat"},
	{ID: 3, Japanese: "とり", Meaning: "bird"},
}

func TestPairsCompletesOnceAfterLastMatch(t *testing.T) {
	completions := 0
	p := NewPairs(threePairs, OnComplete(func() { completions++ }))
	for _, id := range []int{3, 1, 2} {
		assert.Equal(t, 0, completions)
		p.SelectRight(id)
		p.SelectLeft(id)
	}
	assert.Equal(t, 1, completions)
	assert.Equal(t, 3, p.Matched())
	assert.True(t, p.Complete())
	assert.Equal(t, OutcomeCorrect, p.Outcome())

	p.SelectLeft(1)
	p.SelectRight(1)
	assert.Equal(t, 1, completions)
}

func TestPairsMismatchRevertsAfterDelay(t *testing.T) {
	sched := &fakeScheduler{}
	reverts := 0
	completions := 0
	p := NewPairs(threePairs,
		WithScheduler(sched.schedule),
		OnRevert(func() { reverts++ }),
		OnComplete(func() { completions++ }),
	)
	p.SelectLeft(1)
	p.SelectRight(2)

	require.Len(t, sched.timers, 1)
	assert.Equal(t, MismatchDelay, sched.timers[0].delay)
	assert.Equal(t, PairMismatched, p.LeftStatus(1))
	assert.Equal(t, PairMismatched, p.RightStatus(2))
	assert.Equal(t, PairUnmatched, p.LeftStatus(2))
	assert.Equal(t, 0, p.Matched())

	sched.fire()
	assert.Equal(t, 1, reverts)
	assert.Equal(t, PairUnmatched, p.LeftStatus(1))
	_, leftOK, _, rightOK := p.Selection()
	assert.False(t, leftOK)
	assert.False(t, rightOK)
	assert.Equal(t, 0, p.Matched())
	assert.Equal(t, 0, completions)
}

func TestPairsNewSelectionEndsMismatchEarly(t *testing.T) {
	sched := &fakeScheduler{}
	reverts := 0
	p := NewPairs(threePairs, WithScheduler(sched.schedule), OnRevert(func() { reverts++ }))
	p.SelectLeft(1)
	p.SelectRight(2)
	require.Equal(t, 1, sched.pending())

	p.SelectLeft(2)
	assert.Equal(t, 0, sched.pending())
	left, leftOK, _, rightOK := p.Selection()
	assert.True(t, leftOK)
	assert.Equal(t, 2, left)
	assert.False(t, rightOK)

	// The canceled timer still fires in the fake; it must not clear the new selection.
	sched.fire()
	assert.Equal(t, 0, reverts)
	_, leftOK, _, _ = p.Selection()
	assert.True(t, leftOK)

	p.SelectRight(2)
	assert.Equal(t, PairMatched, p.LeftStatus(2))
}

func TestPairsCloseCancelsPendingRevert(t *testing.T) {
	sched := &fakeScheduler{}
	reverts := 0
	p := NewPairs(threePairs, WithScheduler(sched.schedule), OnRevert(func() { reverts++ }))
	p.SelectLeft(1)
	p.SelectRight(3)
	p.Close()
	assert.Equal(t, 0, sched.pending())
	sched.fire()
	assert.Equal(t, 0, reverts)

	p.SelectLeft(2)
	_, leftOK, _, _ := p.Selection()
	assert.False(t, leftOK)
}

func TestPairsEmptyNeverCompletes(t *testing.T) {
	completions := 0
	p := NewPairs(nil, OnComplete(func() { completions++ }))
	p.SelectLeft(1)
	p.SelectRight(1)
	assert.Equal(t, 0, completions)
	assert.False(t, p.Complete())
}

func TestPairsMatchedItemsIgnoreSelection(t *testing.T) {
	p := NewPairs(threePairs)
	p.SelectLeft(1)
	p.SelectRight(1)
	p.SelectLeft(1)
	_, leftOK, _, _ := p.Selection()
	assert.False(t, leftOK)
	p.SelectLeft(99)
	_, leftOK, _, _ = p.Selection()
	assert.False(t, leftOK)
}

func TestPairsRightOrderIsFixed(t *testing.T) {
	p := NewPairs(threePairs, WithRightOrder([]int{2, 0, 1}))
	right := p.Right()
	assert.Equal(t, []int{3, 1, 2}, []int{right[0].ID, right[1].ID, right[2].ID})
	p.SelectLeft(1)
	p.SelectRight(1)
	assert.Equal(t, right, p.Right())
	assert.Equal(t, threePairs, p.Left())
}

func TestPairsInvalidRightOrderFallsBackToPermutation(t *testing.T) {
	p := NewPairs(threePairs, WithRightOrder([]int{0, 0, 1}))
	ids := map[int]bool{}
	for _, pair := range p.Right() {
		ids[pair.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestPairsTimerSchedulerReverts(t *testing.T) {
	reverted := make(chan struct{})
	p := NewPairs(threePairs, OnRevert(func() { close(reverted) }))
	p.SelectLeft(1)
	p.SelectRight(2)
	select {
	case <-reverted:
	case <-time.After(5 * time.Second):
		t.Fatal("mismatch did not revert")
	}
	assert.Equal(t, PairUnmatched, p.LeftStatus(1))
}

func TestPairsSynchronousSchedulerReverts(t *testing.T) {
	immediate := func(_ time.Duration, fn func()) func() {
		fn()
		return func() {}
	}
	reverts := 0
	p := NewPairs(threePairs, WithScheduler(immediate), OnRevert(func() { reverts++ }))

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.SelectLeft(1)
		p.SelectRight(2)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("selection blocked on a synchronous scheduler")
	}

	assert.Equal(t, 1, reverts)
	_, leftOK, _, rightOK := p.Selection()
	assert.False(t, leftOK)
	assert.False(t, rightOK)
	assert.Equal(t, PairUnmatched, p.LeftStatus(1))

	p.SelectLeft(2)
	p.SelectRight(2)
	assert.Equal(t, PairMatched, p.LeftStatus(2))
}
