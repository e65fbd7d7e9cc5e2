package exercise

import (
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/nihongo/internal/model"
)

// MismatchDelay is how long a wrong pair stays flagged before it clears.
const MismatchDelay = 1000 * time.Millisecond

// Scheduler runs fn once after d and returns a function that cancels it.
// fn may run before Scheduler returns.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// TimerScheduler schedules on the runtime timer.
func TimerScheduler(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// PairStatus is the state of one pair.
type PairStatus int

// Pair statuses.
const (
	PairUnmatched PairStatus = iota
	PairMatched
	PairMismatched
)

// Pairs is a two-column matching exercise. The right column is permuted once
// at construction. Selecting one item per column either matches them for
// good or flags both for MismatchDelay, after which the selection clears.
//
// Pairs is safe for use from the scheduler's goroutine; callbacks run
// without the lock held.
type Pairs struct {
	mu sync.Mutex

	pairs      []model.Pair
	rightOrder []int
	matched    map[int]bool

	left     int
	right    int
	mismatch *mismatch
	seq      uint64

	completed bool
	closed    bool

	schedule   Scheduler
	onComplete func()
	onRevert   func()
}

type mismatch struct {
	seq    uint64
	left   int
	right  int
	cancel func()
}

const noSelection = -1

// PairsOption configures Pairs.
type PairsOption func(*Pairs)

// WithScheduler replaces the timer used for mismatch reverts.
func WithScheduler(s Scheduler) PairsOption {
	return func(p *Pairs) { p.schedule = s }
}

// WithRightOrder fixes the right column order; perm[i] is the index into
// pairs shown at row i. Invalid permutations are ignored.
func WithRightOrder(perm []int) PairsOption {
	return func(p *Pairs) {
		if isPerm(perm, len(p.pairs)) {
			p.rightOrder = append([]int(nil), perm...)
		}
	}
}

// OnComplete registers the callback fired once when every pair is matched.
func OnComplete(fn func()) PairsOption {
	return func(p *Pairs) { p.onComplete = fn }
}

// OnRevert registers the callback fired after a mismatch clears by timer.
func OnRevert(fn func()) PairsOption {
	return func(p *Pairs) { p.onRevert = fn }
}

// NewPairs builds a matching exercise. Pair IDs must be unique.
func NewPairs(pairs []model.Pair, opts ...PairsOption) *Pairs {
	p := &Pairs{
		pairs:    append([]model.Pair(nil), pairs...),
		matched:  map[int]bool{},
		left:     noSelection,
		right:    noSelection,
		schedule: TimerScheduler,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rightOrder == nil {
		p.rightOrder = rand.Perm(len(p.pairs))
	}
	return p
}

// Left returns the left column in construction order.
func (p *Pairs) Left() []model.Pair {
	return append([]model.Pair(nil), p.pairs...)
}

// Right returns the right column in its permuted order.
func (p *Pairs) Right() []model.Pair {
	out := make([]model.Pair, len(p.rightOrder))
	for i, idx := range p.rightOrder {
		out[i] = p.pairs[idx]
	}
	return out
}

// SelectLeft selects the left item with the given pair id.
func (p *Pairs) SelectLeft(id int) {
	p.selectItem(id, true)
}

// SelectRight selects the right item with the given pair id.
func (p *Pairs) SelectRight(id int) {
	p.selectItem(id, false)
}

func (p *Pairs) selectItem(id int, left bool) {
	p.mu.Lock()
	if p.closed || !p.known(id) || p.matched[id] {
		p.mu.Unlock()
		return
	}
	if p.mismatch != nil {
		// A new selection ends the flagged mismatch early.
		p.mismatch.cancel()
		p.clearSelection()
	}
	if left {
		p.left = id
	} else {
		p.right = id
	}
	complete, pending := p.evaluate()
	onComplete := p.onComplete
	schedule := p.schedule
	p.mu.Unlock()

	if pending != nil {
		p.arm(schedule, pending)
	}
	if complete && onComplete != nil {
		onComplete()
	}
}

// evaluate resolves a full selection. It reports whether this call
// completed the exercise, or returns the mismatch that needs a revert timer.
func (p *Pairs) evaluate() (bool, *mismatch) {
	if p.left == noSelection || p.right == noSelection {
		return false, nil
	}
	if p.left == p.right {
		p.matched[p.left] = true
		p.clearSelection()
		if !p.completed && len(p.pairs) > 0 && len(p.matched) == len(p.pairs) {
			p.completed = true
			return true, nil
		}
		return false, nil
	}
	p.seq++
	m := &mismatch{seq: p.seq, left: p.left, right: p.right, cancel: func() {}}
	p.mismatch = m
	return false, m
}

// arm starts the revert timer for m. It runs without the lock so a
// scheduler may call fn before returning.
func (p *Pairs) arm(schedule Scheduler, m *mismatch) {
	cancel := schedule(MismatchDelay, func() { p.revert(m.seq) })
	p.mu.Lock()
	live := !p.closed && p.mismatch == m
	if live {
		m.cancel = cancel
	}
	p.mu.Unlock()
	if !live {
		cancel()
	}
}

func (p *Pairs) revert(seq uint64) {
	p.mu.Lock()
	if p.closed || p.mismatch == nil || p.mismatch.seq != seq {
		p.mu.Unlock()
		return
	}
	p.clearSelection()
	onRevert := p.onRevert
	p.mu.Unlock()

	if onRevert != nil {
		onRevert()
	}
}

func (p *Pairs) clearSelection() {
	p.left = noSelection
	p.right = noSelection
	p.mismatch = nil
}

// Selection returns the pending selections; ok is false for an empty column.
func (p *Pairs) Selection() (left int, leftOK bool, right int, rightOK bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.left, p.left != noSelection, p.right, p.right != noSelection
}

// LeftStatus returns the status of the left item with the given id.
func (p *Pairs) LeftStatus(id int) PairStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status(id, true)
}

// RightStatus returns the status of the right item with the given id.
func (p *Pairs) RightStatus(id int) PairStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status(id, false)
}

func (p *Pairs) status(id int, left bool) PairStatus {
	if p.matched[id] {
		return PairMatched
	}
	if p.mismatch != nil {
		if (left && p.mismatch.left == id) || (!left && p.mismatch.right == id) {
			return PairMismatched
		}
	}
	return PairUnmatched
}

// Matched returns the number of matched pairs.
func (p *Pairs) Matched() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.matched)
}

// Complete reports whether every pair is matched.
func (p *Pairs) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Outcome is OutcomeCorrect once complete; pair matching has no failing end.
func (p *Pairs) Outcome() Outcome {
	if p.Complete() {
		return OutcomeCorrect
	}
	return OutcomeUnresolved
}

// Close tears the exercise down and cancels a pending revert. Later
// selections and timer callbacks are ignored.
func (p *Pairs) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.mismatch != nil {
		p.mismatch.cancel()
		p.mismatch = nil
	}
}

func (p *Pairs) known(id int) bool {
	for _, pair := range p.pairs {
		if pair.ID == id {
			return true
		}
	}
	return false
}

func isPerm(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
