package exercise

import (
	"strings"
	"unicode"
)

// Order is a sentence-building exercise: units move from the pool to the end
// of the placed sequence and back. Correctness is recomputed after every
// change and pushed to the change callback.
type Order struct {
	target   string
	pool     []string
	placed   []string
	locked   bool
	outcome  Outcome
	onChange func(correct bool)
}

// NewOrder builds an ordering exercise over words whose solution is answer.
// onChange may be nil.
func NewOrder(words []string, answer string, onChange func(correct bool)) *Order {
	pool := make([]string, len(words))
	copy(pool, words)
	return &Order{
		target:   stripSpace(answer),
		pool:     pool,
		onChange: onChange,
	}
}

// Pool returns the units still available.
func (o *Order) Pool() []string {
	return append([]string(nil), o.pool...)
}

// Placed returns the units placed so far, in order.
func (o *Order) Placed() []string {
	return append([]string(nil), o.placed...)
}

// Pick moves the pool unit at index to the end of the placed sequence.
// It reports whether anything changed.
func (o *Order) Pick(index int) bool {
	if !o.editable() || index < 0 || index >= len(o.pool) {
		return false
	}
	word := o.pool[index]
	o.pool = append(o.pool[:index:index], o.pool[index+1:]...)
	o.placed = append(o.placed, word)
	o.emit()
	return true
}

// Unpick returns the placed unit at index to the end of the pool.
// It reports whether anything changed.
func (o *Order) Unpick(index int) bool {
	if !o.editable() || index < 0 || index >= len(o.placed) {
		return false
	}
	word := o.placed[index]
	o.placed = append(o.placed[:index:index], o.placed[index+1:]...)
	o.pool = append(o.pool, word)
	o.emit()
	return true
}

// UnpickLast returns the most recently placed unit to the pool.
func (o *Order) UnpickLast() bool {
	return o.Unpick(len(o.placed) - 1)
}

// Correct reports whether the placed sequence spells the answer. An empty
// placement is never correct.
func (o *Order) Correct() bool {
	if len(o.placed) == 0 {
		return false
	}
	return stripSpace(strings.Join(o.placed, "")) == o.target
}

// SetLocked disables or re-enables Pick and Unpick.
func (o *Order) SetLocked(locked bool) {
	o.locked = locked
}

// Resolve freezes the exercise with its current correctness.
func (o *Order) Resolve() Outcome {
	if o.outcome == OutcomeUnresolved {
		o.outcome = outcomeOf(o.Correct())
	}
	return o.outcome
}

// Outcome returns the resolution, OutcomeUnresolved until Resolve is called.
func (o *Order) Outcome() Outcome {
	return o.outcome
}

func (o *Order) editable() bool {
	return !o.locked && o.outcome == OutcomeUnresolved
}

func (o *Order) emit() {
	if o.onChange != nil {
		o.onChange(o.Correct())
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
