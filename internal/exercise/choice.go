package exercise

import "github.com/verte-zerg/nihongo/internal/model"

// Choice is a multiple-choice exercise. The learner may change the
// selection freely until Resolve.
type Choice struct {
	options  []model.ChallengeOption
	selected int
	outcome  Outcome
}

// NewChoice builds a multiple-choice exercise over options.
func NewChoice(options []model.ChallengeOption) *Choice {
	return &Choice{
		options:  append([]model.ChallengeOption(nil), options...),
		selected: noSelection,
	}
}

// Options returns the options in display order.
func (c *Choice) Options() []model.ChallengeOption {
	return append([]model.ChallengeOption(nil), c.options...)
}

// Select marks the option at index. Out-of-range indexes are ignored.
func (c *Choice) Select(index int) bool {
	if c.outcome != OutcomeUnresolved || index < 0 || index >= len(c.options) {
		return false
	}
	c.selected = index
	return true
}

// Selected returns the selected index.
func (c *Choice) Selected() (int, bool) {
	return c.selected, c.selected != noSelection
}

// Correct reports whether the selected option is a correct one.
func (c *Choice) Correct() bool {
	if c.selected == noSelection {
		return false
	}
	return c.options[c.selected].Correct
}

// Resolve freezes the exercise. Without a selection it stays unresolved.
func (c *Choice) Resolve() Outcome {
	if c.outcome == OutcomeUnresolved && c.selected != noSelection {
		c.outcome = outcomeOf(c.Correct())
	}
	return c.outcome
}

// Outcome returns the resolution.
func (c *Choice) Outcome() Outcome {
	return c.outcome
}
