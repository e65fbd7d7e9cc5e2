package exercise

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/nihongo/internal/model"
)

var greetingOptions = []model.ChallengeOption{
	{ID: 1, Text: "こんばんは", Correct: false},
	{ID: 2, Text: "おはよう", Correct: true},
	{ID: 3, Text: "さようなら", Correct: false},
}

func TestChoiceSelectAndResolve(t *testing.T) {
	c := NewChoice(greetingOptions)
	assert.False(t, c.Correct())
	assert.Equal(t, OutcomeUnresolved, c.Resolve())

	assert.True(t, c.Select(0))
	assert.False(t, c.Correct())
	assert.True(t, c.Select(1))
	assert.True(t, c.Correct())
	assert.Equal(t, OutcomeCorrect, c.Resolve())

	assert.False(t, c.Select(2))
	idx, ok := c.Selected()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestChoiceOutOfRange(t *testing.T) {
	c := NewChoice(greetingOptions)
	assert.False(t, c.Select(3))
	assert.False(t, c.Select(-1))
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestChoiceIncorrect(t *testing.T) {
	c := NewChoice(greetingOptions)
	c.Select(2)
	assert.Equal(t, OutcomeIncorrect, c.Resolve())
	assert.Equal(t, "incorrect", c.Outcome().String())
}
