// Package exercise implements the interaction state of single exercises:
// word ordering, pair matching and multiple choice. Each value lives only as
// long as the exercise is on screen.
package exercise

// Outcome is the resolution of an exercise.
type Outcome int

// Outcomes.
const (
	OutcomeUnresolved Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	default:
		return "unresolved"
	}
}

func outcomeOf(correct bool) Outcome {
	if correct {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}
