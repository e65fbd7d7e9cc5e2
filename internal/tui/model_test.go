package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/nihongo/internal/exercise"
	"github.com/verte-zerg/nihongo/internal/generator"
	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"
	"github.com/verte-zerg/nihongo/internal/quiz"
)

type fakeSaver struct {
	states []progress.State
	runs   []model.LessonRun
}

func (f *fakeSaver) SaveState(_ context.Context, state progress.State) error {
	f.states = append(f.states, state)
	return nil
}

func (f *fakeSaver) InsertRun(_ context.Context, run model.LessonRun) (string, error) {
	f.runs = append(f.runs, run)
	return "run-1", nil
}

type manualScheduler struct {
	pending []func()
}

func (s *manualScheduler) schedule(_ time.Duration, fn func()) func() {
	s.pending = append(s.pending, fn)
	return func() {}
}

var lessonNow = time.Date(2025, 6, 18, 9, 0, 0, 0, time.Local)

func lessonChallenges() []model.Challenge {
	return []model.Challenge{
		{
			ID: 1, LessonID: 4, Type: model.ChallengeMultipleChoice, Question: "Good morning",
			Options: []model.ChallengeOption{
				{ID: 1, Text: "おはよう", Correct: true},
				{ID: 2, Text: "こんばんは"},
				{ID: 3, Text: "さようなら"},
			},
		},
		{
			ID: 2, LessonID: 4, Type: model.ChallengeOrder, Question: "I am a student",
			Words:  []string{"わたし", "は", "がくせい", "です"},
			Answer: "わたしはがくせいです",
		},
		{
			ID: 3, LessonID: 4, Type: model.ChallengePairs,
			Pairs: []model.Pair{{ID: 1, Japanese: "いぬ", Meaning: "dog"}, {ID: 2, Japanese: "ねこ", Meaning: "cat"}},
		},
	}
}

func newTestModel(t *testing.T, sched *manualScheduler) (*Model, *progress.State, *fakeSaver) {
	t.Helper()
	state := progress.NewState()
	session, err := quiz.NewSession(lessonChallenges(), &state, quiz.Options{LessonID: 4, XPPerChallenge: 10}, lessonNow)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	saver := &fakeSaver{}
	var scheduler exercise.Scheduler
	if sched != nil {
		scheduler = sched.schedule
	}
	m := NewModel(Options{
		Session:     session,
		State:       &state,
		Saver:       saver,
		Generator:   generator.NewSeeded(1),
		Vocabulary:  []string{"ねこ"},
		Distractors: 1,
		Now:         func() time.Time { return lessonNow },
		Scheduler:   scheduler,
		Title:       "Greetings",
	})
	return m, &state, saver
}

func press(m *Model, s string) {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	m.Update(msg)
}

func TestDigitAndLetterIndex(t *testing.T) {
	if i, ok := digitIndex("1"); !ok || i != 0 {
		t.Fatalf("unexpected index for 1: %d %v", i, ok)
	}
	if i, ok := digitIndex("0"); !ok || i != 9 {
		t.Fatalf("unexpected index for 0: %d %v", i, ok)
	}
	if _, ok := digitIndex("x"); ok {
		t.Fatalf("expected x to be rejected")
	}
	if i, ok := letterIndex("c"); !ok || i != 2 {
		t.Fatalf("unexpected index for c: %d %v", i, ok)
	}
	if digitLabel(9) != "0" || letterLabel(1) != "b" {
		t.Fatalf("unexpected labels")
	}
}

func TestLessonFlow(t *testing.T) {
	sched := &manualScheduler{}
	m, state, saver := newTestModel(t, sched)

	// Multiple choice: pick the correct option.
	if m.choice == nil {
		t.Fatalf("expected choice exercise first")
	}
	for i, opt := range m.choice.Options() {
		if opt.Correct {
			press(m, digitLabel(i))
		}
	}
	press(m, "enter")
	if m.phase != phaseFeedback || !m.lastCorrect {
		t.Fatalf("expected correct feedback, phase %v", m.phase)
	}
	if !strings.Contains(m.View(), "Correct! +10 XP") {
		t.Fatalf("expected feedback in view:\n%s", m.View())
	}
	press(m, "enter")

	// Ordering: place a wrong tile, undo it, then build the sentence.
	if m.order == nil {
		t.Fatalf("expected order exercise second")
	}
	if got := len(m.order.Pool()); got != 5 {
		t.Fatalf("expected 4 words and 1 distractor, got %d", got)
	}
	press(m, "enter")
	if m.phase != phaseAnswering {
		t.Fatalf("empty placement must not be checked")
	}
	pickWord(t, m, "ねこ")
	press(m, "backspace")
	for _, w := range []string{"わたし", "は", "がくせい", "です"} {
		pickWord(t, m, w)
	}
	press(m, "enter")
	if !m.lastCorrect {
		t.Fatalf("expected sentence to be correct")
	}
	press(m, "enter")

	// Pairs: one mismatch, then both matches.
	if m.pairs == nil {
		t.Fatalf("expected pairs exercise third")
	}
	press(m, digitLabel(leftIndex(m, 1)))
	press(m, letterLabel(rightIndex(m, 2)))
	if m.mistakes != 1 {
		t.Fatalf("expected one mistake, got %d", m.mistakes)
	}
	if len(sched.pending) != 1 {
		t.Fatalf("expected a scheduled revert")
	}
	sched.pending[0]()
	select {
	case <-m.reverts:
	default:
		t.Fatalf("expected revert notification")
	}
	for _, id := range []int{1, 2} {
		press(m, digitLabel(leftIndex(m, id)))
		press(m, letterLabel(rightIndex(m, id)))
	}
	if m.phase != phaseFeedback {
		t.Fatalf("expected completed board to resolve")
	}
	press(m, "enter")

	if m.phase != phaseFinished {
		t.Fatalf("expected lesson to finish")
	}
	if state.XPToday(lessonNow) != 30 {
		t.Fatalf("expected 30 XP, got %d", state.XPToday(lessonNow))
	}
	if len(saver.states) != 1 || len(saver.runs) != 1 {
		t.Fatalf("expected one save, got %d states %d runs", len(saver.states), len(saver.runs))
	}
	run := m.Run()
	if run.ID != "run-1" || !run.Completed || run.Correct != 3 || run.XP != 30 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if !strings.Contains(m.View(), "Lesson complete!") {
		t.Fatalf("expected summary in view")
	}
}

func TestWrongChoiceGivesNoXP(t *testing.T) {
	m, state, _ := newTestModel(t, &manualScheduler{})
	for i, opt := range m.choice.Options() {
		if !opt.Correct {
			press(m, digitLabel(i))
			break
		}
	}
	press(m, "enter")
	if m.lastCorrect {
		t.Fatalf("expected wrong answer")
	}
	if state.XPToday(lessonNow) != 0 {
		t.Fatalf("wrong answer must not credit xp")
	}
	if !strings.Contains(m.View(), "Not quite.") {
		t.Fatalf("expected wrong feedback")
	}
}

func TestQuitSavesAbandonedLesson(t *testing.T) {
	m, _, saver := newTestModel(t, &manualScheduler{})
	for i, opt := range m.choice.Options() {
		if opt.Correct {
			press(m, digitLabel(i))
		}
	}
	press(m, "enter")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if len(saver.runs) != 1 || saver.runs[0].Completed {
		t.Fatalf("expected one incomplete run, got %+v", saver.runs)
	}
}

func TestQuitWithoutAnswersSkipsRun(t *testing.T) {
	m, _, saver := newTestModel(t, &manualScheduler{})
	press(m, "esc")
	if len(saver.states) != 1 || len(saver.runs) != 0 {
		t.Fatalf("expected state save only, got %d states %d runs", len(saver.states), len(saver.runs))
	}
}

func pickWord(t *testing.T, m *Model, word string) {
	t.Helper()
	for i, w := range m.order.Pool() {
		if w == word {
			press(m, digitLabel(i))
			return
		}
	}
	t.Fatalf("word %q not in pool %v", word, m.order.Pool())
}

func leftIndex(m *Model, id int) int {
	for i, p := range m.pairs.Left() {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func rightIndex(m *Model, id int) int {
	for i, p := range m.pairs.Right() {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func TestOversizedChoiceKeepsCorrectOption(t *testing.T) {
	options := make([]model.ChallengeOption, 12)
	for i := range options {
		options[i] = model.ChallengeOption{ID: i + 1, Text: string(rune('a' + i))}
	}
	options[11].Correct = true
	challenge := model.Challenge{ID: 1, LessonID: 4, Type: model.ChallengeMultipleChoice, Question: "pick l", Options: options}

	for seed := int64(0); seed < 100; seed++ {
		state := progress.NewState()
		session, err := quiz.NewSession([]model.Challenge{challenge}, &state, quiz.Options{LessonID: 4}, lessonNow)
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		m := NewModel(Options{
			Session:   session,
			State:     &state,
			Saver:     &fakeSaver{},
			Generator: generator.NewSeeded(seed),
			Now:       func() time.Time { return lessonNow },
		})
		shown := m.choice.Options()
		if len(shown) != maxTiles {
			t.Fatalf("seed %d: expected %d options, got %d", seed, maxTiles, len(shown))
		}
		found := false
		for _, o := range shown {
			if o.Correct {
				found = true
			}
		}
		if !found {
			t.Fatalf("seed %d: correct option was dropped", seed)
		}
	}
}

func TestLimitOptionsKeepsOrder(t *testing.T) {
	options := []model.ChallengeOption{
		{ID: 1}, {ID: 2, Correct: true}, {ID: 3}, {ID: 4}, {ID: 5, Correct: true},
	}
	got := limitOptions(options, 3)
	ids := make([]int, len(got))
	for i, o := range got {
		ids[i] = o.ID
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 5 {
		t.Fatalf("unexpected options: %v", ids)
	}
	if len(limitOptions(options, 10)) != 5 {
		t.Fatalf("short lists should pass through")
	}
}
