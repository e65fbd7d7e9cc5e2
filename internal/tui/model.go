// Package tui provides the Bubble Tea lesson player.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/nihongo/internal/catalog"
	"github.com/verte-zerg/nihongo/internal/exercise"
	"github.com/verte-zerg/nihongo/internal/generator"
	"github.com/verte-zerg/nihongo/internal/logging"
	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"
	"github.com/verte-zerg/nihongo/internal/quiz"
)

const maxTiles = catalog.MaxTiles

// Saver persists progress when a lesson ends.
type Saver interface {
	SaveState(ctx context.Context, state progress.State) error
	InsertRun(ctx context.Context, run model.LessonRun) (string, error)
}

type phase int

const (
	phaseAnswering phase = iota
	phaseFeedback
	phaseFinished
)

// revertMsg tells the model a pair mismatch cleared.
type revertMsg struct{}

// Options configures the lesson player.
type Options struct {
	Session     *quiz.Session
	State       *progress.State
	Saver       Saver
	Generator   *generator.Generator
	Vocabulary  []string
	Distractors int
	Logger      logrus.FieldLogger
	Now         func() time.Time
	Scheduler   exercise.Scheduler
	Title       string
}

// Model implements the Bubble Tea lesson UI.
type Model struct {
	opts Options

	width  int
	height int
	bar    progressbar.Model

	phase    phase
	choice   *exercise.Choice
	order    *exercise.Order
	pairs    *exercise.Pairs
	reverts  chan struct{}
	mistakes int

	lastGain    progress.Gain
	lastCorrect bool
	run         model.LessonRun
	saveErr     error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	tileStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#58A6FF")).Underline(true)
	placedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#58A6FF"))
	matchedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the lesson player for a session.
func NewModel(opts Options) *Model {
	if opts.Generator == nil {
		opts.Generator = generator.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheduler == nil {
		opts.Scheduler = exercise.TimerScheduler
	}
	m := &Model{
		opts:    opts,
		bar:     progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithoutPercentage()),
		reverts: make(chan struct{}, 1),
	}
	m.loadExercise()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForRevert()
}

// Run returns the summary of the finished or abandoned lesson.
func (m *Model) Run() model.LessonRun {
	return m.run
}

// SaveErr returns the error from persisting the lesson, if any.
func (m *Model) SaveErr() error {
	return m.saveErr
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(60, msg.Width-20))
		return m, nil
	case revertMsg:
		return m, m.waitForRevert()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		m.finish()
		return m, tea.Quit
	}
	switch m.phase {
	case phaseFinished:
		if key.Matches(msg, keys.Confirm) {
			return m, tea.Quit
		}
		return m, nil
	case phaseFeedback:
		if key.Matches(msg, keys.Confirm) {
			m.advance()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Pick):
		idx, _ := digitIndex(msg.String())
		m.pick(idx)
	case key.Matches(msg, keys.Right):
		idx, _ := letterIndex(msg.String())
		m.matchRight(idx)
	case key.Matches(msg, keys.Unpick):
		if m.order != nil {
			m.order.UnpickLast()
		}
	case key.Matches(msg, keys.Confirm):
		m.check()
	}
	return m, nil
}

func (m *Model) pick(idx int) {
	switch {
	case m.choice != nil:
		m.choice.Select(idx)
	case m.order != nil:
		m.order.Pick(idx)
	case m.pairs != nil:
		left := m.pairs.Left()
		if idx < len(left) {
			m.pairs.SelectLeft(left[idx].ID)
			m.afterPairSelect()
		}
	}
}

func (m *Model) matchRight(idx int) {
	if m.pairs == nil {
		return
	}
	right := m.pairs.Right()
	if idx < len(right) {
		m.pairs.SelectRight(right[idx].ID)
		m.afterPairSelect()
	}
}

// afterPairSelect counts a fresh mismatch and resolves a finished board.
// A new selection always clears the previous mismatch, so any mismatch
// visible here was just made.
func (m *Model) afterPairSelect() {
	for _, p := range m.pairs.Left() {
		if m.pairs.LeftStatus(p.ID) == exercise.PairMismatched {
			m.mistakes++
			break
		}
	}
	if m.pairs.Complete() {
		m.resolve(true)
	}
}

func (m *Model) check() {
	switch {
	case m.choice != nil:
		if outcome := m.choice.Resolve(); outcome != exercise.OutcomeUnresolved {
			m.resolve(outcome == exercise.OutcomeCorrect)
		}
	case m.order != nil:
		if len(m.order.Placed()) == 0 {
			return
		}
		m.resolve(m.order.Resolve() == exercise.OutcomeCorrect)
	}
}

func (m *Model) resolve(correct bool) {
	gain, err := m.opts.Session.Answer(context.Background(), correct, m.opts.Now())
	if err != nil {
		m.opts.Logger.WithError(err).Warn("answer not recorded")
	}
	m.lastGain = gain
	m.lastCorrect = correct
	m.phase = phaseFeedback
}

func (m *Model) advance() {
	m.closeExercise()
	if !m.opts.Session.Next() {
		m.finish()
		return
	}
	m.loadExercise()
}

func (m *Model) finish() {
	if m.phase == phaseFinished {
		return
	}
	m.closeExercise()
	m.phase = phaseFinished
	ctx := context.Background()
	m.run = m.opts.Session.Finish(ctx, m.opts.Now())
	if m.opts.Saver == nil {
		return
	}
	log := m.opts.Logger.WithField("lesson", m.run.LessonID)
	if err := m.opts.Saver.SaveState(ctx, *m.opts.State); err != nil {
		log.WithError(err).Error("failed to save progress")
		m.saveErr = err
		return
	}
	if m.run.Correct+m.run.Incorrect == 0 {
		return
	}
	id, err := m.opts.Saver.InsertRun(ctx, m.run)
	if err != nil {
		log.WithError(err).Error("failed to save lesson run")
		m.saveErr = err
		return
	}
	m.run.ID = id
	log.WithFields(logrus.Fields{"run": id, "xp": m.run.XP}).Info("lesson saved")
}

func (m *Model) closeExercise() {
	if m.pairs != nil {
		m.pairs.Close()
	}
	m.choice, m.order, m.pairs = nil, nil, nil
}

func (m *Model) loadExercise() {
	m.phase = phaseAnswering
	m.mistakes = 0
	c, ok := m.opts.Session.Current()
	if !ok {
		m.finish()
		return
	}
	switch c.Type {
	case model.ChallengeOrder:
		extra := max(0, min(m.opts.Distractors, maxTiles-len(c.Words)))
		m.order = exercise.NewOrder(m.opts.Generator.Tiles(c.Words, m.opts.Vocabulary, extra), c.Answer, nil)
	case model.ChallengePairs:
		// Sources reject boards larger than maxTiles.
		pairs := c.Pairs
		m.pairs = exercise.NewPairs(pairs,
			exercise.WithScheduler(m.opts.Scheduler),
			exercise.WithRightOrder(m.opts.Generator.Perm(len(pairs))),
			exercise.OnRevert(m.notifyRevert),
		)
	default:
		options := limitOptions(m.opts.Generator.ShuffleOptions(c.Options), maxTiles)
		m.choice = exercise.NewChoice(options)
	}
	m.opts.Logger.WithFields(logrus.Fields{"lesson": c.LessonID, "challenge": c.ID, "type": c.Type}).Debug("challenge loaded")
}

// limitOptions keeps at most n options in their current order, dropping
// wrong ones first so every correct option stays on screen.
func limitOptions(options []model.ChallengeOption, n int) []model.ChallengeOption {
	if len(options) <= n {
		return options
	}
	spare := n - lo.CountBy(options, func(o model.ChallengeOption) bool { return o.Correct })
	return lo.Filter(options, func(o model.ChallengeOption, _ int) bool {
		if o.Correct {
			return true
		}
		spare--
		return spare >= 0
	})
}

// notifyRevert runs on the timer goroutine.
func (m *Model) notifyRevert() {
	select {
	case m.reverts <- struct{}{}:
	default:
	}
}

func (m *Model) waitForRevert() tea.Cmd {
	ch := m.reverts
	return func() tea.Msg {
		<-ch
		return revertMsg{}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())
	if m.phase == phaseFinished {
		sections = append(sections, m.renderSummary())
	} else if c, ok := m.opts.Session.Current(); ok {
		sections = append(sections, questionStyle.Render(questionText(c)), m.renderExercise())
		if m.phase == phaseFeedback {
			sections = append(sections, m.renderFeedback(c))
		}
	}
	sections = append(sections, m.renderFooter())
	content := strings.Join(sections, "\n\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func questionText(c model.Challenge) string {
	if c.Question != "" {
		return c.Question
	}
	switch c.Type {
	case model.ChallengeOrder:
		return "Build the sentence"
	case model.ChallengePairs:
		return "Match the pairs"
	default:
		return "Choose the correct answer"
	}
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(20, int(float64(m.width)*0.70))
}

func (m *Model) renderHeader() string {
	title := m.opts.Title
	if title == "" {
		title = "Lesson"
	}
	pct := m.opts.Session.Percentage() / 100
	return titleStyle.Render(title) + "\n" + m.bar.ViewAs(pct)
}

func (m *Model) renderExercise() string {
	switch {
	case m.choice != nil:
		return m.renderChoice()
	case m.order != nil:
		return m.renderOrder()
	case m.pairs != nil:
		return m.renderPairs()
	}
	return ""
}

func (m *Model) renderChoice() string {
	selected, ok := m.choice.Selected()
	lines := make([]string, 0, len(m.choice.Options()))
	for i, opt := range m.choice.Options() {
		style := tileStyle
		switch {
		case m.phase == phaseFeedback && opt.Correct:
			style = matchedStyle
		case m.phase == phaseFeedback && ok && i == selected:
			style = wrongStyle
		case ok && i == selected:
			style = selectedStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("[%s] %s", digitLabel(i), opt.Text)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderOrder() string {
	placedStyleFor := placedStyle
	if m.phase == phaseFeedback {
		placedStyleFor = wrongStyle
		if m.lastCorrect {
			placedStyleFor = matchedStyle
		}
	}
	placed := make([]tile, 0, len(m.order.Placed()))
	for _, w := range m.order.Placed() {
		placed = append(placed, newTile(w, placedStyleFor))
	}
	pool := make([]tile, 0, len(m.order.Pool()))
	for i, w := range m.order.Pool() {
		pool = append(pool, newTile(fmt.Sprintf("[%s] %s", digitLabel(i), w), tileStyle))
	}
	answer := wrapTiles(placed, m.contentWidth())
	if answer == "" {
		answer = mutedStyle.Render("…")
	}
	return answer + "\n" + mutedStyle.Render(strings.Repeat("─", 20)) + "\n" + wrapTiles(pool, m.contentWidth())
}

func (m *Model) renderPairs() string {
	left := m.pairs.Left()
	right := m.pairs.Right()
	leftSel, leftOK, rightSel, rightOK := m.pairs.Selection()
	colWidth := 0
	for i, p := range left {
		colWidth = max(colWidth, newTile(fmt.Sprintf("[%s] %s", digitLabel(i), p.Japanese), tileStyle).width)
	}
	lines := make([]string, 0, len(left))
	for i := range left {
		l := fmt.Sprintf("[%s] %s", digitLabel(i), left[i].Japanese)
		r := fmt.Sprintf("[%s] %s", letterLabel(i), right[i].Meaning)
		lStyle := pairStyle(m.pairs.LeftStatus(left[i].ID), leftOK && leftSel == left[i].ID)
		rStyle := pairStyle(m.pairs.RightStatus(right[i].ID), rightOK && rightSel == right[i].ID)
		lines = append(lines, lStyle.Render(padRight(l, colWidth))+"    "+rStyle.Render(r))
	}
	return strings.Join(lines, "\n")
}

func pairStyle(status exercise.PairStatus, selected bool) lipgloss.Style {
	switch {
	case status == exercise.PairMatched:
		return matchedStyle
	case status == exercise.PairMismatched:
		return wrongStyle
	case selected:
		return selectedStyle
	default:
		return tileStyle
	}
}

func (m *Model) renderFeedback(c model.Challenge) string {
	if !m.lastCorrect {
		msg := "Not quite."
		if c.Type == model.ChallengeOrder && c.Answer != "" {
			msg += " Answer: " + c.Answer
		}
		return wrongStyle.Render(msg)
	}
	msg := fmt.Sprintf("Correct! +%d XP", m.lastGain.Amount)
	if m.lastGain.Rewarded {
		msg += fmt.Sprintf("  Daily goal reached, +%d lingots", progress.GoalReward)
	}
	return matchedStyle.Render(msg)
}

func (m *Model) renderSummary() string {
	r := m.run
	lines := []string{
		fmt.Sprintf("Correct %d · Wrong %d · +%d XP", r.Correct, r.Incorrect, r.XP),
	}
	if r.Completed {
		lines = append(lines, matchedStyle.Render("Lesson complete!"))
	} else {
		lines = append(lines, mutedStyle.Render("Lesson left unfinished."))
	}
	if m.saveErr != nil {
		lines = append(lines, wrongStyle.Render("Progress not saved: "+m.saveErr.Error()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	now := m.opts.Now()
	state := *m.opts.State
	segments := []string{
		fmt.Sprintf("Today %d/%d XP", state.XPToday(now), state.Goal()),
		fmt.Sprintf("Streak %d", state.Streak),
		fmt.Sprintf("Lingots %d", state.Wallet.Lingots),
	}
	switch m.phase {
	case phaseFinished:
		segments = append(segments, "enter to exit")
	case phaseFeedback:
		segments = append(segments, "enter to continue")
	default:
		segments = append(segments, m.helpLine())
	}
	if m.pairs != nil && m.mistakes > 0 {
		segments = append(segments, fmt.Sprintf("Mistakes %d", m.mistakes))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) helpLine() string {
	bindings := []key.Binding{keys.Pick}
	switch {
	case m.pairs != nil:
		bindings = append(bindings, keys.Right)
	case m.order != nil:
		bindings = append(bindings, keys.Unpick, keys.Confirm)
	default:
		bindings = append(bindings, keys.Confirm)
	}
	bindings = append(bindings, keys.Quit)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return strings.Join(parts, " · ")
}
