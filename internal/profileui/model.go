// Package profileui provides the Bubble Tea profile screen.
package profileui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"
	"github.com/verte-zerg/nihongo/internal/stats"
)

const (
	tabOverview = iota
	tabHistory
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea profile UI.
type Model struct {
	loader  stats.Loader
	now     func() time.Time
	name    string
	report  stats.Report
	errMsg  string
	lessonFilter int

	tabs      []string
	activeTab int
	overview  viewport.Model
	runs      table.Model

	filterMode bool
	filter     textinput.Model

	width  int
	height int
}

// NewModel builds the profile screen. name is shown in the header and may
// be empty.
func NewModel(loader stats.Loader, name string, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	m := &Model{
		loader: loader,
		now:    now,
		name:   name,
		tabs:   []string{"Overview", "History"},
		filter: newFilterInput("Lesson id: "),
	}
	m.runs = table.New(table.WithStyles(runTableStyles()))
	m.overview = viewport.New(0, 0)
	m.refreshReport()
	return m
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 6
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l", "tab":
			m.moveTab(1)
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			if m.activeTab == tabHistory {
				m.filterMode = true
				return m, m.filter.Focus()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabHistory {
			m.runs, cmd = m.runs.Update(msg)
		} else {
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.filter.Value())
		if value == "" {
			m.lessonFilter = 0
		} else {
			id, err := strconv.Atoi(value)
			if err != nil || id <= 0 {
				m.errMsg = fmt.Sprintf("invalid lesson id %q", value)
				return m, nil
			}
			m.lessonFilter = id
		}
		m.errMsg = ""
		m.filterMode = false
		m.filter.Blur()
		m.applyRuns()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabHistory {
		m.runs.Focus()
	} else {
		m.runs.Blur()
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.loader, m.now(), 0)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load progress: %v", err)
		return
	}
	m.errMsg = ""
	m.report = report
	m.renderOverview()
	m.applyRuns()
}

func (m *Model) renderOverview() {
	var buf bytes.Buffer
	buf.WriteString(renderCards(m.report.State, m.report.Now, m.width))
	buf.WriteString("\n\n")
	if err := stats.RenderWeek(&buf, m.report.State, m.report.Now, m.width, false); err != nil {
		m.errMsg = err.Error()
	}
	if err := stats.RenderWeak(&buf, m.report.Weak); err != nil {
		m.errMsg = err.Error()
	}
	m.overview.SetContent(buf.String())
}

func renderCards(state progress.State, now time.Time, width int) string {
	cards := []string{
		metricCard("Streak", fmt.Sprintf("%d", state.Streak)),
		metricCard("Today", fmt.Sprintf("%d / %d XP", state.XPToday(now), state.Goal())),
		metricCard("This week", stats.FormatXP(state.XPThisWeek(now))),
		metricCard("Lingots", fmt.Sprintf("%d", state.Wallet.Lingots)),
		metricCard("Freezes", fmt.Sprintf("%d / %d", state.Wallet.StreakFreezes, progress.MaxStreakFreezes)),
	}
	if width > 0 && width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) applyRuns() {
	runs := m.report.Runs
	if m.lessonFilter > 0 {
		runs = lo.Filter(runs, func(r model.LessonRun, _ int) bool { return r.LessonID == m.lessonFilter })
	}
	columns, rows := buildRunTableData(runs)
	m.runs.SetRows(nil)
	m.runs.SetColumns(columns)
	m.runs.SetRows(rows)
	m.runs.GotoBottom()
}

func buildRunTableData(runs []model.LessonRun) ([]table.Column, []table.Row) {
	columns := []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Lesson", Width: 6},
		{Title: "Mode", Width: 8},
		{Title: "Right", Width: 5},
		{Title: "Wrong", Width: 5},
		{Title: "Acc", Width: 6},
		{Title: "XP", Width: 5},
	}
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		mode := "lesson"
		if r.Practice {
			mode = "practice"
		}
		rows = append(rows, table.Row{
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(r.LessonID),
			mode,
			strconv.Itoa(r.Correct),
			strconv.Itoa(r.Incorrect),
			fmt.Sprintf("%.0f%%", stats.Accuracy(r.Correct, r.Incorrect)*100),
			strconv.Itoa(r.XP),
		})
	}
	return columns, rows
}

func runTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if m.errMsg != "" || m.filterMode {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.runs.SetWidth(m.width)
	m.runs.SetHeight(bodyHeight)
	m.filter.Width = max(10, m.width-lipgloss.Width(m.filter.Prompt)-2)
	m.renderOverview()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	title := "Profile"
	if m.name != "" {
		title = "Profile · " + m.name
	}
	return tabs + "\n" + headerStyle.Render(title)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabHistory {
		if len(m.report.Runs) == 0 {
			return "No lessons played yet."
		}
		return tableMutedStyle.Render(m.runs.View())
	}
	return m.overview.View()
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Scroll: up/down  Refresh: r  Quit: q"
	if m.activeTab == tabHistory {
		help = "Nav: left/right  Scroll: up/down  Filter: /  Refresh: r  Quit: q"
	}
	lines := []string{headerStyle.Render(help)}
	if m.filterMode {
		lines = append(lines, m.filter.View())
	} else if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = lipgloss.NewStyle().MaxWidth(width).Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
