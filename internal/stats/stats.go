package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"
)

const sparkChars = " .:-=+*#%@"

var printer = message.NewPrinter(language.English)

// Accuracy returns the share of correct answers in [0, 1].
func Accuracy(correct, incorrect int) float64 {
	total := correct + incorrect
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FormatXP renders an XP amount with thousands separators.
func FormatXP(xp int) string {
	return printer.Sprintf("%d XP", xp)
}

// RenderSummary prints streak, goal and wallet figures.
func RenderSummary(w io.Writer, state progress.State, now time.Time) error {
	goal := int(state.Goal())
	today := state.XPToday(now)
	goalNote := "in progress"
	if state.GoalClaimed(now) {
		goalNote = fmt.Sprintf("reached, +%d lingots", progress.GoalReward)
	} else if today >= goal {
		goalNote = "reached"
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Streak: %s", pluralDays(state.Streak)),
		fmt.Sprintf("Today: %s / %s (%s)", FormatXP(today), FormatXP(goal), goalNote),
		fmt.Sprintf("This week: %s", FormatXP(state.XPThisWeek(now))),
		printer.Sprintf("Lingots: %d", state.Wallet.Lingots),
		fmt.Sprintf("Streak freezes: %d / %d", state.Wallet.StreakFreezes, progress.MaxStreakFreezes),
	}
	if state.Wallet.DoubleOrNothing {
		lines = append(lines, "Double or nothing: active")
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// RenderRuns prints a table of lesson runs, newest last.
func RenderRuns(w io.Writer, runs []model.LessonRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No lessons played yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Recent lessons"); err != nil {
		return err
	}
	headers := []string{"Date", "Lesson", "Mode", "Correct", "Wrong", "Accuracy", "XP", "Done"}
	rows := make([][]string, 0, len(runs))
	accs := make([]float64, 0, len(runs))
	for _, r := range runs {
		acc := Accuracy(r.Correct, r.Incorrect)
		accs = append(accs, acc*100)
		rows = append(rows, []string{
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.LessonID),
			runMode(r),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
			fmt.Sprintf("%.1f%%", acc*100),
			printer.Sprintf("%d", r.XP),
			doneMark(r.Completed),
		})
	}
	rightAlign := map[int]bool{1: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(accs) > 1 {
		if _, err := fmt.Fprintf(w, "Accuracy trend: %s\n", Sparkline(MovingAverage(accs, 3))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func runMode(r model.LessonRun) string {
	if r.Practice {
		return "practice"
	}
	return "lesson"
}

func doneMark(done bool) string {
	if done {
		return "yes"
	}
	return "no"
}
