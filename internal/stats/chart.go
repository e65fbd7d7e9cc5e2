package stats

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/nihongo/internal/progress"
)

const (
	minBarWidth         = 10
	barChar             = "█"
	goalChar            = "│"
	colorReset          = "\x1b[0m"
	colorBar            = "\x1b[33m"
	colorGoal           = "\x1b[32m"
	terminalWidthBackup = 80
	weekLabelWidth      = len("Sun 01-02 ")
	weekValueWidth      = len(" 10,000")
)

// RenderWeek prints one horizontal bar per day of the current Sunday-first
// week. Bars are scaled so the larger of the goal and the best day fills
// the width; a marker shows the goal.
func RenderWeek(w io.Writer, state progress.State, now time.Time, totalWidth int, forceColor bool) error {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	width := BarWidthFor(totalWidth)
	useColor := shouldUseColor(w, forceColor)
	days := progress.WeekDays(state.XPByDate, now)
	goal := int(state.Goal())
	scale := goal
	for _, xp := range days {
		scale = max(scale, xp)
	}
	goalCol := cellsFor(goal, scale, width)

	if _, err := fmt.Fprintln(w, "This week"); err != nil {
		return err
	}
	dow := int(now.Weekday())
	for i, xp := range days {
		day := now.AddDate(0, 0, i-dow)
		label := day.Format("Mon 01-02")
		bar := renderBar(cellsFor(xp, scale, width), goalCol, width, useColor)
		value := printer.Sprintf("%d", xp)
		if i > dow {
			value = ""
		}
		if _, err := fmt.Fprintf(w, "%s %s %*s\n", label, bar, weekValueWidth-1, value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BarWidthFor returns the bar area left after labels for a terminal width.
func BarWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	return max(minBarWidth, totalWidth-weekLabelWidth-weekValueWidth-1)
}

func cellsFor(value, scale, width int) int {
	if scale <= 0 || value <= 0 {
		return 0
	}
	return min(width, value*width/scale)
}

func renderBar(filled, goalCol, width int, useColor bool) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			if useColor {
				b.WriteString(colorBar + barChar + colorReset)
			} else {
				b.WriteString(barChar)
			}
		case i == goalCol-1 && goalCol > filled:
			if useColor {
				b.WriteString(colorGoal + goalChar + colorReset)
			} else {
				b.WriteString(goalChar)
			}
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
