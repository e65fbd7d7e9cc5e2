package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"
)

// weakLessonCount bounds the weak lesson list in reports.
const weakLessonCount = 3

// Report contains precomputed data for progress rendering.
type Report struct {
	State progress.State
	Runs  []model.LessonRun
	Weak  []LessonAccuracy
	Now   time.Time
}

// Loader reads saved progress; *store.Store implements it.
type Loader interface {
	LoadState(ctx context.Context) (progress.State, error)
	ListRuns(ctx context.Context, since *time.Time) ([]model.LessonRun, error)
}

// BuildReport loads the saved state and the last runs. last <= 0 keeps
// every run.
func BuildReport(ctx context.Context, st Loader, now time.Time, last int) (Report, error) {
	state, err := st.LoadState(ctx)
	if err != nil {
		return Report{}, err
	}
	runs, err := st.ListRuns(ctx, nil)
	if err != nil {
		return Report{}, err
	}
	weak := WeakLessons(runs, weakLessonCount)
	if last > 0 && len(runs) > last {
		runs = runs[len(runs)-last:]
	}
	return Report{
		State: state.RefreshStreak(now),
		Runs:  runs,
		Weak:  weak,
		Now:   now,
	}, nil
}

// Render prints every report section.
func Render(w io.Writer, r Report, width int, forceColor bool) error {
	if err := RenderSummary(w, r.State, r.Now); err != nil {
		return err
	}
	if err := RenderWeek(w, r.State, r.Now, width, forceColor); err != nil {
		return err
	}
	if err := RenderRuns(w, r.Runs); err != nil {
		return err
	}
	return RenderWeak(w, r.Weak)
}

// RenderWeak prints the lessons most worth practicing.
func RenderWeak(w io.Writer, weak []LessonAccuracy) error {
	if len(weak) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Worth practicing"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(weak))
	for _, l := range weak {
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.LessonID),
			fmt.Sprintf("%d", l.Runs),
			fmt.Sprintf("%.1f%%", l.Accuracy()*100),
		})
	}
	for _, line := range formatTable([]string{"Lesson", "Runs", "Accuracy"}, rows, map[int]bool{0: true, 1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
