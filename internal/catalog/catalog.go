// Package catalog locates units, lessons and their challenges.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/nihongo/internal/model"
)

// ErrLessonNotFound is returned for a lesson id no source knows.
var ErrLessonNotFound = errors.New("lesson not found")

// Source provides course content for a learner.
type Source interface {
	Units(ctx context.Context, userID int) ([]model.Unit, error)
	Challenges(ctx context.Context, lessonID, userID int) ([]model.Challenge, error)
}

// Lessons flattens units into their lessons, ordered by unit then lesson.
func Lessons(units []model.Unit) []model.Lesson {
	sorted := append([]model.Unit(nil), units...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DisplayOrder < sorted[j].DisplayOrder
	})
	return lo.FlatMap(sorted, func(u model.Unit, _ int) []model.Lesson {
		lessons := append([]model.Lesson(nil), u.Lessons...)
		sort.SliceStable(lessons, func(i, j int) bool {
			return lessons[i].Order < lessons[j].Order
		})
		return lessons
	})
}

// UnitsAtLevel returns the units of one level ordered by display order.
// An empty level keeps every unit.
func UnitsAtLevel(units []model.Unit, level string) []model.Unit {
	out := lo.Filter(units, func(u model.Unit, _ int) bool {
		return level == "" || strings.EqualFold(u.Level, level)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// Levels lists the distinct unit levels in display order.
func Levels(units []model.Unit) []string {
	levels := lo.Map(UnitsAtLevel(units, ""), func(u model.Unit, _ int) string { return u.Level })
	return lo.Uniq(lo.Filter(levels, func(l string, _ int) bool { return l != "" }))
}

// CurrentLesson returns the first lesson marked current.
func CurrentLesson(units []model.Unit) (model.Lesson, bool) {
	return lo.Find(Lessons(units), func(l model.Lesson) bool {
		return l.Status == model.LessonCurrent
	})
}

// FindLesson returns the lesson with the given id.
func FindLesson(units []model.Unit, id int) (model.Lesson, error) {
	lesson, ok := lo.Find(Lessons(units), func(l model.Lesson) bool {
		return l.ID == id
	})
	if !ok {
		return model.Lesson{}, fmt.Errorf("%w: %d", ErrLessonNotFound, id)
	}
	return lesson, nil
}

// PreviousLessons returns lessons with an id below the current lesson's.
// Without a current lesson there is nothing to review.
func PreviousLessons(units []model.Unit) []model.Lesson {
	current, ok := CurrentLesson(units)
	if !ok {
		return nil
	}
	return lo.Filter(Lessons(units), func(l model.Lesson, _ int) bool {
		return l.ID < current.ID
	})
}

// IsCompleted reports whether lesson id is completed.
func IsCompleted(units []model.Unit, id int) bool {
	lesson, err := FindLesson(units, id)
	return err == nil && lesson.Status == model.LessonCompleted
}

// PracticeChallenges gathers the incomplete challenges of every lesson
// before the current one.
func PracticeChallenges(ctx context.Context, src Source, userID int) ([]model.Challenge, error) {
	units, err := src.Units(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	var out []model.Challenge
	for _, lesson := range PreviousLessons(units) {
		challenges, err := src.Challenges(ctx, lesson.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load lesson %d: %w", lesson.ID, err)
		}
		out = append(out, lo.Filter(challenges, func(c model.Challenge, _ int) bool {
			return !c.Completed
		})...)
	}
	return out, nil
}

// Vocabulary collects every ordering word across challenges. It feeds
// distractor tiles.
func Vocabulary(challenges []model.Challenge) []string {
	return lo.Uniq(lo.FlatMap(challenges, func(c model.Challenge, _ int) []string {
		return c.Words
	}))
}

// WithProgress rewrites lesson statuses from a set of completed lesson ids:
// completed lessons stay completed, the first remaining lesson in course
// order becomes current and the rest are locked. Offline packs use it since
// their file never changes.
func WithProgress(units []model.Unit, completed []int) []model.Unit {
	done := lo.Associate(completed, func(id int) (int, bool) { return id, true })
	current := 0
	for _, l := range Lessons(units) {
		if !done[l.ID] {
			current = l.ID
			break
		}
	}
	out := make([]model.Unit, len(units))
	for i, u := range units {
		u.Lessons = lo.Map(u.Lessons, func(l model.Lesson, _ int) model.Lesson {
			switch {
			case done[l.ID]:
				l.Status = model.LessonCompleted
			case l.ID == current:
				l.Status = model.LessonCurrent
			default:
				l.Status = model.LessonLocked
			}
			return l
		})
		out[i] = u
	}
	return out
}
