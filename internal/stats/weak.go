package stats

import (
	"sort"

	"github.com/verte-zerg/nihongo/internal/model"
)

// LessonAccuracy aggregates answers over every run of a lesson.
type LessonAccuracy struct {
	LessonID  int
	Runs      int
	Correct   int
	Incorrect int
}

// Accuracy returns the aggregated share of correct answers.
func (l LessonAccuracy) Accuracy() float64 {
	return Accuracy(l.Correct, l.Incorrect)
}

// WeakLessons returns up to top lessons with the lowest accuracy. Lessons
// without a wrong answer are never weak.
func WeakLessons(runs []model.LessonRun, top int) []LessonAccuracy {
	byLesson := map[int]*LessonAccuracy{}
	for _, r := range runs {
		agg, ok := byLesson[r.LessonID]
		if !ok {
			agg = &LessonAccuracy{LessonID: r.LessonID}
			byLesson[r.LessonID] = agg
		}
		agg.Runs++
		agg.Correct += r.Correct
		agg.Incorrect += r.Incorrect
	}
	candidates := make([]LessonAccuracy, 0, len(byLesson))
	for _, agg := range byLesson {
		if agg.Incorrect > 0 {
			candidates = append(candidates, *agg)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai, aj := candidates[i].Accuracy(), candidates[j].Accuracy()
		if ai == aj {
			return candidates[i].LessonID < candidates[j].LessonID
		}
		return ai < aj
	})
	if top > 0 && top < len(candidates) {
		candidates = candidates[:top]
	}
	return candidates
}
