package progress

import (
	"time"

	"github.com/samber/lo"
)

// ActiveDays lists the distinct days on which the learner earned XP.
// Order carries no meaning.
type ActiveDays []DateKey

// IsActiveDay reports whether day is in days.
func IsActiveDay(days ActiveDays, day time.Time) bool {
	return lo.Contains(days, KeyOf(day))
}

// AddActiveDay returns days with day appended, or days unchanged when day
// is already present.
func AddActiveDay(days ActiveDays, day time.Time) ActiveDays {
	if IsActiveDay(days, day) {
		return days
	}
	out := make(ActiveDays, len(days), len(days)+1)
	copy(out, days)
	return append(out, KeyOf(day))
}

// CurrentStreak counts consecutive active days walking back from today,
// stopping at the first inactive day.
func CurrentStreak(days ActiveDays, today time.Time) int {
	streak := 0
	for IsActiveDay(days, daysBack(today, streak)) {
		streak++
	}
	return streak
}
