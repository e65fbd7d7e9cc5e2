package progress

import (
	"time"

	"github.com/samber/lo"
)

// XPLedger maps calendar days to the XP earned on them. A missing key reads
// as zero.
type XPLedger map[DateKey]int

// AddXP returns a copy of ledger with amount added to day's entry. No
// validation is performed on amount.
func AddXP(ledger XPLedger, amount int, day time.Time) XPLedger {
	out := make(XPLedger, len(ledger)+1)
	for k, v := range ledger {
		out[k] = v
	}
	key := KeyOf(day)
	out[key] = out[key] + amount
	return out
}

// XPAt returns the XP stored for day.
func XPAt(ledger XPLedger, day time.Time) int {
	return ledger[KeyOf(day)]
}

// XPThisWeek sums XP from the most recent Sunday through today inclusive.
func XPThisWeek(ledger XPLedger, today time.Time) int {
	window := int(today.Weekday()) + 1
	return lo.Sum(lo.Times(window, func(i int) int {
		return XPAt(ledger, daysBack(today, i))
	}))
}

// WeekDays returns the XP for each day of the current Sunday-first week,
// index 0 being Sunday. Days after today read as zero.
func WeekDays(ledger XPLedger, today time.Time) [7]int {
	var out [7]int
	dow := int(today.Weekday())
	for i := 0; i <= dow; i++ {
		out[dow-i] = XPAt(ledger, daysBack(today, i))
	}
	return out
}
