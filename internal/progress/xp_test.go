package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	sunday    = time.Date(2025, 6, 15, 9, 30, 0, 0, time.Local)
	wednesday = time.Date(2025, 6, 18, 21, 0, 0, 0, time.Local)
)

func TestKeyOfTruncatesToDay(t *testing.T) {
	morning := time.Date(2025, 6, 18, 0, 0, 1, 0, time.Local)
	night := time.Date(2025, 6, 18, 23, 59, 59, 0, time.Local)
	assert.Equal(t, DateKey("2025-06-18"), KeyOf(morning))
	assert.Equal(t, KeyOf(morning), KeyOf(night))

	parsed, err := ParseDateKey("2025-06-18")
	assert.NoError(t, err)
	assert.Equal(t, KeyOf(morning), KeyOf(parsed))
}

func TestAddXPSumsSameDayInAnyOrder(t *testing.T) {
	amounts := []int{10, 15, 5, 20}
	forward := XPLedger{}
	for _, a := range amounts {
		forward = AddXP(forward, a, wednesday)
	}
	backward := XPLedger{}
	for i := len(amounts) - 1; i >= 0; i-- {
		backward = AddXP(backward, amounts[i], wednesday.Add(-time.Duration(i)*time.Hour))
	}
	assert.Equal(t, 50, XPAt(forward, wednesday))
	assert.Equal(t, XPAt(forward, wednesday), XPAt(backward, wednesday))
}

func TestAddXPDoesNotMutateInput(t *testing.T) {
	ledger := XPLedger{"2025-06-18": 5}
	next := AddXP(ledger, 10, wednesday)
	assert.Equal(t, 5, ledger["2025-06-18"])
	assert.Equal(t, 15, next["2025-06-18"])
}

func TestXPAtMissingDayIsZero(t *testing.T) {
	assert.Equal(t, 0, XPAt(XPLedger{}, wednesday))
	assert.Equal(t, 0, XPAt(nil, wednesday))
}

func TestAddXPAcceptsNegativeAmounts(t *testing.T) {
	ledger := AddXP(XPLedger{}, -7, wednesday)
	assert.Equal(t, -7, XPAt(ledger, wednesday))
}

func TestXPThisWeekOnSundayIsToday(t *testing.T) {
	ledger := AddXP(XPLedger{}, 30, sunday)
	ledger = AddXP(ledger, 99, sunday.AddDate(0, 0, -1))
	assert.Equal(t, 30, XPThisWeek(ledger, sunday))
}

func TestXPThisWeekWalksBackToSunday(t *testing.T) {
	ledger := XPLedger{}
	ledger = AddXP(ledger, 1, sunday.AddDate(0, 0, -1)) // saturday before, outside
	ledger = AddXP(ledger, 10, sunday)
	ledger = AddXP(ledger, 20, sunday.AddDate(0, 0, 2))
	ledger = AddXP(ledger, 40, wednesday)
	ledger = AddXP(ledger, 80, wednesday.AddDate(0, 0, 1)) // future
	assert.Equal(t, 70, XPThisWeek(ledger, wednesday))
}

func TestWeekDays(t *testing.T) {
	ledger := XPLedger{}
	ledger = AddXP(ledger, 10, sunday)
	ledger = AddXP(ledger, 40, wednesday)
	ledger = AddXP(ledger, 80, wednesday.AddDate(0, 0, 1))
	assert.Equal(t, [7]int{10, 0, 0, 40, 0, 0, 0}, WeekDays(ledger, wednesday))
}
