package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// GoalReward is the lingot bonus paid once per day when the goal is reached.
const GoalReward = 10

// GoalXP is the daily XP target.
type GoalXP int

// DefaultGoalXP is the goal a fresh state starts with.
const DefaultGoalXP GoalXP = 200

// GoalXPChoices lists the selectable daily goals.
var GoalXPChoices = []GoalXP{200, 250, 300, 350, 400}

var (
	// ErrInvalidGoal is returned for a goal outside GoalXPChoices.
	ErrInvalidGoal = errors.New("invalid daily goal")
	// ErrInvalidAmount is returned when an XP gain is negative.
	ErrInvalidAmount = errors.New("xp gain must not be negative")
)

// ParseGoalXP validates v against GoalXPChoices.
func ParseGoalXP(v int) (GoalXP, error) {
	goal := GoalXP(v)
	if !lo.Contains(GoalXPChoices, goal) {
		return 0, fmt.Errorf("%w: %d (choose one of %v)", ErrInvalidGoal, v, GoalXPChoices)
	}
	return goal, nil
}

// State is the learner's gamification snapshot. Methods return a new State
// and leave the receiver untouched.
type State struct {
	XPByDate               XPLedger
	ActiveDays             ActiveDays
	Streak                 int
	GoalXP                 GoalXP
	GoalRewardClaimedDates []DateKey
	Wallet                 Wallet
}

// NewState returns an empty state with the default goal.
func NewState() State {
	return State{
		XPByDate: XPLedger{},
		GoalXP:   DefaultGoalXP,
	}
}

// Gain describes the effect of one IncreaseXP call.
type Gain struct {
	Amount   int
	XPToday  int
	Streak   int
	Rewarded bool
}

// IncreaseXP adds amount XP for now's day, marks the day active, refreshes
// the cached streak and pays GoalReward when the day first reaches the goal.
// The claim and the credit happen in the same returned state or not at all.
func (s State) IncreaseXP(amount int, now time.Time) (State, Gain, error) {
	if amount < 0 {
		return s, Gain{}, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	next := s
	next.XPByDate = AddXP(s.XPByDate, amount, now)
	next.ActiveDays = AddActiveDay(s.ActiveDays, now)
	next.Streak = CurrentStreak(next.ActiveDays, now)

	gain := Gain{
		Amount:  amount,
		XPToday: XPAt(next.XPByDate, now),
		Streak:  next.Streak,
	}
	today := KeyOf(now)
	if gain.XPToday >= int(next.Goal()) && !s.GoalClaimed(now) {
		next.Wallet = s.Wallet.Increase(GoalReward)
		claimed := make([]DateKey, len(s.GoalRewardClaimedDates), len(s.GoalRewardClaimedDates)+1)
		copy(claimed, s.GoalRewardClaimedDates)
		next.GoalRewardClaimedDates = append(claimed, today)
		gain.Rewarded = true
	}
	return next, gain, nil
}

// GoalClaimed reports whether the goal reward was already paid for day.
func (s State) GoalClaimed(day time.Time) bool {
	return lo.Contains(s.GoalRewardClaimedDates, KeyOf(day))
}

// XPToday returns XP earned on now's day.
func (s State) XPToday(now time.Time) int {
	return XPAt(s.XPByDate, now)
}

// XPThisWeek returns XP earned since the most recent Sunday.
func (s State) XPThisWeek(now time.Time) int {
	return XPThisWeek(s.XPByDate, now)
}

// IsActiveDay reports whether the learner earned XP on day.
func (s State) IsActiveDay(day time.Time) bool {
	return IsActiveDay(s.ActiveDays, day)
}

// RefreshStreak recomputes the cached streak for now. Loaded states must be
// refreshed since a day may have passed since they were saved.
func (s State) RefreshStreak(now time.Time) State {
	s.Streak = CurrentStreak(s.ActiveDays, now)
	return s
}

// SetGoalXP changes the daily goal. Already claimed days stay claimed.
func (s State) SetGoalXP(goal GoalXP) (State, error) {
	if _, err := ParseGoalXP(int(goal)); err != nil {
		return s, err
	}
	s.GoalXP = goal
	return s, nil
}

// BuyStreakFreeze spends StreakFreezeCost for one streak freeze.
func (s State) BuyStreakFreeze(policy SpendPolicy) (State, error) {
	if s.Wallet.StreakFreezes >= MaxStreakFreezes {
		return s, ErrFreezeLimit
	}
	if err := policy.check(s.Wallet, StreakFreezeCost); err != nil {
		return s, err
	}
	s.Wallet = s.Wallet.Spend(StreakFreezeCost)
	s.Wallet.StreakFreezes++
	return s, nil
}

// BuyDoubleOrNothing spends DoubleOrNothingCost to activate the wager.
func (s State) BuyDoubleOrNothing(policy SpendPolicy) (State, error) {
	if s.Wallet.DoubleOrNothing {
		return s, ErrAlreadyOwned
	}
	if err := policy.check(s.Wallet, DoubleOrNothingCost); err != nil {
		return s, err
	}
	s.Wallet = s.Wallet.Spend(DoubleOrNothingCost)
	s.Wallet.DoubleOrNothing = true
	return s, nil
}

// Goal returns the daily goal, falling back to DefaultGoalXP when unset.
func (s State) Goal() GoalXP {
	if s.GoalXP <= 0 {
		return DefaultGoalXP
	}
	return s.GoalXP
}
