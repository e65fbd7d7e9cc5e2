package progress

import "errors"

// Shop prices and limits, in lingots.
const (
	StreakFreezeCost    = 10
	DoubleOrNothingCost = 5
	MaxStreakFreezes    = 2
)

var (
	// ErrInsufficientFunds is returned by a strict purchase the wallet cannot cover.
	ErrInsufficientFunds = errors.New("insufficient lingots")
	// ErrFreezeLimit is returned when the learner already holds MaxStreakFreezes.
	ErrFreezeLimit = errors.New("streak freeze limit reached")
	// ErrAlreadyOwned is returned when double-or-nothing is already active.
	ErrAlreadyOwned = errors.New("double or nothing already active")
)

// Wallet is the app-local lingot balance and the items bought with it.
// It is unrelated to any on-chain token balance.
type Wallet struct {
	Lingots         int
	StreakFreezes   int
	DoubleOrNothing bool
}

// Increase credits amount lingots.
func (w Wallet) Increase(amount int) Wallet {
	w.Lingots += amount
	return w
}

// Spend debits amount lingots unconditionally. The balance may go negative;
// affordability is the caller's concern.
func (w Wallet) Spend(amount int) Wallet {
	w.Lingots -= amount
	return w
}

// CanAfford reports whether the balance covers amount.
func (w Wallet) CanAfford(amount int) bool {
	return w.Lingots >= amount
}

// SpendPolicy decides whether a purchase may take the balance below zero.
type SpendPolicy int

const (
	// StrictSpend rejects purchases the balance cannot cover.
	StrictSpend SpendPolicy = iota
	// AllowDebt debits regardless of balance.
	AllowDebt
)

func (p SpendPolicy) check(w Wallet, cost int) error {
	if p == AllowDebt || w.CanAfford(cost) {
		return nil
	}
	return ErrInsufficientFunds
}

// String implements fmt.Stringer.
func (p SpendPolicy) String() string {
	if p == AllowDebt {
		return "allow-debt"
	}
	return "strict"
}
