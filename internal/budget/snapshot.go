package budget

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"vstack/internal/core"
)

// Snapshot is the persisted wire shape of a budget state. Every field that
// a historical snapshot may lack is a pointer or nil-able slice, so the
// defaulting rules are explicit and enumerated in one place (State) rather
// than scattered through implicit zero values. Old snapshots written before
// income tracking existed load without error.
type Snapshot struct {
	Categories         []CategorySnapshot `json:"categories"`
	TotalBudget        *decimal.Decimal   `json:"totalBudget,omitempty"`
	TotalSpent         *decimal.Decimal   `json:"totalSpent,omitempty"`
	TotalIncome        *decimal.Decimal   `json:"totalIncome,omitempty"`
	RemainingBalance   *decimal.Decimal   `json:"remainingBalance,omitempty"`
	CurrentMonth       string             `json:"currentMonth,omitempty"`
	LastResetDate      *time.Time         `json:"lastResetDate,omitempty"`
	IncomeTransactions []core.Transaction `json:"incomeTransactions,omitempty"`
}

// CategorySnapshot mirrors core.Category with optional amounts.
type CategorySnapshot struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Icon         string             `json:"icon"`
	Budget       *decimal.Decimal   `json:"budget,omitempty"`
	Spent        *decimal.Decimal   `json:"spent,omitempty"`
	Transactions []core.Transaction `json:"transactions,omitempty"`
}

// Take captures a state as a fully populated snapshot.
func Take(state core.BudgetState) Snapshot {
	cats := make([]CategorySnapshot, 0, len(state.Categories))
	for _, c := range state.Categories {
		budget, spent := c.Budget, c.Spent
		cats = append(cats, CategorySnapshot{
			ID:           c.ID,
			Name:         c.Name,
			Icon:         c.Icon,
			Budget:       &budget,
			Spent:        &spent,
			Transactions: append([]core.Transaction{}, c.Transactions...),
		})
	}

	totalBudget, totalSpent := state.TotalBudget, state.TotalSpent
	totalIncome, remaining := state.TotalIncome, state.RemainingBalance
	reset := state.LastResetDate
	return Snapshot{
		Categories:         cats,
		TotalBudget:        &totalBudget,
		TotalSpent:         &totalSpent,
		TotalIncome:        &totalIncome,
		RemainingBalance:   &remaining,
		CurrentMonth:       state.CurrentMonth,
		LastResetDate:      &reset,
		IncomeTransactions: append([]core.Transaction{}, state.IncomeTransactions...),
	}
}

// Encode serializes a state for the persistence collaborator.
func Encode(state core.BudgetState) ([]byte, error) {
	return json.Marshal(Take(state))
}

// Decode parses a persisted snapshot. A payload whose shape does not match
// (categories not a list, totals not numeric) fails here; callers discard
// it and fall back to the initial state.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Valid reports whether the snapshot has the structure every version of the
// app has written: a category list and the three original totals. Income
// fields stay optional for forward compatibility.
func (s Snapshot) Valid() bool {
	return s.Categories != nil && s.TotalBudget != nil && s.TotalSpent != nil && s.RemainingBalance != nil
}

// State materializes the snapshot, defaulting every missing field to its
// initial-state value.
func (s Snapshot) State() core.BudgetState {
	now := time.Now()
	state := InitialStateAt(now)

	if s.Categories != nil {
		cats := make([]core.Category, 0, len(s.Categories))
		for _, cs := range s.Categories {
			cat := core.Category{
				ID:           cs.ID,
				Name:         cs.Name,
				Icon:         cs.Icon,
				Budget:       orZero(cs.Budget),
				Spent:        orZero(cs.Spent),
				Transactions: cs.Transactions,
			}
			if cat.Transactions == nil {
				cat.Transactions = []core.Transaction{}
			}
			cats = append(cats, cat)
		}
		state.Categories = cats
	}

	state.TotalBudget = orZero(s.TotalBudget)
	state.TotalSpent = orZero(s.TotalSpent)
	state.TotalIncome = orZero(s.TotalIncome)
	state.RemainingBalance = orZero(s.RemainingBalance)

	if s.CurrentMonth != "" {
		state.CurrentMonth = s.CurrentMonth
	}
	if s.LastResetDate != nil && !s.LastResetDate.IsZero() {
		state.LastResetDate = *s.LastResetDate
	}
	if s.IncomeTransactions != nil {
		state.IncomeTransactions = s.IncomeTransactions
	}

	return state
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
