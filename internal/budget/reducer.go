// Package budget implements the state reducer: the single authority that
// computes derived financial totals and applies every mutation of the
// aggregate budget state.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"vstack/internal/core"
)

// InitialState builds a fresh state from the seed catalog: zero budgets,
// zero totals, current calendar month.
func InitialState() core.BudgetState {
	return InitialStateAt(time.Now())
}

// InitialStateAt is InitialState with an explicit clock, for tests and for
// deterministic snapshot defaulting.
func InitialStateAt(now time.Time) core.BudgetState {
	return core.BudgetState{
		Categories:         core.Catalog(),
		TotalBudget:        decimal.Zero,
		TotalSpent:         decimal.Zero,
		TotalIncome:        decimal.Zero,
		RemainingBalance:   decimal.Zero,
		CurrentMonth:       core.MonthOf(now),
		LastResetDate:      now,
		IncomeTransactions: []core.Transaction{},
	}
}

// Apply is the transition function: (state, action) → next state.
//
// It is total over valid states: precondition failures (unknown category,
// missing transaction, unknown action) return the state unchanged rather
// than an error. Input values are never mutated; every transition that
// changes anything returns a new state, structurally sharing the untouched
// categories.
func Apply(state core.BudgetState, action Action) core.BudgetState {
	switch a := action.(type) {
	case SetBudget:
		return patchCategory(state, a.CategoryID, func(c *core.Category) {
			c.Budget = a.Amount
		})

	case SetSpent:
		return patchCategory(state, a.CategoryID, func(c *core.Category) {
			// Manual override: clamp at zero, leave the transaction
			// list alone. Spent drifts from the derived sum until the
			// next transaction mutation.
			if a.Amount.IsNegative() {
				c.Spent = decimal.Zero
			} else {
				c.Spent = a.Amount
			}
		})

	case AddTransaction:
		return addTransaction(state, a.Transaction)

	case DeleteTransaction:
		return deleteTransaction(state, a.TransactionID, a.CategoryID)

	case ResetMonthlyBudget:
		now := a.Now
		if now.IsZero() {
			now = time.Now()
		}
		return resetMonthly(state, now)

	case CarryOverBalance:
		return carryOver(state)

	case AllocateToSavings:
		next := state
		next.RemainingBalance = state.RemainingBalance.Sub(a.Amount)
		if next.RemainingBalance.IsNegative() {
			next.RemainingBalance = decimal.Zero
		}
		return next

	case LoadData:
		return a.Snapshot.State()

	case UpdateCategory:
		return patchCategory(state, a.CategoryID, func(c *core.Category) {
			if a.Patch.Name != nil {
				c.Name = *a.Patch.Name
			}
			if a.Patch.Icon != nil {
				c.Icon = *a.Patch.Icon
			}
			if a.Patch.Budget != nil {
				c.Budget = *a.Patch.Budget
			}
			if a.Patch.Spent != nil {
				c.Spent = *a.Patch.Spent
			}
		})

	default:
		// Unknown actions are no-ops, not errors.
		return state
	}
}

// patchCategory clones the targeted category, applies fn to the clone and
// recomputes totals. Returns the state unchanged when the ID is absent.
func patchCategory(state core.BudgetState, id string, fn func(*core.Category)) core.BudgetState {
	idx := -1
	for i := range state.Categories {
		if state.Categories[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return state
	}

	cats := append([]core.Category(nil), state.Categories...)
	clone := cats[idx].Clone()
	fn(&clone)
	cats[idx] = clone

	return withTotals(state, cats, state.TotalIncome, state.IncomeTransactions)
}

func addTransaction(state core.BudgetState, tx core.Transaction) core.BudgetState {
	if tx.Type == core.Income {
		income := append(append([]core.Transaction(nil), state.IncomeTransactions...), tx)
		return withTotals(state, state.Categories, core.SumIncome(income), income)
	}

	return patchCategory(state, tx.Category, func(c *core.Category) {
		c.Transactions = append(c.Transactions, tx)
		c.Spent = core.CategorySpent(c.Transactions)
	})
}

func deleteTransaction(state core.BudgetState, txID, categoryID string) core.BudgetState {
	if categoryID == core.IncomeCategoryID {
		income := make([]core.Transaction, 0, len(state.IncomeTransactions))
		for _, t := range state.IncomeTransactions {
			if t.ID != txID {
				income = append(income, t)
			}
		}
		return withTotals(state, state.Categories, core.SumIncome(income), income)
	}

	return patchCategory(state, categoryID, func(c *core.Category) {
		kept := make([]core.Transaction, 0, len(c.Transactions))
		for _, t := range c.Transactions {
			if t.ID != txID {
				kept = append(kept, t)
			}
		}
		c.Transactions = kept
		c.Spent = core.CategorySpent(kept)
	})
}

func resetMonthly(state core.BudgetState, now time.Time) core.BudgetState {
	cats := make([]core.Category, 0, len(state.Categories))
	for _, c := range state.Categories {
		clone := c.Clone()
		clone.Spent = decimal.Zero
		clone.Transactions = []core.Transaction{}
		cats = append(cats, clone)
	}

	next := withTotals(state, cats, decimal.Zero, []core.Transaction{})
	next.CurrentMonth = core.MonthOf(now)
	next.LastResetDate = now
	return next
}

func carryOver(state core.BudgetState) core.BudgetState {
	if !state.RemainingBalance.IsPositive() || len(state.Categories) == 0 {
		return state
	}

	n := int64(len(state.Categories))
	share := state.RemainingBalance.DivRound(decimal.NewFromInt(n), 2)
	// The last category absorbs the rounding remainder so the total budget
	// increase equals the carried balance exactly.
	last := state.RemainingBalance.Sub(share.Mul(decimal.NewFromInt(n - 1)))

	cats := make([]core.Category, 0, len(state.Categories))
	for i, c := range state.Categories {
		clone := c.Clone()
		if i == len(state.Categories)-1 {
			clone.Budget = clone.Budget.Add(last)
		} else {
			clone.Budget = clone.Budget.Add(share)
		}
		cats = append(cats, clone)
	}

	return withTotals(state, cats, state.TotalIncome, state.IncomeTransactions)
}

// withTotals assembles the next state from the given parts and recomputes
// every derived total. All reducer arms that touch categories or income
// funnel through here, which is what keeps the totals invariants true
// after every transition.
func withTotals(state core.BudgetState, cats []core.Category, totalIncome decimal.Decimal, income []core.Transaction) core.BudgetState {
	totals := core.ComputeTotals(cats, totalIncome)
	next := state
	next.Categories = cats
	next.IncomeTransactions = income
	next.TotalIncome = totalIncome
	next.TotalBudget = totals.TotalBudget
	next.TotalSpent = totals.TotalSpent
	next.RemainingBalance = totals.RemainingBalance
	return next
}
