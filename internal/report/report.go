// Package report builds the end-of-month summary from a budget state and
// delivers it by email.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"vstack/internal/core"
)

// CategoryLine is one category row in the monthly report.
type CategoryLine struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Icon      string          `json:"icon"`
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	// UsedPercent is spent over budget; zero when no budget is set.
	UsedPercent float64 `json:"usedPercent"`
}

// MonthlyReport is a read-only projection of a budget state at month end.
type MonthlyReport struct {
	Month            string             `json:"month"`
	TotalBudget      decimal.Decimal    `json:"totalBudget"`
	TotalSpent       decimal.Decimal    `json:"totalSpent"`
	TotalIncome      decimal.Decimal    `json:"totalIncome"`
	RemainingBalance decimal.Decimal    `json:"remainingBalance"`
	Categories       []CategoryLine     `json:"categories"`
	TopExpenses      []core.Transaction `json:"topExpenses"`
	ExpenseCount     int                `json:"expenseCount"`
	IncomeCount      int                `json:"incomeCount"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}

const topExpenseCount = 5

// Build projects a budget state into its monthly report. The state is not
// modified; callers reset the month separately.
func Build(state core.BudgetState, now time.Time) MonthlyReport {
	r := MonthlyReport{
		Month:            state.CurrentMonth,
		TotalBudget:      state.TotalBudget,
		TotalSpent:       state.TotalSpent,
		TotalIncome:      state.TotalIncome,
		RemainingBalance: state.RemainingBalance,
		IncomeCount:      len(state.IncomeTransactions),
		GeneratedAt:      now,
	}

	var expenses []core.Transaction
	for _, cat := range state.Categories {
		remaining := cat.Budget.Sub(cat.Spent)
		line := CategoryLine{
			ID:        cat.ID,
			Name:      cat.Name,
			Icon:      cat.Icon,
			Budget:    cat.Budget,
			Spent:     cat.Spent,
			Remaining: remaining,
		}
		if cat.Budget.IsPositive() {
			pct, _ := cat.Spent.Div(cat.Budget).Mul(decimal.NewFromInt(100)).Round(1).Float64()
			line.UsedPercent = pct
		}
		r.Categories = append(r.Categories, line)

		for _, t := range cat.Transactions {
			if t.Type == core.Expense {
				expenses = append(expenses, t)
			}
		}
	}
	r.ExpenseCount = len(expenses)

	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Amount.GreaterThan(expenses[j].Amount)
	})
	if len(expenses) > topExpenseCount {
		expenses = expenses[:topExpenseCount]
	}
	r.TopExpenses = expenses

	return r
}
