package core

import "github.com/shopspring/decimal"

// Totals are the derived aggregate figures of a budget state.
type Totals struct {
	TotalBudget      decimal.Decimal
	TotalSpent       decimal.Decimal
	RemainingBalance decimal.Decimal
}

// ComputeTotals sums budgets and spent amounts over all categories.
//
// RemainingBalance is income-anchored: totalIncome minus totalSpent, NOT
// budget minus spent. A budget with no recorded income nets a negative
// remaining balance even while spend stays under budget. The per-category
// remaining figure (budget − spent) is a different number and is computed
// where it is displayed, never here.
func ComputeTotals(categories []Category, totalIncome decimal.Decimal) Totals {
	totalBudget := decimal.Zero
	totalSpent := decimal.Zero
	for _, cat := range categories {
		totalBudget = totalBudget.Add(cat.Budget)
		totalSpent = totalSpent.Add(cat.Spent)
	}
	return Totals{
		TotalBudget:      totalBudget,
		TotalSpent:       totalSpent,
		RemainingBalance: totalIncome.Sub(totalSpent),
	}
}

// CategorySpent recomputes a category's spent figure from its transaction
// list: the sum of expense-type amounts only.
func CategorySpent(transactions []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range transactions {
		if t.Type == Expense {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// SumIncome sums the amounts of an income transaction list.
func SumIncome(transactions []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range transactions {
		sum = sum.Add(t.Amount)
	}
	return sum
}
