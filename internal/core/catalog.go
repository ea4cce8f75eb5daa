// Package core holds the budget domain model: transactions, categories,
// the aggregate budget state and the derived-total calculators.
package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// seedCategory is one entry of the static catalog. The catalog is
// configuration data: adding a category here never requires touching the
// reducer's transition logic.
type seedCategory struct {
	id   string
	name string
	icon string
}

var seedCatalog = []seedCategory{
	{"gold", "Gold", "💍"},
	{"stock", "Stock", "📈"},
	{"sip", "SIP", "💰"},
	{"petrol", "Petrol", "⛽"},
	{"room-rent", "Room Rent", "🏠"},
	{"groceries", "Groceries", "🛒"},
	{"food", "Food", "🍔"},
	{"shopping", "Shopping", "🛍️"},
	{"skin-care", "Skin Care", "🧴"},
	{"trip", "Trip", "✈️"},
	{"movie", "Movie", "🎬"},
	{"unknown-expenses", "Unknown Expenses", "❓"},
}

// UnknownExpensesID is where unclassified expenses land.
const UnknownExpensesID = "unknown-expenses"

// Catalog returns a fresh copy of the seed categories with zero budgets and
// empty transaction lists. Each call returns independent values, so callers
// may mutate the result freely.
func Catalog() []Category {
	out := make([]Category, 0, len(seedCatalog))
	for _, s := range seedCatalog {
		out = append(out, Category{
			ID:           s.id,
			Name:         s.name,
			Icon:         s.icon,
			Budget:       decimal.Zero,
			Spent:        decimal.Zero,
			Transactions: []Transaction{},
		})
	}
	return out
}

// CurrentMonth returns the "YYYY-MM" identifier for the system clock.
func CurrentMonth() string {
	return MonthOf(time.Now())
}

// MonthOf returns the "YYYY-MM" identifier for an arbitrary instant.
func MonthOf(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
