package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vstack/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// assertInvariants checks the derived-total invariants that must hold after
// every transition: totalBudget and totalSpent equal the category sums, and
// remainingBalance equals totalIncome minus totalSpent.
func assertInvariants(t *testing.T, s core.BudgetState) {
	t.Helper()
	totals := core.ComputeTotals(s.Categories, s.TotalIncome)
	assert.True(t, s.TotalBudget.Equal(totals.TotalBudget), "totalBudget %s != Σ budget %s", s.TotalBudget, totals.TotalBudget)
	assert.True(t, s.TotalSpent.Equal(totals.TotalSpent), "totalSpent %s != Σ spent %s", s.TotalSpent, totals.TotalSpent)
	assert.True(t, s.RemainingBalance.Equal(s.TotalIncome.Sub(s.TotalSpent)),
		"remainingBalance %s != income %s - spent %s", s.RemainingBalance, s.TotalIncome, s.TotalSpent)
	assert.True(t, core.SumIncome(s.IncomeTransactions).Equal(s.TotalIncome),
		"totalIncome %s != Σ income transactions", s.TotalIncome)
}

func expense(id, category, amount string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Type:        core.Expense,
		Amount:      dec(amount),
		Category:    category,
		Description: "test expense",
		Date:        time.Now(),
	}
}

func income(id, amount string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Type:        core.Income,
		Amount:      dec(amount),
		Description: "test income",
		Date:        time.Now(),
	}
}

func TestSetBudget(t *testing.T) {
	s := InitialState()
	s = Apply(s, SetBudget{CategoryID: "food", Amount: dec("500")})
	s = Apply(s, SetBudget{CategoryID: "petrol", Amount: dec("300")})

	assert.True(t, s.CategoryByID("food").Budget.Equal(dec("500")))
	assert.True(t, s.TotalBudget.Equal(dec("800")))
	assertInvariants(t, s)
}

func TestSetBudgetUnknownCategoryIsNoop(t *testing.T) {
	s := InitialState()
	next := Apply(s, SetBudget{CategoryID: "does-not-exist", Amount: dec("500")})
	assert.Equal(t, s, next)
}

func TestSetSpentClampsAtZero(t *testing.T) {
	s := InitialState()
	s = Apply(s, SetSpent{CategoryID: "food", Amount: dec("-40")})
	assert.True(t, s.CategoryByID("food").Spent.IsZero())

	s = Apply(s, SetSpent{CategoryID: "food", Amount: dec("120.50")})
	assert.True(t, s.CategoryByID("food").Spent.Equal(dec("120.50")))
	assertInvariants(t, s)
}

func TestSetSpentOverrideDriftsUntilNextTransaction(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "100")})
	s = Apply(s, SetSpent{CategoryID: "food", Amount: dec("999")})

	// Manual override diverges from the transaction-derived sum.
	assert.True(t, s.CategoryByID("food").Spent.Equal(dec("999")))

	// The next transaction mutation recomputes spent from the list.
	s = Apply(s, AddTransaction{Transaction: expense("t2", "food", "50")})
	assert.True(t, s.CategoryByID("food").Spent.Equal(dec("150")))
	assertInvariants(t, s)
}

func TestAddTransactionExpense(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "250")})
	s = Apply(s, AddTransaction{Transaction: expense("t2", "food", "100.25")})

	cat := s.CategoryByID("food")
	require.Len(t, cat.Transactions, 2)
	assert.Equal(t, "t1", cat.Transactions[0].ID, "insertion order must be preserved")
	assert.True(t, cat.Spent.Equal(dec("350.25")))
	assert.True(t, s.TotalSpent.Equal(dec("350.25")))
	assertInvariants(t, s)
}

func TestAddTransactionIncome(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: income("i1", "25000")})
	s = Apply(s, AddTransaction{Transaction: income("i2", "1500")})

	require.Len(t, s.IncomeTransactions, 2)
	assert.True(t, s.TotalIncome.Equal(dec("26500")))
	assert.True(t, s.RemainingBalance.Equal(dec("26500")))
	for _, c := range s.Categories {
		assert.Empty(t, c.Transactions, "income must never land in a category list")
	}
	assertInvariants(t, s)
}

func TestAddTransactionUnknownCategoryIsNoop(t *testing.T) {
	s := InitialState()
	next := Apply(s, AddTransaction{Transaction: expense("t1", "no-such-cat", "10")})
	assert.Equal(t, s, next)
}

func TestAddThenDeleteRestoresSpent(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: expense("t1", "shopping", "100")})
	before := s.CategoryByID("shopping").Spent

	s = Apply(s, AddTransaction{Transaction: expense("t2", "shopping", "42.42")})
	s = Apply(s, DeleteTransaction{TransactionID: "t2", CategoryID: "shopping"})

	after := s.CategoryByID("shopping").Spent
	assert.True(t, after.Equal(before), "expected %s, got %s", before, after)
	require.Len(t, s.CategoryByID("shopping").Transactions, 1)
	assertInvariants(t, s)
}

func TestDeleteIncomeTransactionViaSentinel(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: income("i1", "1000")})
	s = Apply(s, AddTransaction{Transaction: income("i2", "500")})
	s = Apply(s, DeleteTransaction{TransactionID: "i1", CategoryID: core.IncomeCategoryID})

	require.Len(t, s.IncomeTransactions, 1)
	assert.True(t, s.TotalIncome.Equal(dec("500")))
	assertInvariants(t, s)
}

func TestDeleteMissingTransactionIsNoop(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "10")})
	next := Apply(s, DeleteTransaction{TransactionID: "ghost", CategoryID: "food"})
	assert.Equal(t, s, next)
}

func TestResetMonthlyBudget(t *testing.T) {
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	s := InitialState()
	s = Apply(s, SetBudget{CategoryID: "food", Amount: dec("500")})
	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "120")})
	s = Apply(s, AddTransaction{Transaction: income("i1", "30000")})

	s = Apply(s, ResetMonthlyBudget{Now: now})

	// Budgets survive the rollover, everything else is cleared.
	assert.True(t, s.CategoryByID("food").Budget.Equal(dec("500")))
	assert.True(t, s.CategoryByID("food").Spent.IsZero())
	assert.Empty(t, s.CategoryByID("food").Transactions)
	assert.Empty(t, s.IncomeTransactions)
	assert.True(t, s.TotalIncome.IsZero())
	assert.True(t, s.RemainingBalance.IsZero())
	assert.Equal(t, "2026-09", s.CurrentMonth)
	assert.Equal(t, now, s.LastResetDate)
	assertInvariants(t, s)
}

func TestResetMonthlyBudgetIsIdempotent(t *testing.T) {
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	s := InitialState()
	s = Apply(s, SetBudget{CategoryID: "trip", Amount: dec("1000")})
	s = Apply(s, AddTransaction{Transaction: expense("t1", "trip", "300")})

	once := Apply(s, ResetMonthlyBudget{Now: now})
	twice := Apply(once, ResetMonthlyBudget{Now: now})
	assert.Equal(t, once, twice)
}

func TestCarryOverBalanceDistributesEvenly(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: income("i1", "1200")})
	require.True(t, s.RemainingBalance.Equal(dec("1200")))

	budgetBefore := s.TotalBudget
	s = Apply(s, CarryOverBalance{})

	n := int64(len(s.Categories))
	share := dec("1200").DivRound(decimal.NewFromInt(n), 2)
	assert.True(t, s.Categories[0].Budget.Equal(share))

	// No penny lost: the total budget increase equals the carried balance.
	increase := s.TotalBudget.Sub(budgetBefore)
	assert.True(t, increase.Equal(dec("1200")), "expected increase 1200, got %s", increase)
	assertInvariants(t, s)
}

func TestCarryOverBalanceRoundingRemainder(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: income("i1", "100")})

	s = Apply(s, CarryOverBalance{})

	// 100 / 12 does not divide evenly; the last category absorbs the
	// rounding difference.
	sum := decimal.Zero
	for _, c := range s.Categories {
		sum = sum.Add(c.Budget)
	}
	assert.True(t, sum.Equal(dec("100")), "Σ budget = %s", sum)
	assertInvariants(t, s)
}

func TestCarryOverBalanceNoopWhenNotPositive(t *testing.T) {
	s := InitialState()
	next := Apply(s, CarryOverBalance{})
	assert.Equal(t, s, next)

	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "50")})
	require.True(t, s.RemainingBalance.IsNegative())
	next = Apply(s, CarryOverBalance{})
	assert.Equal(t, s, next)
}

func TestAllocateToSavings(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: income("i1", "1000")})

	s = Apply(s, AllocateToSavings{Amount: dec("400")})
	assert.True(t, s.RemainingBalance.Equal(dec("600")))

	// Bookkeeping only: spent and the category lists do not move.
	assert.True(t, s.TotalSpent.IsZero())
	for _, c := range s.Categories {
		assert.Empty(t, c.Transactions)
	}

	// Over-allocation floors at zero.
	s = Apply(s, AllocateToSavings{Amount: dec("999999")})
	assert.True(t, s.RemainingBalance.IsZero())
}

func TestUpdateCategoryShallowMerge(t *testing.T) {
	s := InitialState()
	name := "Dining Out"
	budget := dec("750")
	s = Apply(s, UpdateCategory{CategoryID: "food", Patch: CategoryPatch{Name: &name, Budget: &budget}})

	cat := s.CategoryByID("food")
	assert.Equal(t, "Dining Out", cat.Name)
	assert.True(t, cat.Budget.Equal(dec("750")))
	assert.Equal(t, "🍔", cat.Icon, "unpatched fields keep their values")
	assertInvariants(t, s)
}

type bogusAction struct{}

func (bogusAction) isAction() {}

func TestUnknownActionIsNoop(t *testing.T) {
	s := InitialState()
	s = Apply(s, SetBudget{CategoryID: "gold", Amount: dec("10")})
	next := Apply(s, bogusAction{})
	assert.Equal(t, s, next)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "10")})

	before := s.CategoryByID("food").Spent
	txCount := len(s.CategoryByID("food").Transactions)

	_ = Apply(s, AddTransaction{Transaction: expense("t2", "food", "99")})
	_ = Apply(s, ResetMonthlyBudget{})
	_ = Apply(s, SetSpent{CategoryID: "food", Amount: dec("5")})

	assert.True(t, s.CategoryByID("food").Spent.Equal(before))
	assert.Len(t, s.CategoryByID("food").Transactions, txCount)
}

func TestInvariantsHoldAcrossActionSequence(t *testing.T) {
	seq := []Action{
		SetBudget{CategoryID: "food", Amount: dec("500")},
		AddTransaction{Transaction: income("i1", "30000")},
		AddTransaction{Transaction: expense("t1", "food", "120")},
		AddTransaction{Transaction: expense("t2", "petrol", "60.55")},
		SetSpent{CategoryID: "movie", Amount: dec("75")},
		DeleteTransaction{TransactionID: "t1", CategoryID: "food"},
		CarryOverBalance{},
		UpdateCategory{CategoryID: "gold", Patch: CategoryPatch{Budget: decPtr("42")}},
		DeleteTransaction{TransactionID: "i1", CategoryID: core.IncomeCategoryID},
		ResetMonthlyBudget{Now: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
	}

	s := InitialState()
	for _, a := range seq {
		s = Apply(s, a)
		assertInvariants(t, s)
	}
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
