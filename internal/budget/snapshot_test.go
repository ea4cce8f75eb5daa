package budget

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vstack/internal/core"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := InitialState()
	s = Apply(s, SetBudget{CategoryID: "food", Amount: dec("500")})
	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "120.50")})
	s = Apply(s, AddTransaction{Transaction: income("i1", "30000")})

	data, err := Encode(s)
	require.NoError(t, err)

	snap, err := Decode(data)
	require.NoError(t, err)
	require.True(t, snap.Valid())

	got := Apply(InitialState(), LoadData{Snapshot: snap})

	assert.Equal(t, s.CurrentMonth, got.CurrentMonth)
	assert.True(t, got.TotalBudget.Equal(s.TotalBudget))
	assert.True(t, got.TotalSpent.Equal(s.TotalSpent))
	assert.True(t, got.TotalIncome.Equal(s.TotalIncome))
	assert.True(t, got.RemainingBalance.Equal(s.RemainingBalance))
	require.Len(t, got.IncomeTransactions, 1)
	assert.Equal(t, "i1", got.IncomeTransactions[0].ID)

	cat := got.CategoryByID("food")
	require.NotNil(t, cat)
	require.Len(t, cat.Transactions, 1)
	assert.Equal(t, "t1", cat.Transactions[0].ID)
	assert.True(t, cat.Spent.Equal(dec("120.50")))
	assertInvariants(t, got)
}

func TestDecodeOldSnapshotWithoutIncomeFields(t *testing.T) {
	// Snapshots from before income tracking have no totalIncome and no
	// incomeTransactions. They must load with those fields defaulted.
	raw := `{
		"categories": [
			{"id": "food", "name": "Food", "icon": "🍔", "budget": "500", "spent": "100"}
		],
		"totalBudget": "500",
		"totalSpent": "100",
		"remainingBalance": "-100",
		"currentMonth": "2026-08"
	}`

	snap, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.True(t, snap.Valid())

	got := snap.State()
	assert.True(t, got.TotalIncome.IsZero())
	assert.NotNil(t, got.IncomeTransactions)
	assert.Empty(t, got.IncomeTransactions)
	assert.Equal(t, "2026-08", got.CurrentMonth)
	assert.False(t, got.LastResetDate.IsZero(), "missing lastResetDate defaults to now")

	cat := got.CategoryByID("food")
	require.NotNil(t, cat)
	assert.NotNil(t, cat.Transactions, "missing transaction list defaults to empty")
	assert.True(t, cat.Budget.Equal(dec("500")))
}

func TestDecodeRejectsMalformedShape(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"categories": "nope"}`,
		`{"categories": [], "totalBudget": true}`,
	}
	for _, raw := range cases {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("expected decode error for %q", raw)
		}
	}
}

func TestSnapshotValid(t *testing.T) {
	snap, err := Decode([]byte(`{"totalBudget": "1"}`))
	require.NoError(t, err)
	assert.False(t, snap.Valid(), "missing categories list fails structural validation")

	snap, err = Decode([]byte(`{"categories": []}`))
	require.NoError(t, err)
	assert.False(t, snap.Valid(), "missing totals fail structural validation")

	full, err := Decode(mustEncode(t, InitialState()))
	require.NoError(t, err)
	assert.True(t, full.Valid())
}

func TestEmptySnapshotStateEqualsInitial(t *testing.T) {
	got := Snapshot{}.State()
	want := InitialStateAt(got.LastResetDate)
	assert.Equal(t, want.CurrentMonth, got.CurrentMonth)
	assert.Equal(t, len(want.Categories), len(got.Categories))
	assert.True(t, got.TotalBudget.IsZero())
}

func TestTakeIsDeepCopy(t *testing.T) {
	s := InitialState()
	s = Apply(s, AddTransaction{Transaction: expense("t1", "food", "10")})

	snap := Take(s)
	snap.Categories[0].Name = "mutated"
	for i := range snap.Categories {
		if snap.Categories[i].ID == "food" {
			snap.Categories[i].Transactions[0].ID = "mutated"
		}
	}

	assert.NotEqual(t, "mutated", s.Categories[0].Name)
	assert.Equal(t, "t1", s.CategoryByID("food").Transactions[0].ID)
}

func TestLastResetDateSurvivesRoundTrip(t *testing.T) {
	reset := time.Date(2026, 8, 1, 6, 30, 0, 0, time.UTC)
	s := InitialStateAt(reset)

	data, err := Encode(s)
	require.NoError(t, err)
	snap, err := Decode(data)
	require.NoError(t, err)

	assert.True(t, snap.State().LastResetDate.Equal(reset))
}

func mustEncode(t *testing.T, s core.BudgetState) []byte {
	t.Helper()
	data, err := Encode(s)
	require.NoError(t, err)
	// sanity: the payload is an object
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	return data
}
