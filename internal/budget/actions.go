package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"vstack/internal/core"
)

// Action is a named, parameterized request to transition the budget state.
// The set is closed: only the types below satisfy it.
type Action interface {
	isAction()
}

// SetBudget assigns a category's monthly budget. No clamping happens here;
// amount validation is the caller's job.
type SetBudget struct {
	CategoryID string
	Amount     decimal.Decimal
}

// SetSpent manually overrides a category's spent figure, clamped at zero.
// The value drifts from the transaction-derived sum until the next
// transaction add or delete recomputes it. That drift is accepted behavior.
type SetSpent struct {
	CategoryID string
	Amount     decimal.Decimal
}

// AddTransaction records an income or expense transaction. Income goes to
// the state-level income list; expenses go to the transaction's category.
type AddTransaction struct {
	Transaction core.Transaction
}

// DeleteTransaction removes a transaction by ID. CategoryID selects the
// list: the "income" sentinel targets the income list, anything else the
// named category.
type DeleteTransaction struct {
	TransactionID string
	CategoryID    string
}

// ResetMonthlyBudget performs the month rollover: spent figures and
// transaction lists are cleared, budgets are preserved. A zero Now means
// the current wall clock.
type ResetMonthlyBudget struct {
	Now time.Time
}

// CarryOverBalance distributes a positive remaining balance evenly across
// the category budgets. No-op when the balance is zero or negative.
type CarryOverBalance struct{}

// AllocateToSavings reduces the remaining balance by the given amount,
// floored at zero. Pure balance bookkeeping: no category or transaction
// list is touched and totalSpent does not move.
type AllocateToSavings struct {
	Amount decimal.Decimal
}

// LoadData replaces the state with a persisted snapshot, filling defaults
// for any field the snapshot lacks.
type LoadData struct {
	Snapshot Snapshot
}

// UpdateCategory shallow-merges the non-nil patch fields into a category.
type UpdateCategory struct {
	CategoryID string
	Patch      CategoryPatch
}

// CategoryPatch carries optional category fields; nil means "leave as is".
type CategoryPatch struct {
	Name   *string
	Icon   *string
	Budget *decimal.Decimal
	Spent  *decimal.Decimal
}

func (SetBudget) isAction()          {}
func (SetSpent) isAction()           {}
func (AddTransaction) isAction()     {}
func (DeleteTransaction) isAction()  {}
func (ResetMonthlyBudget) isAction() {}
func (CarryOverBalance) isAction()   {}
func (AllocateToSavings) isAction()  {}
func (LoadData) isAction()           {}
func (UpdateCategory) isAction()     {}
