package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// IncomeCategoryID is the sentinel category used when deleting income
// transactions, which live outside the category list.
const IncomeCategoryID = "income"

type (
	TransactionType string

	// Transaction is a single income or expense event. Instances are
	// immutable once created: the reducer appends and removes them but
	// never edits one in place.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
	}

	// Category is a named spending bucket. Spent is derived from the
	// expense transactions routed to the category, except right after a
	// manual SetSpent override (see the reducer).
	Category struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		Icon         string          `json:"icon"`
		Budget       decimal.Decimal `json:"budget"`
		Spent        decimal.Decimal `json:"spent"`
		Transactions []Transaction   `json:"transactions"`
	}

	// BudgetState is the aggregate root. All four totals are derived
	// values; only the reducer writes them.
	BudgetState struct {
		Categories         []Category      `json:"categories"`
		TotalBudget        decimal.Decimal `json:"totalBudget"`
		TotalSpent         decimal.Decimal `json:"totalSpent"`
		TotalIncome        decimal.Decimal `json:"totalIncome"`
		RemainingBalance   decimal.Decimal `json:"remainingBalance"`
		CurrentMonth       string          `json:"currentMonth"`
		LastResetDate      time.Time       `json:"lastResetDate"`
		IncomeTransactions []Transaction   `json:"incomeTransactions"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingCategory  = errors.New("missing category")
	ErrInvalidType      = errors.New("invalid transaction type")
)

// NewTransactionID builds an ID from a millisecond timestamp plus a random
// suffix, so two transactions created within the same millisecond still get
// distinct IDs.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Validate enforces the caller-side input rules. The reducer itself never
// rejects a transaction; callers run this before constructing an action.
func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Type == Expense && strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	return nil
}

// CategoryByID returns a pointer into the state's category list, or nil.
func (s *BudgetState) CategoryByID(id string) *Category {
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			return &s.Categories[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the category, including its transaction list.
func (c Category) Clone() Category {
	out := c
	out.Transactions = append([]Transaction(nil), c.Transactions...)
	return out
}
