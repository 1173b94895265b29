package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeExpense   AccountType = "expense"
	AccountTypeRevenue   AccountType = "revenue"
)

// SYSCOHADA account classes referenced by business rules.
const (
	ClassEquity   = 1
	ClassFixed    = 2
	ClassStock    = 3
	ClassThird    = 4
	ClassTreasury = 5
	ClassExpense  = 6
	ClassRevenue  = 7
)

// Account is one row of the SYSCOHADA chart of accounts.
type Account struct {
	ID       int64       `json:"id"`
	Number   string      `json:"number"` // e.g. "521", "6051"
	Name     string      `json:"name"`
	Class    int         `json:"class"` // leading digit, 1-9
	Type     AccountType `json:"type"`
	ParentID int64       `json:"parent_id,omitempty"` // 0 = top-level
	Active   bool        `json:"active"`
}

// IsTreasury reports whether the account belongs to class 5.
func (a Account) IsTreasury() bool {
	return a.Class == ClassTreasury
}

// IsExpense reports whether the account belongs to class 6.
func (a Account) IsExpense() bool {
	return a.Class == ClassExpense
}
