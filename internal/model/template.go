package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TemplateSide says which column a template line posts to.
type TemplateSide string

const (
	SideDebit  TemplateSide = "debit"
	SideCredit TemplateSide = "credit"
)

// EntryTemplate is a reusable skeleton for recurring entries such as
// rent, salaries or subscriptions. Applying it creates a draft entry.
type EntryTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	JournalID   int64     `json:"journal_id"`
	Label       string    `json:"label"`
	Frequency   string    `json:"frequency,omitempty"` // monthly, quarterly, yearly
	DayOfMonth  int       `json:"day_of_month,omitempty"`
	Active      bool      `json:"active"`
	LastApplied time.Time `json:"last_applied,omitzero"`
	CreatedAt   time.Time `json:"created_at"`

	Lines []TemplateLine `json:"lines,omitempty"`
}

// TemplateLine is one fixed-amount row of a template.
type TemplateLine struct {
	ID         int64           `json:"id"`
	TemplateID int64           `json:"template_id"`
	AccountID  int64           `json:"account_id"`
	ProjectID  int64           `json:"project_id,omitempty"`
	Label      string          `json:"label,omitempty"`
	Side       TemplateSide    `json:"side"`
	Amount     decimal.Decimal `json:"amount"`
}
