package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a funded project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectClosed    ProjectStatus = "closed"
	ProjectSuspended ProjectStatus = "suspended"
)

// Donor is a funding organization (bailleur de fonds).
type Donor struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Country    string `json:"country,omitempty"`
	Contact    string `json:"contact,omitempty"`
	Email      string `json:"email,omitempty"`
	CurrencyID int64  `json:"currency_id,omitempty"`
	Active     bool   `json:"active"`
}

// Project is a donor-funded project with its own budget.
type Project struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	DonorID     int64           `json:"donor_id,omitempty"`
	StartDate   time.Time       `json:"start_date,omitempty"`
	EndDate     time.Time       `json:"end_date,omitempty"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	CurrencyID  int64           `json:"currency_id,omitempty"`
	Status      ProjectStatus   `json:"status"`
}

// BudgetCategory orders budget lines in donor reports (LABOR, TRAVEL...).
type BudgetCategory struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// BudgetLine is one planned line of a project budget. Realized spend is the
// sum of expense-account debits posted against it.
type BudgetLine struct {
	ID            int64           `json:"id"`
	ProjectID     int64           `json:"project_id"`
	CategoryID    int64           `json:"category_id,omitempty"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Year          int             `json:"year,omitempty"` // 0 = whole project
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit,omitempty"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
}
