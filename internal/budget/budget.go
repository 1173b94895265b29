// Package budget tracks planned versus realized spend per project.
package budget

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// Service computes budget execution from the ledger.
type Service struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a budget Service.
func NewService(st *store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// LineReport compares one budget line against its realized spend.
type LineReport struct {
	Line     model.BudgetLine `json:"line"`
	Planned  decimal.Decimal  `json:"planned"`
	Realized decimal.Decimal  `json:"realized"`
	Variance decimal.Decimal  `json:"variance"`
	Rate     decimal.Decimal  `json:"rate"` // percent of planned consumed
}

// CategoryReport groups line reports under one budget category.
type CategoryReport struct {
	Category model.BudgetCategory `json:"category"`
	Lines    []LineReport         `json:"lines"`
	Planned  decimal.Decimal      `json:"planned"`
	Realized decimal.Decimal      `json:"realized"`
}

// ProjectReport is the full budget execution picture for one project.
type ProjectReport struct {
	Project    model.Project    `json:"project"`
	Categories []CategoryReport `json:"categories"`
	Planned    decimal.Decimal  `json:"planned"`
	Realized   decimal.Decimal  `json:"realized"`
	Variance   decimal.Decimal  `json:"variance"`
	Rate       decimal.Decimal  `json:"rate"`
}

// Report builds the budget execution report for a project.
func (s *Service) Report(ctx context.Context, projectID int64) (ProjectReport, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return ProjectReport{}, err
	}

	lines, err := s.store.ListBudgetLines(ctx, projectID)
	if err != nil {
		return ProjectReport{}, err
	}
	categories, err := s.store.ListBudgetCategories(ctx)
	if err != nil {
		return ProjectReport{}, err
	}
	realized, err := s.store.RealizedByBudgetLine(ctx, projectID)
	if err != nil {
		return ProjectReport{}, err
	}

	rep := ProjectReport{
		Project:  project,
		Planned:  decimal.Zero,
		Realized: decimal.Zero,
	}

	byCategory := make(map[int64][]LineReport)
	for _, l := range lines {
		lr := LineReport{
			Line:     l,
			Planned:  l.PlannedAmount,
			Realized: realized[l.ID],
		}
		lr.Variance = lr.Planned.Sub(lr.Realized)
		lr.Rate = executionRate(lr.Realized, lr.Planned)
		byCategory[l.CategoryID] = append(byCategory[l.CategoryID], lr)
	}

	for _, cat := range categories {
		lineReports := byCategory[cat.ID]
		if len(lineReports) == 0 {
			continue
		}
		cr := CategoryReport{Category: cat, Lines: lineReports,
			Planned: decimal.Zero, Realized: decimal.Zero}
		for _, lr := range lineReports {
			cr.Planned = cr.Planned.Add(lr.Planned)
			cr.Realized = cr.Realized.Add(lr.Realized)
		}
		rep.Categories = append(rep.Categories, cr)
		rep.Planned = rep.Planned.Add(cr.Planned)
		rep.Realized = rep.Realized.Add(cr.Realized)
	}

	rep.Variance = rep.Planned.Sub(rep.Realized)
	rep.Rate = executionRate(rep.Realized, rep.Planned)
	return rep, nil
}

// ProjectSummary is one row of the execution overview.
type ProjectSummary struct {
	Project  model.Project   `json:"project"`
	Planned  decimal.Decimal `json:"planned"`
	Realized decimal.Decimal `json:"realized"`
	Rate     decimal.Decimal `json:"rate"`
}

// Overview is the portfolio-wide execution picture.
type Overview struct {
	Projects      []ProjectSummary `json:"projects"`
	TotalPlanned  decimal.Decimal  `json:"total_planned"`
	TotalRealized decimal.Decimal  `json:"total_realized"`
	Rate          decimal.Decimal  `json:"rate"`
}

// Overview summarizes budget execution of every active project. A
// project's planned amount is the sum of its budget lines; projects
// without lines fall back to their headline budget.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	projects, err := s.store.ListProjects(ctx, model.ProjectActive)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{
		Projects:      make([]ProjectSummary, 0, len(projects)),
		TotalPlanned:  decimal.Zero,
		TotalRealized: decimal.Zero,
	}
	for _, p := range projects {
		planned, err := s.store.PlannedForProject(ctx, p.ID)
		if err != nil {
			return Overview{}, err
		}
		if planned.IsZero() {
			planned = p.TotalBudget
		}
		realized, err := s.store.RealizedForProject(ctx, p.ID)
		if err != nil {
			return Overview{}, err
		}
		ov.Projects = append(ov.Projects, ProjectSummary{
			Project:  p,
			Planned:  planned,
			Realized: realized,
			Rate:     executionRate(realized, planned),
		})
		ov.TotalPlanned = ov.TotalPlanned.Add(planned)
		ov.TotalRealized = ov.TotalRealized.Add(realized)
	}
	ov.Rate = executionRate(ov.TotalRealized, ov.TotalPlanned)
	return ov, nil
}

func executionRate(realized, planned decimal.Decimal) decimal.Decimal {
	if planned.IsZero() {
		return decimal.Zero
	}
	return realized.Mul(decimal.NewFromInt(100)).Div(planned).Round(2)
}
