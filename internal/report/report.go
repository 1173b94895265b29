// Package report builds accounting reports from posted entries: trial
// balance, financial statements, analytic reconciliation and dashboard
// figures.
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// displayFloor hides balances smaller than one cent.
var displayFloor = decimal.NewFromFloat(0.01)

// Service computes reports over the store.
type Service struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a report Service.
func NewService(st *store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// TrialBalanceRow is one account of the trial balance. An account
// carries either a debit or a credit balance, never both.
type TrialBalanceRow struct {
	Account       model.Account   `json:"account"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	BalanceDebit  decimal.Decimal `json:"balance_debit"`
	BalanceCredit decimal.Decimal `json:"balance_credit"`
}

// TrialBalance holds every moved account with column totals.
type TrialBalance struct {
	FiscalYear  model.FiscalYear  `json:"fiscal_year"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// TrialBalanceFor aggregates all accounts of a fiscal year. Drafts are
// included only when withDrafts is set.
func (s *Service) TrialBalanceFor(ctx context.Context, year int, withDrafts bool) (TrialBalance, error) {
	fy, err := s.store.GetFiscalYearByYear(ctx, year)
	if err != nil {
		return TrialBalance{}, err
	}

	totals, err := s.store.AccountTotals(ctx, store.TotalsFilter{
		FiscalYearID:  fy.ID,
		ValidatedOnly: !withDrafts,
	})
	if err != nil {
		return TrialBalance{}, err
	}

	tb := TrialBalance{
		FiscalYear:  fy,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, t := range totals {
		row := TrialBalanceRow{
			Account:       t.Account,
			Debit:         t.Debit,
			Credit:        t.Credit,
			BalanceDebit:  decimal.Zero,
			BalanceCredit: decimal.Zero,
		}
		if balance := t.Debit.Sub(t.Credit); balance.IsNegative() {
			row.BalanceCredit = balance.Neg()
		} else {
			row.BalanceDebit = balance
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = tb.TotalDebit.Add(t.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(t.Credit)
	}
	return tb, nil
}

// StatementLine is one account balance of a financial statement section.
type StatementLine struct {
	Account model.Account   `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

// FinancialStatements is a simplified SYSCOHADA balance sheet and income
// statement built from validated entries.
type FinancialStatements struct {
	FiscalYear  model.FiscalYear `json:"fiscal_year"`
	Assets      []StatementLine  `json:"assets"`
	Liabilities []StatementLine  `json:"liabilities"`
	Expenses    []StatementLine  `json:"expenses"`
	Revenues    []StatementLine  `json:"revenues"`

	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TotalRevenues    decimal.Decimal `json:"total_revenues"`
	Result           decimal.Decimal `json:"result"`
}

// Statements builds the financial statements for a fiscal year. Asset
// classes carry debit balances, liability and revenue classes credit
// balances; accounts with balances under one cent are omitted.
func (s *Service) Statements(ctx context.Context, year int) (FinancialStatements, error) {
	fy, err := s.store.GetFiscalYearByYear(ctx, year)
	if err != nil {
		return FinancialStatements{}, err
	}

	fs := FinancialStatements{FiscalYear: fy}
	fs.TotalAssets = decimal.Zero
	fs.TotalLiabilities = decimal.Zero
	fs.TotalExpenses = decimal.Zero
	fs.TotalRevenues = decimal.Zero

	// Assets: fixed assets, stocks, receivables and treasury (classes 2-5).
	for _, class := range []int{model.ClassFixed, model.ClassStock, model.ClassThird, model.ClassTreasury} {
		lines, total, err := s.classBalances(ctx, fy.ID, class, false)
		if err != nil {
			return FinancialStatements{}, err
		}
		fs.Assets = append(fs.Assets, lines...)
		fs.TotalAssets = fs.TotalAssets.Add(total)
	}

	// Liabilities: equity and funding (class 1) plus third-party credit
	// balances (class 4).
	for _, class := range []int{model.ClassEquity, model.ClassThird} {
		lines, total, err := s.classBalances(ctx, fy.ID, class, true)
		if err != nil {
			return FinancialStatements{}, err
		}
		fs.Liabilities = append(fs.Liabilities, lines...)
		fs.TotalLiabilities = fs.TotalLiabilities.Add(total)
	}

	expenses, expTotal, err := s.classBalances(ctx, fy.ID, model.ClassExpense, false)
	if err != nil {
		return FinancialStatements{}, err
	}
	fs.Expenses = expenses
	fs.TotalExpenses = expTotal

	revenues, revTotal, err := s.classBalances(ctx, fy.ID, model.ClassRevenue, true)
	if err != nil {
		return FinancialStatements{}, err
	}
	fs.Revenues = revenues
	fs.TotalRevenues = revTotal

	fs.Result = fs.TotalRevenues.Sub(fs.TotalExpenses)
	return fs, nil
}

// classBalances returns the non-zero balances of one class. Credit-side
// classes report credit minus debit.
func (s *Service) classBalances(ctx context.Context, fiscalYearID int64, class int, creditSide bool) ([]StatementLine, decimal.Decimal, error) {
	totals, err := s.store.AccountTotals(ctx, store.TotalsFilter{
		FiscalYearID:  fiscalYearID,
		Class:         class,
		ValidatedOnly: true,
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	var lines []StatementLine
	total := decimal.Zero
	for _, t := range totals {
		balance := t.Debit.Sub(t.Credit)
		if creditSide {
			balance = t.Credit.Sub(t.Debit)
		}
		if balance.Abs().LessThan(displayFloor) {
			continue
		}
		if balance.IsNegative() {
			// Balance belongs to the other side of the statement.
			continue
		}
		lines = append(lines, StatementLine{Account: t.Account, Balance: balance})
		total = total.Add(balance)
	}
	return lines, total, nil
}

// ProjectAllocation is the expense total one project absorbed.
type ProjectAllocation struct {
	Project model.Project   `json:"project"`
	Amount  decimal.Decimal `json:"amount"`
}

// Reconciliation compares total expenses against what projects absorbed.
type Reconciliation struct {
	FiscalYear    model.FiscalYear    `json:"fiscal_year"`
	TotalExpenses decimal.Decimal     `json:"total_expenses"`
	Allocated     decimal.Decimal     `json:"allocated"`
	Unallocated   decimal.Decimal     `json:"unallocated"`
	AllocatedRate decimal.Decimal     `json:"allocated_rate"`
	Projects      []ProjectAllocation `json:"projects"`
}

// Reconcile reports how much of the year's expenses is attributed to
// projects, directly or through allocation splits.
func (s *Service) Reconcile(ctx context.Context, year int) (Reconciliation, error) {
	fy, err := s.store.GetFiscalYearByYear(ctx, year)
	if err != nil {
		return Reconciliation{}, err
	}

	debit, credit, err := s.store.ClassTotals(ctx, fy.ID, model.ClassExpense, false)
	if err != nil {
		return Reconciliation{}, err
	}
	allocated, err := s.store.AllocatedExpenseTotal(ctx, fy.ID)
	if err != nil {
		return Reconciliation{}, err
	}

	rec := Reconciliation{
		FiscalYear:    fy,
		TotalExpenses: debit.Sub(credit),
		Allocated:     allocated,
	}
	rec.Unallocated = rec.TotalExpenses.Sub(rec.Allocated)
	if rec.TotalExpenses.IsPositive() {
		rec.AllocatedRate = rec.Allocated.Mul(decimal.NewFromInt(100)).Div(rec.TotalExpenses).Round(2)
	}

	projects, err := s.store.ListProjects(ctx, model.ProjectActive)
	if err != nil {
		return Reconciliation{}, err
	}
	for _, p := range projects {
		amount, err := s.store.RealizedForProject(ctx, p.ID)
		if err != nil {
			return Reconciliation{}, err
		}
		rec.Projects = append(rec.Projects, ProjectAllocation{Project: p, Amount: amount})
	}
	return rec, nil
}
