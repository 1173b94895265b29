package csvio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ongbook-dev/ongbook/internal/ledger"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// Service converts between stored entries and their CSV form.
type Service struct {
	store  *store.Store
	ledger *ledger.Service
}

// NewService creates a csvio Service.
func NewService(st *store.Store, ls *ledger.Service) *Service {
	return &Service{store: st, ledger: ls}
}

// Export writes all entries matching the filter as CSV rows.
func (s *Service) Export(ctx context.Context, w io.Writer, f store.EntryFilter) error {
	headers, err := s.store.ListEntries(ctx, f)
	if err != nil {
		return err
	}

	journals, err := s.journalCodes(ctx)
	if err != nil {
		return err
	}
	projects, err := s.projectCodes(ctx)
	if err != nil {
		return err
	}

	var rows []Row
	for _, h := range headers {
		e, err := s.store.GetEntry(ctx, h.ID)
		if err != nil {
			return err
		}
		for _, l := range e.Lines {
			account, err := s.store.GetAccount(ctx, l.AccountID)
			if err != nil {
				return fmt.Errorf("entry %s: %w", e.Number, err)
			}
			row := Row{
				Number:    e.Number,
				Date:      e.Date,
				Journal:   journals[e.JournalID],
				Account:   account.Number,
				Label:     e.Label,
				LineLabel: l.Label,
				Debit:     l.Debit,
				Credit:    l.Credit,
				Reference: e.Reference,
				Project:   projects[l.ProjectID],
				Status:    string(e.Status),
			}
			if l.BudgetLineID != 0 {
				bl, err := s.store.GetBudgetLine(ctx, l.BudgetLineID)
				if err != nil {
					return fmt.Errorf("entry %s: %w", e.Number, err)
				}
				row.BudgetLine = bl.Code
			}
			rows = append(rows, row)
		}
	}
	return WriteRows(w, rows)
}

// Import reads CSV rows, groups them into entries by the number column
// and creates each group as a new draft. Numbers in the file are only
// used for grouping; imported entries are renumbered. Returns how many
// entries were created.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	journals, err := s.journalIDs(ctx)
	if err != nil {
		return 0, err
	}

	// Rows of one entry must be contiguous; a new number starts a group.
	var groups [][]Row
	for i, row := range rows {
		if i == 0 || row.Number != rows[i-1].Number {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], row)
	}

	created := 0
	for _, group := range groups {
		first := group[0]
		journalID, ok := journals[first.Journal]
		if !ok {
			return created, fmt.Errorf("entry %s: unknown journal %q", first.Number, first.Journal)
		}

		params := ledger.CreateParams{
			Date:      first.Date,
			JournalID: journalID,
			Label:     first.Label,
			Reference: first.Reference,
		}
		for _, row := range group {
			line, err := s.buildLine(ctx, row)
			if err != nil {
				return created, fmt.Errorf("entry %s: %w", first.Number, err)
			}
			params.Lines = append(params.Lines, line)
		}

		if _, err := s.ledger.Create(ctx, params); err != nil {
			return created, fmt.Errorf("entry %s: %w", first.Number, err)
		}
		created++
	}
	return created, nil
}

func (s *Service) buildLine(ctx context.Context, row Row) (ledger.LineParams, error) {
	account, err := s.store.GetAccountByNumber(ctx, row.Account)
	if err != nil {
		return ledger.LineParams{}, fmt.Errorf("account %q: %w", row.Account, err)
	}

	line := ledger.LineParams{
		AccountID: account.ID,
		Label:     row.LineLabel,
		Debit:     row.Debit,
		Credit:    row.Credit,
	}

	if row.Project != "" {
		project, err := s.store.GetProjectByCode(ctx, row.Project)
		if err != nil {
			return ledger.LineParams{}, fmt.Errorf("project %q: %w", row.Project, err)
		}
		line.ProjectID = project.ID

		if row.BudgetLine != "" {
			budgetLines, err := s.store.ListBudgetLines(ctx, project.ID)
			if err != nil {
				return ledger.LineParams{}, err
			}
			for _, bl := range budgetLines {
				if bl.Code == row.BudgetLine {
					line.BudgetLineID = bl.ID
					break
				}
			}
			if line.BudgetLineID == 0 {
				return ledger.LineParams{}, fmt.Errorf("budget line %q: %w", row.BudgetLine, store.ErrNotFound)
			}
		}
	} else if row.BudgetLine != "" {
		return ledger.LineParams{}, errors.New("budget line given without a project")
	}

	return line, nil
}

func (s *Service) journalCodes(ctx context.Context) (map[int64]string, error) {
	journals, err := s.store.ListJournals(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(journals))
	for _, j := range journals {
		out[j.ID] = j.Code
	}
	return out, nil
}

func (s *Service) journalIDs(ctx context.Context) (map[string]int64, error) {
	journals, err := s.store.ListJournals(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(journals))
	for _, j := range journals {
		out[j.Code] = j.ID
	}
	return out, nil
}

func (s *Service) projectCodes(ctx context.Context) (map[int64]string, error) {
	projects, err := s.store.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(projects))
	for _, p := range projects {
		out[p.ID] = p.Code
	}
	return out, nil
}
