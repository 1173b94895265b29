package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// ErrTemplateInactive is returned when applying a deactivated template.
var ErrTemplateInactive = errors.New("template is inactive")

// TemplateLineParams holds one fixed row of a template.
type TemplateLineParams struct {
	AccountID int64              `json:"account_id"`
	ProjectID int64              `json:"project_id,omitempty"`
	Label     string             `json:"label,omitempty"`
	Side      model.TemplateSide `json:"side"`
	Amount    decimal.Decimal    `json:"amount"`
}

// TemplateParams holds parameters for creating or updating a template.
type TemplateParams struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	JournalID   int64                `json:"journal_id"`
	Label       string               `json:"label"`
	Frequency   string               `json:"frequency,omitempty"`
	DayOfMonth  int                  `json:"day_of_month,omitempty"`
	Active      *bool                `json:"active,omitempty"`
	Lines       []TemplateLineParams `json:"lines"`
}

func buildTemplate(params TemplateParams) model.EntryTemplate {
	t := model.EntryTemplate{
		Name:        params.Name,
		Description: params.Description,
		JournalID:   params.JournalID,
		Label:       params.Label,
		Frequency:   params.Frequency,
		DayOfMonth:  params.DayOfMonth,
		Active:      true,
	}
	if params.Active != nil {
		t.Active = *params.Active
	}
	for _, lp := range params.Lines {
		t.Lines = append(t.Lines, model.TemplateLine{
			AccountID: lp.AccountID,
			ProjectID: lp.ProjectID,
			Label:     lp.Label,
			Side:      lp.Side,
			Amount:    lp.Amount,
		})
	}
	return t
}

// CreateTemplate stores a reusable entry template.
func (s *Service) CreateTemplate(ctx context.Context, params TemplateParams) (model.EntryTemplate, error) {
	t := buildTemplate(params)
	t.CreatedAt = s.now()

	if err := s.store.CreateTemplate(ctx, &t); err != nil {
		return model.EntryTemplate{}, err
	}
	if err := s.audit.Record(ctx, model.AuditCreate, "entry_templates", t.ID, nil, t); err != nil {
		return model.EntryTemplate{}, err
	}
	return t, nil
}

// UpdateTemplate rewrites a template and its lines.
func (s *Service) UpdateTemplate(ctx context.Context, id int64, params TemplateParams) (model.EntryTemplate, error) {
	old, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return model.EntryTemplate{}, err
	}

	t := buildTemplate(params)
	t.ID = id
	t.LastApplied = old.LastApplied
	t.CreatedAt = old.CreatedAt

	if err := s.store.UpdateTemplate(ctx, &t); err != nil {
		return model.EntryTemplate{}, err
	}
	if err := s.audit.Record(ctx, model.AuditUpdate, "entry_templates", id, old, t); err != nil {
		return model.EntryTemplate{}, err
	}
	return t, nil
}

// DeleteTemplate removes a template.
func (s *Service) DeleteTemplate(ctx context.Context, id int64) error {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	return s.audit.Record(ctx, model.AuditDelete, "entry_templates", id, t, nil)
}

// GetTemplate returns a template with its lines.
func (s *Service) GetTemplate(ctx context.Context, id int64) (model.EntryTemplate, error) {
	return s.store.GetTemplate(ctx, id)
}

// ListTemplates returns template headers ordered by name.
func (s *Service) ListTemplates(ctx context.Context) ([]model.EntryTemplate, error) {
	return s.store.ListTemplates(ctx)
}

// ApplyTemplate creates a draft entry dated today from a template's
// fixed lines and stamps the template's last application time.
func (s *Service) ApplyTemplate(ctx context.Context, id int64) (model.Entry, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return model.Entry{}, err
	}
	if !t.Active {
		return model.Entry{}, ErrTemplateInactive
	}

	params := CreateParams{
		Date:      s.now().Truncate(24 * time.Hour),
		JournalID: t.JournalID,
		Label:     t.Label,
	}
	for _, l := range t.Lines {
		lp := LineParams{
			AccountID: l.AccountID,
			ProjectID: l.ProjectID,
			Label:     l.Label,
		}
		if l.Side == model.SideCredit {
			lp.Credit = l.Amount
		} else {
			lp.Debit = l.Amount
		}
		params.Lines = append(params.Lines, lp)
	}

	e, err := s.Create(ctx, params)
	if err != nil {
		return model.Entry{}, err
	}
	if err := s.store.TouchTemplate(ctx, id, e.Date); err != nil {
		return model.Entry{}, err
	}

	s.log.Info("entry generated from template", "template", t.Name, "number", e.Number)
	return e, nil
}
