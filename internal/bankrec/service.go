// Package bankrec reconciles bank accounts against statement balances.
// A reconciliation snapshots the account's book lines over a period;
// ticking lines off against the statement narrows the gap.
package bankrec

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

// ErrReconciliationValidated is returned when changing a validated reconciliation.
var ErrReconciliationValidated = errors.New("reconciliation is validated")

// Service drives the bank reconciliation workflow.
type Service struct {
	store *store.Store
	audit *audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a bank reconciliation Service.
func NewService(st *store.Store, rec *audit.Recorder, log *slog.Logger) *Service {
	return &Service{store: st, audit: rec, log: log, now: time.Now}
}

// StartParams opens a reconciliation for one bank account and period.
type StartParams struct {
	AccountID   int64           `json:"account_id"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Statement   decimal.Decimal `json:"statement_balance"`
	Notes       string          `json:"notes,omitempty"`
}

// Start opens a reconciliation: it computes the book balance through the
// period end, snapshots the period's book lines and stores the initial
// statement-versus-book gap.
func (s *Service) Start(ctx context.Context, params StartParams) (model.BankReconciliation, error) {
	if _, err := s.store.GetAccount(ctx, params.AccountID); err != nil {
		return model.BankReconciliation{}, err
	}

	book, err := s.store.AccountBalanceThrough(ctx, params.AccountID, params.PeriodEnd)
	if err != nil {
		return model.BankReconciliation{}, err
	}
	lineIDs, err := s.store.EntryLineIDsForPeriod(ctx, params.AccountID, params.PeriodStart, params.PeriodEnd)
	if err != nil {
		return model.BankReconciliation{}, err
	}

	now := s.now()
	rec := model.BankReconciliation{
		AccountID:    params.AccountID,
		ReconciledAt: now,
		PeriodStart:  params.PeriodStart,
		PeriodEnd:    params.PeriodEnd,
		Statement:    params.Statement,
		Book:         book,
		Gap:          params.Statement.Sub(book),
		Status:       model.ReconciliationOpen,
		CreatedBy:    audit.ActorFrom(ctx).Username,
		Notes:        params.Notes,
		CreatedAt:    now,
	}
	for _, id := range lineIDs {
		rec.Lines = append(rec.Lines, model.ReconciliationLine{EntryLineID: id})
	}

	if err := s.store.CreateReconciliation(ctx, &rec); err != nil {
		return model.BankReconciliation{}, err
	}
	if err := s.audit.Record(ctx, model.AuditCreate, "bank_reconciliations", rec.ID, nil, rec); err != nil {
		return model.BankReconciliation{}, err
	}

	s.log.Info("reconciliation started", "account", params.AccountID, "lines", len(rec.Lines))
	return s.store.GetReconciliation(ctx, rec.ID)
}

// Get returns a reconciliation with its snapshot lines.
func (s *Service) Get(ctx context.Context, id int64) (model.BankReconciliation, error) {
	return s.store.GetReconciliation(ctx, id)
}

// List returns reconciliation headers, newest first.
func (s *Service) List(ctx context.Context) ([]model.BankReconciliation, error) {
	return s.store.ListReconciliations(ctx)
}

// Match ticks the given snapshot lines off against the statement and
// unticks all others, then recomputes the gap as the statement balance
// minus the ticked lines' debit-minus-credit total.
func (s *Service) Match(ctx context.Context, id int64, lineIDs []int64) (model.BankReconciliation, error) {
	rec, err := s.store.GetReconciliation(ctx, id)
	if err != nil {
		return model.BankReconciliation{}, err
	}
	if rec.Status == model.ReconciliationValidated {
		return model.BankReconciliation{}, ErrReconciliationValidated
	}

	matched, err := s.store.MatchReconciliationLines(ctx, id, lineIDs, audit.ActorFrom(ctx).Username, s.now())
	if err != nil {
		return model.BankReconciliation{}, err
	}
	if err := s.store.SetReconciliationGap(ctx, id, rec.Statement.Sub(matched)); err != nil {
		return model.BankReconciliation{}, err
	}
	return s.store.GetReconciliation(ctx, id)
}

// Validate freezes a reconciliation. Further matching is rejected.
func (s *Service) Validate(ctx context.Context, id int64) (model.BankReconciliation, error) {
	rec, err := s.store.GetReconciliation(ctx, id)
	if err != nil {
		return model.BankReconciliation{}, err
	}
	if rec.Status == model.ReconciliationValidated {
		return model.BankReconciliation{}, ErrReconciliationValidated
	}

	by := audit.ActorFrom(ctx).Username
	if err := s.store.ValidateReconciliation(ctx, id, by, s.now()); err != nil {
		return model.BankReconciliation{}, err
	}
	if err := s.audit.Record(ctx, model.AuditValidate, "bank_reconciliations", id, nil,
		map[string]string{"status": string(model.ReconciliationValidated), "validated_by": by}); err != nil {
		return model.BankReconciliation{}, err
	}
	return s.store.GetReconciliation(ctx, id)
}
