package model

import "time"

// Audit actions recorded in the trail.
const (
	AuditCreate     = "CREATE"
	AuditUpdate     = "UPDATE"
	AuditDelete     = "DELETE"
	AuditValidate   = "VALIDATE"
	AuditInvalidate = "INVALIDATE"
	AuditClose      = "CLOSE"
)

// AuditRecord is one row of the audit trail. Old/new values are JSON snapshots.
type AuditRecord struct {
	ID         int64     `json:"id"`
	Table      string    `json:"table"`
	RecordID   int64     `json:"record_id,omitempty"`
	Action     string    `json:"action"`
	OldValues  string    `json:"old_values,omitempty"`
	NewValues  string    `json:"new_values,omitempty"`
	User       string    `json:"user"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AlertLevel grades alert severity.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

// Alert types raised by budget monitoring.
const (
	AlertBudgetOverrun   = "budget_overrun"
	AlertStaleDrafts     = "stale_drafts"
	AlertNegativeBalance = "negative_balance"
)

// Alert is a budget-monitoring notification.
type Alert struct {
	ID        int64      `json:"id,omitempty"`
	Type      string     `json:"type"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	ProjectID int64      `json:"project_id,omitempty"`
	AccountID int64      `json:"account_id,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitzero"`
}
