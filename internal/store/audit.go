package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// AuditFilter narrows ListAudit results.
type AuditFilter struct {
	Table  string
	Action string
	User   string
	Since  time.Time
	Limit  int
	Offset int
}

// InsertAudit appends a record to the audit trail.
func (s *Store) InsertAudit(ctx context.Context, r *model.AuditRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (table_name, record_id, action, old_values, new_values, actor, remote_addr, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Table, r.RecordID, r.Action, r.OldValues, r.NewValues, r.User, r.RemoteAddr, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// ListAudit returns audit records matching the filter, newest first.
func (s *Store) ListAudit(ctx context.Context, f AuditFilter) ([]model.AuditRecord, error) {
	q := `SELECT id, table_name, record_id, action, old_values, new_values, actor, remote_addr, created_at
	      FROM audit_log WHERE 1=1`
	var args []any

	if f.Table != "" {
		q += ` AND table_name = ?`
		args = append(args, f.Table)
	}
	if f.Action != "" {
		q += ` AND action = ?`
		args = append(args, f.Action)
	}
	if f.User != "" {
		q += ` AND actor = ?`
		args = append(args, f.User)
	}
	if !f.Since.IsZero() {
		q += ` AND created_at >= ?`
		args = append(args, f.Since)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	defer rows.Close()

	var out []model.AuditRecord
	for rows.Next() {
		var r model.AuditRecord
		if err := rows.Scan(&r.ID, &r.Table, &r.RecordID, &r.Action,
			&r.OldValues, &r.NewValues, &r.User, &r.RemoteAddr, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
