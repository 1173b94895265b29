package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ongbook-dev/ongbook/internal/model"
)

const templateCols = `id, name, description, journal_id, label, frequency, day_of_month, active, last_applied, created_at`

// CreateTemplate inserts an entry template with its lines.
func (s *Store) CreateTemplate(ctx context.Context, t *model.EntryTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entry_templates (name, description, journal_id, label, frequency, day_of_month, active, last_applied, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.JournalID, t.Label, t.Frequency, t.DayOfMonth,
		t.Active, nullTime(t.LastApplied), t.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("template %s: %w", t.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	if err := insertTemplateLines(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateTemplate rewrites a template header and replaces its lines.
func (s *Store) UpdateTemplate(ctx context.Context, t *model.EntryTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE entry_templates SET name = ?, description = ?, journal_id = ?, label = ?,
		        frequency = ?, day_of_month = ?, active = ?
		 WHERE id = ?`,
		t.Name, t.Description, t.JournalID, t.Label, t.Frequency, t.DayOfMonth, t.Active, t.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("template %s: %w", t.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM template_lines WHERE template_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clearing template lines: %w", err)
	}
	if err := insertTemplateLines(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTemplateLines(ctx context.Context, tx *sql.Tx, t *model.EntryTemplate) error {
	for i := range t.Lines {
		l := &t.Lines[i]
		l.TemplateID = t.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO template_lines (template_id, account_id, project_id, label, side, amount_cents)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			l.TemplateID, l.AccountID, nullID(l.ProjectID), l.Label, l.Side, toCents(l.Amount),
		)
		if err != nil {
			return fmt.Errorf("inserting template line: %w", err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

// GetTemplate returns a template with its lines.
func (s *Store) GetTemplate(ctx context.Context, id int64) (model.EntryTemplate, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM entry_templates WHERE id = ?`, id))
	if err != nil {
		return t, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, template_id, account_id, project_id, label, side, amount_cents
		 FROM template_lines WHERE template_id = ? ORDER BY id`, id)
	if err != nil {
		return t, fmt.Errorf("loading template lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.TemplateLine
		var project sql.NullInt64
		var cents int64
		if err := rows.Scan(&l.ID, &l.TemplateID, &l.AccountID, &project, &l.Label, &l.Side, &cents); err != nil {
			return t, fmt.Errorf("scanning template line: %w", err)
		}
		l.ProjectID = scanID(project)
		l.Amount = fromCents(cents)
		t.Lines = append(t.Lines, l)
	}
	return t, rows.Err()
}

// ListTemplates returns template headers ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]model.EntryTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+templateCols+` FROM entry_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var out []model.EntryTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTemplate removes a template; its lines cascade.
func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entry_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchTemplate stamps the template's last application time.
func (s *Store) TouchTemplate(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE entry_templates SET last_applied = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("touching template: %w", err)
	}
	return nil
}

func scanTemplate(row rowScanner) (model.EntryTemplate, error) {
	var t model.EntryTemplate
	var last sql.NullTime
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.JournalID, &t.Label,
		&t.Frequency, &t.DayOfMonth, &t.Active, &last, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, fmt.Errorf("scanning template: %w", err)
	}
	if last.Valid {
		t.LastApplied = last.Time
	}
	return t, nil
}
