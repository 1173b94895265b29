package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// CreateJournal inserts a journal and sets its ID.
func (s *Store) CreateJournal(ctx context.Context, j *model.Journal) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO journals (code, name, type) VALUES (?, ?, ?)`,
		j.Code, j.Name, j.Type,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("journal %s: %w", j.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting journal: %w", err)
	}
	j.ID, err = res.LastInsertId()
	return err
}

// UpdateJournal rewrites a journal.
func (s *Store) UpdateJournal(ctx context.Context, j *model.Journal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journals SET code = ?, name = ?, type = ? WHERE id = ?`,
		j.Code, j.Name, j.Type, j.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("journal %s: %w", j.Code, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("updating journal: %w", err)
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

// DeleteJournal removes a journal. Refused once entries reference it.
func (s *Store) DeleteJournal(ctx context.Context, id int64) error {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE journal_id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("counting journal entries: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("journal has %d entries: %w", n, ErrInUse)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM journals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting journal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetJournal returns a journal by ID.
func (s *Store) GetJournal(ctx context.Context, id int64) (model.Journal, error) {
	return scanJournal(s.db.QueryRowContext(ctx,
		`SELECT id, code, name, type FROM journals WHERE id = ?`, id))
}

// GetJournalByType returns the first journal of the given type.
func (s *Store) GetJournalByType(ctx context.Context, t model.JournalType) (model.Journal, error) {
	return scanJournal(s.db.QueryRowContext(ctx,
		`SELECT id, code, name, type FROM journals WHERE type = ? ORDER BY code LIMIT 1`, t))
}

// ListJournals returns all journals ordered by code.
func (s *Store) ListJournals(ctx context.Context) ([]model.Journal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name, type FROM journals ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	defer rows.Close()

	var out []model.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJournal(row rowScanner) (model.Journal, error) {
	var j model.Journal
	err := row.Scan(&j.ID, &j.Code, &j.Name, &j.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return j, ErrNotFound
	}
	if err != nil {
		return j, fmt.Errorf("scanning journal: %w", err)
	}
	return j, nil
}
