// Package csvio reads and writes journal entries as CSV, one row per
// entry line. Accounts are referenced by number, journals and projects
// by code.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Header is the CSV header for entry exports and imports.
const Header = "number,date,journal,account,label,line_label,debit,credit,reference,project,budget_line,status"

const (
	numFields     = 12
	dateFormat    = "2006-01-02"
	colNumber     = 0
	colDate       = 1
	colJournal    = 2
	colAccount    = 3
	colLabel      = 4
	colLineLabel  = 5
	colDebit      = 6
	colCredit     = 7
	colRef        = 8
	colProject    = 9
	colBudgetLine = 10
	colStatus     = 11
)

// Row is one CSV row: a single line of an entry together with the entry
// header fields, which repeat on every line of the same entry.
type Row struct {
	Number     string
	Date       time.Time
	Journal    string // journal code
	Account    string // account number
	Label      string
	LineLabel  string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Reference  string
	Project    string // project code, optional
	BudgetLine string // budget line code, optional
	Status     string
}

// ReadRows reads all rows from an entries CSV reader.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading entries CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to an entries CSV writer, header included.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colNumber] = row.Number
	rec[colDate] = row.Date.Format(dateFormat)
	rec[colJournal] = row.Journal
	rec[colAccount] = row.Account
	rec[colLabel] = row.Label
	rec[colLineLabel] = row.LineLabel

	if !row.Debit.IsZero() {
		rec[colDebit] = row.Debit.StringFixed(2)
	}
	if !row.Credit.IsZero() {
		rec[colCredit] = row.Credit.StringFixed(2)
	}

	rec[colRef] = row.Reference
	rec[colProject] = row.Project
	rec[colBudgetLine] = row.BudgetLine
	rec[colStatus] = row.Status
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	var debit, credit decimal.Decimal
	if record[colDebit] != "" {
		if debit, err = decimal.NewFromString(record[colDebit]); err != nil {
			return Row{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}
	if record[colCredit] != "" {
		if credit, err = decimal.NewFromString(record[colCredit]); err != nil {
			return Row{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	return Row{
		Number:     record[colNumber],
		Date:       date,
		Journal:    record[colJournal],
		Account:    record[colAccount],
		Label:      record[colLabel],
		LineLabel:  record[colLineLabel],
		Debit:      debit,
		Credit:     credit,
		Reference:  record[colRef],
		Project:    record[colProject],
		BudgetLine: record[colBudgetLine],
		Status:     record[colStatus],
	}, nil
}
