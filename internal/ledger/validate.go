package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ongbook-dev/ongbook/internal/model"
)

// balanceTolerance absorbs rounding noise when comparing totals.
var balanceTolerance = decimal.NewFromFloat(0.01)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Line        int // 1-based line index, 0 for entry-level violations
	Description string
}

func (e ValidationError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("invariant %d: %s", e.Invariant, e.Description)
	}
	return fmt.Sprintf("invariant %d [line %d]: %s", e.Invariant, e.Line, e.Description)
}

// ValidationErrors bundles all violations found in one entry.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, ve := range errs {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// AccountChecker reports whether an account can receive postings.
type AccountChecker interface {
	Active(id int64) bool
}

// ValidateEntry enforces 7 invariants on an entry before it is stored.
func ValidateEntry(e *model.Entry, accounts AccountChecker, fy model.FiscalYear) ValidationErrors {
	var errs ValidationErrors

	// Invariant 1: At least two lines.
	if len(e.Lines) < 2 {
		errs = append(errs, ValidationError{
			Invariant:   1,
			Description: fmt.Sprintf("entry has %d line(s), need at least 2", len(e.Lines)),
		})
	}

	// Invariant 2: Entry balances with a positive total.
	totalDebit := e.TotalDebit()
	totalCredit := e.TotalCredit()
	if totalDebit.Sub(totalCredit).Abs().GreaterThan(balanceTolerance) {
		errs = append(errs, ValidationError{
			Invariant:   2,
			Description: fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
		})
	} else if !totalDebit.IsPositive() {
		errs = append(errs, ValidationError{
			Invariant:   2,
			Description: "entry total must be positive",
		})
	}

	hundred := decimal.NewFromInt(100)
	for i := range e.Lines {
		l := &e.Lines[i]
		line := i + 1

		// Invariant 3: Exactly one of debit/credit per line, never negative.
		hasDebit := !l.Debit.IsZero()
		hasCredit := !l.Credit.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Line:        line,
				Description: "line must have exactly one of debit or credit",
			})
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Line:        line,
				Description: "amounts must not be negative",
			})
		}

		// Invariant 4: Account exists and is active.
		if !accounts.Active(l.AccountID) {
			errs = append(errs, ValidationError{
				Invariant:   4,
				Line:        line,
				Description: fmt.Sprintf("unknown or inactive account %d", l.AccountID),
			})
		}

		// Invariant 6: No more than 2 decimal places.
		if !exactCents(l.Debit) {
			errs = append(errs, ValidationError{
				Invariant:   6,
				Line:        line,
				Description: fmt.Sprintf("debit %s has more than 2 decimal places", l.Debit),
			})
		}
		if !exactCents(l.Credit) {
			errs = append(errs, ValidationError{
				Invariant:   6,
				Line:        line,
				Description: fmt.Sprintf("credit %s has more than 2 decimal places", l.Credit),
			})
		}

		// Invariant 7: Allocation percentages are positive and sum to 100.
		if len(l.Allocations) > 0 {
			total := decimal.Zero
			for _, a := range l.Allocations {
				if !a.Percent.IsPositive() {
					errs = append(errs, ValidationError{
						Invariant:   7,
						Line:        line,
						Description: fmt.Sprintf("allocation percent %s must be positive", a.Percent),
					})
				}
				total = total.Add(a.Percent)
			}
			if total.Sub(hundred).Abs().GreaterThan(balanceTolerance) {
				errs = append(errs, ValidationError{
					Invariant:   7,
					Line:        line,
					Description: fmt.Sprintf("allocations sum to %s%%, need 100%%", total.StringFixed(2)),
				})
			}
		}
	}

	// Invariant 5: Date within an open fiscal year.
	if fy.Closed {
		errs = append(errs, ValidationError{
			Invariant:   5,
			Description: fmt.Sprintf("fiscal year %d is closed", fy.Year),
		})
	} else if !fy.Contains(e.Date) {
		errs = append(errs, ValidationError{
			Invariant:   5,
			Description: fmt.Sprintf("date %s outside fiscal year %d", e.Date.Format("2006-01-02"), fy.Year),
		})
	}

	return errs
}

func exactCents(d decimal.Decimal) bool {
	shifted := d.Shift(2)
	return shifted.Equal(shifted.Floor())
}
