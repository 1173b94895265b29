package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// numberPrefix starts every entry number.
const numberPrefix = "PC"

// FormatEntryNumber returns an entry number like "PC202500042".
func FormatEntryNumber(year, seq int) string {
	return fmt.Sprintf("%s%04d%05d", numberPrefix, year, seq)
}

// YearPrefix returns the number prefix shared by all entries of a year,
// e.g. "PC2025".
func YearPrefix(year int) string {
	return fmt.Sprintf("%s%04d", numberPrefix, year)
}

// ParseEntryNumber parses "PC202500042" into year and sequence.
func ParseEntryNumber(number string) (year, seq int, err error) {
	rest, ok := strings.CutPrefix(number, numberPrefix)
	if !ok || len(rest) != 9 {
		return 0, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	year, err = strconv.Atoi(rest[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in entry number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(rest[4:])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sequence in entry number %q: %w", number, err)
	}

	return year, seq, nil
}
