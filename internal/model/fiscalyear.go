package model

import "time"

// FiscalYear is an accounting period (exercice comptable). Closure is
// irreversible: a closed year accepts no new or modified entries.
type FiscalYear struct {
	ID        int64     `json:"id"`
	Year      int       `json:"year"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Closed    bool      `json:"closed"`
}

// Contains reports whether d falls inside the year's period.
func (fy FiscalYear) Contains(d time.Time) bool {
	day := d.Truncate(24 * time.Hour)
	return !day.Before(fy.StartDate) && !day.After(fy.EndDate)
}
