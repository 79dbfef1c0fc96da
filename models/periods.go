package models

import (
	"fmt"
	"time"
)

// SchoolYearStart returns the calendar year in which the current school year
// began. Years start in September.
func SchoolYearStart(now time.Time) int {
	if now.Month() > time.August {
		return now.Year()
	}
	return now.Year() - 1
}

// DefaultPeriods seeds the three trimesters of the school year containing now.
func DefaultPeriods(now time.Time) []SchoolPeriod {
	y := SchoolYearStart(now)
	return []SchoolPeriod{
		{ID: "p1", Name: "Trimestre 1", StartDate: fmt.Sprintf("%d-09-01", y), EndDate: fmt.Sprintf("%d-12-31", y)},
		{ID: "p2", Name: "Trimestre 2", StartDate: fmt.Sprintf("%d-01-01", y+1), EndDate: fmt.Sprintf("%d-03-31", y+1)},
		{ID: "p3", Name: "Trimestre 3", StartDate: fmt.Sprintf("%d-04-01", y+1), EndDate: fmt.Sprintf("%d-07-07", y+1)},
	}
}

// Contains reports whether date falls within the period, both ends included.
func (p SchoolPeriod) Contains(date string) bool {
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	start, err := ParseDate(p.StartDate)
	if err != nil {
		return false
	}
	end, err := ParseDate(p.EndDate)
	if err != nil {
		return false
	}
	return !d.Before(start) && !d.After(end)
}

// Started reports whether the period has begun at now.
func (p SchoolPeriod) Started(now time.Time) bool {
	start, err := ParseDate(p.StartDate)
	if err != nil {
		return false
	}
	return !start.After(now)
}
