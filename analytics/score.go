package analytics

import (
	"math"

	"homework-tracker/models"
)

// Counts tallies the records of one student or one class by status.
type Counts struct {
	Done       int `json:"done"`
	Missed     int `json:"missed"`
	Incomplete int `json:"incomplete"`
	Absent     int `json:"absent"`
}

func (c Counts) Total() int {
	return c.Done + c.Missed + c.Incomplete + c.Absent
}

// Of returns the tally for one status.
func (c Counts) Of(s models.Status) int {
	switch s {
	case models.StatusDone:
		return c.Done
	case models.StatusNotDone:
		return c.Missed
	case models.StatusIncomplete:
		return c.Incomplete
	case models.StatusAbsent:
		return c.Absent
	}
	return 0
}

// CountStatuses tallies records. Unknown statuses are ignored.
func CountStatuses(records []models.HomeworkRecord) Counts {
	var c Counts
	for _, r := range records {
		switch r.Status {
		case models.StatusDone:
			c.Done++
		case models.StatusNotDone:
			c.Missed++
		case models.StatusIncomplete:
			c.Incomplete++
		case models.StatusAbsent:
			c.Absent++
		}
	}
	return c
}

// Score is the seriousness score, a percentage where absences do not count:
// done weighs 1, incomplete 0.5, missed 0. With no attempt left once absences
// are removed the score is 100.
func Score(c Counts) int {
	validAttempts := c.Total() - c.Absent
	if validAttempts <= 0 {
		return 100
	}
	return int(math.Round((float64(c.Done)*1 + float64(c.Incomplete)*0.5) / float64(validAttempts) * 100))
}

// SuccessRate is the share of FAIT records over all records, 0 when empty.
func SuccessRate(c Counts) int {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Done) / float64(total) * 100))
}
