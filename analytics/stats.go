package analytics

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"homework-tracker/models"
)

// WholeYear is the period name used when no period is selected.
const WholeYear = "Année Scolaire Complète"

// FilterByPeriod keeps the sessions dated within period (ends included) and
// the records of those sessions. A nil period keeps everything.
func FilterByPeriod(sessions []models.HomeworkSession, records []models.HomeworkRecord, period *models.SchoolPeriod) ([]models.HomeworkSession, []models.HomeworkRecord) {
	kept := sessions
	if period != nil {
		kept = make([]models.HomeworkSession, 0, len(sessions))
		for _, s := range sessions {
			if period.Contains(s.Date) {
				kept = append(kept, s)
			}
		}
	}
	return kept, models.FilterRecordsBySessions(records, kept)
}

type StudentStat struct {
	Student models.Student `json:"student"`
	Counts
	Total int `json:"total"`
	Score int `json:"score"`
}

type GlobalStats struct {
	Counts
	Total       int `json:"total"`
	SuccessRate int `json:"successRate"`
}

type TimelineEntry struct {
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Status      models.Status `json:"status"`
}

// ClassAnalysis is everything the analysis view and the report show for one
// class over one period.
type ClassAnalysis struct {
	Class        models.ClassGroup        `json:"class"`
	PeriodName   string                   `json:"periodName"`
	Sessions     []models.HomeworkSession `json:"sessions"`
	Global       GlobalStats              `json:"global"`
	Students     []StudentStat            `json:"students"` // weakest score first
	ClassAverage int                      `json:"classAverage"`

	records []models.HomeworkRecord
}

// Analyze computes the statistics of a class. students are expected in
// roll-call order, which breaks score ties.
func Analyze(class models.ClassGroup, students []models.Student, sessions []models.HomeworkSession, records []models.HomeworkRecord, period *models.SchoolPeriod) ClassAnalysis {
	sessions, records = FilterByPeriod(sessions, records, period)

	a := ClassAnalysis{
		Class:      class,
		PeriodName: WholeYear,
		Sessions:   models.SortSessionsNewestFirst(sessions),
		records:    records,
	}
	if period != nil {
		a.PeriodName = period.Name
	}

	counts := CountStatuses(records)
	a.Global = GlobalStats{Counts: counts, Total: counts.Total(), SuccessRate: SuccessRate(counts)}

	byStudent := make(map[string][]models.HomeworkRecord, len(students))
	for _, r := range records {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	var scoreSum, scored int
	a.Students = make([]StudentStat, 0, len(students))
	for _, st := range students {
		c := CountStatuses(byStudent[st.ID])
		stat := StudentStat{Student: st, Counts: c, Total: c.Total(), Score: Score(c)}
		if stat.Total > 0 {
			scoreSum += stat.Score
			scored++
		}
		a.Students = append(a.Students, stat)
	}
	// students without any record score 100 and therefore come last
	sort.SliceStable(a.Students, func(i, j int) bool {
		return a.Students[i].Score < a.Students[j].Score
	})

	a.ClassAverage = 100
	if scored > 0 {
		a.ClassAverage = int(math.Round(float64(scoreSum) / float64(scored)))
	}
	return a
}

// Timeline lists the statuses of one student, newest session first.
func (a ClassAnalysis) Timeline(studentID string) []TimelineEntry {
	status := make(map[string]models.Status)
	for _, r := range a.records {
		if r.StudentID == studentID {
			status[r.SessionID] = r.Status
		}
	}
	out := make([]TimelineEntry, 0, len(status))
	for _, s := range a.Sessions {
		if st, ok := status[s.ID]; ok {
			out = append(out, TimelineEntry{Date: s.Date, Description: s.Description, Status: st})
		}
	}
	return out
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ReportFileName is the download name of the class report.
func ReportFileName(className, periodName string) string {
	clean := strings.ToLower(nonAlnum.ReplaceAllString(className, "_"))
	return "Bilan_" + clean + "_" + periodName + ".xlsx"
}
