package models

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const dateLayout = "2006-01-02"

// SortStudentsByName returns a copy of students in roll-call order: French
// collation ignoring case and accents.
func SortStudentsByName(students []Student) []Student {
	out := append([]Student{}, students...)
	// a Collator is not safe for concurrent use, build one per call
	coll := collate.New(language.French, collate.Loose)
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// FilterStudentsByClass keeps the students of classID. An empty classID keeps all.
func FilterStudentsByClass(students []Student, classID string) []Student {
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if classID == "" || s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out
}

// ParseDate parses a YYYY-MM-DD date as stored on sessions and periods.
func ParseDate(v string) (time.Time, error) {
	return time.Parse(dateLayout, v)
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// SortSessionsNewestFirst returns a copy of sessions ordered by date, most recent first.
func SortSessionsNewestFirst(sessions []HomeworkSession) []HomeworkSession {
	out := append([]HomeworkSession{}, sessions...)
	sort.SliceStable(out, func(i, j int) bool {
		di, errI := ParseDate(out[i].Date)
		dj, errJ := ParseDate(out[j].Date)
		if errI != nil || errJ != nil {
			return out[i].Date > out[j].Date
		}
		return di.After(dj)
	})
	return out
}

// FilterSessionsByClass keeps the sessions of classID. An empty classID keeps all.
func FilterSessionsByClass(sessions []HomeworkSession, classID string) []HomeworkSession {
	out := make([]HomeworkSession, 0, len(sessions))
	for _, s := range sessions {
		if classID == "" || s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out
}

// FilterRecordsBySessions keeps the records whose session is in sessions.
func FilterRecordsBySessions(records []HomeworkRecord, sessions []HomeworkSession) []HomeworkRecord {
	ids := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		ids[s.ID] = struct{}{}
	}
	out := make([]HomeworkRecord, 0)
	for _, r := range records {
		if _, ok := ids[r.SessionID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// UpsertRecords replaces every existing record sharing an id with an incoming
// one and appends the rest. Records with other ids are kept as they are.
func UpsertRecords(existing, incoming []HomeworkRecord) []HomeworkRecord {
	replaced := make(map[string]struct{}, len(incoming))
	for _, r := range incoming {
		replaced[r.ID] = struct{}{}
	}
	out := make([]HomeworkRecord, 0, len(existing)+len(incoming))
	for _, r := range existing {
		if _, ok := replaced[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return append(out, incoming...)
}
