package models

// Status is the outcome recorded for one student in one session.
type Status string

const (
	StatusDone       Status = "FAIT"
	StatusNotDone    Status = "NON_FAIT"
	StatusIncomplete Status = "INCOMPLET"
	StatusAbsent     Status = "ABSENT"
)

// AllStatuses lists the statuses in display order.
var AllStatuses = []Status{StatusDone, StatusNotDone, StatusIncomplete, StatusAbsent}

var statusLabels = map[Status]string{
	StatusDone:       "Fait",
	StatusNotDone:    "Non Fait",
	StatusIncomplete: "Incomplet",
	StatusAbsent:     "Absent",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable name shown in reports.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
