package models

import "github.com/google/uuid"

// ClassGroup represents a class
type ClassGroup struct {
	ID   string `json:"id"`   // Unique class ID
	Name string `json:"name"` // Class name, e.g. "3B"
}

// Student represents a student
type Student struct {
	ID      string `json:"id"`      // Unique student ID
	Name    string `json:"name"`    // Display name used for the roll call
	ClassID string `json:"classId"` // ID of the class the student belongs to
}

// HomeworkSession is one dated homework check for a class
type HomeworkSession struct {
	ID          string `json:"id"`
	ClassID     string `json:"classId"`
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
}

// HomeworkRecord is one student's status for one session
type HomeworkRecord struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	StudentID string `json:"studentId"`
	Status    Status `json:"status"`
}

// SchoolPeriod is a named date range used to filter sessions
type SchoolPeriod struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"` // YYYY-MM-DD, inclusive
	EndDate   string `json:"endDate"`   // YYYY-MM-DD, inclusive
}

// Snapshot is the full content of the five collections.
type Snapshot struct {
	Classes  []ClassGroup      `json:"classes"`
	Students []Student         `json:"students"`
	Sessions []HomeworkSession `json:"sessions"`
	Records  []HomeworkRecord  `json:"records"`
	Periods  []SchoolPeriod    `json:"periods"`
}

// Normalize replaces nil collections with empty ones so they serialize as [].
func (s *Snapshot) Normalize() {
	if s.Classes == nil {
		s.Classes = []ClassGroup{}
	}
	if s.Students == nil {
		s.Students = []Student{}
	}
	if s.Sessions == nil {
		s.Sessions = []HomeworkSession{}
	}
	if s.Records == nil {
		s.Records = []HomeworkRecord{}
	}
	if s.Periods == nil {
		s.Periods = []SchoolPeriod{}
	}
}

// NewID returns a locally unique identifier for a new entity.
func NewID() string {
	return uuid.NewString()
}
