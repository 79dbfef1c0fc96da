package models

type idSet map[string]struct{}

func (s idSet) add(id string) { s[id] = struct{}{} }

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// DeletionPlan lists every entity removed by one delete, across collections.
// Plans are computed from a full snapshot before anything is written, so the
// dependents of a deleted entity are known before the entity itself is gone.
type DeletionPlan struct {
	Classes  idSet
	Students idSet
	Sessions idSet
	Records  idSet
}

func newDeletionPlan() DeletionPlan {
	return DeletionPlan{
		Classes:  idSet{},
		Students: idSet{},
		Sessions: idSet{},
		Records:  idSet{},
	}
}

// PlanClassDeletion walks ClassGroup -> {Students, Sessions} -> Records.
// Records are dropped through their session only: a record of a surviving
// session is never removed.
func PlanClassDeletion(s Snapshot, classID string) DeletionPlan {
	p := newDeletionPlan()
	p.Classes.add(classID)
	for _, st := range s.Students {
		if st.ClassID == classID {
			p.Students.add(st.ID)
		}
	}
	for _, se := range s.Sessions {
		if se.ClassID == classID {
			p.Sessions.add(se.ID)
		}
	}
	for _, r := range s.Records {
		if p.Sessions.has(r.SessionID) {
			p.Records.add(r.ID)
		}
	}
	return p
}

// PlanStudentDeletion removes the student and all of its records.
func PlanStudentDeletion(s Snapshot, studentID string) DeletionPlan {
	p := newDeletionPlan()
	p.Students.add(studentID)
	for _, r := range s.Records {
		if r.StudentID == studentID {
			p.Records.add(r.ID)
		}
	}
	return p
}

// PlanSessionDeletion removes the session and all of its records.
func PlanSessionDeletion(s Snapshot, sessionID string) DeletionPlan {
	p := newDeletionPlan()
	p.Sessions.add(sessionID)
	for _, r := range s.Records {
		if r.SessionID == sessionID {
			p.Records.add(r.ID)
		}
	}
	return p
}

// Apply filters each collection of s once and returns the result. Periods are
// untouched.
func (p DeletionPlan) Apply(s Snapshot) Snapshot {
	out := Snapshot{Periods: s.Periods}
	out.Classes = make([]ClassGroup, 0, len(s.Classes))
	for _, c := range s.Classes {
		if !p.Classes.has(c.ID) {
			out.Classes = append(out.Classes, c)
		}
	}
	out.Students = make([]Student, 0, len(s.Students))
	for _, st := range s.Students {
		if !p.Students.has(st.ID) {
			out.Students = append(out.Students, st)
		}
	}
	out.Sessions = make([]HomeworkSession, 0, len(s.Sessions))
	for _, se := range s.Sessions {
		if !p.Sessions.has(se.ID) {
			out.Sessions = append(out.Sessions, se)
		}
	}
	out.Records = make([]HomeworkRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if !p.Records.has(r.ID) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
