package db

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"

	"homework-tracker/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNoStudents = errors.New("class has no students")
)

// StorageService exposes typed accessors over a Store. Every mutation reads the
// whole collection, modifies it and writes it back. Mutations are serialized so
// two concurrent requests cannot interleave their read-modify-write cycles.
type StorageService struct {
	store Store
	mu    sync.Mutex

	nowFunc func() time.Time
}

// NewStorageService creates a new StorageService
func NewStorageService(store Store) *StorageService {
	return &StorageService{store: store, nowFunc: time.Now}
}

// --- Snapshot ---

// LoadSnapshot reads the five collections in one consistent call. Periods are
// returned as stored, without default seeding.
func (s *StorageService) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	raw, err := s.store.Snapshot(ctx, AllKeys...)
	if err != nil {
		return models.Snapshot{}, errors.Wrap(err, "loading snapshot")
	}
	var snap models.Snapshot
	if snap.Classes, err = decodeCollection[models.ClassGroup](KeyClasses, raw[KeyClasses]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Students, err = decodeCollection[models.Student](KeyStudents, raw[KeyStudents]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Sessions, err = decodeCollection[models.HomeworkSession](KeySessions, raw[KeySessions]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Records, err = decodeCollection[models.HomeworkRecord](KeyRecords, raw[KeyRecords]); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Periods, err = decodeCollection[models.SchoolPeriod](KeyPeriods, raw[KeyPeriods]); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// ReplaceSnapshot overwrites classes, students, sessions and records with the
// content of snap, and periods too when replacePeriods is set. The write is
// atomic: either every collection is replaced or none is.
func (s *StorageService) ReplaceSnapshot(ctx context.Context, snap models.Snapshot, replacePeriods bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Normalize()
	entries, err := encodeSnapshot(snap, replacePeriods)
	if err != nil {
		return err
	}
	return errors.Wrap(s.store.Write(ctx, entries), "replacing snapshot")
}

// ClearAll removes the five collections. There is no undo.
func (s *StorageService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Wrap(s.store.Remove(ctx, AllKeys...), "clearing collections")
}

func encodeSnapshot(snap models.Snapshot, withPeriods bool) (map[string][]byte, error) {
	entries := make(map[string][]byte, len(AllKeys))
	var err error
	if entries[KeyClasses], err = encodeCollection(KeyClasses, snap.Classes); err != nil {
		return nil, err
	}
	if entries[KeyStudents], err = encodeCollection(KeyStudents, snap.Students); err != nil {
		return nil, err
	}
	if entries[KeySessions], err = encodeCollection(KeySessions, snap.Sessions); err != nil {
		return nil, err
	}
	if entries[KeyRecords], err = encodeCollection(KeyRecords, snap.Records); err != nil {
		return nil, err
	}
	if withPeriods {
		if entries[KeyPeriods], err = encodeCollection(KeyPeriods, snap.Periods); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// applyPlan writes back the collections touched by a deletion plan in one call.
func (s *StorageService) applyPlan(ctx context.Context, snap models.Snapshot, plan models.DeletionPlan) error {
	next := plan.Apply(snap)
	entries := make(map[string][]byte, 4)
	var err error
	if len(plan.Classes) > 0 {
		if entries[KeyClasses], err = encodeCollection(KeyClasses, next.Classes); err != nil {
			return err
		}
	}
	if len(plan.Students) > 0 {
		if entries[KeyStudents], err = encodeCollection(KeyStudents, next.Students); err != nil {
			return err
		}
	}
	if len(plan.Sessions) > 0 {
		if entries[KeySessions], err = encodeCollection(KeySessions, next.Sessions); err != nil {
			return err
		}
	}
	if entries[KeyRecords], err = encodeCollection(KeyRecords, next.Records); err != nil {
		return err
	}
	return s.store.Write(ctx, entries)
}

// --- Class Operations ---

func (s *StorageService) GetClasses(ctx context.Context) ([]models.ClassGroup, error) {
	return readCollection[models.ClassGroup](ctx, s.store, KeyClasses)
}

// GetClass returns ErrNotFound when no class has the given id.
func (s *StorageService) GetClass(ctx context.Context, id string) (models.ClassGroup, error) {
	classes, err := s.GetClasses(ctx)
	if err != nil {
		return models.ClassGroup{}, err
	}
	for _, c := range classes {
		if c.ID == id {
			return c, nil
		}
	}
	return models.ClassGroup{}, errors.Wrapf(ErrNotFound, "class %s", id)
}

// AddClass appends a new class. Names are not checked for duplicates.
func (s *StorageService) AddClass(ctx context.Context, nc models.NewClass) (models.ClassGroup, error) {
	nc.Name = models.CleanName(nc.Name)
	if err := models.Validate(nc); err != nil {
		return models.ClassGroup{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	classes, err := s.GetClasses(ctx)
	if err != nil {
		return models.ClassGroup{}, err
	}
	class := models.ClassGroup{ID: models.NewID(), Name: nc.Name}
	if err := writeCollection(ctx, s.store, KeyClasses, append(classes, class)); err != nil {
		return models.ClassGroup{}, err
	}
	return class, nil
}

// DeleteClass removes the class, its students, its sessions and the records of
// those sessions.
func (s *StorageService) DeleteClass(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if !containsClass(snap.Classes, id) {
		return errors.Wrapf(ErrNotFound, "class %s", id)
	}
	return errors.Wrapf(s.applyPlan(ctx, snap, models.PlanClassDeletion(snap, id)), "deleting class %s", id)
}

func containsClass(classes []models.ClassGroup, id string) bool {
	for _, c := range classes {
		if c.ID == id {
			return true
		}
	}
	return false
}

// --- Student Operations ---

// GetStudents returns the students of classID (all students when empty), in
// roll-call order.
func (s *StorageService) GetStudents(ctx context.Context, classID string) ([]models.Student, error) {
	students, err := readCollection[models.Student](ctx, s.store, KeyStudents)
	if err != nil {
		return nil, err
	}
	return models.SortStudentsByName(models.FilterStudentsByClass(students, classID)), nil
}

// AddStudent adds one student to an existing class.
func (s *StorageService) AddStudent(ctx context.Context, ns models.NewStudent) (models.Student, error) {
	ns.Name = models.CleanName(ns.Name)
	if err := models.Validate(ns); err != nil {
		return models.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.addStudentsLocked(ctx, ns.ClassID, []string{ns.Name})
	if err != nil {
		return models.Student{}, err
	}
	return added[0], nil
}

func (s *StorageService) addStudentsLocked(ctx context.Context, classID string, names []string) ([]models.Student, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	students, err := readCollection[models.Student](ctx, s.store, KeyStudents)
	if err != nil {
		return nil, err
	}
	added := make([]models.Student, 0, len(names))
	for _, name := range names {
		added = append(added, models.Student{ID: models.NewID(), Name: name, ClassID: classID})
	}
	if err := writeCollection(ctx, s.store, KeyStudents, append(students, added...)); err != nil {
		return nil, err
	}
	return added, nil
}

// DeleteStudent removes the student and every record about them.
func (s *StorageService) DeleteStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, st := range snap.Students {
		if st.ID == id {
			found = true
			break
		}
	}
	if !found {
		return errors.Wrapf(ErrNotFound, "student %s", id)
	}
	return errors.Wrapf(s.applyPlan(ctx, snap, models.PlanStudentDeletion(snap, id)), "deleting student %s", id)
}

// GetRandomStudent picks one student of the class, or returns ErrNoStudents.
func (s *StorageService) GetRandomStudent(ctx context.Context, classID string) (models.Student, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return models.Student{}, err
	}
	students, err := s.GetStudents(ctx, classID)
	if err != nil {
		return models.Student{}, err
	}
	if len(students) == 0 {
		return models.Student{}, ErrNoStudents
	}
	return students[rand.IntN(len(students))], nil
}

// --- Session Operations ---

// GetSessions returns the sessions of classID (all when empty), newest first.
func (s *StorageService) GetSessions(ctx context.Context, classID string) ([]models.HomeworkSession, error) {
	sessions, err := readCollection[models.HomeworkSession](ctx, s.store, KeySessions)
	if err != nil {
		return nil, err
	}
	return models.FilterSessionsByClass(models.SortSessionsNewestFirst(sessions), classID), nil
}

func (s *StorageService) GetSession(ctx context.Context, id string) (models.HomeworkSession, error) {
	sessions, err := readCollection[models.HomeworkSession](ctx, s.store, KeySessions)
	if err != nil {
		return models.HomeworkSession{}, err
	}
	for _, se := range sessions {
		if se.ID == id {
			return se, nil
		}
	}
	return models.HomeworkSession{}, errors.Wrapf(ErrNotFound, "session %s", id)
}

// RecordSession saves one recording pass: a new session plus exactly one record
// for each student currently in the class. Students added to the class later
// never get a record for this session.
func (s *StorageService) RecordSession(ctx context.Context, ns models.NewSession) (models.HomeworkSession, []models.HomeworkRecord, error) {
	if err := models.Validate(ns); err != nil {
		return models.HomeworkSession{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return models.HomeworkSession{}, nil, err
	}
	if !containsClass(snap.Classes, ns.ClassID) {
		return models.HomeworkSession{}, nil, errors.Wrapf(ErrNotFound, "class %s", ns.ClassID)
	}
	students := models.SortStudentsByName(models.FilterStudentsByClass(snap.Students, ns.ClassID))
	if len(students) == 0 {
		return models.HomeworkSession{}, nil, ErrNoStudents
	}

	session := models.HomeworkSession{
		ID:          models.NewID(),
		ClassID:     ns.ClassID,
		Date:        ns.Date,
		Description: ns.Description,
	}
	records := make([]models.HomeworkRecord, 0, len(students))
	for _, st := range students {
		status, ok := ns.Statuses[st.ID]
		if !ok {
			status = models.StatusDone
		}
		records = append(records, models.HomeworkRecord{
			ID:        models.NewID(),
			SessionID: session.ID,
			StudentID: st.ID,
			Status:    status,
		})
	}

	entries := make(map[string][]byte, 2)
	if entries[KeySessions], err = encodeCollection(KeySessions, append(snap.Sessions, session)); err != nil {
		return models.HomeworkSession{}, nil, err
	}
	if entries[KeyRecords], err = encodeCollection(KeyRecords, models.UpsertRecords(snap.Records, records)); err != nil {
		return models.HomeworkSession{}, nil, err
	}
	if err := s.store.Write(ctx, entries); err != nil {
		return models.HomeworkSession{}, nil, errors.Wrap(err, "saving session")
	}
	return session, records, nil
}

// DeleteSession removes the session and its records.
func (s *StorageService) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, se := range snap.Sessions {
		if se.ID == id {
			found = true
			break
		}
	}
	if !found {
		return errors.Wrapf(ErrNotFound, "session %s", id)
	}
	return errors.Wrapf(s.applyPlan(ctx, snap, models.PlanSessionDeletion(snap, id)), "deleting session %s", id)
}

// --- Record Operations ---

func (s *StorageService) GetAllRecords(ctx context.Context) ([]models.HomeworkRecord, error) {
	return readCollection[models.HomeworkRecord](ctx, s.store, KeyRecords)
}

// GetRecords returns the records of one session.
func (s *StorageService) GetRecords(ctx context.Context, sessionID string) ([]models.HomeworkRecord, error) {
	all, err := s.GetAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.HomeworkRecord, 0)
	for _, r := range all {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// SaveRecords updates the status of existing records. A record is matched by
// id, or by session and student when sent without id. Records can not be
// created here: a session keeps exactly the records written when it was
// recorded, so an unknown session, a student outside the session's class or a
// student without a record for that session is rejected and nothing is saved.
func (s *StorageService) SaveRecords(ctx context.Context, records []models.HomeworkRecord) ([]models.HomeworkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make(map[string]models.HomeworkSession, len(snap.Sessions))
	for _, se := range snap.Sessions {
		sessions[se.ID] = se
	}
	students := make(map[string]models.Student, len(snap.Students))
	for _, st := range snap.Students {
		students[st.ID] = st
	}
	byID := make(map[string]models.HomeworkRecord, len(snap.Records))
	byPair := make(map[[2]string]string, len(snap.Records))
	for _, r := range snap.Records {
		byID[r.ID] = r
		byPair[[2]string{r.SessionID, r.StudentID}] = r.ID
	}

	vErr := &models.ValidationError{}
	reject := func(i int, field, msg string) {
		vErr.Fields = append(vErr.Fields, models.FieldError{Field: fmt.Sprintf("records[%d].%s", i, field), Error: msg})
	}
	saved := make([]models.HomeworkRecord, 0, len(records))
	for i, r := range records {
		session, ok := sessions[r.SessionID]
		if !ok {
			reject(i, "SessionID", "unknown session "+r.SessionID)
			continue
		}
		student, ok := students[r.StudentID]
		if !ok || student.ClassID != session.ClassID {
			reject(i, "StudentID", "student "+r.StudentID+" is not in the class of the session")
			continue
		}
		pairID, recorded := byPair[[2]string{r.SessionID, r.StudentID}]
		if !recorded {
			reject(i, "StudentID", "student "+r.StudentID+" has no record for this session")
			continue
		}
		switch existing, known := byID[r.ID]; {
		case r.ID == "":
			r.ID = pairID
		case !known:
			reject(i, "ID", "session already has record "+pairID+" for this student")
			continue
		case existing.SessionID != r.SessionID || existing.StudentID != r.StudentID:
			reject(i, "ID", "record "+r.ID+" belongs to another session or student")
			continue
		}
		if !r.Status.Valid() {
			reject(i, "Status", "unknown status "+string(r.Status))
			continue
		}
		saved = append(saved, r)
	}
	if len(vErr.Fields) > 0 {
		return nil, vErr
	}

	if err := writeCollection(ctx, s.store, KeyRecords, models.UpsertRecords(snap.Records, dedupeRecords(saved))); err != nil {
		return nil, err
	}
	return saved, nil
}

// dedupeRecords keeps the last record sent for each id.
func dedupeRecords(records []models.HomeworkRecord) []models.HomeworkRecord {
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.ID] = i
	}
	out := make([]models.HomeworkRecord, 0, len(last))
	for i, r := range records {
		if last[r.ID] == i {
			out = append(out, r)
		}
	}
	return out
}

// --- Period Operations ---

// GetPeriods returns the configured periods, seeding and persisting the default
// trimesters when none were ever stored.
func (s *StorageService) GetPeriods(ctx context.Context) ([]models.SchoolPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Read(ctx, KeyPeriods)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", KeyPeriods)
	}
	if raw == nil {
		defaults := models.DefaultPeriods(s.nowFunc())
		if err := writeCollection(ctx, s.store, KeyPeriods, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	return decodeCollection[models.SchoolPeriod](KeyPeriods, raw)
}

// SavePeriods replaces the whole period list.
func (s *StorageService) SavePeriods(ctx context.Context, inputs []models.PeriodInput) ([]models.SchoolPeriod, error) {
	periods := make([]models.SchoolPeriod, 0, len(inputs))
	for _, in := range inputs {
		in.Name = models.CleanName(in.Name)
		if err := models.Validate(in); err != nil {
			return nil, err
		}
		p := models.SchoolPeriod{ID: in.ID, Name: in.Name, StartDate: in.StartDate, EndDate: in.EndDate}
		if p.EndDate < p.StartDate {
			return nil, &models.ValidationError{Fields: []models.FieldError{
				{Field: "EndDate", Error: "must not be before " + p.StartDate},
			}}
		}
		if p.ID == "" {
			p.ID = models.NewID()
		}
		periods = append(periods, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeCollection(ctx, s.store, KeyPeriods, periods); err != nil {
		return nil, err
	}
	return periods, nil
}
