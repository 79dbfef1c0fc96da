package analytics

import (
	"context"

	"github.com/pkg/errors"

	"homework-tracker/models"
)

var ErrUnknownPeriod = errors.New("unknown period")

// Source is the read side of the storage used to build an analysis.
type Source interface {
	GetClass(ctx context.Context, id string) (models.ClassGroup, error)
	GetStudents(ctx context.Context, classID string) ([]models.Student, error)
	GetSessions(ctx context.Context, classID string) ([]models.HomeworkSession, error)
	GetAllRecords(ctx context.Context) ([]models.HomeworkRecord, error)
	GetPeriods(ctx context.Context) ([]models.SchoolPeriod, error)
}

// ForClass loads the data of a class and analyzes it over the period with the
// given id. An empty id or "all" selects the whole school year.
func ForClass(ctx context.Context, src Source, classID, periodID string) (ClassAnalysis, error) {
	class, err := src.GetClass(ctx, classID)
	if err != nil {
		return ClassAnalysis{}, err
	}
	var period *models.SchoolPeriod
	if periodID != "" && periodID != "all" {
		periods, err := src.GetPeriods(ctx)
		if err != nil {
			return ClassAnalysis{}, err
		}
		for i := range periods {
			if periods[i].ID == periodID {
				period = &periods[i]
				break
			}
		}
		if period == nil {
			return ClassAnalysis{}, errors.Wrapf(ErrUnknownPeriod, "period %s", periodID)
		}
	}
	students, err := src.GetStudents(ctx, classID)
	if err != nil {
		return ClassAnalysis{}, err
	}
	sessions, err := src.GetSessions(ctx, classID)
	if err != nil {
		return ClassAnalysis{}, err
	}
	records, err := src.GetAllRecords(ctx)
	if err != nil {
		return ClassAnalysis{}, err
	}
	return Analyze(class, students, sessions, records, period), nil
}
