package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"homework-tracker/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   int
	}{
		{"three done two missed one incomplete", Counts{Done: 3, Missed: 2, Incomplete: 1}, 58},
		{"absences do not count", Counts{Done: 3, Incomplete: 2, Absent: 4}, 80},
		{"only absent", Counts{Absent: 3}, 100},
		{"no record", Counts{}, 100},
		{"only missed", Counts{Missed: 4}, 0},
		{"rounds half up", Counts{Done: 1, Incomplete: 1, Missed: 2}, 38},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.counts))
		})
	}
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 0, SuccessRate(Counts{}))
	assert.Equal(t, 50, SuccessRate(Counts{Done: 2, Absent: 2}))
	assert.Equal(t, 33, SuccessRate(Counts{Done: 1, Missed: 1, Incomplete: 1}))
}

func TestCountStatuses(t *testing.T) {
	c := CountStatuses([]models.HomeworkRecord{
		{Status: models.StatusDone},
		{Status: models.StatusDone},
		{Status: models.StatusAbsent},
		{Status: "UNKNOWN"},
	})

	assert.Equal(t, Counts{Done: 2, Absent: 1}, c)
	assert.Equal(t, 3, c.Total())
	assert.Equal(t, 2, c.Of(models.StatusDone))
	assert.Equal(t, 0, c.Of(models.StatusIncomplete))
}
