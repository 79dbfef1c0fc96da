package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homework-tracker/db"
	"homework-tracker/models"
)

func seededStorage(t *testing.T) *db.StorageService {
	t.Helper()
	ctx := context.Background()
	storage := db.NewStorageService(db.NewMemoryStore())
	require.NoError(t, storage.ReplaceSnapshot(ctx, models.Snapshot{
		Classes:  []models.ClassGroup{{ID: "c1", Name: "3B"}},
		Students: []models.Student{{ID: "s1", Name: "Alice", ClassID: "c1"}},
		Sessions: []models.HomeworkSession{{ID: "h1", ClassID: "c1", Date: "2024-10-01"}},
		Records:  []models.HomeworkRecord{{ID: "r1", SessionID: "h1", StudentID: "s1", Status: models.StatusDone}},
		Periods:  []models.SchoolPeriod{{ID: "p1", Name: "T1", StartDate: "2024-09-01", EndDate: "2024-12-31"}},
	}, true))
	return storage
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "fina_backup_2024-10-01.json", FileName(time.Date(2024, time.October, 1, 23, 0, 0, 0, time.UTC)))
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seededStorage(t)
	svc := NewService(src)
	svc.nowFunc = func() time.Time { return time.Date(2024, time.October, 1, 8, 0, 0, 0, time.UTC) }

	data, err := svc.Export(ctx)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, FormatVersion, doc.Version)
	assert.Equal(t, "2024-10-01T08:00:00Z", doc.Timestamp)

	dst := db.NewStorageService(db.NewMemoryStore())
	require.True(t, NewService(dst).Import(ctx, data))

	want, err := src.LoadSnapshot(ctx)
	require.NoError(t, err)
	got, err := dst.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportRejectsWithoutChange(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"classes": [`},
		{"json array", `[]`},
		{"missing students", `{"classes": []}`},
		{"classes not an array", `{"classes": {}, "students": []}`},
		{"null students", `{"classes": [], "students": null}`},
		{"bad record entry", `{"classes": [], "students": [], "records": [42]}`},
		{"periods not an array", `{"classes": [], "students": [], "periods": "p1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			storage := seededStorage(t)
			before, err := storage.LoadSnapshot(ctx)
			require.NoError(t, err)

			svc := NewService(storage)
			assert.False(t, svc.Import(ctx, []byte(tt.data)))
			assert.ErrorIs(t, svc.ImportErr(ctx, []byte(tt.data)), ErrInvalidSnapshot)

			after, err := storage.LoadSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestImportKeepsPeriodsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	storage := seededStorage(t)
	svc := NewService(storage)

	require.True(t, svc.Import(ctx, []byte(`{"classes": [{"id": "c9", "name": "5C"}], "students": []}`)))

	got, err := storage.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ClassGroup{{ID: "c9", Name: "5C"}}, got.Classes)
	assert.Empty(t, got.Students)
	assert.Empty(t, got.Sessions)
	assert.Empty(t, got.Records)
	require.Len(t, got.Periods, 1)
	assert.Equal(t, "p1", got.Periods[0].ID)
}

func TestImportReplacesPeriodsWhenPresent(t *testing.T) {
	ctx := context.Background()
	storage := seededStorage(t)

	require.True(t, NewService(storage).Import(ctx, []byte(`{"classes": [], "students": [], "periods": []}`)))

	got, err := storage.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Periods)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	storage := seededStorage(t)

	require.NoError(t, NewService(storage).Clear(ctx))

	got, err := storage.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Classes)
	assert.Empty(t, got.Periods)
}
