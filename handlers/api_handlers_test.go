package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homework-tracker/cloud"
	"homework-tracker/db"
	"homework-tracker/models"
)

const testSecret = "handler-test-secret"

type memoryRemote struct {
	mu   sync.Mutex
	data map[string]cloud.Content
}

func (m *memoryRemote) Upsert(_ context.Context, userID string, content cloud.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = content
	return nil
}

func (m *memoryRemote) Fetch(_ context.Context, userID string) (cloud.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[userID]
	if !ok {
		return cloud.Content{}, cloud.ErrNoRemoteData
	}
	return c, nil
}

type testAPI struct {
	router *gin.Engine
	h      *APIHandler
	remote *memoryRemote
}

// newTestAPI builds the API over an in-memory store. With cloud set, a remote
// and an authenticator are wired in as well.
func newTestAPI(t *testing.T, cloudEnabled bool) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storage := db.NewStorageService(db.NewMemoryStore())
	api := &testAPI{router: gin.New()}
	if cloudEnabled {
		api.remote = &memoryRemote{data: make(map[string]cloud.Content)}
		api.h = NewAPIHandler(storage, cloud.NewSyncer(storage, api.remote), cloud.NewAuthenticator(testSecret))
	} else {
		api.h = NewAPIHandler(storage, cloud.NewSyncer(storage, nil), nil)
	}
	api.h.Register(api.router)
	t.Cleanup(api.h.Syncer.Wait)
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestPing(t *testing.T) {
	api := newTestAPI(t, false)

	w := api.do(t, http.MethodGet, "/api/ping", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Pong!"}`, w.Body.String())
}

func TestClassAndStudentFlow(t *testing.T) {
	api := newTestAPI(t, false)

	w := api.do(t, http.MethodPost, "/api/classes", gin.H{"name": "3B"})
	require.Equal(t, http.StatusCreated, w.Code)
	class := decode[models.ClassGroup](t, w)

	for _, name := range []string{"Zed", "Alice"} {
		w = api.do(t, http.MethodPost, "/api/classes/"+class.ID+"/students", gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = api.do(t, http.MethodGet, "/api/classes/"+class.ID+"/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	students := decode[[]models.Student](t, w)
	require.Len(t, students, 2)
	assert.Equal(t, "Alice", students[0].Name)

	w = api.do(t, http.MethodPost, "/api/classes", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/classes/missing/students", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/api/classes/"+class.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, "/api/students", nil)
	assert.JSONEq(t, `[]`, w.Body.String())
	w = api.do(t, http.MethodDelete, "/api/classes/"+class.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordSessionEndpoint(t *testing.T) {
	api := newTestAPI(t, false)
	ctx := context.Background()

	class, err := api.h.Storage.AddClass(ctx, models.NewClass{Name: "3B"})
	require.NoError(t, err)

	w := api.do(t, http.MethodPost, "/api/classes/"+class.ID+"/sessions", gin.H{"date": "2024-10-01"})
	assert.Equal(t, http.StatusConflict, w.Code, "no students yet")

	zed, err := api.h.Storage.AddStudent(ctx, models.NewStudent{Name: "Zed", ClassID: class.ID})
	require.NoError(t, err)
	_, err = api.h.Storage.AddStudent(ctx, models.NewStudent{Name: "Alice", ClassID: class.ID})
	require.NoError(t, err)

	w = api.do(t, http.MethodPost, "/api/classes/"+class.ID+"/sessions", gin.H{
		"date":        "2024-10-01",
		"description": "Exercices p. 42",
		"statuses":    gin.H{zed.ID: "NON_FAIT"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Session models.HomeworkSession `json:"session"`
		Records []models.HomeworkRecord `json:"records"`
	}](t, w)
	assert.Len(t, created.Records, 2)

	w = api.do(t, http.MethodGet, "/api/sessions/"+created.Session.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	update := []gin.H{{
		"id":        created.Records[0].ID,
		"sessionId": created.Session.ID,
		"studentId": created.Records[0].StudentID,
		"status":    "ABSENT",
	}}
	w = api.do(t, http.MethodPut, "/api/records", update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodPut, "/api/records", []gin.H{{"sessionId": "x", "studentId": "y", "status": "MAYBE"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/classes/"+class.ID+"/sessions", gin.H{"date": "01/10/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/classes/"+class.ID+"/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"classAverage"`)

	w = api.do(t, http.MethodGet, "/api/classes/"+class.ID+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Bilan_3b_")

	w = api.do(t, http.MethodGet, "/api/classes/"+class.ID+"/analytics?periodId=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportStudentsText(t *testing.T) {
	api := newTestAPI(t, false)
	class, err := api.h.Storage.AddClass(context.Background(), models.NewClass{Name: "3B"})
	require.NoError(t, err)

	w := api.do(t, http.MethodPost, "/api/classes/"+class.ID+"/students/import", gin.H{"text": "Nom;Prénom\nDupont;Jean\n\nMartin;Léa"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]interface{}](t, w)["importedCount"])
}

func TestImportStudentsExcelNeedsClass(t *testing.T) {
	api := newTestAPI(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_, err := mw.CreateFormFile("file", "students.xlsx")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import/students", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackupEndpoints(t *testing.T) {
	api := newTestAPI(t, false)
	_, err := api.h.Storage.AddClass(context.Background(), models.NewClass{Name: "3B"})
	require.NoError(t, err)

	w := api.do(t, http.MethodGet, "/api/backup/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "fina_backup_")
	exported := w.Body.Bytes()

	w = api.do(t, http.MethodDelete, "/api/backup", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "needs confirmation")

	w = api.do(t, http.MethodDelete, "/api/backup?confirm=true", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, "/api/classes", nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/backup/import", []byte(`{"classes": "nope"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/backup/import", exported)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodGet, "/api/classes", nil)
	classes := decode[[]models.ClassGroup](t, w)
	require.Len(t, classes, 1)
	assert.Equal(t, "3B", classes[0].Name)
}

func TestSyncLocalOnly(t *testing.T) {
	api := newTestAPI(t, false)

	w := api.do(t, http.MethodPost, "/api/sync/push", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"localOnly":true`)

	// tokens are ignored without cloud configuration
	w = api.do(t, http.MethodGet, "/api/classes", nil, "Authorization", "Bearer whatever")
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"configured":false`)
}

func TestSyncWithCloud(t *testing.T) {
	api := newTestAPI(t, true)
	auth := bearer(t, "user-1")

	w := api.do(t, http.MethodGet, "/api/classes", nil, "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/sync/push", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no identity")

	w = api.do(t, http.MethodPost, "/api/sync/pull", nil, "Authorization", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pulled":false`)

	// a mutation pushes in the background
	w = api.do(t, http.MethodPost, "/api/classes", gin.H{"name": "3B"}, "Authorization", auth)
	require.Equal(t, http.StatusCreated, w.Code)
	api.h.Syncer.Wait()

	api.remote.mu.Lock()
	content, ok := api.remote.data["user-1"]
	api.remote.mu.Unlock()
	require.True(t, ok)
	require.Len(t, content.Classes, 1)
	assert.Equal(t, "3B", content.Classes[0].Name)

	require.NoError(t, api.h.Storage.ClearAll(context.Background()))
	w = api.do(t, http.MethodPost, "/api/sync/pull", nil, "Authorization", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pulled":true`)

	classes, err := api.h.Storage.GetClasses(context.Background())
	require.NoError(t, err)
	assert.Len(t, classes, 1)
}
