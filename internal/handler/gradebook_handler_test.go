package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

const handlerCourseKey = "Algebra(MA101)"

type fakeGradebookSrv struct {
	gb          *models.Gradebook
	err         error
	cacheHit    bool
	warnings    []string
	added       int
	lastIndex   int
	lastName    models.PeriodicName
	lastStudent string
	lastScores  dto.UpdateScoresRequest
	lastAdd     dto.AddColumnRequest
	deleted     string
}

func (f *fakeGradebookSrv) Get(context.Context, string) (*models.Gradebook, error) {
	return f.gb, f.err
}

func (f *fakeGradebookSrv) Replace(_ context.Context, _ string, gb models.Gradebook) (*models.Gradebook, error) {
	return &gb, f.err
}

func (f *fakeGradebookSrv) Delete(_ context.Context, courseKey string) error {
	f.deleted = courseKey
	return f.err
}

func (f *fakeGradebookSrv) AddColumn(_ context.Context, _ string, req dto.AddColumnRequest) (*models.Gradebook, error) {
	f.lastAdd = req
	return f.gb, f.err
}

func (f *fakeGradebookSrv) RemoveColumn(_ context.Context, _ string, index int) (*models.Gradebook, error) {
	f.lastIndex = index
	return f.gb, f.err
}

func (f *fakeGradebookSrv) UpdateColumn(_ context.Context, _ string, index int, _ dto.UpdateColumnRequest) (*models.Gradebook, error) {
	f.lastIndex = index
	return f.gb, f.err
}

func (f *fakeGradebookSrv) UpdateScores(_ context.Context, _ string, req dto.UpdateScoresRequest) (*models.Gradebook, error) {
	f.lastScores = req
	return f.gb, f.err
}

func (f *fakeGradebookSrv) UpdateStudent(_ context.Context, _ string, studentID string, _ dto.UpdateStudentRequest) (*models.Gradebook, error) {
	f.lastStudent = studentID
	return f.gb, f.err
}

func (f *fakeGradebookSrv) UpdateSettings(context.Context, string, dto.UpdateSettingsRequest) (*models.TotalScoreSetting, []string, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	setting := models.DefaultTotalSetting()
	return &setting, f.warnings, nil
}

func (f *fakeGradebookSrv) SyncRoster(context.Context, string) (*models.Gradebook, int, error) {
	return f.gb, f.added, f.err
}

func (f *fakeGradebookSrv) Totals(context.Context, string) (*models.TotalsReport, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.TotalsReport{CourseKey: handlerCourseKey}, f.cacheHit, nil
}

func (f *fakeGradebookSrv) ColumnReport(_ context.Context, _ string, index int) (*models.ScoreReport, bool, error) {
	f.lastIndex = index
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.ScoreReport{CourseKey: handlerCourseKey}, f.cacheHit, nil
}

func (f *fakeGradebookSrv) PeriodicReport(_ context.Context, _ string, name models.PeriodicName) (*models.ScoreReport, bool, error) {
	f.lastName = name
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.ScoreReport{CourseKey: handlerCourseKey, Periodic: name}, f.cacheHit, nil
}

func (f *fakeGradebookSrv) StudentReport(_ context.Context, _ string, studentID string) (*models.StudentReport, bool, error) {
	f.lastStudent = studentID
	if f.err != nil {
		return nil, false, f.err
	}
	return &models.StudentReport{CourseKey: handlerCourseKey, StudentID: studentID}, f.cacheHit, nil
}

type fakeExporter struct {
	format service.ExportFormat
	err    error
}

func (f *fakeExporter) Export(_ context.Context, _ string, format service.ExportFormat) (*service.ExportResult, error) {
	f.format = format
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportResult{Filename: "totals.csv", ContentType: "text/csv; charset=utf-8", Payload: []byte("a,b\n")}, nil
}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func newJSONContext(method, path string, body interface{}, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	var reader *bytes.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(raw))
	} else if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = append(gin.Params{{Key: "courseKey", Value: handlerCourseKey}}, params...)
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGradebookHandlerGet(t *testing.T) {
	handler := NewGradebookHandler(&fakeGradebookSrv{gb: models.NewGradebook(handlerCourseKey)}, nil)
	c, rec := newJSONContext(http.MethodGet, "/gradebooks/x", nil)

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, handlerCourseKey, env.Data["course_key"])
}

func TestGradebookHandlerGetError(t *testing.T) {
	handler := NewGradebookHandler(&fakeGradebookSrv{err: appErrors.Clone(appErrors.ErrInvariantViolation, "bad")}, nil)
	c, rec := newJSONContext(http.MethodGet, "/gradebooks/x", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInvariantViolation.Code, env.Error.Code)
}

func TestGradebookHandlerAddColumn(t *testing.T) {
	srv := &fakeGradebookSrv{gb: models.NewGradebook(handlerCourseKey)}
	handler := NewGradebookHandler(srv, nil)
	c, rec := newJSONContext(http.MethodPost, "/gradebooks/x/columns", dto.AddColumnRequest{Category: "QUIZ", Label: "Quiz 1"})

	handler.AddColumn(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Quiz 1", srv.lastAdd.Label)
}

func TestGradebookHandlerAddColumnInvalidJSON(t *testing.T) {
	handler := NewGradebookHandler(&fakeGradebookSrv{}, nil)
	c, rec := newJSONContext(http.MethodPost, "/gradebooks/x/columns", "{")

	handler.AddColumn(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradebookHandlerRemoveColumn(t *testing.T) {
	srv := &fakeGradebookSrv{gb: models.NewGradebook(handlerCourseKey)}
	handler := NewGradebookHandler(srv, nil)
	c, rec := newJSONContext(http.MethodDelete, "/gradebooks/x/columns/2", nil, gin.Param{Key: "index", Value: "2"})

	handler.RemoveColumn(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, srv.lastIndex)
}

func TestGradebookHandlerRemoveColumnBadIndex(t *testing.T) {
	srv := &fakeGradebookSrv{lastIndex: -1}
	handler := NewGradebookHandler(srv, nil)
	c, rec := newJSONContext(http.MethodDelete, "/gradebooks/x/columns/abc", nil, gin.Param{Key: "index", Value: "abc"})

	handler.RemoveColumn(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, -1, srv.lastIndex)
}

func TestGradebookHandlerRemoveColumnOutOfRange(t *testing.T) {
	handler := NewGradebookHandler(&fakeGradebookSrv{err: appErrors.Clone(appErrors.ErrColumnOutOfRange, "column 9 not in [0,2)")}, nil)
	c, rec := newJSONContext(http.MethodDelete, "/gradebooks/x/columns/9", nil, gin.Param{Key: "index", Value: "9"})

	handler.RemoveColumn(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrColumnOutOfRange.Code, env.Error.Code)
}

func TestGradebookHandlerUpdateScoresKeepsNull(t *testing.T) {
	srv := &fakeGradebookSrv{gb: models.NewGradebook(handlerCourseKey)}
	handler := NewGradebookHandler(srv, nil)
	body := `{"items":[{"student_id":"stu-1","column_index":0,"score":null},{"student_id":"stu-2","periodic":"FINAL","score":88}]}`
	c, rec := newJSONContext(http.MethodPut, "/gradebooks/x/scores", body)

	handler.UpdateScores(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, srv.lastScores.Items, 2)
	assert.False(t, srv.lastScores.Items[0].Score.Valid)
	assert.True(t, srv.lastScores.Items[0].ColumnIndex.Valid)
	assert.Equal(t, 88.0, srv.lastScores.Items[1].Score.Float64)
}

func TestGradebookHandlerUpdateStudent(t *testing.T) {
	srv := &fakeGradebookSrv{gb: models.NewGradebook(handlerCourseKey)}
	handler := NewGradebookHandler(srv, nil)
	c, rec := newJSONContext(http.MethodPatch, "/gradebooks/x/students/stu-1", `{"manual_adjust":3}`, gin.Param{Key: "studentId", Value: "stu-1"})

	handler.UpdateStudent(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-1", srv.lastStudent)
}

func TestGradebookHandlerUpdateSettingsWarnings(t *testing.T) {
	srv := &fakeGradebookSrv{warnings: []string{"regular 40% + periodic 40% does not equal 100%"}}
	handler := NewGradebookHandler(srv, nil)
	c, rec := newJSONContext(http.MethodPut, "/gradebooks/x/settings", `{"periodic_percent":40,"categories":{"QUIZ":{"percent":40,"calc_method":"ALL"}}}`)

	handler.UpdateSettings(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, []interface{}{"regular 40% + periodic 40% does not equal 100%"}, env.Meta["warnings"])
	assert.Contains(t, env.Data, "setting")
}

func TestGradebookHandlerSyncRoster(t *testing.T) {
	gb := models.NewGradebook(handlerCourseKey)
	gb.Students = append(gb.Students, models.NewStudentGradeRow("stu-1", "Chen", 0))
	handler := NewGradebookHandler(&fakeGradebookSrv{gb: gb, added: 1}, nil)
	c, rec := newJSONContext(http.MethodPost, "/gradebooks/x/roster/sync", nil)

	handler.SyncRoster(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, float64(1), env.Data["added"])
	assert.Equal(t, float64(1), env.Data["students"])
}

func TestGradebookHandlerTotalsCacheMeta(t *testing.T) {
	handler := NewGradebookHandler(&fakeGradebookSrv{cacheHit: true}, nil)
	c, rec := newJSONContext(http.MethodGet, "/gradebooks/x/totals", nil)

	handler.Totals(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

func TestGradebookHandlerPeriodicReportNormalizesName(t *testing.T) {
	srv := &fakeGradebookSrv{}
	handler := NewGradebookHandler(srv, nil)
	c, rec := newJSONContext(http.MethodGet, "/gradebooks/x/periodic/final/report", nil, gin.Param{Key: "name", Value: "final"})

	handler.PeriodicReport(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PeriodicFinal, srv.lastName)
}

func TestGradebookHandlerColumnAndStudentReports(t *testing.T) {
	srv := &fakeGradebookSrv{}
	handler := NewGradebookHandler(srv, nil)

	c, rec := newJSONContext(http.MethodGet, "/gradebooks/x/columns/1/report", nil, gin.Param{Key: "index", Value: "1"})
	handler.ColumnReport(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.lastIndex)

	c, rec = newJSONContext(http.MethodGet, "/gradebooks/x/students/stu-2/report", nil, gin.Param{Key: "studentId", Value: "stu-2"})
	handler.StudentReport(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-2", srv.lastStudent)
}

func TestGradebookHandlerDelete(t *testing.T) {
	srv := &fakeGradebookSrv{}
	handler := NewGradebookHandler(srv, nil)
	router := gin.New()
	router.DELETE("/gradebooks/:courseKey", handler.Delete)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/gradebooks/Algebra(MA101)", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, handlerCourseKey, srv.deleted)
}

func TestGradebookHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	handler := NewGradebookHandler(&fakeGradebookSrv{}, exporter)
	c, rec := newJSONContext(http.MethodGet, "/gradebooks/x/export?format=CSV", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, exporter.format)
	assert.Equal(t, `attachment; filename="totals.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestGradebookHandlerExportUnavailable(t *testing.T) {
	handler := NewGradebookHandler(&fakeGradebookSrv{}, nil)
	c, rec := newJSONContext(http.MethodGet, "/gradebooks/x/export", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGradebookHandlerRoutesWithMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradebookHandler(&fakeGradebookSrv{cacheHit: false}, nil)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/gradebooks/:courseKey/totals", handler.Totals)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gradebooks/Algebra(MA101)/totals", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, false, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
}
