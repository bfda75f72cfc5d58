package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/university-timetable/internal/models"
	"github.com/noah-isme/university-timetable/internal/service"
	appErrors "github.com/noah-isme/university-timetable/pkg/errors"
)

type timetableServiceMock struct {
	interval     models.DateInterval
	intervalErr  error
	grid         *models.FormattedTimetable
	gridErr      error
	lastStart    string
	lastEnd      string
	lastID       string
	lastKind     models.SubjectKind
	lastInterval models.DateInterval
}

func (m *timetableServiceMock) ResolveInterval(startRaw, endRaw string) (models.DateInterval, error) {
	m.lastStart, m.lastEnd = startRaw, endRaw
	return m.interval, m.intervalErr
}

func (m *timetableServiceMock) StudentGrid(ctx context.Context, studentID string, interval models.DateInterval) (*models.FormattedTimetable, error) {
	m.lastKind, m.lastID, m.lastInterval = models.SubjectStudent, studentID, interval
	return m.grid, m.gridErr
}

func (m *timetableServiceMock) TeacherGrid(ctx context.Context, teacherID string, interval models.DateInterval) (*models.FormattedTimetable, error) {
	m.lastKind, m.lastID, m.lastInterval = models.SubjectTeacher, teacherID, interval
	return m.grid, m.gridErr
}

func sampleGrid() *models.FormattedTimetable {
	return &models.FormattedTimetable{
		Subject:   models.Subject{Kind: models.SubjectStudent, ID: "student-1"},
		StartDate: "2020-06-01",
		EndDate:   "2020-06-01",
		Columns:   []models.TimeslotHeader{{ID: "ts-1", Label: "08:00-09:30"}},
		Rows: []models.FormattedRow{{Date: "2020-06-01", Cells: []models.FormattedCell{
			{State: models.CellUnavailable, LessonID: "l1", Text: "unavailable"},
		}}},
		LessonCount:   1,
		DegradedCells: 1,
	}
}

func newTimetableRouter(svc timetableService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewTimetableHandler(svc, service.NewTimetableExporter()), NewLessonHandler(&lessonServiceMock{}))
	return r
}

func TestTimetableHandlerStudent(t *testing.T) {
	interval := models.DateInterval{Start: mustDate(t, "2020-06-01"), End: mustDate(t, "2020-06-01")}
	svc := &timetableServiceMock{interval: interval, grid: sampleGrid()}
	r := newTimetableRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timetables/students/student-1?start=2020-06-01&end=2020-06-01", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2020-06-01", svc.lastStart)
	assert.Equal(t, "student-1", svc.lastID)
	assert.Equal(t, models.SubjectStudent, svc.lastKind)
	assert.Equal(t, interval, svc.lastInterval)

	var body struct {
		Data models.FormattedTimetable `json:"data"`
		Meta map[string]interface{}    `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.CellUnavailable, body.Data.Rows[0].Cells[0].State)
	assert.Equal(t, float64(1), body.Meta["degraded_cells"])
}

func TestTimetableHandlerTeacher(t *testing.T) {
	svc := &timetableServiceMock{grid: sampleGrid()}
	r := newTimetableRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timetables/teachers/teacher-9", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SubjectTeacher, svc.lastKind)
	assert.Equal(t, "teacher-9", svc.lastID)
	assert.Empty(t, svc.lastStart)
}

func TestTimetableHandlerInvalidInterval(t *testing.T) {
	svc := &timetableServiceMock{intervalErr: appErrors.Clone(appErrors.ErrValidation, "start must not be after end")}
	r := newTimetableRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timetables/students/s1?start=2020-06-10&end=2020-06-01", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.lastID)
}

func TestTimetableHandlerInconsistentSchedule(t *testing.T) {
	svc := &timetableServiceMock{gridErr: appErrors.Clone(appErrors.ErrInconsistentSchedule, "lesson l1 uses timeslot ts-9")}
	r := newTimetableRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timetables/teachers/t1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INCONSISTENT_SCHEDULE")
}

func TestTimetableHandlerExportCSV(t *testing.T) {
	r := newTimetableRouter(&timetableServiceMock{grid: sampleGrid()})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timetables/students/student-1/export", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-student-student-1-2020-06-01_2020-06-01.csv")
	assert.Equal(t, "Date,08:00-09:30\n2020-06-01,unavailable\n", w.Body.String())
}

func TestTimetableHandlerExportUnknownFormat(t *testing.T) {
	r := newTimetableRouter(&timetableServiceMock{grid: sampleGrid()})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/timetables/teachers/t1/export?format=docx", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := models.ParseDate(raw)
	require.NoError(t, err)
	return parsed
}
