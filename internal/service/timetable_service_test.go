package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/university-timetable/internal/models"
	"github.com/noah-isme/university-timetable/internal/repository"
	"github.com/noah-isme/university-timetable/pkg/config"
	appErrors "github.com/noah-isme/university-timetable/pkg/errors"
)

type fakeCatalog struct {
	timeslots     []models.Timeslot
	classrooms    []models.Classroom
	courses       []models.Course
	teachers      map[string]models.Teacher
	studentGroups map[string]*string
	courseGroups  map[string][]string
	hiddenCourses map[string]bool
	err           error
}

func newFakeCatalog() *fakeCatalog {
	group := "group-1"
	return &fakeCatalog{
		// deliberately out of position order
		timeslots: []models.Timeslot{
			{ID: "3", Label: "3rd pair", StartTime: "11:30", EndTime: "13:00", Position: 3},
			{ID: "1", Label: "1st pair", StartTime: "08:00", EndTime: "09:30", Position: 1},
			{ID: "2", Label: "2nd pair", StartTime: "09:40", EndTime: "11:10", Position: 2},
		},
		classrooms: []models.Classroom{{ID: "1", Number: "101", Capacity: 30}, {ID: "2", Number: "102", Capacity: 25}},
		courses: []models.Course{
			{ID: "1", Name: "Algebra", TeacherID: "teacher-1"},
			{ID: "2", Name: "Physics", TeacherID: "teacher-1"},
			{ID: "3", Name: "History", TeacherID: "teacher-2"},
		},
		teachers: map[string]models.Teacher{
			"teacher-1": {ID: "teacher-1", FirstName: "Ada", LastName: "Lovelace"},
			"teacher-2": {ID: "teacher-2", FirstName: "Alan", LastName: "Turing"},
		},
		studentGroups: map[string]*string{"student-1": &group, "student-2": nil},
		courseGroups:  map[string][]string{"group-1": {"1", "2"}},
		hiddenCourses: map[string]bool{},
	}
}

func (f *fakeCatalog) GroupIDByStudent(ctx context.Context, studentID string) (*string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.studentGroups[studentID], nil
}

func (f *fakeCatalog) CourseIDsByGroup(ctx context.Context, groupID string) ([]string, error) {
	return append([]string{}, f.courseGroups[groupID]...), nil
}

func (f *fakeCatalog) CourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := []string{}
	for _, course := range f.courses {
		if course.TeacherID == teacherID {
			ids = append(ids, course.ID)
		}
	}
	return ids, nil
}

func (f *fakeCatalog) ListTimeslots(ctx context.Context) ([]models.Timeslot, error) {
	return append([]models.Timeslot{}, f.timeslots...), nil
}

func (f *fakeCatalog) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	return f.classrooms, nil
}

func (f *fakeCatalog) ListCoursesByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	courses := []models.Course{}
	for _, course := range f.courses {
		if course.TeacherID == teacherID {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (f *fakeCatalog) CourseLabels(ctx context.Context, courseIDs []string) (map[string]models.CourseLabel, error) {
	labels := map[string]models.CourseLabel{}
	for _, id := range courseIDs {
		for _, course := range f.courses {
			if course.ID != id || f.hiddenCourses[id] {
				continue
			}
			teacher := f.teachers[course.TeacherID]
			labels[id] = models.CourseLabel{CourseID: id, CourseName: course.Name, TeacherName: teacher.FullName()}
		}
	}
	return labels, nil
}

func (f *fakeCatalog) ClassroomNumbers(ctx context.Context, classroomIDs []string) (map[string]string, error) {
	numbers := map[string]string{}
	for _, id := range classroomIDs {
		for _, room := range f.classrooms {
			if room.ID == id {
				numbers[id] = room.Number
			}
		}
	}
	return numbers, nil
}

type timetableMetricsSpy struct {
	mu       sync.Mutex
	degraded map[string]int
	builds   int
}

func (s *timetableMetricsSpy) RecordDegradedCells(subject string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded == nil {
		s.degraded = map[string]int{}
	}
	s.degraded[subject] += count
}

func (s *timetableMetricsSpy) ObserveTimetableBuild(subject string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds++
}

func mustInterval(t *testing.T, start, end string) models.DateInterval {
	t.Helper()
	from, err := models.ParseDate(start)
	require.NoError(t, err)
	to, err := models.ParseDate(end)
	require.NoError(t, err)
	interval, err := models.NewDateInterval(from, to)
	require.NoError(t, err)
	return interval
}

func seedLessons(t *testing.T, store *memoryLessonStore, reqs ...CreateLessonRequest) []models.Lesson {
	t.Helper()
	svc := NewLessonService(store, newFakeCatalog(), nil, nil, nil)
	lessons := make([]models.Lesson, 0, len(reqs))
	for _, req := range reqs {
		lesson, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
		lessons = append(lessons, *lesson)
	}
	return lessons
}

func newTimetableServiceForTest(catalog *fakeCatalog, store *memoryLessonStore, metrics timetableRecorder, logger *zap.Logger) *TimetableService {
	cfg := config.TimetableConfig{DefaultSpanDays: 7, MaxSpanDays: 731, UnavailableLabel: "unavailable"}
	return NewTimetableService(catalog, store, cfg, metrics, logger)
}

func TestTimetableServiceStudentIntervalFilter(t *testing.T) {
	store := newMemoryLessonStore()
	seedLessons(t, store,
		lessonRequest("2020-03-02", "1", "1", "1"),
		lessonRequest("2020-07-15", "2", "2", "1"),
		lessonRequest("2020-12-31", "1", "1", "2"),
		lessonRequest("2021-06-01", "1", "1", "1"),
	)
	svc := newTimetableServiceForTest(newFakeCatalog(), store, nil, nil)
	interval := mustInterval(t, "2020-01-01", "2021-01-01")

	timetable, err := svc.GetByStudent(context.Background(), "student-1", interval)
	require.NoError(t, err)
	require.Len(t, timetable.Lessons, 3)
	for _, lesson := range timetable.Lessons {
		assert.True(t, interval.Contains(lesson.Date), "lesson %s outside interval", lesson.ID)
	}
	assert.Equal(t, models.Subject{Kind: models.SubjectStudent, ID: "student-1"}, timetable.Subject)
}

func TestTimetableServiceTeacherSeesOwnCoursesOnly(t *testing.T) {
	store := newMemoryLessonStore()
	seedLessons(t, store,
		lessonRequest("2020-06-01", "1", "1", "1"),
		lessonRequest("2020-06-01", "2", "2", "1"),
		lessonRequest("2020-06-01", "3", "3", "1"),
	)
	svc := newTimetableServiceForTest(newFakeCatalog(), store, nil, nil)

	timetable, err := svc.GetByTeacher(context.Background(), "teacher-2", mustInterval(t, "2020-06-01", "2020-06-07"))
	require.NoError(t, err)
	require.Len(t, timetable.Lessons, 1)
	assert.Equal(t, "3", timetable.Lessons[0].CourseID)
}

func TestTimetableServiceUnresolvedSubjectsAreEmpty(t *testing.T) {
	store := newMemoryLessonStore()
	seedLessons(t, store, lessonRequest("2020-06-01", "1", "1", "1"))
	svc := newTimetableServiceForTest(newFakeCatalog(), store, nil, nil)
	interval := mustInterval(t, "2020-06-01", "2020-06-07")

	for _, id := range []string{"unknown-student", "student-2"} {
		timetable, err := svc.GetByStudent(context.Background(), id, interval)
		require.NoError(t, err)
		assert.Empty(t, timetable.Lessons, id)
	}

	timetable, err := svc.GetByTeacher(context.Background(), "unknown-teacher", interval)
	require.NoError(t, err)
	assert.Empty(t, timetable.Lessons)
}

func TestTimetableServiceStoreFailureIsInternal(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.err = errors.New("connection reset")
	svc := newTimetableServiceForTest(catalog, newMemoryLessonStore(), nil, nil)

	_, err := svc.GetByStudent(context.Background(), "student-1", mustInterval(t, "2020-06-01", "2020-06-01"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGridRoundTrip(t *testing.T) {
	store := newMemoryLessonStore()
	seeded := seedLessons(t, store,
		lessonRequest("2020-06-01", "3", "1", "1"),
		lessonRequest("2020-06-01", "1", "2", "1"),
		lessonRequest("2020-06-03", "2", "1", "2"),
	)
	svc := newTimetableServiceForTest(newFakeCatalog(), store, nil, nil)

	timetable, err := svc.GetByStudent(context.Background(), "student-1", mustInterval(t, "2020-06-01", "2020-06-03"))
	require.NoError(t, err)
	grid, err := AssembleGrid(*timetable)
	require.NoError(t, err)

	ids := func(lessons []models.Lesson) []string {
		out := make([]string, 0, len(lessons))
		for _, l := range lessons {
			out = append(out, l.ID)
		}
		sort.Strings(out)
		return out
	}
	assert.Equal(t, ids(seeded), ids(grid.Lessons()))
	assert.Len(t, grid.Rows, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{grid.Timeslots[0].ID, grid.Timeslots[1].ID, grid.Timeslots[2].ID})
}

func TestTimetableServiceStudentGrid(t *testing.T) {
	store := newMemoryLessonStore()
	seedLessons(t, store,
		lessonRequest("2020-06-01", "2", "1", "1"),
		lessonRequest("2020-06-02", "1", "2", "2"),
	)
	metrics := &timetableMetricsSpy{}
	svc := newTimetableServiceForTest(newFakeCatalog(), store, metrics, nil)

	formatted, err := svc.StudentGrid(context.Background(), "student-1", mustInterval(t, "2020-06-01", "2020-06-02"))
	require.NoError(t, err)

	assert.Equal(t, "2020-06-01", formatted.StartDate)
	assert.Equal(t, "2020-06-02", formatted.EndDate)
	require.Len(t, formatted.Columns, 3)
	assert.Equal(t, "08:00-09:30", formatted.Columns[0].Label)
	require.Len(t, formatted.Rows, 2)

	cell := formatted.Rows[0].Cells[1]
	assert.Equal(t, models.CellLesson, cell.State)
	assert.Equal(t, "Algebra", cell.CourseName)
	assert.Equal(t, "Ada Lovelace", cell.TeacherName)
	assert.Equal(t, "101", cell.ClassroomNumber)
	assert.Equal(t, "Algebra / Ada Lovelace / 101", cell.Text)
	assert.Equal(t, models.CellEmpty, formatted.Rows[0].Cells[0].State)
	assert.Equal(t, 2, formatted.LessonCount)
	assert.Zero(t, formatted.DegradedCells)
	assert.Equal(t, 1, metrics.builds)
	assert.Empty(t, metrics.degraded)
}

func TestTimetableServiceDegradedCellsAreLoggedAndCounted(t *testing.T) {
	store := newMemoryLessonStore()
	seedLessons(t, store,
		lessonRequest("2020-06-01", "1", "1", "1"),
		lessonRequest("2020-06-01", "2", "2", "1"),
	)
	catalog := newFakeCatalog()
	catalog.hiddenCourses["2"] = true
	core, logs := observer.New(zapcore.WarnLevel)
	metrics := &timetableMetricsSpy{}
	svc := newTimetableServiceForTest(catalog, store, metrics, zap.New(core))

	formatted, err := svc.TeacherGrid(context.Background(), "teacher-1", mustInterval(t, "2020-06-01", "2020-06-01"))
	require.NoError(t, err)

	assert.Equal(t, models.CellLesson, formatted.Rows[0].Cells[0].State)
	assert.Equal(t, models.CellUnavailable, formatted.Rows[0].Cells[1].State)
	assert.Equal(t, "unavailable", formatted.Rows[0].Cells[1].Text)
	assert.Equal(t, 1, formatted.DegradedCells)
	assert.Equal(t, 2, formatted.LessonCount)
	assert.Equal(t, map[string]int{"teacher": 1}, metrics.degraded)

	entries := logs.FilterMessage("timetable cell unavailable").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].ContextMap()["timeslot_id"])
}

func TestTimetableServiceEmptyGridSpansWholeInterval(t *testing.T) {
	svc := newTimetableServiceForTest(newFakeCatalog(), newMemoryLessonStore(), nil, nil)

	formatted, err := svc.StudentGrid(context.Background(), "student-1", mustInterval(t, "2020-06-01", "2020-06-05"))
	require.NoError(t, err)
	require.Len(t, formatted.Rows, 5)
	for _, row := range formatted.Rows {
		for _, cell := range row.Cells {
			assert.Equal(t, models.CellEmpty, cell.State)
		}
	}
	assert.Zero(t, formatted.LessonCount)
}

func TestTimetableServiceResolveInterval(t *testing.T) {
	svc := newTimetableServiceForTest(newFakeCatalog(), newMemoryLessonStore(), nil, nil)
	svc.now = func() time.Time { return time.Date(2020, 6, 3, 22, 15, 0, 0, time.UTC) }

	interval, err := svc.ResolveInterval("", "")
	require.NoError(t, err)
	assert.Equal(t, "2020-06-03", models.FormatDate(interval.Start))
	assert.Equal(t, "2020-06-09", models.FormatDate(interval.End))

	interval, err = svc.ResolveInterval("2020-02-28", "2020-03-01")
	require.NoError(t, err)
	assert.Equal(t, 3, interval.Days())

	interval, err = svc.ResolveInterval("2020-06-10", "2020-06-10")
	require.NoError(t, err)
	assert.Equal(t, 1, interval.Days())

	for name, bounds := range map[string][2]string{
		"reversed":  {"2020-06-10", "2020-06-01"},
		"malformed": {"10.06.2020", ""},
		"too long":  {"2020-01-01", "2022-06-01"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ResolveInterval(bounds[0], bounds[1])
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestTimetableServiceLessonsSharingASlotStayReadable(t *testing.T) {
	store := newMemoryLessonStore()
	seedLessons(t, store,
		lessonRequest("2020-06-01", "1", "1", "1"),
		lessonRequest("2020-06-01", "1", "2", "2"),
	)
	core, logs := observer.New(zapcore.WarnLevel)
	svc := newTimetableServiceForTest(newFakeCatalog(), store, nil, zap.New(core))
	interval := mustInterval(t, "2020-06-01", "2020-06-01")

	for name, grid := range map[string]func() (*models.FormattedTimetable, error){
		"teacher": func() (*models.FormattedTimetable, error) {
			return svc.TeacherGrid(context.Background(), "teacher-1", interval)
		},
		"student": func() (*models.FormattedTimetable, error) {
			return svc.StudentGrid(context.Background(), "student-1", interval)
		},
	} {
		t.Run(name, func(t *testing.T) {
			formatted, err := grid()
			require.NoError(t, err)
			cell := formatted.Rows[0].Cells[0]
			assert.Equal(t, models.CellOverlap, cell.State)
			require.Len(t, cell.Lessons, 2)
			assert.Equal(t, "Algebra / Ada Lovelace / 101", cell.Lessons[0].Text)
			assert.Equal(t, "Physics / Ada Lovelace / 102", cell.Lessons[1].Text)
			assert.Equal(t, 2, formatted.LessonCount)
			assert.Equal(t, 1, formatted.OverlapCells)
		})
	}

	entries := logs.FilterMessage("timetable cell holds several lessons").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].ContextMap()["timeslot_id"])
}

func TestTimetableServiceMalformedIDsYieldEmptyTimetables(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")
	svc := NewTimetableService(repository.NewCatalogRepository(db, nil), repository.NewLessonRepository(db, nil),
		config.TimetableConfig{}, nil, nil)
	interval := mustInterval(t, "2020-06-01", "2020-06-07")

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("FROM timeslots").
			WillReturnRows(sqlmock.NewRows([]string{"id", "label", "start_time", "end_time", "position"}).
				AddRow("ts-1", "1st pair", "08:00", "09:30", 1))
	}

	timetable, err := svc.GetByStudent(context.Background(), "nope", interval)
	require.NoError(t, err)
	assert.Empty(t, timetable.Lessons)

	timetable, err = svc.GetByTeacher(context.Background(), "nope", interval)
	require.NoError(t, err)
	assert.Empty(t, timetable.Lessons)
	assert.NoError(t, mock.ExpectationsWereMet())
}
