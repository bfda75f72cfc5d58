package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/university-timetable/internal/models"
	"github.com/noah-isme/university-timetable/pkg/config"
	appErrors "github.com/noah-isme/university-timetable/pkg/errors"
)

type timetableCatalog interface {
	GroupIDByStudent(ctx context.Context, studentID string) (*string, error)
	CourseIDsByGroup(ctx context.Context, groupID string) ([]string, error)
	CourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
	ListTimeslots(ctx context.Context) ([]models.Timeslot, error)
	CourseLabels(ctx context.Context, courseIDs []string) (map[string]models.CourseLabel, error)
	ClassroomNumbers(ctx context.Context, classroomIDs []string) (map[string]string, error)
}

type lessonLister interface {
	ListByCourseIDsAndInterval(ctx context.Context, courseIDs []string, interval models.DateInterval) ([]models.Lesson, error)
}

type timetableRecorder interface {
	RecordDegradedCells(subject string, count int)
	ObserveTimetableBuild(subject string, duration time.Duration)
}

// TimetableService answers "which lessons does this person have between these
// dates" and renders the answer as a grid. Reads are tolerant: a person that
// cannot be resolved has an empty timetable rather than an error.
type TimetableService struct {
	catalog timetableCatalog
	lessons lessonLister
	cfg     config.TimetableConfig
	metrics timetableRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewTimetableService instantiates TimetableService. metrics may be nil.
func NewTimetableService(catalog timetableCatalog, lessons lessonLister, cfg config.TimetableConfig, metrics timetableRecorder, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultSpanDays <= 0 {
		cfg.DefaultSpanDays = 7
	}
	if cfg.MaxSpanDays <= 0 {
		cfg.MaxSpanDays = 731
	}
	if cfg.UnavailableLabel == "" {
		cfg.UnavailableLabel = DefaultUnavailableLabel
	}
	return &TimetableService{catalog: catalog, lessons: lessons, cfg: cfg, metrics: metrics, logger: logger, now: time.Now}
}

// ResolveInterval parses optional YYYY-MM-DD bounds. A missing start is today,
// a missing end covers the default span from start.
func (s *TimetableService) ResolveInterval(startRaw, endRaw string) (models.DateInterval, error) {
	start := models.DateOnly(s.now())
	if startRaw != "" {
		parsed, err := models.ParseDate(startRaw)
		if err != nil {
			return models.DateInterval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start must be a YYYY-MM-DD date")
		}
		start = parsed
	}
	end := start.AddDate(0, 0, s.cfg.DefaultSpanDays-1)
	if endRaw != "" {
		parsed, err := models.ParseDate(endRaw)
		if err != nil {
			return models.DateInterval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end must be a YYYY-MM-DD date")
		}
		end = parsed
	}

	interval, err := models.NewDateInterval(start, end)
	if err != nil {
		return models.DateInterval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if interval.Days() > s.cfg.MaxSpanDays {
		return models.DateInterval{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("interval spans %d days, at most %d allowed", interval.Days(), s.cfg.MaxSpanDays))
	}
	return interval, nil
}

// GetByStudent returns the lessons of every course offered to the student's
// group within interval. An unknown student and a student without a group
// both yield an empty timetable.
func (s *TimetableService) GetByStudent(ctx context.Context, studentID string, interval models.DateInterval) (*models.Timetable, error) {
	subject := models.Subject{Kind: models.SubjectStudent, ID: studentID}
	groupID, err := s.catalog.GroupIDByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve student group")
	}
	var courseIDs []string
	if groupID != nil {
		courseIDs, err = s.catalog.CourseIDsByGroup(ctx, *groupID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to resolve group courses")
		}
	}
	return s.build(ctx, subject, courseIDs, interval)
}

// GetByTeacher returns the lessons of every course the teacher owns within
// interval. An unknown teacher yields an empty timetable.
func (s *TimetableService) GetByTeacher(ctx context.Context, teacherID string, interval models.DateInterval) (*models.Timetable, error) {
	subject := models.Subject{Kind: models.SubjectTeacher, ID: teacherID}
	courseIDs, err := s.catalog.CourseIDsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve teacher courses")
	}
	return s.build(ctx, subject, courseIDs, interval)
}

// StudentGrid queries, assembles and formats a student's timetable.
func (s *TimetableService) StudentGrid(ctx context.Context, studentID string, interval models.DateInterval) (*models.FormattedTimetable, error) {
	return s.render(ctx, models.SubjectStudent, func(ctx context.Context) (*models.Timetable, error) {
		return s.GetByStudent(ctx, studentID, interval)
	})
}

// TeacherGrid queries, assembles and formats a teacher's timetable.
func (s *TimetableService) TeacherGrid(ctx context.Context, teacherID string, interval models.DateInterval) (*models.FormattedTimetable, error) {
	return s.render(ctx, models.SubjectTeacher, func(ctx context.Context) (*models.Timetable, error) {
		return s.GetByTeacher(ctx, teacherID, interval)
	})
}

func (s *TimetableService) build(ctx context.Context, subject models.Subject, courseIDs []string, interval models.DateInterval) (*models.Timetable, error) {
	timeslots, err := s.catalog.ListTimeslots(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list timeslots")
	}
	lessons, err := s.lessons.ListByCourseIDsAndInterval(ctx, courseIDs, interval)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list lessons")
	}

	// The store filters by interval; keep the guarantee even if it does not.
	inWindow := make([]models.Lesson, 0, len(lessons))
	for _, lesson := range lessons {
		if interval.Contains(lesson.Date) {
			inWindow = append(inWindow, lesson)
		}
	}
	return &models.Timetable{Subject: subject, Interval: interval, Timeslots: timeslots, Lessons: inWindow}, nil
}

func (s *TimetableService) render(ctx context.Context, kind models.SubjectKind, query func(context.Context) (*models.Timetable, error)) (*models.FormattedTimetable, error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	started := time.Now()

	timetable, err := query(ctx)
	if err != nil {
		return nil, err
	}
	grid, err := AssembleGrid(*timetable)
	if err != nil {
		s.logger.Error("timetable grid inconsistent",
			zap.String("subject", string(kind)),
			zap.String("subject_id", timetable.Subject.ID),
			zap.Error(err),
		)
		return nil, err
	}
	names, err := s.displayNames(ctx, timetable.Lessons)
	if err != nil {
		return nil, err
	}

	formatted := FormatGrid(*grid, names, s.cfg.UnavailableLabel)
	if formatted.DegradedCells > 0 {
		s.logDegraded(formatted)
		if s.metrics != nil {
			s.metrics.RecordDegradedCells(string(kind), formatted.DegradedCells)
		}
	}
	if formatted.OverlapCells > 0 {
		s.logOverlaps(formatted)
	}
	if s.metrics != nil {
		s.metrics.ObserveTimetableBuild(string(kind), time.Since(started))
	}
	return &formatted, nil
}

func (s *TimetableService) displayNames(ctx context.Context, lessons []models.Lesson) (models.DisplayNames, error) {
	courseIDs := uniqueIDs(lessons, func(l models.Lesson) string { return l.CourseID })
	classroomIDs := uniqueIDs(lessons, func(l models.Lesson) string { return l.ClassroomID })

	courses, err := s.catalog.CourseLabels(ctx, courseIDs)
	if err != nil {
		return models.DisplayNames{}, appErrors.Internal(err, "failed to resolve course names")
	}
	classrooms, err := s.catalog.ClassroomNumbers(ctx, classroomIDs)
	if err != nil {
		return models.DisplayNames{}, appErrors.Internal(err, "failed to resolve classroom numbers")
	}
	return models.DisplayNames{Courses: courses, Classrooms: classrooms}, nil
}

func (s *TimetableService) logDegraded(formatted models.FormattedTimetable) {
	for _, row := range formatted.Rows {
		for i, cell := range row.Cells {
			for _, entry := range cell.Entries() {
				if entry.State != models.CellUnavailable {
					continue
				}
				s.logger.Warn("timetable cell unavailable",
					zap.String("subject", string(formatted.Subject.Kind)),
					zap.String("subject_id", formatted.Subject.ID),
					zap.String("date", row.Date),
					zap.String("timeslot_id", formatted.Columns[i].ID),
					zap.String("lesson_id", entry.LessonID),
				)
			}
		}
	}
}

func (s *TimetableService) logOverlaps(formatted models.FormattedTimetable) {
	for _, row := range formatted.Rows {
		for i, cell := range row.Cells {
			if cell.State != models.CellOverlap {
				continue
			}
			ids := make([]string, len(cell.Lessons))
			for j, entry := range cell.Lessons {
				ids[j] = entry.LessonID
			}
			s.logger.Warn("timetable cell holds several lessons",
				zap.String("subject", string(formatted.Subject.Kind)),
				zap.String("subject_id", formatted.Subject.ID),
				zap.String("date", row.Date),
				zap.String("timeslot_id", formatted.Columns[i].ID),
				zap.Strings("lesson_ids", ids),
			)
		}
	}
}

func uniqueIDs(lessons []models.Lesson, key func(models.Lesson) string) []string {
	seen := make(map[string]struct{}, len(lessons))
	ids := make([]string, 0, len(lessons))
	for _, lesson := range lessons {
		id := key(lesson)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
