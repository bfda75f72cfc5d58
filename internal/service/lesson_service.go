package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/university-timetable/internal/models"
	"github.com/noah-isme/university-timetable/internal/repository"
	appErrors "github.com/noah-isme/university-timetable/pkg/errors"
)

type lessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Delete(ctx context.Context, id string) error
}

type lessonOptionsReader interface {
	ListTimeslots(ctx context.Context) ([]models.Timeslot, error)
	ListClassrooms(ctx context.Context) ([]models.Classroom, error)
	ListCoursesByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
}

type conflictRecorder interface {
	RecordWriteConflict(operation, reason string)
}

// CreateLessonRequest describes payload for scheduling a lesson.
type CreateLessonRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeslotID  string `json:"timeslot_id" validate:"required"`
	CourseID    string `json:"course_id" validate:"required"`
	ClassroomID string `json:"classroom_id" validate:"required"`
}

// UpdateLessonRequest moves or reassigns an existing lesson.
type UpdateLessonRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeslotID  string `json:"timeslot_id" validate:"required"`
	CourseID    string `json:"course_id" validate:"required"`
	ClassroomID string `json:"classroom_id" validate:"required"`
}

// LessonService validates lesson writes and maps store rejections onto
// CONSTRAINT_VIOLATION. Double booking is decided by the store alone.
type LessonService struct {
	repo      lessonRepository
	catalog   lessonOptionsReader
	validator *validator.Validate
	metrics   conflictRecorder
	logger    *zap.Logger
}

// NewLessonService instantiates LessonService. metrics may be nil.
func NewLessonService(repo lessonRepository, catalog lessonOptionsReader, validate *validator.Validate, metrics conflictRecorder, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, catalog: catalog, validator: validate, metrics: metrics, logger: logger}
}

// Create schedules a new lesson.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson date")
	}

	lesson := models.Lesson{
		Date:        date,
		TimeslotID:  req.TimeslotID,
		CourseID:    req.CourseID,
		ClassroomID: req.ClassroomID,
	}
	if err := s.repo.Create(ctx, &lesson); err != nil {
		return nil, s.writeError("create", lesson, err)
	}
	return &lesson, nil
}

// Update rewrites date, timeslot, course and classroom of a lesson.
func (s *LessonService) Update(ctx context.Context, id string, req UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson date")
	}

	lesson := models.Lesson{
		ID:          id,
		Date:        date,
		TimeslotID:  req.TimeslotID,
		CourseID:    req.CourseID,
		ClassroomID: req.ClassroomID,
	}
	if err := s.repo.Update(ctx, &lesson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, s.writeError("update", lesson, err)
	}
	return &lesson, nil
}

// Get loads a lesson by id.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load lesson")
	}
	if lesson == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	return lesson, nil
}

// Delete removes a lesson. A missing lesson is treated as already deleted.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete lesson")
	}
	return nil
}

// Options returns what a teacher can choose from when scheduling a lesson.
func (s *LessonService) Options(ctx context.Context, teacherID string) (*models.LessonFormOptions, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	timeslots, err := s.catalog.ListTimeslots(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list timeslots")
	}
	classrooms, err := s.catalog.ListClassrooms(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classrooms")
	}
	courses, err := s.catalog.ListCoursesByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	return &models.LessonFormOptions{Timeslots: timeslots, Classrooms: classrooms, Courses: courses}, nil
}

func (s *LessonService) writeError(operation string, lesson models.Lesson, err error) error {
	var reason string
	switch {
	case errors.Is(err, repository.ErrLessonSlotTaken):
		reason = "slot_taken"
	case errors.Is(err, repository.ErrLessonReference):
		reason = "missing_reference"
	default:
		return appErrors.Internal(err, "failed to "+operation+" lesson")
	}

	if s.metrics != nil {
		s.metrics.RecordWriteConflict(operation, reason)
	}
	s.logger.Info("lesson write rejected",
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("lesson_id", lesson.ID),
		zap.String("date", models.FormatDate(lesson.Date)),
		zap.String("timeslot_id", lesson.TimeslotID),
		zap.String("classroom_id", lesson.ClassroomID),
	)

	message := repository.ErrLessonSlotTaken.Error()
	if reason == "missing_reference" {
		message = repository.ErrLessonReference.Error()
	}
	return appErrors.Wrap(err, appErrors.ErrConstraintViolation.Code, appErrors.ErrConstraintViolation.Status, message)
}
