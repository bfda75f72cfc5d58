package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/university-timetable/internal/models"
)

// Lesson write failures caused by database constraints.
var (
	ErrLessonSlotTaken = errors.New("classroom is already booked in that timeslot on that date")
	ErrLessonReference = errors.New("lesson references a timeslot, course or classroom that does not exist")
)

// lessonsPKey collides only on a reused id; every other unique violation on
// lessons comes from lessons_date_timeslot_classroom_key.
const lessonsPKey = "lessons_pkey"

const lessonColumns = "id, date, timeslot_id, course_id, classroom_id"

// LessonRepository provides persistence for lessons. The unique index on
// (date, timeslot_id, classroom_id) is the only guard against double booking;
// no read-then-write check is made here.
type LessonRepository struct {
	db *sqlx.DB
	instrumentation
}

// NewLessonRepository creates a new lesson repository. observer may be nil.
func NewLessonRepository(db *sqlx.DB, observer QueryObserver) *LessonRepository {
	return &LessonRepository{db: db, instrumentation: instrumentation{observer: observer}}
}

// Create stores a new lesson, generating its id when empty.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	lesson.Date = models.DateOnly(lesson.Date)
	defer r.observe("lessons.create", time.Now())

	const query = `INSERT INTO lessons (id, date, timeslot_id, course_id, classroom_id) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, lesson.ID, models.FormatDate(lesson.Date), lesson.TimeslotID, lesson.CourseID, lesson.ClassroomID); err != nil {
		return fmt.Errorf("create lesson: %w", translateLessonError(err))
	}
	return nil
}

// Update rewrites date, timeslot, course and classroom of an existing lesson.
// It returns sql.ErrNoRows when the id does not exist.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	if !validID(lesson.ID) {
		return sql.ErrNoRows
	}
	lesson.Date = models.DateOnly(lesson.Date)
	defer r.observe("lessons.update", time.Now())

	const query = `UPDATE lessons SET date = $2, timeslot_id = $3, course_id = $4, classroom_id = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, lesson.ID, models.FormatDate(lesson.Date), lesson.TimeslotID, lesson.CourseID, lesson.ClassroomID)
	if err != nil {
		return fmt.Errorf("update lesson: %w", translateLessonError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lesson rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads a lesson by id. A missing lesson yields (nil, nil).
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if !validID(id) {
		return nil, nil
	}
	defer r.observe("lessons.find_by_id", time.Now())

	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	lesson.Date = models.DateOnly(lesson.Date)
	return &lesson, nil
}

// Delete removes a lesson. Deleting a missing id is not an error.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	defer r.observe("lessons.delete", time.Now())

	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// ListByCourseIDsAndInterval returns the lessons of the given courses dated
// inside the inclusive interval, ordered by date then timeslot position.
func (r *LessonRepository) ListByCourseIDsAndInterval(ctx context.Context, courseIDs []string, interval models.DateInterval) ([]models.Lesson, error) {
	if len(courseIDs) == 0 {
		return []models.Lesson{}, nil
	}
	defer r.observe("lessons.list_by_courses", time.Now())

	const query = `SELECT l.id, l.date, l.timeslot_id, l.course_id, l.classroom_id
        FROM lessons l JOIN timeslots t ON t.id = l.timeslot_id
        WHERE l.course_id = ANY($1) AND l.date BETWEEN $2 AND $3
        ORDER BY l.date ASC, t.position ASC, l.id ASC`
	lessons := []models.Lesson{}
	if err := r.db.SelectContext(ctx, &lessons, query, pq.Array(courseIDs), models.FormatDate(interval.Start), models.FormatDate(interval.End)); err != nil {
		return nil, fmt.Errorf("list lessons by courses: %w", err)
	}
	for i := range lessons {
		lessons[i].Date = models.DateOnly(lessons[i].Date)
	}
	return lessons, nil
}

func translateLessonError(err error) error {
	pqErr := pqError(err)
	if pqErr == nil {
		return err
	}
	switch string(pqErr.Code) {
	case pgUniqueViolation:
		if pqErr.Constraint != lessonsPKey {
			return ErrLessonSlotTaken
		}
	case pgForeignKeyViolation:
		return fmt.Errorf("%w (%s)", ErrLessonReference, pqErr.Constraint)
	case pgInvalidText:
		// a reference id that is not a UUID cannot name an existing row
		return fmt.Errorf("%w (%s)", ErrLessonReference, pqErr.Message)
	}
	return err
}
