package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/university-timetable/internal/models"
)

// CatalogRepository is the read-only view of the entities the timetable
// engine joins through: students, groups, courses, classrooms and timeslots.
// Ownership chains are resolved to id sets here, never as object graphs.
type CatalogRepository struct {
	db *sqlx.DB
	instrumentation
}

// NewCatalogRepository constructs the repository. observer may be nil.
func NewCatalogRepository(db *sqlx.DB, observer QueryObserver) *CatalogRepository {
	return &CatalogRepository{db: db, instrumentation: instrumentation{observer: observer}}
}

// GroupIDByStudent returns the group of a student, or nil when the student
// does not exist, has no group, or the id is not a UUID.
func (r *CatalogRepository) GroupIDByStudent(ctx context.Context, studentID string) (*string, error) {
	if !validID(studentID) {
		return nil, nil
	}
	defer r.observe("catalog.group_by_student", time.Now())

	var groupID *string
	if err := r.db.GetContext(ctx, &groupID, `SELECT group_id FROM students WHERE id = $1`, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student group: %w", err)
	}
	return groupID, nil
}

// CourseIDsByGroup returns the ids of the courses offered to a group.
func (r *CatalogRepository) CourseIDsByGroup(ctx context.Context, groupID string) ([]string, error) {
	defer r.observe("catalog.courses_by_group", time.Now())

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT course_id FROM course_groups WHERE group_id = $1 ORDER BY course_id`, groupID); err != nil {
		return nil, fmt.Errorf("list courses by group: %w", err)
	}
	return ids, nil
}

// CourseIDsByTeacher returns the ids of the courses a teacher owns. An id that
// cannot exist owns nothing.
func (r *CatalogRepository) CourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	if !validID(teacherID) {
		return []string{}, nil
	}
	defer r.observe("catalog.courses_by_teacher", time.Now())

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM courses WHERE teacher_id = $1 ORDER BY id`, teacherID); err != nil {
		return nil, fmt.Errorf("list course ids by teacher: %w", err)
	}
	return ids, nil
}

// ListTimeslots returns every timeslot in display order.
func (r *CatalogRepository) ListTimeslots(ctx context.Context) ([]models.Timeslot, error) {
	defer r.observe("catalog.timeslots", time.Now())

	timeslots := []models.Timeslot{}
	const query = `SELECT id, label, start_time, end_time, position FROM timeslots ORDER BY position ASC, id ASC`
	if err := r.db.SelectContext(ctx, &timeslots, query); err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}
	return timeslots, nil
}

// ListClassrooms returns every classroom ordered by number.
func (r *CatalogRepository) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	defer r.observe("catalog.classrooms", time.Now())

	classrooms := []models.Classroom{}
	if err := r.db.SelectContext(ctx, &classrooms, `SELECT id, number, capacity FROM classrooms ORDER BY number ASC`); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return classrooms, nil
}

// ListCoursesByTeacher returns the courses a teacher owns ordered by name.
func (r *CatalogRepository) ListCoursesByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	if !validID(teacherID) {
		return []models.Course{}, nil
	}
	defer r.observe("catalog.courses_by_teacher_full", time.Now())

	courses := []models.Course{}
	const query = `SELECT id, name, description, teacher_id FROM courses WHERE teacher_id = $1 ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &courses, query, teacherID); err != nil {
		return nil, fmt.Errorf("list courses by teacher: %w", err)
	}
	return courses, nil
}

// CourseLabels resolves course and owning-teacher names. Ids that no longer
// resolve are absent from the result.
func (r *CatalogRepository) CourseLabels(ctx context.Context, courseIDs []string) (map[string]models.CourseLabel, error) {
	labels := make(map[string]models.CourseLabel, len(courseIDs))
	if len(courseIDs) == 0 {
		return labels, nil
	}
	defer r.observe("catalog.course_labels", time.Now())

	type row struct {
		CourseID   string `db:"course_id"`
		CourseName string `db:"course_name"`
		FirstName  string `db:"first_name"`
		LastName   string `db:"last_name"`
	}
	const query = `SELECT c.id AS course_id, c.name AS course_name, t.first_name, t.last_name
        FROM courses c JOIN teachers t ON t.id = c.teacher_id
        WHERE c.id = ANY($1)`
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("resolve course labels: %w", err)
	}
	for _, item := range rows {
		teacher := models.Teacher{FirstName: item.FirstName, LastName: item.LastName}
		labels[item.CourseID] = models.CourseLabel{
			CourseID:    item.CourseID,
			CourseName:  item.CourseName,
			TeacherName: teacher.FullName(),
		}
	}
	return labels, nil
}

// ClassroomNumbers resolves classroom numbers. Ids that no longer resolve are
// absent from the result.
func (r *CatalogRepository) ClassroomNumbers(ctx context.Context, classroomIDs []string) (map[string]string, error) {
	numbers := make(map[string]string, len(classroomIDs))
	if len(classroomIDs) == 0 {
		return numbers, nil
	}
	defer r.observe("catalog.classroom_numbers", time.Now())

	var rows []models.Classroom
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, number, capacity FROM classrooms WHERE id = ANY($1)`, pq.Array(classroomIDs)); err != nil {
		return nil, fmt.Errorf("resolve classroom numbers: %w", err)
	}
	for _, room := range rows {
		numbers[room.ID] = room.Number
	}
	return numbers, nil
}
