package models

import (
	"encoding/json"
	"time"
)

// Lesson is one scheduled occurrence of a course in a classroom during a
// timeslot on a specific date.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	Date        time.Time `db:"date" json:"date"`
	TimeslotID  string    `db:"timeslot_id" json:"timeslot_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
}

// MarshalJSON renders the date without a time component.
func (l Lesson) MarshalJSON() ([]byte, error) {
	type lessonJSON struct {
		ID          string `json:"id"`
		Date        string `json:"date"`
		TimeslotID  string `json:"timeslot_id"`
		CourseID    string `json:"course_id"`
		ClassroomID string `json:"classroom_id"`
	}
	return json.Marshal(lessonJSON{
		ID:          l.ID,
		Date:        FormatDate(l.Date),
		TimeslotID:  l.TimeslotID,
		CourseID:    l.CourseID,
		ClassroomID: l.ClassroomID,
	})
}

// LessonFormOptions lists what a teacher may pick from when scheduling a lesson.
type LessonFormOptions struct {
	Timeslots  []Timeslot  `json:"timeslots"`
	Classrooms []Classroom `json:"classrooms"`
	Courses    []Course    `json:"courses"`
}
