package models

// Timeslot is a named period of a day shared by every date. Position is the
// administrator-defined display order.
type Timeslot struct {
	ID        string `db:"id" json:"id"`
	Label     string `db:"label" json:"label"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	Position  int    `db:"position" json:"position"`
}

// Classroom is a bookable room.
type Classroom struct {
	ID       string `db:"id" json:"id"`
	Number   string `db:"number" json:"number"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// Course is owned by exactly one teacher and offered to any number of groups.
type Course struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
}

// CourseLabel carries the display names shown for a course in a timetable cell.
type CourseLabel struct {
	CourseID    string `db:"course_id" json:"course_id"`
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
