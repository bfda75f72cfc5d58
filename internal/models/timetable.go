package models

import (
	"errors"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidInterval is returned when an interval ends before it starts.
var ErrInvalidInterval = errors.New("start date must not be after end date")

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOnly strips the clock, keeping the calendar date as seen in t's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateInterval is an inclusive range of calendar dates.
type DateInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateInterval normalises both ends to calendar dates and enforces Start <= End.
func NewDateInterval(start, end time.Time) (DateInterval, error) {
	interval := DateInterval{Start: DateOnly(start), End: DateOnly(end)}
	if interval.Start.After(interval.End) {
		return DateInterval{}, ErrInvalidInterval
	}
	return interval, nil
}

// Contains reports whether the calendar date of t lies inside the interval.
func (d DateInterval) Contains(t time.Time) bool {
	day := DateOnly(t)
	return !day.Before(d.Start) && !day.After(d.End)
}

// Days returns the number of calendar dates covered.
func (d DateInterval) Days() int {
	return int(d.End.Sub(d.Start).Hours()/24) + 1
}

// Dates enumerates every calendar date in ascending order.
func (d DateInterval) Dates() []time.Time {
	dates := make([]time.Time, 0, d.Days())
	for day := d.Start; !day.After(d.End); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day)
	}
	return dates
}

// SubjectKind distinguishes whose timetable is requested.
type SubjectKind string

const (
	SubjectStudent SubjectKind = "student"
	SubjectTeacher SubjectKind = "teacher"
)

// Subject references the person a timetable is built for.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
}

// Timetable is the derived set of lessons relevant to one subject in an interval.
type Timetable struct {
	Subject   Subject
	Interval  DateInterval
	Timeslots []Timeslot
	Lessons   []Lesson
}

// GridRow holds one calendar date; Cells are aligned with TimetableGrid.Timeslots.
// A cell lists every lesson on that date and timeslot. It is usually empty or
// holds one lesson, and holds several when the subject is booked into more
// than one classroom at once.
type GridRow struct {
	Date  time.Time
	Cells [][]Lesson
}

// TimetableGrid is the dense date × timeslot view of a Timetable.
type TimetableGrid struct {
	Subject   Subject
	Interval  DateInterval
	Timeslots []Timeslot
	Rows      []GridRow
}

// Lessons flattens every occupied cell back into a lesson list, row by row.
func (g TimetableGrid) Lessons() []Lesson {
	var lessons []Lesson
	for _, row := range g.Rows {
		for _, cell := range row.Cells {
			lessons = append(lessons, cell...)
		}
	}
	return lessons
}

// DisplayNames resolves ids to the names shown in a rendered cell. Missing
// entries mean the entity could not be resolved.
type DisplayNames struct {
	Courses    map[string]CourseLabel
	Classrooms map[string]string
}

// CellState tells the view how to draw a formatted cell.
type CellState string

const (
	CellEmpty       CellState = "empty"
	CellLesson      CellState = "lesson"
	CellUnavailable CellState = "unavailable"
	CellOverlap     CellState = "overlap"
)

// FormattedCell is the presentation summary of one grid cell. Lessons is set
// on overlap cells only and holds one entry per lesson.
type FormattedCell struct {
	State           CellState       `json:"state"`
	LessonID        string          `json:"lesson_id,omitempty"`
	CourseName      string          `json:"course_name,omitempty"`
	TeacherName     string          `json:"teacher_name,omitempty"`
	ClassroomNumber string          `json:"classroom_number,omitempty"`
	Text            string          `json:"text"`
	Lessons         []FormattedCell `json:"lessons,omitempty"`
}

// Entries returns the per-lesson cells: none for an empty cell, the cell
// itself for a single lesson, and every entry of an overlap.
func (c FormattedCell) Entries() []FormattedCell {
	switch c.State {
	case CellEmpty, "":
		return nil
	case CellOverlap:
		return c.Lessons
	default:
		return []FormattedCell{c}
	}
}

// FormattedRow is one date of the rendered table.
type FormattedRow struct {
	Date  string          `json:"date"`
	Cells []FormattedCell `json:"cells"`
}

// TimeslotHeader is one column header of the rendered table.
type TimeslotHeader struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FormattedTimetable is the renderable table handed to the view layer.
// DegradedCells counts lessons rendered as unavailable; OverlapCells counts
// cells holding more than one lesson.
type FormattedTimetable struct {
	Subject       Subject          `json:"subject"`
	StartDate     string           `json:"start_date"`
	EndDate       string           `json:"end_date"`
	Columns       []TimeslotHeader `json:"columns"`
	Rows          []FormattedRow   `json:"rows"`
	LessonCount   int              `json:"lesson_count"`
	DegradedCells int              `json:"degraded_cells"`
	OverlapCells  int              `json:"overlap_cells"`
}
