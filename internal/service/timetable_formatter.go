package service

import (
	"strings"

	"github.com/noah-isme/university-timetable/internal/models"
)

// DefaultUnavailableLabel marks a cell whose names could not be resolved.
const DefaultUnavailableLabel = "unavailable"

// FormatGrid projects an assembled grid into the table handed to the view.
// It performs no I/O and does not modify grid. Row and column order are kept.
// A lesson whose course or classroom is missing from names renders as
// unavailable and is counted in DegradedCells. A cell with several lessons
// renders as an overlap listing each of them.
func FormatGrid(grid models.TimetableGrid, names models.DisplayNames, unavailableLabel string) models.FormattedTimetable {
	if unavailableLabel == "" {
		unavailableLabel = DefaultUnavailableLabel
	}

	columns := make([]models.TimeslotHeader, len(grid.Timeslots))
	for i, ts := range grid.Timeslots {
		columns[i] = models.TimeslotHeader{ID: ts.ID, Label: timeslotLabel(ts)}
	}

	out := models.FormattedTimetable{
		Subject:   grid.Subject,
		StartDate: models.FormatDate(grid.Interval.Start),
		EndDate:   models.FormatDate(grid.Interval.End),
		Columns:   columns,
		Rows:      make([]models.FormattedRow, len(grid.Rows)),
	}

	for i, row := range grid.Rows {
		cells := make([]models.FormattedCell, len(row.Cells))
		for j, lessons := range row.Cells {
			cell := formatCell(lessons, names, unavailableLabel)
			if cell.State == models.CellOverlap {
				out.OverlapCells++
			}
			for _, entry := range cell.Entries() {
				out.LessonCount++
				if entry.State == models.CellUnavailable {
					out.DegradedCells++
				}
			}
			cells[j] = cell
		}
		out.Rows[i] = models.FormattedRow{Date: models.FormatDate(row.Date), Cells: cells}
	}
	return out
}

func formatCell(lessons []models.Lesson, names models.DisplayNames, unavailableLabel string) models.FormattedCell {
	switch len(lessons) {
	case 0:
		return models.FormattedCell{State: models.CellEmpty}
	case 1:
		return formatLesson(lessons[0], names, unavailableLabel)
	}
	entries := make([]models.FormattedCell, len(lessons))
	texts := make([]string, len(lessons))
	for i, lesson := range lessons {
		entries[i] = formatLesson(lesson, names, unavailableLabel)
		texts[i] = entries[i].Text
	}
	return models.FormattedCell{State: models.CellOverlap, Text: strings.Join(texts, " | "), Lessons: entries}
}

func formatLesson(lesson models.Lesson, names models.DisplayNames, unavailableLabel string) models.FormattedCell {
	course, courseOK := names.Courses[lesson.CourseID]
	room, roomOK := names.Classrooms[lesson.ClassroomID]
	if !courseOK || !roomOK {
		return models.FormattedCell{State: models.CellUnavailable, LessonID: lesson.ID, Text: unavailableLabel}
	}
	return models.FormattedCell{
		State:           models.CellLesson,
		LessonID:        lesson.ID,
		CourseName:      course.CourseName,
		TeacherName:     course.TeacherName,
		ClassroomNumber: room,
		Text:            strings.Join([]string{course.CourseName, course.TeacherName, room}, " / "),
	}
}

func timeslotLabel(ts models.Timeslot) string {
	if ts.StartTime != "" && ts.EndTime != "" {
		return ts.StartTime + "-" + ts.EndTime
	}
	return ts.Label
}
