package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/university-timetable/internal/models"
	appErrors "github.com/noah-isme/university-timetable/pkg/errors"
)

// AssembleGrid arranges a timetable into one row per calendar date of its
// interval and one column per timeslot, ordered by position. Every lesson
// lands in exactly one cell; lessons sharing a date and timeslot share the
// cell in input order. A lesson that cannot be placed on the axes yields
// INCONSISTENT_SCHEDULE.
func AssembleGrid(timetable models.Timetable) (*models.TimetableGrid, error) {
	timeslots := make([]models.Timeslot, len(timetable.Timeslots))
	copy(timeslots, timetable.Timeslots)
	sort.SliceStable(timeslots, func(i, j int) bool {
		return timeslots[i].Position < timeslots[j].Position
	})

	column := make(map[string]int, len(timeslots))
	for i, ts := range timeslots {
		column[ts.ID] = i
	}

	dates := timetable.Interval.Dates()
	rowByDate := make(map[string]int, len(dates))
	rows := make([]models.GridRow, len(dates))
	for i, date := range dates {
		rows[i] = models.GridRow{Date: date, Cells: make([][]models.Lesson, len(timeslots))}
		rowByDate[models.FormatDate(date)] = i
	}

	for _, lesson := range timetable.Lessons {
		col, ok := column[lesson.TimeslotID]
		if !ok {
			return nil, inconsistent("lesson %s uses timeslot %s which is not on the timetable axis", lesson.ID, lesson.TimeslotID)
		}
		row, ok := rowByDate[models.FormatDate(lesson.Date)]
		if !ok {
			return nil, inconsistent("lesson %s is dated %s outside %s..%s", lesson.ID, models.FormatDate(lesson.Date),
				models.FormatDate(timetable.Interval.Start), models.FormatDate(timetable.Interval.End))
		}
		rows[row].Cells[col] = append(rows[row].Cells[col], lesson)
	}

	return &models.TimetableGrid{
		Subject:   timetable.Subject,
		Interval:  timetable.Interval,
		Timeslots: timeslots,
		Rows:      rows,
	}, nil
}

func inconsistent(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrInconsistentSchedule, fmt.Sprintf(format, args...))
}
