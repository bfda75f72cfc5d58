package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/university-timetable/internal/models"
	appErrors "github.com/noah-isme/university-timetable/pkg/errors"
	"github.com/noah-isme/university-timetable/pkg/export"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportedFile is a rendered timetable download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TimetableExporter renders formatted timetables as downloadable files.
type TimetableExporter struct {
	renderers map[string]datasetRenderer
}

// NewTimetableExporter registers the CSV and PDF renderers.
func NewTimetableExporter() *TimetableExporter {
	return &TimetableExporter{renderers: map[string]datasetRenderer{
		"csv": export.NewCSVExporter(),
		"pdf": export.NewPDFExporter(),
	}}
}

// Export renders formatted in the requested format (csv or pdf).
func (e *TimetableExporter) Export(formatted models.FormattedTimetable, format string) (*ExportedFile, error) {
	renderer, ok := e.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	body, err := renderer.Render(TimetableDataset(formatted))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render timetable")
	}
	filename := fmt.Sprintf("timetable-%s-%s-%s_%s.%s",
		formatted.Subject.Kind, filenameSafe(formatted.Subject.ID), formatted.StartDate, formatted.EndDate, renderer.Extension())
	return &ExportedFile{Filename: filename, ContentType: renderer.ContentType(), Body: body}, nil
}

// TimetableDataset projects a formatted timetable into a date-by-timeslot table.
func TimetableDataset(formatted models.FormattedTimetable) export.Dataset {
	headers := make([]string, 0, len(formatted.Columns)+1)
	headers = append(headers, "Date")
	for _, col := range formatted.Columns {
		headers = append(headers, col.Label)
	}
	rows := make([][]string, len(formatted.Rows))
	for i, row := range formatted.Rows {
		values := make([]string, 0, len(row.Cells)+1)
		values = append(values, row.Date)
		for _, cell := range row.Cells {
			values = append(values, cell.Text)
		}
		rows[i] = values
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Timetable for %s %s, %s to %s", formatted.Subject.Kind, formatted.Subject.ID, formatted.StartDate, formatted.EndDate),
		Headers: headers,
		Rows:    rows,
	}
}

// filenameSafe keeps letters, digits, dot, dash and underscore and replaces
// everything else with an underscore.
func filenameSafe(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, raw)
}
