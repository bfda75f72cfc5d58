package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/university-timetable/internal/models"
	"github.com/noah-isme/university-timetable/internal/service"
	"github.com/noah-isme/university-timetable/pkg/response"
)

type timetableService interface {
	ResolveInterval(startRaw, endRaw string) (models.DateInterval, error)
	StudentGrid(ctx context.Context, studentID string, interval models.DateInterval) (*models.FormattedTimetable, error)
	TeacherGrid(ctx context.Context, teacherID string, interval models.DateInterval) (*models.FormattedTimetable, error)
}

type timetableExporter interface {
	Export(formatted models.FormattedTimetable, format string) (*service.ExportedFile, error)
}

type gridFunc func(ctx context.Context, id string, interval models.DateInterval) (*models.FormattedTimetable, error)

// TimetableHandler renders student and teacher timetables.
type TimetableHandler struct {
	service  timetableService
	exporter timetableExporter
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc timetableService, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Student godoc
// @Summary Student timetable
// @Description Lessons of every course offered to the student's group, as a date by timeslot grid
// @Tags Timetables
// @Produce json
// @Param id path string true "Student ID"
// @Param start query string false "First date (YYYY-MM-DD), defaults to today"
// @Param end query string false "Last date (YYYY-MM-DD), defaults to the configured span"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /timetables/students/{id} [get]
func (h *TimetableHandler) Student(c *gin.Context) {
	h.render(c, h.service.StudentGrid)
}

// Teacher godoc
// @Summary Teacher timetable
// @Description Lessons of every course the teacher owns, as a date by timeslot grid
// @Tags Timetables
// @Produce json
// @Param id path string true "Teacher ID"
// @Param start query string false "First date (YYYY-MM-DD), defaults to today"
// @Param end query string false "Last date (YYYY-MM-DD), defaults to the configured span"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /timetables/teachers/{id} [get]
func (h *TimetableHandler) Teacher(c *gin.Context) {
	h.render(c, h.service.TeacherGrid)
}

// ExportStudent godoc
// @Summary Export student timetable
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param start query string false "First date (YYYY-MM-DD)"
// @Param end query string false "Last date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetables/students/{id}/export [get]
func (h *TimetableHandler) ExportStudent(c *gin.Context) {
	h.export(c, h.service.StudentGrid)
}

// ExportTeacher godoc
// @Summary Export teacher timetable
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Teacher ID"
// @Param start query string false "First date (YYYY-MM-DD)"
// @Param end query string false "Last date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetables/teachers/{id}/export [get]
func (h *TimetableHandler) ExportTeacher(c *gin.Context) {
	h.export(c, h.service.TeacherGrid)
}

func (h *TimetableHandler) grid(c *gin.Context, build gridFunc) (*models.FormattedTimetable, error) {
	interval, err := h.service.ResolveInterval(c.Query("start"), c.Query("end"))
	if err != nil {
		return nil, err
	}
	return build(c.Request.Context(), c.Param("id"), interval)
}

func (h *TimetableHandler) render(c *gin.Context, build gridFunc) {
	formatted, err := h.grid(c, build)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, formatted, map[string]interface{}{
		"lesson_count":   formatted.LessonCount,
		"degraded_cells": formatted.DegradedCells,
		"overlap_cells":  formatted.OverlapCells,
	})
}

func (h *TimetableHandler) export(c *gin.Context, build gridFunc) {
	formatted, err := h.grid(c, build)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Export(*formatted, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
