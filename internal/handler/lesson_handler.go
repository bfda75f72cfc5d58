package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/university-timetable/internal/models"
	"github.com/noah-isme/university-timetable/internal/service"
	appErrors "github.com/noah-isme/university-timetable/pkg/errors"
	"github.com/noah-isme/university-timetable/pkg/response"
)

type lessonService interface {
	Create(ctx context.Context, req service.CreateLessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, id string, req service.UpdateLessonRequest) (*models.Lesson, error)
	Get(ctx context.Context, id string) (*models.Lesson, error)
	Delete(ctx context.Context, id string) error
	Options(ctx context.Context, teacherID string) (*models.LessonFormOptions, error)
}

// LessonHandler manages lesson endpoints.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler constructs handler.
func NewLessonHandler(svc lessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// Create godoc
// @Summary Schedule a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req service.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Get godoc
// @Summary Get lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// Update godoc
// @Summary Reschedule a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req service.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// Delete godoc
// @Summary Delete lesson
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Options godoc
// @Summary Lesson form options
// @Description Timeslots, classrooms and the teacher's courses to choose from when scheduling
// @Tags Lessons
// @Produce json
// @Param teacherId query string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lessons/options [get]
func (h *LessonHandler) Options(c *gin.Context) {
	options, err := h.service.Options(c.Request.Context(), c.Query("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}
