package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the timetable and lesson endpoints under api.
func RegisterRoutes(api *gin.RouterGroup, timetables *TimetableHandler, lessons *LessonHandler) {
	tt := api.Group("/timetables")
	tt.GET("/students/:id", timetables.Student)
	tt.GET("/students/:id/export", timetables.ExportStudent)
	tt.GET("/teachers/:id", timetables.Teacher)
	tt.GET("/teachers/:id/export", timetables.ExportTeacher)

	ls := api.Group("/lessons")
	ls.POST("", lessons.Create)
	ls.GET("/options", lessons.Options)
	ls.GET("/:id", lessons.Get)
	ls.PUT("/:id", lessons.Update)
	ls.DELETE("/:id", lessons.Delete)
}
