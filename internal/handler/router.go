package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/virtuclass/classroom-api/internal/middleware"
	"github.com/virtuclass/classroom-api/internal/models"
	"github.com/virtuclass/classroom-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth     *AuthHandler
	Teachers *TeacherHandler
	Sections *SectionHandler
	Students *StudentHandler
	Modules  *ModuleHandler
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/teacher/signup", h.Auth.Signup)
	api.POST("/auth/teacher/login", h.Auth.TeacherLogin)
	api.POST("/auth/student/login", h.Auth.StudentLogin)

	teachers := api.Group("", middleware.JWT(auth), middleware.RequireRole(models.RoleTeacher))
	{
		teachers.GET("/teachers/me", h.Teachers.Me)
		teachers.PUT("/teachers/me", h.Teachers.UpdateMe)

		teachers.GET("/sections", h.Sections.List)
		teachers.POST("/sections", h.Sections.Create)
		teachers.GET("/sections/:id", h.Sections.Get)
		teachers.PUT("/sections/:id", h.Sections.Update)
		teachers.DELETE("/sections/:id", h.Sections.Delete)

		teachers.GET("/students", h.Students.List)
		teachers.POST("/students", h.Students.Create)
		teachers.POST("/students/migrate", h.Students.Migrate)
		teachers.GET("/students/:username", h.Students.Get)
		teachers.PUT("/students/:username", h.Students.Update)
		teachers.DELETE("/students/:username", h.Students.Delete)

		teachers.GET("/modules/quiz-results", h.Modules.QuizResults)
		teachers.GET("/modules/quiz-results/export", h.Modules.ExportQuizResults)
	}

	students := api.Group("", middleware.JWT(auth), middleware.RequireRole(models.RoleStudent))
	{
		students.POST("/modules/quiz", h.Modules.UpdateQuiz)
		students.POST("/modules/progress", h.Modules.UpdateProgress)
	}
}
