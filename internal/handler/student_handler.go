package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuclass/classroom-api/internal/service"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
	"github.com/virtuclass/classroom-api/pkg/response"
)

// StudentHandler exposes student registry and migration endpoints.
type StudentHandler struct {
	students *service.StudentService
	roster   *service.RosterService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, roster *service.RosterService) *StudentHandler {
	return &StudentHandler{students: students, roster: roster}
}

// List godoc
// @Summary List students owned by the caller
// @Tags Students
// @Produce json
// @Param includeArchived query bool false "Include students in archived sections"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	includeArchived := c.Query("includeArchived") == "true"
	students, err := h.students.List(c.Request.Context(), teacherEmailFromContext(c), includeArchived)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Create godoc
// @Summary Provision a student into a section roster
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.ProvisionStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.ProvisionStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.roster.Provision(c.Request.Context(), req, teacherEmailFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Get godoc
// @Summary Fetch a student by username
// @Tags Students
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Router /students/{username} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Update godoc
// @Summary Update a student, optionally moving it to another section
// @Tags Students
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param payload body service.UpdateStudentRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /students/{username} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Remove a student and its roster entries
// @Tags Students
// @Produce json
// @Param username path string true "Username"
// @Success 204 "No Content"
// @Router /students/{username} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("username")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Migrate godoc
// @Summary Migrate every student from one section to another
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.MigrateStudentsRequest true "Migration payload"
// @Success 200 {object} response.Envelope
// @Router /students/migrate [post]
func (h *StudentHandler) Migrate(c *gin.Context) {
	var req service.MigrateStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.roster.MigrateBatch(c.Request.Context(), req, teacherEmailFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
