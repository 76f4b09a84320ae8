package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuclass/classroom-api/internal/service"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
	"github.com/virtuclass/classroom-api/pkg/response"
)

// TeacherHandler exposes the teacher's own profile endpoints.
type TeacherHandler struct {
	teachers *service.TeacherService
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// Me godoc
// @Summary Fetch the calling teacher's profile
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers/me [get]
func (h *TeacherHandler) Me(c *gin.Context) {
	info, err := h.teachers.Get(c.Request.Context(), teacherEmailFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateMe godoc
// @Summary Update the calling teacher's profile
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.UpdateTeacherRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/me [put]
func (h *TeacherHandler) UpdateMe(c *gin.Context) {
	var req service.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	info, err := h.teachers.Update(c.Request.Context(), teacherEmailFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
