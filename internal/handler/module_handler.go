package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuclass/classroom-api/internal/service"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
	"github.com/virtuclass/classroom-api/pkg/response"
)

// ModuleHandler exposes grading and quiz-result endpoints.
type ModuleHandler struct {
	modules        *service.ModuleService
	exportsEnabled bool
}

// NewModuleHandler constructs ModuleHandler.
func NewModuleHandler(modules *service.ModuleService, exportsEnabled bool) *ModuleHandler {
	return &ModuleHandler{modules: modules, exportsEnabled: exportsEnabled}
}

// UpdateQuiz godoc
// @Summary Record the calling student's quiz score on a module
// @Tags Modules
// @Accept json
// @Produce json
// @Param payload body service.RecordScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /modules/quiz [post]
func (h *ModuleHandler) UpdateQuiz(c *gin.Context) {
	var req service.RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	receipt, err := h.modules.RecordScore(c.Request.Context(), claims.Subject, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// UpdateProgress godoc
// @Summary Record the calling student's progress on a module
// @Tags Modules
// @Accept json
// @Produce json
// @Param payload body service.RecordProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Router /modules/progress [post]
func (h *ModuleHandler) UpdateProgress(c *gin.Context) {
	var req service.RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	receipt, err := h.modules.RecordProgress(c.Request.Context(), claims.Subject, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// QuizResults godoc
// @Summary Roster quiz results for a section module
// @Tags Modules
// @Produce json
// @Param sectionID query string true "Section ID"
// @Param moduleID query string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /modules/quiz-results [get]
func (h *ModuleHandler) QuizResults(c *gin.Context) {
	results, err := h.modules.QuizResults(c.Request.Context(), c.Query("sectionID"), c.Query("moduleID"), teacherEmailFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// ExportQuizResults godoc
// @Summary Export quiz results as CSV or PDF
// @Tags Modules
// @Produce octet-stream
// @Param sectionID query string true "Section ID"
// @Param moduleID query string true "Module ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /modules/quiz-results/export [get]
func (h *ModuleHandler) ExportQuizResults(c *gin.Context) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}
	artifact, err := h.modules.ExportQuizResults(c.Request.Context(), c.Query("sectionID"), c.Query("moduleID"), teacherEmailFromContext(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+artifact.Filename)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}
