package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-calculator-api/internal/dto"
	"github.com/noah-isme/grade-calculator-api/internal/middleware"
	appErrors "github.com/noah-isme/grade-calculator-api/pkg/errors"
	"github.com/noah-isme/grade-calculator-api/pkg/response"
)

type gradeService interface {
	Calculate(ctx context.Context, req dto.CalculateGradeRequest) (*dto.GradeCalculationResponse, bool, error)
	CourseGrades(ctx context.Context, req dto.CalculateGradeRequest) (*dto.CourseGradesResponse, bool, error)
	CalculateBatch(ctx context.Context, req dto.BatchCalculateRequest) (*dto.BatchCalculateResponse, error)
	PurgeCache(ctx context.Context) error
}

// GradeHandler exposes grade calculation endpoints.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Calculate godoc
// @Summary Calculate a course grade
// @Description Applies eligibility, optimal drop rules and group weighting to the supplied assignment groups.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.CalculateGradeRequest true "Calculation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grades/calculate [post]
func (h *GradeHandler) Calculate(c *gin.Context) {
	var req dto.CalculateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, hit, err := h.grades.Calculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, middleware.ResponseMeta(c))
}

// CourseGrades godoc
// @Summary Calculate current and final course grades
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.CalculateGradeRequest true "Calculation payload"
// @Success 200 {object} response.Envelope
// @Router /grades/course [post]
func (h *GradeHandler) CourseGrades(c *gin.Context) {
	var req dto.CalculateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, hit, err := h.grades.CourseGrades(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, middleware.ResponseMeta(c))
}

// Batch godoc
// @Summary Calculate many course grades concurrently
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.BatchCalculateRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /grades/calculate/batch [post]
func (h *GradeHandler) Batch(c *gin.Context) {
	var req dto.BatchCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.CalculateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ResponseMeta(c))
}

// PurgeCache godoc
// @Summary Purge cached grade calculations
// @Tags Grades
// @Security BearerAuth
// @Success 204
// @Router /grades/cache [delete]
func (h *GradeHandler) PurgeCache(c *gin.Context) {
	if err := h.grades.PurgeCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
