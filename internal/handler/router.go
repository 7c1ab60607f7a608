package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-calculator-api/internal/middleware"
	"github.com/noah-isme/grade-calculator-api/internal/models"
)

// GradeRoutes wires the grade endpoints onto a router group.
type GradeRoutes struct {
	Grades       *GradeHandler
	Tokens       middleware.TokenValidator
	AuthRequired bool
}

// Register mounts the calculation routes under rg. Purging the cache always needs a
// teacher or admin token.
func (r GradeRoutes) Register(rg *gin.RouterGroup) {
	grades := rg.Group("/grades")
	grades.Use(middleware.WithResponseMeta())
	if r.Tokens != nil {
		if r.AuthRequired {
			grades.Use(middleware.JWT(r.Tokens))
		} else {
			grades.Use(middleware.OptionalJWT(r.Tokens))
		}
	}

	grades.POST("/calculate", r.Grades.Calculate)
	grades.POST("/calculate/batch", r.Grades.Batch)
	grades.POST("/course", r.Grades.CourseGrades)

	if r.Tokens != nil {
		grades.DELETE("/cache", middleware.JWT(r.Tokens), middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), r.Grades.PurgeCache)
	}
}
