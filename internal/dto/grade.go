package dto

import (
	"time"

	"github.com/noah-isme/grade-calculator-api/internal/models"
)

// CalculateGradeRequest is the payload for a single course grade calculation.
type CalculateGradeRequest struct {
	AssignmentGroups  []models.AssignmentGroup `json:"assignment_groups" validate:"dive"`
	WhatIfScores      models.WhatIfScores      `json:"what_if_scores,omitempty"`
	ApplyGroupWeights bool                     `json:"apply_group_weights"`
	OnlyGraded        bool                     `json:"only_graded"`
}

// GradeCalculationResponse carries the course grade and its group breakdown.
type GradeCalculationResponse struct {
	models.CourseGrade
	CalculatedAt time.Time `json:"calculated_at"`
}

// CourseGradesResponse pairs the current grade with the projected final grade.
type CourseGradesResponse struct {
	Current      models.CourseGrade `json:"current"`
	Final        models.CourseGrade `json:"final"`
	CalculatedAt time.Time          `json:"calculated_at"`
}

// BatchCalculateItem is one keyed calculation inside a batch.
type BatchCalculateItem struct {
	Key string `json:"key" validate:"required"`
	CalculateGradeRequest
}

// BatchCalculateRequest bundles independent calculations, e.g. one per student.
type BatchCalculateRequest struct {
	Items []BatchCalculateItem `json:"items" validate:"required,min=1,dive"`
}

// BatchCalculateResult is the outcome for one batch item.
type BatchCalculateResult struct {
	Key    string                    `json:"key"`
	Result *GradeCalculationResponse `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

// BatchCalculateResponse preserves the order of the request items.
type BatchCalculateResponse struct {
	Results   []BatchCalculateResult `json:"results"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
}
