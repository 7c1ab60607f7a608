package models

import "time"

// GradeMode distinguishes the student's current grade from the projected final grade.
type GradeMode string

const (
	// GradeModeCurrent only counts graded, posted (or what-if) work.
	GradeModeCurrent GradeMode = "CURRENT"
	// GradeModeFinal counts every assignment, treating ungraded work as zero.
	GradeModeFinal GradeMode = "FINAL"
)

// ModeFor maps the onlyGraded flag to its grade mode.
func ModeFor(onlyGraded bool) GradeMode {
	if onlyGraded {
		return GradeModeCurrent
	}
	return GradeModeFinal
}

// Submission is a student's graded attempt at an assignment.
type Submission struct {
	Score    *float64   `json:"score,omitempty"`
	PostedAt *time.Time `json:"posted_at,omitempty"`
	Excused  bool       `json:"excused"`
}

// Posted reports whether the grade has been released to the student.
func (s *Submission) Posted() bool {
	return s != nil && s.PostedAt != nil
}

// Assignment is a single gradable item inside an assignment group.
type Assignment struct {
	ID             string      `json:"id" validate:"required"`
	Name           string      `json:"name,omitempty"`
	PointsPossible float64     `json:"points_possible"`
	Submission     *Submission `json:"submission,omitempty"`
}

// DropRule describes which assignments an instructor lets the group discard.
type DropRule struct {
	DropLowest  int      `json:"drop_lowest"`
	DropHighest int      `json:"drop_highest"`
	NeverDrop   []string `json:"never_drop,omitempty"`
}

// HasDrops reports whether the rule removes anything.
func (r DropRule) HasDrops() bool {
	return r.DropLowest > 0 || r.DropHighest > 0
}

// AssignmentGroup is a weighted bucket of assignments sharing one drop rule.
type AssignmentGroup struct {
	ID          string       `json:"id" validate:"required"`
	Name        string       `json:"name,omitempty"`
	Weight      float64      `json:"weight"`
	Rules       DropRule     `json:"rules"`
	Assignments []Assignment `json:"assignments" validate:"dive"`
}

// WhatIfScores maps assignment IDs to hypothetical scores.
type WhatIfScores map[string]float64

// GroupGrade is the per-group outcome of a calculation.
type GroupGrade struct {
	GroupID         string   `json:"group_id"`
	Name            string   `json:"name,omitempty"`
	Percentage      float64  `json:"percentage"`
	Score           float64  `json:"score"`
	PointsPossible  float64  `json:"points_possible"`
	Weight          float64  `json:"weight"`
	EffectiveWeight float64  `json:"effective_weight"`
	Contributing    bool     `json:"contributing"`
	Kept            []string `json:"kept,omitempty"`
	DroppedLowest   []string `json:"dropped_lowest,omitempty"`
	DroppedHighest  []string `json:"dropped_highest,omitempty"`
}

// CourseGrade is the aggregated course percentage with its group breakdown.
type CourseGrade struct {
	Percentage        float64      `json:"percentage"`
	Mode              GradeMode    `json:"mode"`
	ApplyGroupWeights bool         `json:"apply_group_weights"`
	Groups            []GroupGrade `json:"groups"`
}
