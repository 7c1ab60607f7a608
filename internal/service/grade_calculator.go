package service

import (
	"math"
	"sort"

	"github.com/noah-isme/grade-calculator-api/internal/models"
)

const (
	defaultDropIterations = 100
	defaultDropTolerance  = 1e-9
)

// CalculatorOptions tunes the optimal-drop search.
type CalculatorOptions struct {
	MaxIterations int
	Tolerance     float64
}

// GradeCalculator computes course percentages from assignment groups. It holds no
// mutable state and is safe for concurrent use.
type GradeCalculator struct {
	maxIterations int
	tolerance     float64
}

// NewGradeCalculator constructs a calculator, falling back to 100 iterations and a
// 1e-9 tolerance for zero or invalid options.
func NewGradeCalculator(opts CalculatorOptions) GradeCalculator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultDropIterations
	}
	if opts.Tolerance <= 0 || math.IsNaN(opts.Tolerance) {
		opts.Tolerance = defaultDropTolerance
	}
	return GradeCalculator{maxIterations: opts.MaxIterations, tolerance: opts.Tolerance}
}

var defaultCalculator = NewGradeCalculator(CalculatorOptions{})

// CalculateGrade returns the course percentage using the default calculator.
func CalculateGrade(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights, onlyGraded bool) float64 {
	return defaultCalculator.CalculateGrade(groups, whatIf, applyGroupWeights, onlyGraded)
}

// CalculateBreakdown returns the course grade and group breakdown using the default calculator.
func CalculateBreakdown(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights, onlyGraded bool) models.CourseGrade {
	return defaultCalculator.CalculateBreakdown(groups, whatIf, applyGroupWeights, onlyGraded)
}

// CalculateGroupGrade returns one group's kept totals using the default calculator.
func CalculateGroupGrade(group models.AssignmentGroup, whatIf models.WhatIfScores, onlyGraded bool) models.GroupGrade {
	return defaultCalculator.CalculateGroupGrade(group, whatIf, onlyGraded)
}

// CalculateGrade returns the course percentage in [0, 100], or 0 when nothing is countable.
func (c GradeCalculator) CalculateGrade(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights, onlyGraded bool) float64 {
	return c.CalculateBreakdown(groups, whatIf, applyGroupWeights, onlyGraded).Percentage
}

// CalculateCourseGrades returns the current (graded work only) and final (ungraded as zero) grades.
func (c GradeCalculator) CalculateCourseGrades(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights bool) (current, final models.CourseGrade) {
	current = c.CalculateBreakdown(groups, whatIf, applyGroupWeights, true)
	final = c.CalculateBreakdown(groups, whatIf, applyGroupWeights, false)
	return current, final
}

// CalculateBreakdown computes every group and aggregates them either by flat point
// pooling or by weights renormalised over the contributing groups.
func (c GradeCalculator) CalculateBreakdown(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights, onlyGraded bool) models.CourseGrade {
	result := models.CourseGrade{
		Mode:              models.ModeFor(onlyGraded),
		ApplyGroupWeights: applyGroupWeights,
		Groups:            make([]models.GroupGrade, 0, len(groups)),
	}
	for _, group := range groups {
		result.Groups = append(result.Groups, c.CalculateGroupGrade(group, whatIf, onlyGraded))
	}

	if applyGroupWeights {
		result.Percentage = weightedPercentage(result.Groups)
	} else {
		result.Percentage = pooledPercentage(result.Groups)
	}
	return result
}

// CalculateGroupGrade filters the group's countable assignments, applies its drop rule
// and reports the kept totals.
func (c GradeCalculator) CalculateGroupGrade(group models.AssignmentGroup, whatIf models.WhatIfScores, onlyGraded bool) models.GroupGrade {
	grade := models.GroupGrade{GroupID: group.ID, Name: group.Name, Weight: group.Weight}

	pool := countableAssignments(group.Assignments, whatIf, onlyGraded)
	grade.Contributing = len(pool) > 0

	fixed, eligible := partitionNeverDrop(pool, group.Rules.NeverDrop)

	lowCount := clampCount(group.Rules.DropLowest, len(eligible))
	eligible, droppedLow := c.optimalDrop(fixed, eligible, lowCount, dropLowest)

	highCount := clampCount(group.Rules.DropHighest, len(eligible))
	eligible, droppedHigh := c.optimalDrop(fixed, eligible, highCount, dropHighest)

	kept := append(append([]scoredAssignment{}, fixed...), eligible...)
	grade.Score, grade.PointsPossible = totals(kept)
	if grade.PointsPossible > 0 {
		grade.Percentage = 100 * grade.Score / grade.PointsPossible
	}
	grade.Kept = idsInInputOrder(kept)
	grade.DroppedLowest = idsInInputOrder(droppedLow)
	grade.DroppedHighest = idsInInputOrder(droppedHigh)
	return grade
}

// countableAssignments applies the eligibility filter. Excused and zero-point work is
// always skipped; a what-if score always counts; otherwise only posted scores count,
// and in final mode anything else is counted as zero. A score on an unposted
// submission stays hidden in both modes: final mode counts it as zero, not as its value.
func countableAssignments(assignments []models.Assignment, whatIf models.WhatIfScores, onlyGraded bool) []scoredAssignment {
	pool := make([]scoredAssignment, 0, len(assignments))
	for i, assignment := range assignments {
		sub := assignment.Submission
		if sub != nil && sub.Excused {
			continue
		}
		if !(assignment.PointsPossible > 0) || math.IsInf(assignment.PointsPossible, 0) {
			continue
		}

		score, graded := effectiveScore(assignment, whatIf)
		if !graded {
			if onlyGraded {
				continue
			}
			score = 0
		}
		pool = append(pool, scoredAssignment{
			id:       assignment.ID,
			position: i,
			score:    score,
			points:   assignment.PointsPossible,
		})
	}
	return pool
}

func effectiveScore(assignment models.Assignment, whatIf models.WhatIfScores) (float64, bool) {
	if score, ok := whatIf[assignment.ID]; ok && isFinite(score) {
		return score, true
	}
	sub := assignment.Submission
	if sub.Posted() && sub.Score != nil && isFinite(*sub.Score) {
		return *sub.Score, true
	}
	return 0, false
}

func partitionNeverDrop(pool []scoredAssignment, neverDrop []string) (fixed, eligible []scoredAssignment) {
	if len(neverDrop) == 0 {
		return nil, pool
	}
	protected := make(map[string]struct{}, len(neverDrop))
	for _, id := range neverDrop {
		protected[id] = struct{}{}
	}
	for _, a := range pool {
		if _, ok := protected[a.id]; ok {
			fixed = append(fixed, a)
			continue
		}
		eligible = append(eligible, a)
	}
	return fixed, eligible
}

func clampCount(requested, available int) int {
	if requested < 0 {
		return 0
	}
	if requested > available {
		return available
	}
	return requested
}

func pooledPercentage(groups []models.GroupGrade) float64 {
	var score, points float64
	for _, g := range groups {
		if !g.Contributing {
			continue
		}
		score += g.Score
		points += g.PointsPossible
	}
	if points <= 0 {
		return 0
	}
	return clampPercentage(100 * score / points)
}

// weightedPercentage renormalises weights over groups that are both contributing and
// positively weighted. Effective weights are written back onto the groups.
func weightedPercentage(groups []models.GroupGrade) float64 {
	var totalWeight float64
	for _, g := range groups {
		if g.Contributing && positiveWeight(g.Weight) {
			totalWeight += g.Weight
		}
	}
	if totalWeight <= 0 || math.IsInf(totalWeight, 0) {
		return 0
	}

	var percentage float64
	for i := range groups {
		g := &groups[i]
		if !g.Contributing || !positiveWeight(g.Weight) {
			continue
		}
		g.EffectiveWeight = g.Weight / totalWeight
		percentage += g.EffectiveWeight * g.Percentage
	}
	return clampPercentage(percentage)
}

func positiveWeight(w float64) bool {
	return w > 0 && !math.IsInf(w, 0)
}

func clampPercentage(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func idsInInputOrder(items []scoredAssignment) []string {
	if len(items) == 0 {
		return nil
	}
	ordered := make([]scoredAssignment, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].position < ordered[j].position })
	ids := make([]string, 0, len(ordered))
	for _, a := range ordered {
		ids = append(ids, a.id)
	}
	return ids
}
