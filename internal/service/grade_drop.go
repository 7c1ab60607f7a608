package service

import (
	"math"
	"sort"
)

// scoredAssignment is a countable assignment paired with its effective score.
type scoredAssignment struct {
	id       string
	position int
	score    float64
	points   float64
}

func (a scoredAssignment) residual(ratio float64) float64 {
	return a.score - ratio*a.points
}

// dropDirection selects which end of the residual ordering is discarded.
type dropDirection int

const (
	// dropLowest removes the assignments whose absence maximises the kept ratio.
	dropLowest dropDirection = iota
	// dropHighest removes the assignments whose absence minimises the kept ratio.
	dropHighest
)

func (d dropDirection) String() string {
	if d == dropHighest {
		return "highest"
	}
	return "lowest"
}

// optimalDrop removes exactly count candidates so that the ratio over fixed+kept is
// maximised (dropLowest) or minimised (dropHighest).
//
// For a trial ratio r the best subset of a given size is the one with the largest
// (or smallest) residuals score-r*points, and the objective
// F(r) = sum(residuals of fixed+kept) is strictly decreasing in r. The optimum is the
// root of F, found by bisection and then polished until the selection reproduces itself.
func (c GradeCalculator) optimalDrop(fixed, candidates []scoredAssignment, count int, dir dropDirection) (kept, dropped []scoredAssignment) {
	if count <= 0 || len(candidates) == 0 {
		return candidates, nil
	}
	if count >= len(candidates) {
		return nil, candidates
	}

	lo, hi := ratioBounds(fixed, candidates)
	for i := 0; i < c.maxIterations && hi-lo > c.tolerance; i++ {
		mid := lo + (hi-lo)/2
		k, _ := splitAt(rankByResidual(candidates, mid, dir), count)
		if residualSum(mid, fixed, k) >= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	kept, dropped = splitAt(rankByResidual(candidates, lo, dir), count)
	for i := 0; i < c.maxIterations; i++ {
		current := ratioOf(fixed, kept)
		nextKept, nextDropped := splitAt(rankByResidual(candidates, current, dir), count)
		if sameAssignments(dropped, nextDropped) {
			break
		}
		next := ratioOf(fixed, nextKept)
		if (dir == dropLowest && next <= current) || (dir == dropHighest && next >= current) {
			break
		}
		kept, dropped = nextKept, nextDropped
	}
	return kept, dropped
}

// rankByResidual orders candidates so the ones to drop at ratio r come first.
// Equal residuals fall back to assignment ID, then input position.
func rankByResidual(candidates []scoredAssignment, ratio float64, dir dropDirection) []scoredAssignment {
	ranked := make([]scoredAssignment, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].residual(ratio), ranked[j].residual(ratio)
		if ri != rj {
			if dir == dropHighest {
				return ri > rj
			}
			return ri < rj
		}
		if ranked[i].id != ranked[j].id {
			return ranked[i].id < ranked[j].id
		}
		return ranked[i].position < ranked[j].position
	})
	return ranked
}

func splitAt(ranked []scoredAssignment, count int) (kept, dropped []scoredAssignment) {
	return ranked[count:], ranked[:count]
}

func ratioBounds(sets ...[]scoredAssignment) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, set := range sets {
		for _, a := range set {
			r := a.score / a.points
			lo = math.Min(lo, r)
			hi = math.Max(hi, r)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func residualSum(ratio float64, sets ...[]scoredAssignment) float64 {
	var total float64
	for _, set := range sets {
		for _, a := range set {
			total += a.residual(ratio)
		}
	}
	return total
}

func ratioOf(sets ...[]scoredAssignment) float64 {
	score, points := totals(sets...)
	if points <= 0 {
		return 0
	}
	return score / points
}

func totals(sets ...[]scoredAssignment) (score, points float64) {
	for _, set := range sets {
		for _, a := range set {
			score += a.score
			points += a.points
		}
	}
	return score, points
}

func sameAssignments(a, b []scoredAssignment) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]struct{}, len(a))
	for _, item := range a {
		seen[item.position] = struct{}{}
	}
	for _, item := range b {
		if _, ok := seen[item.position]; !ok {
			return false
		}
	}
	return true
}
