package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/grade-calculator-api/internal/models"
	"github.com/noah-isme/grade-calculator-api/pkg/export"
)

var breakdownHeaders = []string{"Group", "Weight", "Effective Weight", "Score", "Points Possible", "Percentage", "Dropped"}

// BreakdownDataset flattens a course grade into one table row per assignment group.
// Non-contributing groups are listed with empty figures.
func BreakdownDataset(grade models.CourseGrade) export.Dataset {
	rows := make([]map[string]string, 0, len(grade.Groups))
	for _, g := range grade.Groups {
		name := g.Name
		if name == "" {
			name = g.GroupID
		}
		row := map[string]string{
			"Group":   name,
			"Weight":  formatNumber(g.Weight),
			"Dropped": strings.Join(append(append([]string{}, g.DroppedLowest...), g.DroppedHighest...), " "),
		}
		if g.Contributing {
			if grade.ApplyGroupWeights {
				row["Effective Weight"] = formatNumber(g.EffectiveWeight)
			}
			row["Score"] = formatNumber(g.Score)
			row["Points Possible"] = formatNumber(g.PointsPossible)
			row["Percentage"] = strconv.FormatFloat(g.Percentage, 'f', 2, 64)
		}
		rows = append(rows, row)
	}

	weighting := "pooled points"
	if grade.ApplyGroupWeights {
		weighting = "weighted groups"
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Course grade breakdown (%s)", grade.Mode),
		Headers: breakdownHeaders,
		Rows:    rows,
		Numeric: map[string]bool{"Weight": true, "Effective Weight": true, "Score": true, "Points Possible": true, "Percentage": true},
		Summary: []string{
			fmt.Sprintf("Course grade: %.2f%%", grade.Percentage),
			"Aggregation: " + weighting,
		},
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
