package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-calculator-api/internal/models"
)

func TestBreakdownDataset(t *testing.T) {
	groups := []models.AssignmentGroup{
		group("hw", 60, models.DropRule{DropLowest: 1},
			asg("hw1", 100, postedSub(60)),
			asg("hw2", 100, postedSub(80)),
			asg("hw3", 100, postedSub(80)),
		),
		group("exam", 40, models.DropRule{}, asg("ex1", 100, postedSub(90))),
		group("lab", 10, models.DropRule{}, asg("lab1", 10, hiddenSub(5))),
	}
	grade := CalculateBreakdown(groups, nil, true, true)

	data := BreakdownDataset(grade)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "Course grade breakdown (CURRENT)", data.Title)

	hw := data.Rows[0]
	assert.Equal(t, "hw", hw["Group"])
	assert.Equal(t, "60", hw["Weight"])
	assert.Equal(t, "0.6", hw["Effective Weight"])
	assert.Equal(t, "160", hw["Score"])
	assert.Equal(t, "80.00", hw["Percentage"])
	assert.Equal(t, "hw1", hw["Dropped"])

	lab := data.Rows[2]
	assert.Equal(t, "10", lab["Weight"])
	assert.Empty(t, lab["Percentage"])
	assert.Empty(t, lab["Effective Weight"])

	assert.Equal(t, []string{"Course grade: 84.00%", "Aggregation: weighted groups"}, data.Summary)
}
