package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/grade-calculator-api/internal/models"
)

func TestMetricsServiceObserveCalculation(t *testing.T) {
	metrics := NewMetricsService()

	metrics.ObserveCalculation(models.CourseGrade{
		Mode:              models.GradeModeFinal,
		ApplyGroupWeights: false,
		Groups: []models.GroupGrade{
			{DroppedLowest: []string{"a", "b"}, DroppedHighest: []string{"c"}},
			{DroppedLowest: []string{"d"}},
		},
	}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calculationTotal.WithLabelValues("FINAL", "false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.droppedTotal.WithLabelValues("lowest")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.droppedTotal.WithLabelValues("highest")))
}

func TestMetricsServiceHTTPAndNil(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("POST", "/api/v1/grades/calculate", 200, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestTotal.WithLabelValues("POST", "/api/v1/grades/calculate", "200")))

	var nilMetrics *MetricsService
	assert.NotPanics(t, func() {
		nilMetrics.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		nilMetrics.ObserveCalculation(models.CourseGrade{}, time.Millisecond)
		nilMetrics.ObserveBatch(1)
		nilMetrics.RecordCacheOperation(true, time.Millisecond)
		nilMetrics.ObserveCacheWrite(time.Millisecond)
	})
	assert.Nil(t, nilMetrics.Registry())
}
