package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-calculator-api/internal/dto"
	"github.com/noah-isme/grade-calculator-api/internal/models"
	appErrors "github.com/noah-isme/grade-calculator-api/pkg/errors"
	"github.com/noah-isme/grade-calculator-api/pkg/jobs"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			m.deleted = append(m.deleted, key)
			n++
		}
	}
	return n, nil
}

type countingCalculator struct {
	GradeCalculator
	mu    sync.Mutex
	calls int
}

func (c *countingCalculator) CalculateBreakdown(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights, onlyGraded bool) models.CourseGrade {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.GradeCalculator.CalculateBreakdown(groups, whatIf, applyGroupWeights, onlyGraded)
}

func newTestGradeService(t *testing.T, repo CacheRepository) (*GradeService, *countingCalculator, *MetricsService) {
	t.Helper()
	metrics := NewMetricsService()
	calc := &countingCalculator{GradeCalculator: NewGradeCalculator(CalculatorOptions{})}
	cache := NewCacheService(repo, metrics, zap.NewNop(), CacheOptions{Namespace: GradeCacheNamespace, TTL: time.Minute, Enabled: repo != nil})
	pool := jobs.NewPool("grades-test", jobs.PoolConfig{Workers: 4})
	svc := NewGradeService(calc, cache, metrics, pool, nil, zap.NewNop(), GradeServiceConfig{CacheTTL: 5 * time.Minute, MaxGroups: 3, BatchMaxItems: 5})
	return svc, calc, metrics
}

func sampleRequest() dto.CalculateGradeRequest {
	return dto.CalculateGradeRequest{
		AssignmentGroups: []models.AssignmentGroup{
			group("hw", 60, models.DropRule{DropLowest: 1},
				asg("hw1", 100, postedSub(60)),
				asg("hw2", 100, postedSub(80)),
				asg("hw3", 100, postedSub(80)),
			),
			group("exam", 40, models.DropRule{}, asg("ex1", 100, postedSub(90))),
		},
		ApplyGroupWeights: true,
		OnlyGraded:        true,
	}
}

func TestGradeServiceCalculate(t *testing.T) {
	svc, _, metrics := newTestGradeService(t, nil)

	resp, hit, err := svc.Calculate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.InDelta(t, 84.0, resp.Percentage, gradeDelta)
	assert.Equal(t, models.GradeModeCurrent, resp.Mode)
	assert.Equal(t, []string{"hw1"}, resp.Groups[0].DroppedLowest)
	assert.False(t, resp.CalculatedAt.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calculationTotal.WithLabelValues("CURRENT", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.droppedTotal.WithLabelValues("lowest")))
}

func TestGradeServiceCalculateUsesCache(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc, calc, metrics := newTestGradeService(t, repo)
	req := sampleRequest()

	first, hit, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.InDelta(t, first.Percentage, second.Percentage, gradeDelta)
	assert.Equal(t, first.Groups, second.Groups)
	assert.Equal(t, 1, calc.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	require.Len(t, repo.ttls, 1)
	for key, ttl := range repo.ttls {
		assert.True(t, strings.HasPrefix(key, "grades:calc:"))
		assert.Equal(t, 5*time.Minute, ttl)
	}

	req.WhatIfScores = models.WhatIfScores{"hw1": 100}
	_, hit, err = svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calc.calls)
}

func TestGradeServiceCalculateSurvivesCacheFailure(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc, _, _ := newTestGradeService(t, repo)

	resp, hit, err := svc.Calculate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.InDelta(t, 84.0, resp.Percentage, gradeDelta)
}

func TestGradeServiceCalculateValidation(t *testing.T) {
	svc, _, _ := newTestGradeService(t, nil)

	missingID := dto.CalculateGradeRequest{AssignmentGroups: []models.AssignmentGroup{
		group("", 10, models.DropRule{}, asg("a1", 10, postedSub(5))),
	}}
	_, _, err := svc.Calculate(context.Background(), missingID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	missingAssignmentID := dto.CalculateGradeRequest{AssignmentGroups: []models.AssignmentGroup{
		group("g1", 10, models.DropRule{}, asg("", 10, postedSub(5))),
	}}
	_, _, err = svc.Calculate(context.Background(), missingAssignmentID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{"assignment_groups[0].assignments[0].id: required"}, appErrors.FromError(err).Details)

	tooMany := dto.CalculateGradeRequest{AssignmentGroups: make([]models.AssignmentGroup, 4)}
	_, _, err = svc.Calculate(context.Background(), tooMany)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceCalculateEmptyRequest(t *testing.T) {
	svc, _, _ := newTestGradeService(t, nil)

	resp, _, err := svc.Calculate(context.Background(), dto.CalculateGradeRequest{})
	require.NoError(t, err)
	assert.Zero(t, resp.Percentage)
	assert.Empty(t, resp.Groups)
}

func TestGradeServiceCourseGrades(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc, _, _ := newTestGradeService(t, repo)
	req := sampleRequest()
	req.AssignmentGroups[1].Assignments = append(req.AssignmentGroups[1].Assignments, asg("ex2", 100, nil))

	resp, hit, err := svc.CourseGrades(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.InDelta(t, 84.0, resp.Current.Percentage, gradeDelta)
	assert.InDelta(t, 0.6*80+0.4*45, resp.Final.Percentage, gradeDelta)
	assert.Equal(t, models.GradeModeFinal, resp.Final.Mode)

	req.OnlyGraded = false
	_, hit, err = svc.CourseGrades(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGradeServiceCalculateBatch(t *testing.T) {
	svc, _, _ := newTestGradeService(t, nil)
	valid := sampleRequest()
	invalid := dto.CalculateGradeRequest{AssignmentGroups: []models.AssignmentGroup{group("", 1, models.DropRule{})}}

	resp, err := svc.CalculateBatch(context.Background(), dto.BatchCalculateRequest{Items: []dto.BatchCalculateItem{
		{Key: "stu-1", CalculateGradeRequest: valid},
		{Key: "stu-2", CalculateGradeRequest: invalid},
		{Key: "", CalculateGradeRequest: valid},
		{Key: "stu-4", CalculateGradeRequest: dto.CalculateGradeRequest{}},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 2, resp.Failed)

	assert.Equal(t, "stu-1", resp.Results[0].Key)
	assert.InDelta(t, 84.0, resp.Results[0].Result.Percentage, gradeDelta)
	assert.Equal(t, "stu-2", resp.Results[1].Key)
	assert.Nil(t, resp.Results[1].Result)
	assert.Contains(t, resp.Results[1].Error, "invalid grade payload")
	assert.Contains(t, resp.Results[2].Error, "item key required")
	assert.Zero(t, resp.Results[3].Result.Percentage)
}

func TestGradeServiceCalculateBatchLimits(t *testing.T) {
	svc, _, _ := newTestGradeService(t, nil)

	_, err := svc.CalculateBatch(context.Background(), dto.BatchCalculateRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	items := make([]dto.BatchCalculateItem, 6)
	_, err = svc.CalculateBatch(context.Background(), dto.BatchCalculateRequest{Items: items})
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)
}

func TestGradeServicePurgeCache(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc, _, _ := newTestGradeService(t, repo)

	_, _, err := svc.Calculate(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	require.NoError(t, svc.PurgeCache(context.Background()))
	assert.Empty(t, repo.entries)
	assert.Len(t, repo.deleted, 1)
}
