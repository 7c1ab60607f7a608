package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-calculator-api/internal/dto"
	"github.com/noah-isme/grade-calculator-api/internal/models"
	appErrors "github.com/noah-isme/grade-calculator-api/pkg/errors"
	"github.com/noah-isme/grade-calculator-api/pkg/jobs"
)

// GradeCacheNamespace scopes cached calculations and the purge endpoint.
const GradeCacheNamespace = "grades"

type gradeCalculator interface {
	CalculateBreakdown(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights, onlyGraded bool) models.CourseGrade
	CalculateCourseGrades(groups []models.AssignmentGroup, whatIf models.WhatIfScores, applyGroupWeights bool) (models.CourseGrade, models.CourseGrade)
}

// GradeServiceConfig bounds request sizes and cache lifetime.
type GradeServiceConfig struct {
	CacheTTL      time.Duration
	MaxGroups     int
	BatchMaxItems int
}

// GradeService validates calculation requests, runs the calculator and caches results.
type GradeService struct {
	calculator gradeCalculator
	cache      *CacheService
	metrics    *MetricsService
	pool       *jobs.Pool
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        GradeServiceConfig
	now        func() time.Time
}

// NewGradeService constructs GradeService.
func NewGradeService(calculator gradeCalculator, cache *CacheService, metrics *MetricsService, pool *jobs.Pool, validate *validator.Validate, logger *zap.Logger, cfg GradeServiceConfig) *GradeService {
	if calculator == nil {
		calculator = defaultCalculator
	}
	if validate == nil {
		validate = NewPayloadValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = jobs.NewPool("grades", jobs.PoolConfig{Logger: logger})
	}
	if cfg.MaxGroups <= 0 {
		cfg.MaxGroups = 100
	}
	if cfg.BatchMaxItems <= 0 {
		cfg.BatchMaxItems = 200
	}
	return &GradeService{
		calculator: calculator,
		cache:      cache,
		metrics:    metrics,
		pool:       pool,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Calculate computes a course grade. The boolean reports whether it was served from cache.
func (s *GradeService) Calculate(ctx context.Context, req dto.CalculateGradeRequest) (*dto.GradeCalculationResponse, bool, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, false, err
	}

	key := s.cacheKey("calc", req)
	var cached dto.GradeCalculationResponse
	if hit := s.cacheGet(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	resp := &dto.GradeCalculationResponse{
		CourseGrade:  s.compute(req, req.OnlyGraded),
		CalculatedAt: s.now(),
	}
	s.cacheSet(ctx, key, resp)
	return resp, false, nil
}

// CourseGrades computes both the current and the final grade for the same inputs.
func (s *GradeService) CourseGrades(ctx context.Context, req dto.CalculateGradeRequest) (*dto.CourseGradesResponse, bool, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, false, err
	}

	req.OnlyGraded = false
	key := s.cacheKey("course", req)
	var cached dto.CourseGradesResponse
	if hit := s.cacheGet(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	start := time.Now()
	current, final := s.calculator.CalculateCourseGrades(req.AssignmentGroups, req.WhatIfScores, req.ApplyGroupWeights)
	elapsed := time.Since(start) / 2
	s.metrics.ObserveCalculation(current, elapsed)
	s.metrics.ObserveCalculation(final, elapsed)

	resp := &dto.CourseGradesResponse{Current: current, Final: final, CalculatedAt: s.now()}
	s.cacheSet(ctx, key, resp)
	return resp, false, nil
}

// CalculateBatch runs independent calculations concurrently. Invalid items are
// reported individually and never fail the rest of the batch.
func (s *GradeService) CalculateBatch(ctx context.Context, req dto.BatchCalculateRequest) (*dto.BatchCalculateResponse, error) {
	if len(req.Items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one item required")
	}
	if len(req.Items) > s.cfg.BatchMaxItems {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("batch limited to %d items", s.cfg.BatchMaxItems))
	}
	s.metrics.ObserveBatch(len(req.Items))

	results := make([]dto.BatchCalculateResult, len(req.Items))
	for i, item := range req.Items {
		results[i].Key = item.Key
	}
	errs := s.pool.Run(ctx, len(req.Items), func(ctx context.Context, i int) error {
		item := req.Items[i]
		if item.Key == "" {
			return appErrors.Clone(appErrors.ErrValidation, "item key required")
		}
		resp, _, err := s.Calculate(ctx, item.CalculateGradeRequest)
		if err != nil {
			return err
		}
		results[i].Result = resp
		return nil
	})

	out := &dto.BatchCalculateResponse{Results: results}
	for i, err := range errs {
		if err != nil {
			out.Results[i].Error = appErrors.FromError(err).Error()
			out.Failed++
			continue
		}
		out.Succeeded++
	}
	s.logger.Info("grade batch calculated", zap.Int("items", len(req.Items)), zap.Int("failed", out.Failed))
	return out, nil
}

// PurgeCache drops every cached grade calculation.
func (s *GradeService) PurgeCache(ctx context.Context) error {
	if _, err := s.cache.Purge(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge grade cache")
	}
	return nil
}

func (s *GradeService) compute(req dto.CalculateGradeRequest, onlyGraded bool) models.CourseGrade {
	start := time.Now()
	grade := s.calculator.CalculateBreakdown(req.AssignmentGroups, req.WhatIfScores, req.ApplyGroupWeights, onlyGraded)
	elapsed := time.Since(start)
	s.metrics.ObserveCalculation(grade, elapsed)
	s.logger.Debug("grade calculated",
		zap.String("mode", string(grade.Mode)),
		zap.Bool("weighted", grade.ApplyGroupWeights),
		zap.Int("groups", len(grade.Groups)),
		zap.Float64("percentage", grade.Percentage),
		zap.Duration("elapsed", elapsed),
	)
	return grade
}

func (s *GradeService) validateRequest(req dto.CalculateGradeRequest) error {
	if len(req.AssignmentGroups) > s.cfg.MaxGroups {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("at most %d assignment groups allowed", s.cfg.MaxGroups))
	}
	if err := s.validator.Struct(req); err != nil {
		appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
		return appErrors.WithDetails(appErr, fieldProblems(err)...)
	}
	return nil
}

// NewPayloadValidator returns a validator that reports fields by their JSON names.
func NewPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldProblems renders validator failures as "assignment_groups[0].id: required".
func fieldProblems(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		out = append(out, path+": "+fe.Tag())
	}
	return out
}

// cacheKey hashes the canonical JSON of the request. An empty key disables caching,
// which happens for inputs JSON cannot represent (NaN, Inf).
func (s *GradeService) cacheKey(kind string, req dto.CalculateGradeRequest) string {
	payload, err := json.Marshal(req)
	if err != nil {
		s.logger.Debug("grade payload not cacheable", zap.Error(err))
		return ""
	}
	sum := sha256.Sum256(payload)
	return s.cache.Key(kind, hex.EncodeToString(sum[:]))
}

func (s *GradeService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	hit, _ := s.cache.Get(ctx, key, dest)
	return hit
}

func (s *GradeService) cacheSet(ctx context.Context, key string, value interface{}) {
	_ = s.cache.Set(ctx, key, value, s.cfg.CacheTTL)
}
