package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/grade-calculator-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CacheOptions configures a CacheService.
type CacheOptions struct {
	// Namespace prefixes every key and scopes Purge, e.g. "grades".
	Namespace string
	TTL       time.Duration
	Enabled   bool
}

// CacheService is a best-effort result cache scoped to one key namespace. Backend
// failures are logged and counted but never surface as calculation failures.
type CacheService struct {
	repo      CacheRepository
	metrics   *MetricsService
	logger    *zap.Logger
	namespace string
	ttl       time.Duration
	enabled   bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, logger *zap.Logger, opts CacheOptions) *CacheService {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:      repo,
		metrics:   metrics,
		logger:    logger,
		namespace: strings.TrimSuffix(opts.Namespace, ":"),
		ttl:       opts.TTL,
		enabled:   opts.Enabled,
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Key joins parts under the service namespace.
func (s *CacheService) Key(parts ...string) string {
	if s == nil || s.namespace == "" {
		return strings.Join(parts, ":")
	}
	return s.namespace + ":" + strings.Join(parts, ":")
}

// Get loads key into dest and reports whether it was a hit. Only backend failures are
// returned as errors; a plain miss is (false, nil).
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() || key == "" {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() || key == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Purge removes every entry in the namespace and returns how many were removed.
func (s *CacheService) Purge(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	pattern := s.Key("*")
	n, err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache purge failed", zap.String("pattern", pattern), zap.Error(err))
		return n, err
	}
	s.logger.Info("cache purged", zap.String("pattern", pattern), zap.Int("keys", n))
	return n, nil
}
