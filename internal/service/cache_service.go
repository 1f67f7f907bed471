package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// StatsCacheKey is the cache key of an academic year's workload statistics.
func StatsCacheKey(institutionID, academicYearID string) string {
	return fmt.Sprintf("stats:%s:%s", institutionID, academicYearID)
}

// StatsCachePattern matches every cached statistics entry of an institution.
func StatsCachePattern(institutionID string) string {
	return fmt.Sprintf("stats:%s:*", institutionID)
}

// CacheRepository stores JSON documents by key.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheOptions configures a CacheService.
type CacheOptions struct {
	Enabled bool
	// TTL applies when Set is called without one. Defaults to five minutes.
	TTL time.Duration
}

// CacheService fronts the statistics cache and reports hits and misses to metrics.
// A disabled or nil service behaves as an always-missing cache.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	opts    CacheOptions
	logger  *zap.Logger
}

// NewCacheService constructs the service. metrics may be nil.
func NewCacheService(repo CacheRepository, metrics *MetricsService, opts CacheOptions, logger *zap.Logger) *CacheService {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, opts: opts, logger: logger.Named("cache")}
}

// Enabled reports whether reads and writes reach the repository.
func (s *CacheService) Enabled() bool {
	return s != nil && s.opts.Enabled && s.repo != nil
}

// Get decodes the entry at key into dest and reports whether it was found. A miss
// is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	started := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(started))
	if err == nil || errors.Is(err, appErrors.ErrCacheMiss) {
		return hit, nil
	}
	s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores value at key. ttl <= 0 uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.opts.TTL
	}
	started := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(started))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every entry matching pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
	return err
}
