package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

const cacheKeyPrefix = "gradebook"

// CacheRepository abstracts persistence for cached report payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// CacheService orchestrates report cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads a cached report into dest and reports whether it was found.
// Backend failures are logged and treated as a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Set stores the value in cache. A ttl <= 0 uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Generation returns the cache generation of a course. Report keys carry it,
// so a report computed before InvalidateCourse can never be read after it.
// ok is false when the generation is unknown and nothing should be cached.
func (s *CacheService) Generation(ctx context.Context, courseKey string) (int64, bool) {
	if !s.Enabled() {
		return 0, false
	}
	var generation int64
	if err := s.repo.Get(ctx, GenerationKey(courseKey), &generation); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return 0, true
		}
		s.logger.Warn("cache generation lookup failed", zap.String("course_key", courseKey), zap.Error(err))
		return 0, false
	}
	return generation, true
}

// InvalidateCourse moves a course to a new generation and drops its cached reports.
func (s *CacheService) InvalidateCourse(ctx context.Context, courseKey string) {
	if !s.Enabled() {
		return
	}
	if _, err := s.repo.Incr(ctx, GenerationKey(courseKey)); err != nil {
		s.logger.Warn("cache generation bump failed", zap.String("course_key", courseKey), zap.Error(err))
	}
	pattern := CourseCachePattern(courseKey)
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// ReportCacheKey builds the key of one cached report of a course.
func ReportCacheKey(courseKey string, parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(cacheKeyPrefix) + len(courseKey) + len(parts)*16)
	builder.WriteString(cacheKeyPrefix)
	builder.WriteByte(':')
	builder.WriteString(escapeCacheSegment(courseKey))
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(escapeCacheSegment(part))
	}
	return builder.String()
}

// GenerationKey is where the cache generation of a course is kept. It sits
// outside CourseCachePattern so invalidation never resets it.
func GenerationKey(courseKey string) string {
	return cacheKeyPrefix + "-generation:" + escapeCacheSegment(courseKey)
}

// CourseCachePattern matches every report key of a course.
func CourseCachePattern(courseKey string) string {
	return cacheKeyPrefix + ":" + escapeCacheSegment(courseKey) + ":*"
}

var cacheSegmentReplacer = strings.NewReplacer(":", "|", "*", "_", "?", "_", "[", "_", "]", "_", "\\", "_")

func escapeCacheSegment(segment string) string {
	return cacheSegmentReplacer.Replace(segment)
}
