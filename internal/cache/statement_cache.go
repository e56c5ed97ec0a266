package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// StatementCache is the read-through cache in front of the range
// reconciler. Reports over fully settled days live longer than reports
// that still contain open days. Every error path degrades to a miss;
// the cache never turns a working read into a failure.
type StatementCache interface {
	GetReport(ctx context.Context, key string) (*domain.StatementReport, bool)
	SetReport(ctx context.Context, key string, report *domain.StatementReport)
	// Invalidate drops every cached report tagged with the entity and the
	// dimension's unscoped reports, which always include that entity.
	Invalidate(ctx context.Context, dimension domain.Dimension, entityID *string)
}

// ReportKey builds the cache key for one report request
func ReportKey(from, to time.Time, dimension domain.Dimension, entityID *string, sort domain.SortOrder) string {
	return fmt.Sprintf("stmt:report:%s:%s:%s:%s:%s",
		dimension, entityTag(entityID), from.Format("2006-01-02"), to.Format("2006-01-02"), sort)
}

type statementCache struct {
	client     *redis.Client
	pendingTTL time.Duration
	settledTTL time.Duration
}

func NewStatementCache(client *redis.Client, pendingTTL, settledTTL time.Duration) StatementCache {
	if client == nil {
		return &noopCache{}
	}
	return &statementCache{
		client:     client,
		pendingTTL: pendingTTL,
		settledTTL: settledTTL,
	}
}

func (c *statementCache) GetReport(ctx context.Context, key string) (*domain.StatementReport, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Statement cache read failed, falling through")
		return nil, false
	}

	var report domain.StatementReport
	if err := json.Unmarshal(data, &report); err != nil {
		logger.GetLogger().WithError(err).Warn("Statement cache payload corrupt, falling through")
		return nil, false
	}

	return &report, true
}

func (c *statementCache) SetReport(ctx context.Context, key string, report *domain.StatementReport) {
	data, err := json.Marshal(report)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to marshal statement report for cache")
		return
	}

	ttl := c.pendingTTL
	if report.AllSettled() {
		ttl = c.settledTTL
	}

	tags := []string{
		tagKey(report.Meta.Dimension, report.Meta.EntityID),
		tagKey(report.Meta.Dimension, nil),
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tag, key)
		// Tag sets outlive their newest member so stale keys can still be
		// swept on invalidation.
		pipe.Expire(ctx, tag, c.settledTTL+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.GetLogger().WithError(err).Warn("Statement cache write failed")
	}
}

func (c *statementCache) Invalidate(ctx context.Context, dimension domain.Dimension, entityID *string) {
	tags := []string{tagKey(dimension, entityID)}
	if entityID != nil {
		tags = append(tags, tagKey(dimension, nil))
	}

	for _, tag := range tags {
		keys, err := c.client.SMembers(ctx, tag).Result()
		if err != nil {
			logger.GetLogger().WithError(err).Warn("Statement cache invalidation scan failed")
			continue
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				logger.GetLogger().WithError(err).Warn("Statement cache invalidation failed")
			}
		}
		if err := c.client.Del(ctx, tag).Err(); err != nil {
			logger.GetLogger().WithError(err).Warn("Statement cache tag cleanup failed")
		}
	}
}

func tagKey(dimension domain.Dimension, entityID *string) string {
	return fmt.Sprintf("stmt:tag:%s:%s", dimension, entityTag(entityID))
}

func entityTag(entityID *string) string {
	if entityID == nil {
		return "ALL"
	}
	return *entityID
}

// noopCache keeps the read path identical when Redis is disabled
type noopCache struct{}

func (*noopCache) GetReport(context.Context, string) (*domain.StatementReport, bool) {
	return nil, false
}
func (*noopCache) SetReport(context.Context, string, *domain.StatementReport) {}
func (*noopCache) Invalidate(context.Context, domain.Dimension, *string)      {}
