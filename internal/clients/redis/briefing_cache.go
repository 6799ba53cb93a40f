package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
	"github.com/fieldmate/fieldmate-backend/internal/utils"
)

// BriefingCache keeps rendered briefing texts in Redis for a short TTL.
// Construction fails without REDIS_ADDR; callers treat the cache as
// optional and pass nil through.
type BriefingCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewBriefingCache(log *logger.Logger) (*BriefingCache, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := utils.GetEnvAsInt("BRIEFING_CACHE_TTL_SECONDS", 300, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &BriefingCache{
		log: log.With("service", "BriefingCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func cacheKey(userID uuid.UUID) string {
	return "briefing:" + userID.String()
}

func (c *BriefingCache) Get(ctx context.Context, userID uuid.UUID) (string, bool) {
	val, err := c.rdb.Get(ctx, cacheKey(userID)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("briefing cache read failed", "user_id", userID, "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *BriefingCache) Set(ctx context.Context, userID uuid.UUID, text string) {
	if err := c.rdb.Set(ctx, cacheKey(userID), text, c.ttl).Err(); err != nil {
		c.log.Debug("briefing cache write failed", "user_id", userID, "error", err)
	}
}

func (c *BriefingCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		c.log.Debug("briefing cache invalidate failed", "user_id", userID, "error", err)
	}
}
