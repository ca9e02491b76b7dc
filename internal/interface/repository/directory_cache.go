package repository

import (
	"context"
	"encoding/json"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"
	"local-electrician/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const verifiedListKey = "directory:verified"

// CachedDirectory caches the verified-electrician list in redis for a short
// TTL. Matching tolerates a few seconds of staleness, so every poll does not
// have to hit the directory service. Cache failures fall through to the
// directory.
type CachedDirectory struct {
	inner  repository.ElectricianDirectory
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedDirectory wraps a directory with a redis list cache
func NewCachedDirectory(inner repository.ElectricianDirectory, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedDirectory {
	return &CachedDirectory{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// ListVerifiedWithLocation serves from the cache when fresh
func (c *CachedDirectory) ListVerifiedWithLocation(ctx context.Context) ([]*entity.Electrician, error) {
	cached, err := c.client.Get(ctx, verifiedListKey).Result()
	if err == nil {
		var electricians []*entity.Electrician
		if jerr := json.Unmarshal([]byte(cached), &electricians); jerr == nil {
			return electricians, nil
		}
		c.logger.Warn("Discarding undecodable directory cache entry")
	} else if err != redis.Nil {
		c.logger.Warn("Directory cache read failed", "error", err)
	}

	electricians, err := c.inner.ListVerifiedWithLocation(ctx)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(electricians); jerr == nil {
		if serr := c.client.Set(ctx, verifiedListKey, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn("Directory cache write failed", "error", serr)
		}
	}
	return electricians, nil
}

// GetProfile is a pass-through; profiles are fetched at acceptance time and
// must be current when snapshotted.
func (c *CachedDirectory) GetProfile(ctx context.Context, electricianID string) (*entity.ElectricianProfile, error) {
	return c.inner.GetProfile(ctx, electricianID)
}
