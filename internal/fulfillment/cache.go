package fulfillment

import (
	"context"
	"time"

	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/redis"
)

const defaultCacheTTL = 5 * time.Minute

// CachedRepository keeps the active point list in redis. Lookups by id fall
// through to the database for points missing from the active list.
type CachedRepository struct {
	next  Repository
	cache redis.JSONCache
	ttl   time.Duration
	logg  *logger.Logger
}

func NewCachedRepository(next Repository, cache redis.JSONCache, ttl time.Duration, logg *logger.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedRepository{next: next, cache: cache, ttl: ttl, logg: logg}
}

func (c *CachedRepository) key() string {
	return c.cache.CacheKey("fulfillment_points", "active")
}

func (c *CachedRepository) ListActive(ctx context.Context) ([]models.FulfillmentPoint, error) {
	var cached []models.FulfillmentPoint
	hit, err := c.cache.GetJSON(ctx, c.key(), &cached)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "fulfillment point cache read failed")
	} else if hit {
		return cached, nil
	}

	points, err := c.next.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, c.key(), points, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "fulfillment point cache write failed")
	}
	return points, nil
}

func (c *CachedRepository) FindByID(ctx context.Context, id int64) (*models.FulfillmentPoint, error) {
	points, err := c.ListActive(ctx)
	if err == nil {
		for i := range points {
			if points[i].ID == id {
				point := points[i]
				return &point, nil
			}
		}
	}
	return c.next.FindByID(ctx, id)
}

// Invalidate drops the cached active list.
func (c *CachedRepository) Invalidate(ctx context.Context) error {
	return c.cache.Del(ctx, c.key())
}

var _ Repository = (*CachedRepository)(nil)
