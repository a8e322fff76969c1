package catalog

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/metrics"
	"github.com/rl1809/asset-vault/internal/port"
)

const lookupTimeout = 2 * time.Second

// CachedResolver looks types up in the repository through an LRU cache.
// Types the repository does not know go to the fallback, then resolve as
// domain.UnknownItem. Repository errors are logged and never cached.
type CachedResolver struct {
	repo     port.ItemRepository
	fallback port.ItemResolver
	cache    *lru.Cache[int32, domain.Item]
	logger   *zap.Logger
}

func NewCachedResolver(repo port.ItemRepository, fallback port.ItemResolver, size int, logger *zap.Logger) (*CachedResolver, error) {
	cache, err := lru.New[int32, domain.Item](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{
		repo:     repo,
		fallback: fallback,
		cache:    cache,
		logger:   logger,
	}, nil
}

func (c *CachedResolver) Item(typeID int32) domain.Item {
	if item, ok := c.cache.Get(typeID); ok {
		metrics.ItemCacheLookups.WithLabelValues("hit").Inc()
		return item
	}
	metrics.ItemCacheLookups.WithLabelValues("miss").Inc()

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	found, err := c.repo.GetItem(ctx, typeID)
	if err != nil {
		c.logger.Warn("item lookup failed", zap.Int32("type_id", typeID), zap.Error(err))
		return c.resolveFallback(typeID)
	}

	item := c.resolveFallback(typeID)
	if found != nil {
		item = *found
	}
	c.cache.Add(typeID, item)
	return item
}

func (c *CachedResolver) resolveFallback(typeID int32) domain.Item {
	if c.fallback == nil {
		return domain.UnknownItem(typeID)
	}
	return c.fallback.Item(typeID)
}

func (c *CachedResolver) Purge() {
	c.cache.Purge()
}
