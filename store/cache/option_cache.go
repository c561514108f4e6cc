// Package cachestore memoises LeadTable dropdown option lists behind
// go-repository-cache.
package cachestore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-leadtable/core"
)

const cacheKeyPrefix = "go-leadtable::options::v1"

// DefaultTTL bounds how stale a customer or campaign list may get between
// property renders.
const DefaultTTL = 5 * time.Minute

type OptionCache struct {
	cache repositorycache.CacheService
}

func New(cacheService repositorycache.CacheService) (*OptionCache, error) {
	if cacheService == nil {
		return nil, fmt.Errorf("cachestore: cache service is required")
	}
	return &OptionCache{cache: cacheService}, nil
}

// NewWithTTL builds an in-process cache service with the given TTL.
func NewWithTTL(ttl time.Duration) (*OptionCache, error) {
	config := repositorycache.DefaultConfig()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	config.TTL = ttl
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("cachestore: new cache service: %w", err)
	}
	return New(service)
}

// CacheKey maps an option list key such as "campaigns:<email>:<customer>" to
// go-leadtable::options::v1::campaigns::<email>::<customer>, each segment path
// escaped.
func CacheKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", core.InvalidConfigurationError("cachestore: option key is required", nil)
	}
	segments := strings.Split(key, ":")
	for i, segment := range segments {
		segments[i] = url.PathEscape(strings.TrimSpace(segment))
	}
	return strings.Join(append([]string{cacheKeyPrefix}, segments...), "::"), nil
}

func (c *OptionCache) GetOrLoad(ctx context.Context, key string, load core.OptionLoader) ([]core.SelectOption, error) {
	if c == nil || c.cache == nil {
		return nil, fmt.Errorf("cachestore: cache is not configured")
	}
	if load == nil {
		return nil, fmt.Errorf("cachestore: loader is required")
	}
	cacheKey, err := CacheKey(key)
	if err != nil {
		return nil, err
	}
	options, err := repositorycache.GetOrFetch(ctx, c.cache, cacheKey, func(ctx context.Context) ([]core.SelectOption, error) {
		loaded, loadErr := load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		return cloneOptions(loaded), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneOptions(options), nil
}

func (c *OptionCache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.cache == nil {
		return fmt.Errorf("cachestore: cache is not configured")
	}
	cacheKey, err := CacheKey(key)
	if err != nil {
		return err
	}
	return c.cache.Delete(ctx, cacheKey)
}

func cloneOptions(options []core.SelectOption) []core.SelectOption {
	if options == nil {
		return nil
	}
	return append([]core.SelectOption(nil), options...)
}

var _ core.OptionCache = (*OptionCache)(nil)
