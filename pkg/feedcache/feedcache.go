package feedcache

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// FeedCache keeps raw feed bodies in Redis so pollers sharing a Redis server
// only hit the API once per TTL.
type FeedCache struct {
	cache *cache.Cache[string]
}

func New(client *redis.Client, ttl time.Duration) *FeedCache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &FeedCache{
		cache: cache.New[string](redisStore),
	}
}

func Key(path string, values url.Values) string {
	return fmt.Sprintf("bods_feed:%s?%s", path, values.Encode())
}

// GetOrFetch returns the cached body for key, calling fetch and storing its
// result on a miss. Fetch errors are never cached.
func (f *FeedCache) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	cached, err := f.cache.Get(ctx, key)
	if err == nil {
		log.Debug().Str("key", key).Msg("Feed cache hit")
		return []byte(cached), nil
	}

	body, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, string(body)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to store feed in cache")
	}

	return body, nil
}

func (f *FeedCache) Invalidate(ctx context.Context, key string) error {
	return f.cache.Delete(ctx, key)
}
