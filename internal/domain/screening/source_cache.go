package screening

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mentalcheck/screening-admin/internal/platform/cache"
)

// CachedSource serves GetScreenings from a cache.Store for ttl before asking
// the wrapped Source again. Cache failures are logged and fall through to the
// wrapped Source; they never fail a fetch.
type CachedSource struct {
	next   Source
	store  cache.Store
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedSource(next Source, store cache.Store, ttl time.Duration, logger zerolog.Logger) *CachedSource {
	return &CachedSource{next: next, store: store, ttl: ttl, logger: logger}
}

func cacheKey(limit int) string {
	return "screenings:recent:" + strconv.Itoa(limit)
}

func (c *CachedSource) GetScreenings(ctx context.Context, limit int) ([]*Screening, error) {
	key := cacheKey(limit)
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("screening cache read failed")
	} else if ok {
		var items []*Screening
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	items, err := c.next.GetScreenings(ctx, limit)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(items)
	if err == nil {
		err = c.store.Set(ctx, key, raw, c.ttl)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("screening cache write failed")
	}
	return items, nil
}

// Invalidate drops the cached list for limit so the next call reaches the
// wrapped Source.
func (c *CachedSource) Invalidate(ctx context.Context, limit int) error {
	return c.store.Delete(ctx, cacheKey(limit))
}
