package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "showroom:catalog"

// sharedLoadTimeout bounds a load that outlives the caller that started it.
const sharedLoadTimeout = 30 * time.Second

// CatalogLoader produces a catalog snapshot.
type CatalogLoader interface {
	Load(ctx context.Context) ([]Record, error)
}

// Store keeps a catalog snapshot for a bounded time.
type Store interface {
	Get(ctx context.Context, key string) ([]Record, bool, error)
	Set(ctx context.Context, key string, records []Record, ttl time.Duration) error
}

// CachedLoader serves snapshots from a Store until they expire. It is purely a latency
// optimisation: a store failure falls through to the wrapped loader.
type CachedLoader struct {
	loader CatalogLoader
	store  Store
	ttl    time.Duration
	group  singleflight.Group
}

func NewCachedLoader(loader CatalogLoader, store Store, ttl time.Duration) *CachedLoader {
	return &CachedLoader{
		loader: loader,
		store:  store,
		ttl:    ttl,
	}
}

func (c *CachedLoader) Load(ctx context.Context) ([]Record, error) {
	return c.load(ctx, false)
}

// Refresh bypasses the cached snapshot and replaces it with a fresh load.
func (c *CachedLoader) Refresh(ctx context.Context) ([]Record, error) {
	return c.load(ctx, true)
}

func (c *CachedLoader) load(ctx context.Context, refresh bool) ([]Record, error) {
	if !refresh {
		records, ok, err := c.store.Get(ctx, cacheKey)
		if err != nil {
			slog.Warn("CATALOG: Cache read failed; loading from source", "error", err)
		}
		if ok {
			slog.Debug("CATALOG: Cache hit", "records", len(records))
			return cloneRecords(records), nil
		}
	}

	// The load runs detached from whichever caller started it; each caller waits on its own ctx.
	ch := c.group.DoChan(cacheKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		records, err := c.loader.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(loadCtx, cacheKey, records, c.ttl); err != nil {
			slog.Warn("CATALOG: Cache write failed", "error", err)
		}
		return records, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		slog.Debug("CATALOG: Shared in-flight load")
	}
	return cloneRecords(res.Val.([]Record)), nil
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

type memoryEntry struct {
	records []Record
	expires time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.records, true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, records []Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		records: cloneRecords(records),
		expires: m.now().Add(ttl),
	}
	return nil
}

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStore shares snapshots between processes. Snapshots are stored as JSON.
type RedisStore struct {
	rdb redisClient
}

func NewRedisStore(rdb redisClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]Record, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []Record
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, records []Record, ttl time.Duration) error {
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, b, ttl).Err()
}
