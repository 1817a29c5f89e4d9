// Package cache provides a TTL response cache over the durable store. It
// serves stale-tolerant callers when a live fetch fails and avoids
// redundant remote calls. Expiry is checked lazily on read; there is no
// background sweep.
package cache

import (
	"encoding/json"
	"time"

	"github.com/fraudops/fieldkit/core/logger"
	"github.com/fraudops/fieldkit/core/storage"
)

type entry struct {
	Data      json.RawMessage `json:"data"`
	WrittenAt time.Time       `json:"written_at"`
	TTLMillis int64           `json:"ttl_ms"`
}

// Cache is a namespaced TTL cache. Storage errors never propagate: a
// failing backend makes the cache behave as if the key were absent.
type Cache struct {
	store     storage.Store
	namespace string
	log       logger.Logger
	now       func() time.Time
}

// New creates a Cache writing under the given namespace prefix.
func New(store storage.Store, namespace string, log logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop{}
	}
	return &Cache{store: store, namespace: namespace, log: log, now: time.Now}
}

func (c *Cache) key(k string) string { return c.namespace + ":" + k }

// Set stores data under key with the given time-to-live.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) {
	e := entry{Data: data, WrittenAt: c.now(), TTLMillis: ttl.Milliseconds()}
	raw, err := json.Marshal(e)
	if err != nil {
		c.log.Errorf("cache marshal %s: %v", key, err)
		return
	}
	if err := c.store.Save(c.key(key), raw); err != nil {
		c.log.Warnf("cache save %s: %v", key, err)
	}
}

// Get returns the cached payload, or nil on a miss. An expired entry is
// removed on first observation.
func (c *Cache) Get(key string) []byte {
	data, _, ok := c.GetWithMetadata(key)
	if !ok {
		return nil
	}
	return data
}

// GetWithMetadata additionally reports the entry's age, for callers that
// display stale-data banners.
func (c *Cache) GetWithMetadata(key string) (data []byte, age time.Duration, ok bool) {
	raw, err := c.store.Load(c.key(key))
	if err != nil {
		c.log.Warnf("cache load %s: %v", key, err)
		return nil, 0, false
	}
	if raw == nil {
		return nil, 0, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warnf("cache decode %s: %v", key, err)
		c.Invalidate(key)
		return nil, 0, false
	}
	age = c.now().Sub(e.WrittenAt)
	if age > time.Duration(e.TTLMillis)*time.Millisecond {
		c.Invalidate(key)
		return nil, 0, false
	}
	return e.Data, age, true
}

// Invalidate removes one key.
func (c *Cache) Invalidate(key string) {
	if err := c.store.Delete(c.key(key)); err != nil {
		c.log.Warnf("cache delete %s: %v", key, err)
	}
}

// Clear removes every key in the namespace. Used on logout or forced
// refresh.
func (c *Cache) Clear() {
	keys, err := c.store.Keys(c.namespace + ":")
	if err != nil {
		c.log.Warnf("cache clear: %v", err)
		return
	}
	for _, k := range keys {
		if err := c.store.Delete(k); err != nil {
			c.log.Warnf("cache clear %s: %v", k, err)
		}
	}
}
