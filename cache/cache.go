package cache

import (
	"time"

	"github.com/Nathino/UQRCODE/config"
	"github.com/Nathino/UQRCODE/model"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// Cache is an in-process hot-read cache in front of the remote store.
// It holds per-user QR code snapshots for the configured TTL. Ristretto
// drops entries under memory pressure, so this layer is purely an
// optimization; the offline mirror lives in localstore.
type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New creates a new cache instance with the given configuration
func New(cfg config.CacheConfig) (*Cache, error) {
	// Calculate max cost in bytes (convert MB to bytes)
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize), // Number of keys to track frequency for admission
		MaxCost:     maxCost,                // Maximum cache size in bytes
		BufferItems: 64,                     // Number of keys per Get buffer
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Int("counter_size", cfg.CounterSize).
		Msg("Cache initialized successfully")

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

// Snapshot returns the cached QR code snapshot for a user, if present.
func (c *Cache) Snapshot(userID string) ([]model.SavedQRCode, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	v, found := c.client.Get(snapshotKey(userID))
	if !found {
		return nil, false
	}
	codes, ok := v.([]model.SavedQRCode)
	return codes, ok
}

// SetSnapshot stores a user's QR code snapshot with the configured TTL.
// Cost is the entity count; large snapshots are evicted first.
func (c *Cache) SetSnapshot(userID string, codes []model.SavedQRCode) {
	if c == nil || c.client == nil {
		return
	}
	cost := int64(len(codes))
	if cost == 0 {
		cost = 1
	}
	c.client.SetWithTTL(snapshotKey(userID), codes, cost, c.ttl)
}

// Invalidate drops a user's cached snapshot. Called on every write so a
// read after a write never serves the pre-write snapshot from here.
func (c *Cache) Invalidate(userID string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(snapshotKey(userID))
}

// Close cleanly shuts down the cache
func (c *Cache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
		log.Info().Msg("Cache closed")
	}
}

func snapshotKey(userID string) string { return "snapshot:" + userID }

// MetricsSnapshot is a point-in-time view of cache performance.
type MetricsSnapshot struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  int     `json:"ttl_seconds"`
}

// GetMetricsSnapshot returns current cache metrics as a snapshot
func (c *Cache) GetMetricsSnapshot() MetricsSnapshot {
	if c == nil || c.client == nil || c.client.Metrics == nil {
		return MetricsSnapshot{}
	}

	m := c.client.Metrics
	hits := m.Hits()
	misses := m.Misses()
	total := hits + misses

	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:        hits,
		Misses:      misses,
		KeysAdded:   m.KeysAdded(),
		KeysEvicted: m.KeysEvicted(),
		HitRatio:    hitRatio,
		TTLSeconds:  int(c.ttl.Seconds()),
	}
}
