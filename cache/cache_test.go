package cache

import (
	"testing"
	"time"

	"github.com/Nathino/UQRCODE/config"
	"github.com/Nathino/UQRCODE/model"
)

func testConfig(ttlSeconds int) config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  ttlSeconds,
		CounterSize: 1000,
	}
}

func TestSnapshotOperations(t *testing.T) {
	c, err := New(testConfig(2))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	codes := []model.SavedQRCode{
		{ID: "a", Name: "first", Type: model.TypeURL, UserID: "u1"},
		{ID: "b", Name: "second", Type: model.TypeText, UserID: "u1"},
	}

	t.Run("Set_and_Get", func(t *testing.T) {
		c.SetSnapshot("u1", codes)

		// Wait for async admission
		time.Sleep(10 * time.Millisecond)

		got, found := c.Snapshot("u1")
		if !found {
			t.Fatal("Snapshot not found in cache")
		}
		if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
			t.Errorf("Unexpected snapshot contents: %+v", got)
		}
	})

	t.Run("Get_NonExistent", func(t *testing.T) {
		if _, found := c.Snapshot("nobody"); found {
			t.Error("Expected snapshot not to be found")
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		c.SetSnapshot("u2", codes)
		time.Sleep(10 * time.Millisecond)

		if _, found := c.Snapshot("u2"); !found {
			t.Fatal("Snapshot should exist before invalidation")
		}

		c.Invalidate("u2")
		time.Sleep(10 * time.Millisecond)

		if _, found := c.Snapshot("u2"); found {
			t.Error("Snapshot should not exist after invalidation")
		}
	})
}

func TestSnapshotTTL(t *testing.T) {
	c, err := New(testConfig(1))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	c.SetSnapshot("u1", []model.SavedQRCode{{ID: "a", UserID: "u1"}})
	time.Sleep(10 * time.Millisecond)

	if _, found := c.Snapshot("u1"); !found {
		t.Fatal("Snapshot should exist within TTL")
	}

	time.Sleep(1100 * time.Millisecond)

	if _, found := c.Snapshot("u1"); found {
		t.Error("Snapshot should have expired")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache

	if _, found := c.Snapshot("u1"); found {
		t.Error("Nil cache should never report a hit")
	}
	c.SetSnapshot("u1", nil) // must not panic
	c.Invalidate("u1")
	c.Close()

	m := c.GetMetricsSnapshot()
	if m.Hits != 0 || m.Misses != 0 {
		t.Errorf("Nil cache metrics should be zero, got %+v", m)
	}
}
