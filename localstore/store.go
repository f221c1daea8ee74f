// Package localstore is the client-resident blob store acting as the
// offline mirror of the remote store. It holds one JSON array per user
// per entity kind under a flat string key, with whole-collection
// snapshot-replace writes. It never outranks the remote store: once an
// entity exists remotely, the mirror is derived data.
package localstore

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/Nathino/UQRCODE/config"

	"github.com/rs/zerolog/log"
)

// PublicRegistryKey is the single global, unnamespaced key holding the
// shared public-document registry. Deliberately not per-user so an
// unauthenticated QR scan on the same client can resolve a document.
const PublicRegistryKey = "public_documents_registry"

// QRCodesKey returns the per-user key for the QR code mirror.
func QRCodesKey(userID string) string { return "qr_codes_" + userID }

// DocumentsKey returns the per-user key for the document mirror.
func DocumentsKey(userID string) string { return "documents_" + userID }

// ScanEventsKey returns the per-user key for the local scan event ring.
func ScanEventsKey(userID string) string { return "qr_scan_events_" + userID }

// Store is a synchronous key/value blob store. All access is serialized
// by a single mutex; values are opaque strings (JSON arrays by
// convention). When a path is configured the contents survive restarts.
type Store struct {
	mu   sync.Mutex
	data map[string]string
	path string
}

// New creates a store, loading previously persisted contents when a
// file path is configured and the file exists. A corrupt or missing
// file starts the store empty rather than failing: the mirror is
// reconstructible from the remote store.
func New(cfg config.LocalStoreConfig) *Store {
	s := &Store{
		data: make(map[string]string),
		path: cfg.Path,
	}
	if cfg.Path == "" {
		return s
	}

	raw, err := os.ReadFile(cfg.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", cfg.Path).Msg("Failed to read local store file")
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.Warn().Err(err).Str("path", cfg.Path).Msg("Discarding corrupt local store file")
		s.data = make(map[string]string)
	}
	return s
}

// Get returns the blob stored under key, if any.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set replaces the blob stored under key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.flushLocked()
}

// Remove deletes the key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.flushLocked()
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// flushLocked persists the map to disk, best effort. Callers hold mu.
func (s *Store) flushLocked() {
	if s.path == "" {
		return
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal local store")
		return
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Failed to persist local store")
	}
}
