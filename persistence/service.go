// Package persistence is the façade the rest of the system talks to.
// Every operation tries the remote store first and degrades to the
// local mirror on transport failure; no error crosses this boundary for
// single-entity reads and writes. While the remote store is reachable
// it is the source of truth and the mirror is refreshed best-effort;
// while it is not, the mirror takes writes until migration reconciles.
package persistence

import (
	"context"
	"sync"

	"github.com/Nathino/UQRCODE/cache"
	"github.com/Nathino/UQRCODE/config"
	"github.com/Nathino/UQRCODE/localstore"
	"github.com/Nathino/UQRCODE/migration"
	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/remote"

	"github.com/rs/zerolog/log"
)

// Service is constructed once per session and closed on sign-out.
// No package-level state: two services never share mutable data except
// through the stores they were handed.
type Service struct {
	remote   *remote.Store
	local    *localstore.Store
	hot      *cache.Cache // optional, nil-safe
	migrator *migration.Coordinator

	maxScanEvents  int
	migrateOnRead  bool

	mu     sync.Mutex
	unsubs []func()
	closed bool
}

// New wires a session-scoped service over the given stores. hot may be
// nil when the in-process cache is disabled.
func New(r *remote.Store, l *localstore.Store, hot *cache.Cache, cfg config.LocalStoreConfig) *Service {
	maxEvents := cfg.MaxScanEvents
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	return &Service{
		remote:        r,
		local:         l,
		hot:           hot,
		migrator:      migration.New(r, l),
		maxScanEvents: maxEvents,
		migrateOnRead: cfg.MigrateOnAccess,
	}
}

// Close tears the session down: future subscription deliveries stop.
// In-flight remote requests are not aborted.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	s.migrator.Reset()
	log.Info().Msg("Persistence service closed")
}

// ensureMigrated runs the opportunistic once-per-session migration pass
// before the first access touches a user's data.
func (s *Service) ensureMigrated(ctx context.Context, userID string) {
	if s.migrateOnRead {
		s.migrator.EnsureUser(ctx, userID)
	}
}

// Subscribe delivers full ordered QR code snapshots for the user until
// the returned function or Close is called. On transport failure the
// remote client runs its fetch-and-deliver fallback; if even that
// fails, the local mirror is delivered so the subscriber is never left
// without a snapshot.
func (s *Service) Subscribe(ctx context.Context, userID string, onChange remote.SnapshotFunc) func() {
	s.ensureMigrated(ctx, userID)

	unsub := s.remote.Subscribe(ctx, userID, onChange, func(err error) {
		log.Warn().Err(err).Str("userID", userID).Msg("Subscription degraded to local mirror")
		onChange(s.local.QRCodes(userID))
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsub()
		return func() {}
	}
	s.unsubs = append(s.unsubs, unsub)
	s.mu.Unlock()
	return unsub
}

// mirrorQRSnapshot refreshes both cache tiers after a successful remote
// read. Best effort; the remote result is already in hand.
func (s *Service) mirrorQRSnapshot(userID string, codes []model.SavedQRCode) {
	s.local.PutQRCodes(userID, codes)
	s.hot.SetSnapshot(userID, codes)
}

// upsertLocalQRCode replaces the entity with the same id in the user's
// mirrored array, or appends it. Duplicate prevention is by id equality
// here at the call site; the blob store itself stores whatever array it
// is handed.
func (s *Service) upsertLocalQRCode(userID string, qr model.SavedQRCode) {
	codes := s.local.QRCodes(userID)
	replaced := false
	for i := range codes {
		if codes[i].ID == qr.ID {
			codes[i] = qr
			replaced = true
			break
		}
	}
	if !replaced {
		codes = append(codes, qr)
	}
	s.local.PutQRCodes(userID, codes)
	s.hot.Invalidate(userID)
}

// removeLocalQRCode drops the entity from the user's mirrored array.
func (s *Service) removeLocalQRCode(userID, id string) {
	codes := s.local.QRCodes(userID)
	kept := codes[:0]
	for _, c := range codes {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.local.PutQRCodes(userID, kept)
	s.hot.Invalidate(userID)
}
