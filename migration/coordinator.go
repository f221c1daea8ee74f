// Package migration moves cache-only entities into the remote store.
// Each entity migrates at most once: ids already present remotely are
// skipped, so re-running over the same dataset is a no-op. Per entity
// the lifecycle is cache-only, migrating, then remote-authoritative;
// a failed attempt leaves the record cache-only for the next pass.
package migration

import (
	"context"
	"sync"
	"time"

	"github.com/Nathino/UQRCODE/localstore"
	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Coordinator runs opportunistic migration on first per-session access
// for each user.
type Coordinator struct {
	remote *remote.Store
	local  *localstore.Store

	mu   sync.Mutex
	done map[string]bool
}

// New creates a coordinator. One instance lives per session service.
func New(r *remote.Store, l *localstore.Store) *Coordinator {
	return &Coordinator{
		remote: r,
		local:  l,
		done:   make(map[string]bool),
	}
}

// EnsureUser migrates the user's cache-only entities once per session.
// Concurrent callers for the same user serialize; only the first runs
// the pass. A pass that cannot reach the remote store at all is not
// counted, so the next access retries.
func (c *Coordinator) EnsureUser(ctx context.Context, userID string) {
	c.mu.Lock()
	if c.done[userID] {
		c.mu.Unlock()
		return
	}
	// Hold the lock across the pass: migration is rare and losing the
	// at-most-once guarantee would duplicate remote writes.
	defer c.mu.Unlock()

	qrOK := c.migrateQRCodes(ctx, userID)
	docOK := c.migrateDocuments(ctx, userID)
	if qrOK && docOK {
		c.done[userID] = true
	}
}

// migrateQRCodes copies cache-only QR codes into the remote store.
// Records that fail to migrate stay in the local array for the next
// pass; only records that made it remotely (or already were there) are
// dropped from the cache key. Reports whether the pass ran.
func (c *Coordinator) migrateQRCodes(ctx context.Context, userID string) bool {
	cached := c.local.QRCodes(userID)
	if len(cached) == 0 {
		return true
	}

	remoteIDs, err := c.remote.QRCodeIDs(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("userID", userID).Msg("QR migration pass skipped, remote unreachable")
		return false
	}

	var remaining []model.SavedQRCode
	migrated := 0
	for _, qr := range cached {
		if _, exists := remoteIDs[qr.ID]; exists {
			continue // already authoritative remotely
		}

		// Versioned upgrade: records written by older clients get a
		// fresh identifier before they become remote-authoritative.
		if qr.SchemaVersion < model.CurrentSchemaVersion {
			qr.ID = uuid.NewString()
			qr.SchemaVersion = model.CurrentSchemaVersion
			qr.UpdatedAt = time.Now().UTC()
		}

		if err := c.remote.PutQRCode(ctx, qr); err != nil {
			// Independent per record: skip and keep for the next pass.
			log.Warn().Err(err).Str("id", qr.ID).Str("userID", userID).Msg("Failed to migrate QR code")
			remaining = append(remaining, qr)
			continue
		}
		migrated++
	}

	if len(remaining) == 0 {
		c.local.Remove(localstore.QRCodesKey(userID))
	} else {
		c.local.PutQRCodes(userID, remaining)
	}

	if migrated > 0 || len(remaining) > 0 {
		log.Info().
			Str("userID", userID).
			Int("migrated", migrated).
			Int("remaining", len(remaining)).
			Msg("QR code migration pass finished")
	}
	return true
}

// migrateDocuments mirrors migrateQRCodes for document metadata.
func (c *Coordinator) migrateDocuments(ctx context.Context, userID string) bool {
	cached := c.local.Documents(userID)
	if len(cached) == 0 {
		return true
	}

	remoteIDs, err := c.remote.DocumentIDs(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("userID", userID).Msg("Document migration pass skipped, remote unreachable")
		return false
	}

	var remaining []model.DocumentMetadata
	migrated := 0
	for _, doc := range cached {
		if _, exists := remoteIDs[doc.ID]; exists {
			continue
		}
		if _, err := c.remote.SaveDocument(ctx, doc); err != nil {
			log.Warn().Err(err).Str("id", doc.ID).Str("userID", userID).Msg("Failed to migrate document")
			remaining = append(remaining, doc)
			continue
		}
		migrated++
	}

	if len(remaining) == 0 {
		c.local.Remove(localstore.DocumentsKey(userID))
	} else {
		c.local.PutDocuments(userID, remaining)
	}

	if migrated > 0 || len(remaining) > 0 {
		log.Info().
			Str("userID", userID).
			Int("migrated", migrated).
			Int("remaining", len(remaining)).
			Msg("Document migration pass finished")
	}
	return true
}

// Reset forgets per-session state, forcing the next access to run a
// fresh pass. Used on sign-out and by tests.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.done = make(map[string]bool)
	c.mu.Unlock()
}
