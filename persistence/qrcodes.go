package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/remote"
	"github.com/Nathino/UQRCODE/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SaveQRCode persists a new QR code. Remote first; when the remote
// store is unreachable the entity is created cache-only and becomes a
// migration candidate. The returned entity always carries a generated
// id, equal created/updated timestamps and zeroed counters.
func (s *Service) SaveQRCode(ctx context.Context, draft model.QRCodeDraft) (*model.SavedQRCode, Attempt) {
	s.ensureMigrated(ctx, draft.UserID)

	qr, err := s.remote.SaveQRCode(ctx, draft)
	if err == nil {
		s.upsertLocalQRCode(qr.UserID, *qr)
		return qr, remoteAttempt()
	}

	log.Warn().Err(err).Str("userID", draft.UserID).Msg("Remote save failed, writing cache-only")

	now := time.Now().UTC()
	local := model.SavedQRCode{
		ID:            uuid.NewString(),
		Name:          draft.Name,
		Type:          draft.Type,
		Data:          draft.Data,
		Render:        draft.Render,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
		UserID:        draft.UserID,
		Tags:          draft.Tags,
		Description:   draft.Description,
		SchemaVersion: model.CurrentSchemaVersion,
	}
	s.upsertLocalQRCode(local.UserID, local)
	return &local, cacheAttempt(err)
}

// GetQRCode resolves one entity. Remote first, then the local mirror;
// nil (not an error) when neither tier has it.
func (s *Service) GetQRCode(ctx context.Context, id, userID string) (*model.SavedQRCode, Attempt) {
	s.ensureMigrated(ctx, userID)

	qr, err := s.remote.GetQRCode(ctx, id)
	if err == nil {
		return qr, remoteAttempt()
	}
	if errors.Is(err, remote.ErrNotFound) {
		// Authoritative miss; the mirror may still hold a cache-only
		// record that has not migrated yet.
		for _, c := range s.local.QRCodes(userID) {
			if c.ID == id {
				copied := c
				return &copied, remoteAttempt()
			}
		}
		return nil, remoteAttempt()
	}

	for _, c := range s.local.QRCodes(userID) {
		if c.ID == id {
			copied := c
			return &copied, cacheAttempt(err)
		}
	}
	return nil, cacheAttempt(err)
}

// GetUserQRCodes lists the user's entities ordered by UpdatedAt
// descending. Never errors: transport failure degrades to the mirror.
func (s *Service) GetUserQRCodes(ctx context.Context, userID string) ([]model.SavedQRCode, Attempt) {
	s.ensureMigrated(ctx, userID)

	if snapshot, ok := s.hot.Snapshot(userID); ok {
		return snapshot, remoteAttempt()
	}

	codes, err := s.remote.GetUserQRCodes(ctx, userID)
	if err == nil {
		s.mirrorQRSnapshot(userID, codes)
		return codes, remoteAttempt()
	}

	log.Warn().Err(err).Str("userID", userID).Msg("Remote list failed, serving local mirror")
	return sortByUpdatedDesc(s.local.QRCodes(userID)), cacheAttempt(err)
}

// UpdateQRCode applies a partial update. Returns nil when the id is
// absent from both tiers. UpdatedAt is restamped on every mutation.
func (s *Service) UpdateQRCode(ctx context.Context, id, userID string, upd model.QRCodeUpdate) (*model.SavedQRCode, Attempt) {
	s.ensureMigrated(ctx, userID)

	qr, err := s.remote.UpdateQRCode(ctx, id, upd)
	if err == nil {
		s.upsertLocalQRCode(qr.UserID, *qr)
		return qr, remoteAttempt()
	}
	if errors.Is(err, remote.ErrNotFound) {
		if local := s.updateLocalQRCode(userID, id, upd); local != nil {
			return local, remoteAttempt()
		}
		return nil, remoteAttempt()
	}

	log.Warn().Err(err).Str("id", id).Msg("Remote update failed, updating local mirror")
	if local := s.updateLocalQRCode(userID, id, upd); local != nil {
		return local, cacheAttempt(err)
	}
	return nil, cacheAttempt(err)
}

func (s *Service) updateLocalQRCode(userID, id string, upd model.QRCodeUpdate) *model.SavedQRCode {
	codes := s.local.QRCodes(userID)
	for i := range codes {
		if codes[i].ID != id {
			continue
		}
		upd.Apply(&codes[i])
		codes[i].UpdatedAt = time.Now().UTC()
		s.local.PutQRCodes(userID, codes)
		s.hot.Invalidate(userID)
		copied := codes[i]
		return &copied
	}
	return nil
}

// DeleteQRCode hard-deletes from whichever tiers hold the entity.
// Deleting an absent id succeeds: the desired end state already holds.
func (s *Service) DeleteQRCode(ctx context.Context, id, userID string) bool {
	s.ensureMigrated(ctx, userID)

	err := s.remote.DeleteQRCode(ctx, id)
	switch {
	case err == nil, errors.Is(err, remote.ErrNotFound):
		// fall through to purge the mirror
	default:
		log.Warn().Err(err).Str("id", id).Msg("Remote delete failed, removing from local mirror only")
	}
	s.removeLocalQRCode(userID, id)
	return true
}

// ToggleStatus flips isActive. Returns nil when the id is unknown.
func (s *Service) ToggleStatus(ctx context.Context, id, userID string) (*model.SavedQRCode, Attempt) {
	current, attempt := s.GetQRCode(ctx, id, userID)
	if current == nil {
		return nil, attempt
	}
	next := !current.IsActive
	return s.UpdateQRCode(ctx, id, userID, model.QRCodeUpdate{IsActive: &next})
}

// IncrementDownload adds 1 to downloadCount. Degrades to the mirror on
// transport failure so offline downloads still count.
func (s *Service) IncrementDownload(ctx context.Context, id, userID string) (*model.SavedQRCode, Attempt) {
	return s.increment(ctx, id, userID, remote.FieldDownloadCount)
}

// IncrementScan adds 1 to scanCount and stamps lastScanned.
func (s *Service) IncrementScan(ctx context.Context, id, userID string) (*model.SavedQRCode, Attempt) {
	return s.increment(ctx, id, userID, remote.FieldScanCount)
}

func (s *Service) increment(ctx context.Context, id, userID, field string) (*model.SavedQRCode, Attempt) {
	s.ensureMigrated(ctx, userID)

	qr, err := s.remote.IncrementCounter(ctx, id, field)
	if err == nil {
		s.upsertLocalQRCode(qr.UserID, *qr)
		return qr, remoteAttempt()
	}
	if errors.Is(err, remote.ErrNotFound) {
		if local := s.incrementLocal(userID, id, field); local != nil {
			return local, remoteAttempt()
		}
		return nil, remoteAttempt()
	}

	log.Warn().Err(err).Str("id", id).Str("field", field).Msg("Remote increment failed, counting locally")
	if local := s.incrementLocal(userID, id, field); local != nil {
		return local, cacheAttempt(err)
	}
	return nil, cacheAttempt(err)
}

func (s *Service) incrementLocal(userID, id, field string) *model.SavedQRCode {
	codes := s.local.QRCodes(userID)
	for i := range codes {
		if codes[i].ID != id {
			continue
		}
		now := time.Now().UTC()
		switch field {
		case remote.FieldDownloadCount:
			codes[i].DownloadCount++
			codes[i].LastAccessed = &now
		case remote.FieldScanCount:
			codes[i].ScanCount++
			codes[i].LastScanned = &now
			codes[i].LastAccessed = &now
		default:
			return nil
		}
		codes[i].UpdatedAt = now
		s.local.PutQRCodes(userID, codes)
		s.hot.Invalidate(userID)
		copied := codes[i]
		return &copied
	}
	return nil
}

// GetStats computes summary statistics over the freshest snapshot
// either tier can provide.
func (s *Service) GetStats(ctx context.Context, userID string) (model.QRCodeStats, Attempt) {
	codes, attempt := s.GetUserQRCodes(ctx, userID)
	return stats.Compute(codes), attempt
}

func sortByUpdatedDesc(codes []model.SavedQRCode) []model.SavedQRCode {
	return stats.Recent(codes, len(codes))
}
