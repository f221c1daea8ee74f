package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/remote"
	"github.com/Nathino/UQRCODE/stats"

	"github.com/rs/zerolog/log"
)

// GetProfile fetches a user profile; nil when absent. Profiles live
// only in the remote store: there is no meaningful offline mirror for
// identity data, so a transport failure returns nil rather than stale
// identity fields.
func (s *Service) GetProfile(ctx context.Context, uid string) *model.UserProfile {
	p, err := s.remote.GetProfile(ctx, uid)
	if err != nil {
		if !errors.Is(err, remote.ErrNotFound) {
			log.Warn().Err(err).Str("uid", uid).Msg("Profile fetch failed")
		}
		return nil
	}
	return p
}

// SaveProfile upserts a profile, preserving CreatedAt across updates.
func (s *Service) SaveProfile(ctx context.Context, p model.UserProfile) bool {
	if existing, err := s.remote.GetProfile(ctx, p.UID); err == nil {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.remote.PutProfile(ctx, p); err != nil {
		log.Warn().Err(err).Str("uid", p.UID).Msg("Profile save failed")
		return false
	}
	return true
}

// RefreshProfileStats recomputes the denormalized counters on a profile
// from the current QR code snapshot. The saved codes remain the source
// of truth; the profile is a convenience mirror.
func (s *Service) RefreshProfileStats(ctx context.Context, uid string) *model.UserProfile {
	p, err := s.remote.GetProfile(ctx, uid)
	if err != nil {
		if !errors.Is(err, remote.ErrNotFound) {
			log.Warn().Err(err).Str("uid", uid).Msg("Profile refresh skipped")
		}
		return nil
	}

	codes, _ := s.GetUserQRCodes(ctx, uid)
	summary := stats.Compute(codes)
	p.TotalCodes = summary.TotalCodes
	p.TotalDownloads = summary.TotalDownloads
	p.TotalScans = summary.TotalScans

	if err := s.remote.PutProfile(ctx, *p); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Profile refresh write failed")
		return nil
	}
	return p
}
