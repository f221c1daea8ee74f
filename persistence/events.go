package persistence

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/remote"

	"github.com/rs/zerolog/log"
)

// AppendScanEvent records one immutable scan event. Remote log first;
// when that write fails the event lands in a local ring capped at the
// configured size, oldest evicted first. Events are never mutated.
func (s *Service) AppendScanEvent(ctx context.Context, ev model.ScanEvent) Attempt {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	err := s.remote.AppendScanEvent(ctx, ev)
	if err == nil {
		return remoteAttempt()
	}

	log.Warn().Err(err).Str("qrCodeId", ev.QRCodeID).Msg("Remote event append failed, buffering locally")

	ring := s.local.ScanEvents(ev.UserID)
	ring = append([]model.ScanEvent{ev}, ring...) // most recent first
	if len(ring) > s.maxScanEvents {
		ring = ring[:s.maxScanEvents]
	}
	s.local.PutScanEvents(ev.UserID, ring)
	return cacheAttempt(err)
}

// GetScanEvents returns the user's event log, most recent first. The
// local ring only ever holds events that failed the remote append, so
// remote log plus ring is the complete record; on transport failure the
// ring alone is served.
func (s *Service) GetScanEvents(ctx context.Context, userID string) ([]model.ScanEvent, Attempt) {
	ring := s.local.ScanEvents(userID)

	events, err := s.remote.GetScanEvents(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("userID", userID).Msg("Remote event log unavailable, serving local ring")
		return ring, cacheAttempt(err)
	}

	if len(ring) > 0 {
		events = append(events, ring...)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.After(events[j].Timestamp)
		})
	}
	return events, remoteAttempt()
}

// FindByDocumentID resolves which of the user's document-type QR codes
// points at a document. Used to attribute a document access to its QR
// code before counting the scan. Nil when nothing matches.
func (s *Service) FindByDocumentID(ctx context.Context, documentID, userID string) (*model.SavedQRCode, Attempt) {
	qr, err := s.remote.FindByDocumentID(ctx, documentID, userID)
	if err == nil {
		return qr, remoteAttempt()
	}
	if errors.Is(err, remote.ErrNotFound) {
		return nil, remoteAttempt()
	}

	// Mirror search: match the document's cached URL or the raw id.
	needle := documentID
	for _, d := range s.local.Documents(userID) {
		if d.ID == documentID && d.URL != "" {
			needle = d.URL
			break
		}
	}
	for _, c := range s.local.QRCodes(userID) {
		if c.Type != model.TypeDocument {
			continue
		}
		if strings.Contains(c.Data, needle) || strings.Contains(c.Data, documentID) {
			copied := c
			return &copied, cacheAttempt(err)
		}
	}
	return nil, cacheAttempt(err)
}
