// Package scan records QR code accesses and derives scan analytics.
// The counter increment is the gating step: an event is only appended
// once the entity's scanCount was bumped, so the log never runs ahead
// of the counters.
package scan

import (
	"context"
	"sort"
	"time"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/persistence"

	"github.com/rs/zerolog/log"
)

// TopLimit caps the analytics leaderboard.
const TopLimit = 5

// Context carries the optional request metadata recorded with an event.
type Context struct {
	UserAgent  string
	Referrer   string
	IPAddress  string
	DocumentID string
}

// Tracker composes the persistence façade's increment and event-append
// operations.
type Tracker struct {
	svc *persistence.Service
}

// NewTracker wires a tracker over the session's persistence service.
func NewTracker(svc *persistence.Service) *Tracker {
	return &Tracker{svc: svc}
}

// Track counts one scan of a QR code. Reports false when the increment
// failed, in which case no event is recorded. The event append itself
// is best-effort: a failed remote append falls back to the local ring
// and the scan is still reported as tracked.
func (t *Tracker) Track(ctx context.Context, qrCodeID, userID string, sc Context) bool {
	qr, _ := t.svc.IncrementScan(ctx, qrCodeID, userID)
	if qr == nil {
		log.Warn().Str("qrCodeId", qrCodeID).Msg("Scan not tracked, counter increment failed")
		return false
	}

	t.svc.AppendScanEvent(ctx, model.ScanEvent{
		QRCodeID:   qrCodeID,
		UserID:     userID,
		Timestamp:  time.Now().UTC(),
		UserAgent:  sc.UserAgent,
		Referrer:   sc.Referrer,
		IPAddress:  sc.IPAddress,
		DocumentID: sc.DocumentID,
	})
	return true
}

// TrackDocument attributes a document access to the QR code that points
// at it, then tracks the scan. False when no code references the
// document or the increment failed.
func (t *Tracker) TrackDocument(ctx context.Context, documentID, userID string, sc Context) bool {
	qr, _ := t.svc.FindByDocumentID(ctx, documentID, userID)
	if qr == nil {
		log.Warn().Str("documentId", documentID).Msg("Scan not tracked, no QR code references document")
		return false
	}
	sc.DocumentID = documentID
	return t.Track(ctx, qr.ID, userID, sc)
}

// Analytics summarizes a user's scan activity from the full event log
// and the current entity list. Trailing windows are relative to call
// time and never cached.
func (t *Tracker) Analytics(ctx context.Context, userID string) model.ScanAnalytics {
	events, _ := t.svc.GetScanEvents(ctx, userID)
	codes, _ := t.svc.GetUserQRCodes(ctx, userID)

	names := make(map[string]string, len(codes))
	for _, c := range codes {
		names[c.ID] = c.Name
	}

	now := time.Now().UTC()
	counts := make(map[string]int)
	latest := make(map[string]time.Time)
	order := make([]string, 0)

	a := model.ScanAnalytics{TopCodes: []model.TopScanned{}}
	for _, ev := range events {
		a.TotalScans++
		if ev.Timestamp.After(now.Add(-24 * time.Hour)) {
			a.ScansLast24h++
		}
		if ev.Timestamp.After(now.Add(-7 * 24 * time.Hour)) {
			a.ScansLast7d++
		}

		if _, seen := counts[ev.QRCodeID]; !seen {
			order = append(order, ev.QRCodeID)
		}
		counts[ev.QRCodeID]++
		if ev.Timestamp.After(latest[ev.QRCodeID]) {
			latest[ev.QRCodeID] = ev.Timestamp
		}
	}

	a.ScannedCodes = len(counts)
	if a.ScannedCodes > 0 {
		a.MeanScansPerQR = float64(a.TotalScans) / float64(a.ScannedCodes)
	}

	// Leaderboard: event count descending, ties keep log order.
	for _, id := range order {
		a.TopCodes = append(a.TopCodes, model.TopScanned{
			QRCodeID:  id,
			Name:      names[id],
			ScanCount: counts[id],
			LastScan:  latest[id],
		})
	}
	sort.SliceStable(a.TopCodes, func(i, j int) bool {
		return a.TopCodes[i].ScanCount > a.TopCodes[j].ScanCount
	})
	if len(a.TopCodes) > TopLimit {
		a.TopCodes = a.TopCodes[:TopLimit]
	}
	return a
}
