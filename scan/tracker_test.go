package scan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Nathino/UQRCODE/config"
	"github.com/Nathino/UQRCODE/localstore"
	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/persistence"
	"github.com/Nathino/UQRCODE/remote"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupTracker(t *testing.T, maxEvents int) (*Tracker, *persistence.Service, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := remote.NewStore(rdb, config.RedisConfig{OperationTimeout: 1})
	local := localstore.New(config.LocalStoreConfig{})
	svc := persistence.New(store, local, nil, config.LocalStoreConfig{MaxScanEvents: maxEvents})
	t.Cleanup(svc.Close)

	return NewTracker(svc), svc, mr
}

func saveCode(t *testing.T, svc *persistence.Service, name string) *model.SavedQRCode {
	t.Helper()
	qr, _ := svc.SaveQRCode(context.Background(), model.QRCodeDraft{
		Name:   name,
		Type:   model.TypeText,
		Data:   "payload for " + name,
		UserID: "u1",
	})
	if qr == nil {
		t.Fatalf("Failed to save %q", name)
	}
	return qr
}

func TestTrackCountsEveryScan(t *testing.T) {
	tracker, svc, _ := setupTracker(t, 1000)
	ctx := context.Background()
	qr := saveCode(t, svc, "poster")

	const n = 3
	for i := 0; i < n; i++ {
		if !tracker.Track(ctx, qr.ID, "u1", Context{UserAgent: "test-agent"}) {
			t.Fatalf("Track %d reported failure", i)
		}
	}

	got, _ := svc.GetQRCode(ctx, qr.ID, "u1")
	if got.ScanCount != n {
		t.Errorf("ScanCount = %d, want %d", got.ScanCount, n)
	}
	if got.LastScanned == nil {
		t.Error("LastScanned not stamped")
	}

	events, _ := svc.GetScanEvents(ctx, "u1")
	if len(events) != n {
		t.Errorf("Event log = %d entries, want %d", len(events), n)
	}
}

func TestTrackUnknownCodeRecordsNothing(t *testing.T) {
	tracker, svc, _ := setupTracker(t, 1000)
	ctx := context.Background()

	if tracker.Track(ctx, "no-such-code", "u1", Context{}) {
		t.Error("Track succeeded for an unknown code")
	}
	if events, _ := svc.GetScanEvents(ctx, "u1"); len(events) != 0 {
		t.Errorf("Event log = %d entries, want none", len(events))
	}
}

func TestTrackRemoteDownUsesLocalRing(t *testing.T) {
	const ringCap = 5
	tracker, svc, mr := setupTracker(t, ringCap)
	ctx := context.Background()
	qr := saveCode(t, svc, "offline poster")

	mr.Close()

	const n = 8
	for i := 0; i < n; i++ {
		if !tracker.Track(ctx, qr.ID, "u1", Context{Referrer: fmt.Sprintf("ref-%d", i)}) {
			t.Fatalf("Track %d failed while mirror holds the entity", i)
		}
	}

	// Counter kept counting on the mirrored entity.
	got, _ := svc.GetQRCode(ctx, qr.ID, "u1")
	if got.ScanCount != n {
		t.Errorf("ScanCount = %d, want %d", got.ScanCount, n)
	}

	// The ring keeps only the newest events, oldest evicted first.
	events, attempt := svc.GetScanEvents(ctx, "u1")
	if !attempt.Degraded() {
		t.Error("Expected event read to degrade to the ring")
	}
	if len(events) != ringCap {
		t.Fatalf("Ring = %d entries, want %d", len(events), ringCap)
	}
	if events[0].Referrer != fmt.Sprintf("ref-%d", n-1) {
		t.Errorf("Newest event first: got %q", events[0].Referrer)
	}
	if events[ringCap-1].Referrer != fmt.Sprintf("ref-%d", n-ringCap) {
		t.Errorf("Oldest surviving event = %q", events[ringCap-1].Referrer)
	}
}

func TestTrackDocumentAttributesScan(t *testing.T) {
	tracker, svc, _ := setupTracker(t, 1000)
	ctx := context.Background()

	doc, _ := svc.SaveDocument(ctx, model.DocumentMetadata{
		Filename: "menu.pdf",
		URL:      "https://cdn.example.com/menu.pdf",
		UserID:   "u1",
	})
	qr, _ := svc.SaveQRCode(ctx, model.QRCodeDraft{
		Name:   "menu",
		Type:   model.TypeDocument,
		Data:   doc.URL,
		UserID: "u1",
	})

	if !tracker.TrackDocument(ctx, doc.ID, "u1", Context{}) {
		t.Fatal("TrackDocument failed")
	}

	got, _ := svc.GetQRCode(ctx, qr.ID, "u1")
	if got.ScanCount != 1 {
		t.Errorf("ScanCount = %d, want 1", got.ScanCount)
	}
	events, _ := svc.GetScanEvents(ctx, "u1")
	if len(events) != 1 || events[0].DocumentID != doc.ID {
		t.Errorf("Events = %+v, want one attributed to %s", events, doc.ID)
	}
}

func TestTrackDocumentNoReferencingCode(t *testing.T) {
	tracker, svc, _ := setupTracker(t, 1000)
	ctx := context.Background()

	doc, _ := svc.SaveDocument(ctx, model.DocumentMetadata{
		Filename: "orphan.pdf",
		URL:      "https://cdn.example.com/orphan.pdf",
		UserID:   "u1",
	})

	if tracker.TrackDocument(ctx, doc.ID, "u1", Context{}) {
		t.Error("TrackDocument succeeded without a referencing code")
	}
}

func TestAnalytics(t *testing.T) {
	tracker, svc, _ := setupTracker(t, 1000)
	ctx := context.Background()

	a := saveCode(t, svc, "front door")
	b := saveCode(t, svc, "back door")

	now := time.Now().UTC()
	// 3 recent scans of a, 1 recent of b, and 1 of b from 8 days ago.
	for i := 0; i < 3; i++ {
		svc.AppendScanEvent(ctx, model.ScanEvent{QRCodeID: a.ID, UserID: "u1", Timestamp: now.Add(-time.Duration(i) * time.Minute)})
	}
	svc.AppendScanEvent(ctx, model.ScanEvent{QRCodeID: b.ID, UserID: "u1", Timestamp: now.Add(-time.Hour)})
	svc.AppendScanEvent(ctx, model.ScanEvent{QRCodeID: b.ID, UserID: "u1", Timestamp: now.Add(-8 * 24 * time.Hour)})

	got := tracker.Analytics(ctx, "u1")

	if got.TotalScans != 5 {
		t.Errorf("TotalScans = %d, want 5", got.TotalScans)
	}
	if got.ScannedCodes != 2 {
		t.Errorf("ScannedCodes = %d, want 2", got.ScannedCodes)
	}
	if got.MeanScansPerQR != 2.5 {
		t.Errorf("MeanScansPerQR = %v, want 2.5", got.MeanScansPerQR)
	}
	if got.ScansLast24h != 4 {
		t.Errorf("ScansLast24h = %d, want 4", got.ScansLast24h)
	}
	if got.ScansLast7d != 4 {
		t.Errorf("ScansLast7d = %d, want 4", got.ScansLast7d)
	}
	if len(got.TopCodes) != 2 {
		t.Fatalf("TopCodes = %d entries, want 2", len(got.TopCodes))
	}
	if got.TopCodes[0].QRCodeID != a.ID || got.TopCodes[0].ScanCount != 3 {
		t.Errorf("Leaderboard head = %+v, want %s with 3 scans", got.TopCodes[0], a.ID)
	}
	if got.TopCodes[0].Name != "front door" {
		t.Errorf("Leaderboard name = %q", got.TopCodes[0].Name)
	}
}

func TestAnalyticsLeaderboardCapped(t *testing.T) {
	tracker, svc, _ := setupTracker(t, 1000)
	ctx := context.Background()

	for i := 0; i < TopLimit+2; i++ {
		qr := saveCode(t, svc, fmt.Sprintf("code-%d", i))
		// i+1 scans each so every code has a distinct count.
		for j := 0; j <= i; j++ {
			svc.AppendScanEvent(ctx, model.ScanEvent{QRCodeID: qr.ID, UserID: "u1", Timestamp: time.Now().UTC()})
		}
	}

	got := tracker.Analytics(ctx, "u1")
	if len(got.TopCodes) != TopLimit {
		t.Fatalf("TopCodes = %d entries, want %d", len(got.TopCodes), TopLimit)
	}
	if got.TopCodes[0].ScanCount != TopLimit+2 {
		t.Errorf("Head scan count = %d, want %d", got.TopCodes[0].ScanCount, TopLimit+2)
	}
}

func TestAnalyticsEmpty(t *testing.T) {
	tracker, _, _ := setupTracker(t, 1000)

	got := tracker.Analytics(context.Background(), "u1")
	if got.TotalScans != 0 || got.ScannedCodes != 0 || got.MeanScansPerQR != 0 {
		t.Errorf("Empty analytics = %+v", got)
	}
	if got.TopCodes == nil || len(got.TopCodes) != 0 {
		t.Errorf("TopCodes = %v, want empty non-nil slice", got.TopCodes)
	}
}
