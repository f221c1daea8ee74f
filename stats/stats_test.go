package stats

import (
	"testing"
	"time"

	"github.com/Nathino/UQRCODE/model"
)

func TestComputeEmpty(t *testing.T) {
	for _, tc := range []struct {
		name  string
		codes []model.SavedQRCode
	}{
		{"Nil slice", nil},
		{"Empty slice", []model.SavedQRCode{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := Compute(tc.codes)
			if s.TotalCodes != 0 || s.ActiveCodes != 0 || s.InactiveCodes != 0 {
				t.Errorf("Expected zero counts, got %+v", s)
			}
			if s.TotalDownloads != 0 || s.TotalScans != 0 {
				t.Errorf("Expected zero sums, got %+v", s)
			}
			if s.MostUsedType != model.TypeURL {
				t.Errorf("Expected default type url, got %s", s.MostUsedType)
			}
			if s.MostScannedCode != nil {
				t.Errorf("Expected nil mostScannedCode, got %+v", s.MostScannedCode)
			}
			if s.RecentCodes == nil || len(s.RecentCodes) != 0 {
				t.Errorf("Expected empty recentCodes, got %+v", s.RecentCodes)
			}
		})
	}
}

func TestComputeCountsAndSums(t *testing.T) {
	codes := []model.SavedQRCode{
		{ID: "1", Type: model.TypeURL, IsActive: true, DownloadCount: 3, ScanCount: 7},
		{ID: "2", Type: model.TypeURL, IsActive: false, DownloadCount: 1, ScanCount: 2},
		{ID: "3", Type: model.TypeEmail, IsActive: true, DownloadCount: 0, ScanCount: 5},
	}

	s := Compute(codes)

	if s.TotalCodes != 3 {
		t.Errorf("TotalCodes = %d, want 3", s.TotalCodes)
	}
	if s.ActiveCodes != 2 || s.InactiveCodes != 1 {
		t.Errorf("Active/Inactive = %d/%d, want 2/1", s.ActiveCodes, s.InactiveCodes)
	}
	if s.TotalDownloads != 4 {
		t.Errorf("TotalDownloads = %d, want 4", s.TotalDownloads)
	}
	if s.TotalScans != 14 {
		t.Errorf("TotalScans = %d, want 14", s.TotalScans)
	}
	if s.MostScannedCode == nil || s.MostScannedCode.ID != "1" {
		t.Errorf("MostScannedCode = %+v, want id 1", s.MostScannedCode)
	}
}

func TestComputeMostUsedType(t *testing.T) {
	tests := []struct {
		name  string
		types []model.QRType
		want  model.QRType
	}{
		{
			name:  "Majority wins",
			types: []model.QRType{model.TypeURL, model.TypeEmail, model.TypeEmail, model.TypeURL, model.TypeEmail},
			want:  model.TypeEmail,
		},
		{
			name:  "Tie goes to first encountered",
			types: []model.QRType{model.TypeVCard, model.TypeWiFi, model.TypeWiFi, model.TypeVCard},
			want:  model.TypeVCard,
		},
		{
			name:  "Single entry",
			types: []model.QRType{model.TypeCrypto},
			want:  model.TypeCrypto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make([]model.SavedQRCode, len(tt.types))
			for i, typ := range tt.types {
				codes[i] = model.SavedQRCode{ID: string(rune('a' + i)), Type: typ}
			}
			if got := Compute(codes).MostUsedType; got != tt.want {
				t.Errorf("MostUsedType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeMostScannedTie(t *testing.T) {
	codes := []model.SavedQRCode{
		{ID: "first", ScanCount: 9, Type: model.TypeURL},
		{ID: "second", ScanCount: 9, Type: model.TypeURL},
	}
	s := Compute(codes)
	if s.MostScannedCode == nil || s.MostScannedCode.ID != "first" {
		t.Errorf("Tie should go to first encountered, got %+v", s.MostScannedCode)
	}
}

func TestRecent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := make([]model.SavedQRCode, 8)
	for i := range codes {
		codes[i] = model.SavedQRCode{
			ID:        string(rune('a' + i)),
			Type:      model.TypeURL,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	recent := Compute(codes).RecentCodes
	if len(recent) != RecentLimit {
		t.Fatalf("len(RecentCodes) = %d, want %d", len(recent), RecentLimit)
	}
	// Most recently updated first: h, g, f, e, d
	want := []string{"h", "g", "f", "e", "d"}
	for i, id := range want {
		if recent[i].ID != id {
			t.Errorf("RecentCodes[%d].ID = %s, want %s", i, recent[i].ID, id)
		}
	}
}

func TestRecentStableOnEqualTimestamps(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := []model.SavedQRCode{
		{ID: "a", UpdatedAt: ts},
		{ID: "b", UpdatedAt: ts},
		{ID: "c", UpdatedAt: ts},
	}
	recent := Recent(codes, 5)
	for i, id := range []string{"a", "b", "c"} {
		if recent[i].ID != id {
			t.Errorf("Recent[%d].ID = %s, want %s (stable order)", i, recent[i].ID, id)
		}
	}
}
