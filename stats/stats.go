// Package stats computes derived summary statistics over a snapshot of
// a user's saved QR codes. Pure functions, no I/O.
package stats

import (
	"sort"

	"github.com/Nathino/UQRCODE/model"
)

// RecentLimit caps the recent-codes list in a computed summary.
const RecentLimit = 5

// Compute summarizes a snapshot of QR codes. An empty or nil snapshot
// yields the zero summary, never an error. Ties for the most used type
// and the most scanned code go to the first candidate encountered in
// received order.
func Compute(codes []model.SavedQRCode) model.QRCodeStats {
	s := model.QRCodeStats{
		MostUsedType: model.TypeURL,
		RecentCodes:  []model.SavedQRCode{},
	}
	if len(codes) == 0 {
		return s
	}

	typeCounts := make(map[model.QRType]int, len(model.ValidTypes))
	typeOrder := make([]model.QRType, 0, len(model.ValidTypes))

	var mostScanned *model.SavedQRCode
	for i := range codes {
		c := &codes[i]
		s.TotalCodes++
		if c.IsActive {
			s.ActiveCodes++
		} else {
			s.InactiveCodes++
		}
		s.TotalDownloads += c.DownloadCount
		s.TotalScans += c.ScanCount

		if _, seen := typeCounts[c.Type]; !seen {
			typeOrder = append(typeOrder, c.Type)
		}
		typeCounts[c.Type]++

		if mostScanned == nil || c.ScanCount > mostScanned.ScanCount {
			mostScanned = c
		}
	}

	best := typeOrder[0]
	for _, t := range typeOrder[1:] {
		if typeCounts[t] > typeCounts[best] {
			best = t
		}
	}
	s.MostUsedType = best

	if mostScanned != nil {
		copied := *mostScanned
		s.MostScannedCode = &copied
	}

	s.RecentCodes = Recent(codes, RecentLimit)
	return s
}

// Recent returns up to limit codes sorted by UpdatedAt descending.
// The sort is stable, so equal timestamps keep their received order.
func Recent(codes []model.SavedQRCode, limit int) []model.SavedQRCode {
	recent := make([]model.SavedQRCode, len(codes))
	copy(recent, codes)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}
