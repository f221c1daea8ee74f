package model

import "time"

// ScanEvent is an immutable record of one QR-code access.
type ScanEvent struct {
	QRCodeID   string    `json:"qrCodeId"`
	UserID     string    `json:"userID"`
	Timestamp  time.Time `json:"timestamp"`
	UserAgent  string    `json:"userAgent,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	DocumentID string    `json:"documentId,omitempty"` // set for document-type codes
}

// ScanAnalytics aggregates a user's scan events at call time.
type ScanAnalytics struct {
	TotalScans      int            `json:"totalScans"`
	ScannedCodes    int            `json:"scannedCodes"` // distinct QR codes with at least one event
	MeanScansPerQR  float64        `json:"meanScansPerQR"`
	ScansLast24h    int            `json:"scansLast24h"`
	ScansLast7d     int            `json:"scansLast7d"`
	TopCodes        []TopScanned   `json:"topCodes"` // up to 5, by event count
}

// TopScanned is one entry of the per-user scan leaderboard.
type TopScanned struct {
	QRCodeID  string    `json:"qrCodeId"`
	Name      string    `json:"name,omitempty"`
	ScanCount int       `json:"scanCount"`
	LastScan  time.Time `json:"lastScan"`
}
