package model

// QRCodeStats summarizes a user's saved QR codes. Derived, never
// persisted.
type QRCodeStats struct {
	TotalCodes      int           `json:"totalCodes"`
	ActiveCodes     int           `json:"activeCodes"`
	InactiveCodes   int           `json:"inactiveCodes"`
	TotalDownloads  int           `json:"totalDownloads"`
	TotalScans      int           `json:"totalScans"`
	MostUsedType    QRType        `json:"mostUsedType"`
	MostScannedCode *SavedQRCode  `json:"mostScannedCode"`
	RecentCodes     []SavedQRCode `json:"recentCodes"` // up to 5, most recently updated first
}
