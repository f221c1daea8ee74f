package model

import "time"

// UserProfile mirrors a user's aggregate counters alongside identity
// fields. Counters are denormalized from QRCodeStats on demand; the
// saved QR codes remain the source of truth.
type UserProfile struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	TotalCodes     int       `json:"totalCodes"`
	TotalDownloads int       `json:"totalDownloads"`
	TotalScans     int       `json:"totalScans"`
}
