package model

import "time"

// CurrentSchemaVersion is stamped on every saved QR code. Records below
// this version get their identifiers regenerated by the versioned
// migration step in the migration package.
const CurrentSchemaVersion = 2

// QRType identifies what kind of payload a QR code encodes.
type QRType string

const (
	TypeURL      QRType = "url"
	TypeLocation QRType = "location"
	TypeEmail    QRType = "email"
	TypePhone    QRType = "phone"
	TypeWiFi     QRType = "wifi"
	TypeEvent    QRType = "event"
	TypeVCard    QRType = "vcard"
	TypeCrypto   QRType = "crypto"
	TypeText     QRType = "text"
	TypeDocument QRType = "document"
)

// ValidTypes lists every accepted QR payload type.
var ValidTypes = []QRType{
	TypeURL, TypeLocation, TypeEmail, TypePhone, TypeWiFi,
	TypeEvent, TypeVCard, TypeCrypto, TypeText, TypeDocument,
}

// IsValidType reports whether t is a known QR payload type.
func IsValidType(t QRType) bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// RenderConfig holds the visual options a QR code was saved with. The
// service persists it unchanged; rendering happens client-side or via
// the image endpoint.
type RenderConfig struct {
	Size       int    `json:"size,omitempty"`
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
	Level      string `json:"level,omitempty"` // low, medium, high, highest
	LogoURL    string `json:"logoURL,omitempty"`
}

// SavedQRCode is a persisted QR code owned by a single user.
type SavedQRCode struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          QRType       `json:"type"`
	Data          string       `json:"data"`
	Render        RenderConfig `json:"render,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	IsActive      bool         `json:"isActive"`
	UserID        string       `json:"userID"`
	DownloadCount int          `json:"downloadCount"`
	ScanCount     int          `json:"scanCount"`
	LastAccessed  *time.Time   `json:"lastAccessed,omitempty"`
	LastScanned   *time.Time   `json:"lastScanned,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	Description   string       `json:"description,omitempty"`
	SchemaVersion int          `json:"schemaVersion"`
}

// QRCodeDraft is the caller-supplied part of a QR code; the store
// assigns id, timestamps and counters on save.
type QRCodeDraft struct {
	Name        string       `json:"name"`
	Type        QRType       `json:"type"`
	Data        string       `json:"data"`
	Render      RenderConfig `json:"render,omitempty"`
	UserID      string       `json:"userID"`
	Tags        []string     `json:"tags,omitempty"`
	Description string       `json:"description,omitempty"`
}

// QRCodeUpdate carries a partial update. Nil fields are left untouched.
type QRCodeUpdate struct {
	Name        *string       `json:"name,omitempty"`
	Data        *string       `json:"data,omitempty"`
	Render      *RenderConfig `json:"render,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
	Tags        *[]string     `json:"tags,omitempty"`
	Description *string       `json:"description,omitempty"`
}

// Apply merges the update into q without touching ownership or
// counters. Timestamps are the store's responsibility.
func (u QRCodeUpdate) Apply(q *SavedQRCode) {
	if u.Name != nil {
		q.Name = *u.Name
	}
	if u.Data != nil {
		q.Data = *u.Data
	}
	if u.Render != nil {
		q.Render = *u.Render
	}
	if u.IsActive != nil {
		q.IsActive = *u.IsActive
	}
	if u.Tags != nil {
		q.Tags = *u.Tags
	}
	if u.Description != nil {
		q.Description = *u.Description
	}
}
