package model

import "time"

// DocumentMetadata describes an uploaded PDF document. The url, publicId
// and size fields come from the upload collaborator and are persisted
// unchanged.
type DocumentMetadata struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalName     string    `json:"originalName"`
	Size             int64     `json:"size"`
	OriginalSize     int64     `json:"originalSize"`
	URL              string    `json:"url"`
	PublicID         string    `json:"publicId"`
	UploadedAt       time.Time `json:"uploadedAt"`
	UserID           string    `json:"userID"`
	CompressionRatio float64   `json:"compressionRatio,omitempty"`
}

// PublicDocumentEntry is one record of the shared public registry used
// for unauthenticated QR-scan access to a document's metadata. The
// registry is a single global key, deliberately not namespaced by user.
type PublicDocumentEntry struct {
	DocumentID       string           `json:"documentId"`
	DocumentMetadata DocumentMetadata `json:"documentMetadata"`
	IsPublic         bool             `json:"isPublic"`
	CreatedAt        time.Time        `json:"createdAt"`
	LastAccessed     time.Time        `json:"lastAccessed"`
}
