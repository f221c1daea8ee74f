package localstore

import (
	"encoding/json"

	"github.com/Nathino/UQRCODE/model"

	"github.com/rs/zerolog/log"
)

// Typed views over the blob store. Each read decodes the whole stored
// array; each write replaces it. Duplicate prevention by id is the
// caller's job, matching the snapshot-replace contract.

// QRCodes returns the mirrored QR codes for a user.
func (s *Store) QRCodes(userID string) []model.SavedQRCode {
	return decodeList[model.SavedQRCode](s, QRCodesKey(userID))
}

// PutQRCodes replaces the user's mirrored QR code array.
func (s *Store) PutQRCodes(userID string, codes []model.SavedQRCode) {
	encodeList(s, QRCodesKey(userID), codes)
}

// Documents returns the mirrored document metadata for a user.
func (s *Store) Documents(userID string) []model.DocumentMetadata {
	return decodeList[model.DocumentMetadata](s, DocumentsKey(userID))
}

// PutDocuments replaces the user's mirrored document array.
func (s *Store) PutDocuments(userID string, docs []model.DocumentMetadata) {
	encodeList(s, DocumentsKey(userID), docs)
}

// ScanEvents returns the locally buffered scan events for a user,
// most recent first.
func (s *Store) ScanEvents(userID string) []model.ScanEvent {
	return decodeList[model.ScanEvent](s, ScanEventsKey(userID))
}

// PutScanEvents replaces the user's local scan event ring. The caller
// enforces the ring capacity.
func (s *Store) PutScanEvents(userID string, events []model.ScanEvent) {
	encodeList(s, ScanEventsKey(userID), events)
}

// PublicRegistry returns the shared public-document registry.
func (s *Store) PublicRegistry() []model.PublicDocumentEntry {
	return decodeList[model.PublicDocumentEntry](s, PublicRegistryKey)
}

// PutPublicRegistry replaces the shared public-document registry.
func (s *Store) PutPublicRegistry(entries []model.PublicDocumentEntry) {
	encodeList(s, PublicRegistryKey, entries)
}

func decodeList[T any](s *Store, key string) []T {
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable local collection")
		return []T{}
	}
	return items
}

func encodeList[T any](s *Store, key string, items []T) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode local collection")
		return
	}
	s.Set(key, string(raw))
}
