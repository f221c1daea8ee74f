package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/utils"
)

// Search returns the user's entities whose name, description, tags or
// payload contain the query, case-insensitively. An empty query returns
// the full list.
func (s *Service) Search(ctx context.Context, userID, query string) ([]model.SavedQRCode, Attempt) {
	codes, attempt := s.GetUserQRCodes(ctx, userID)
	if query == "" {
		return codes, attempt
	}

	q := strings.ToLower(query)
	matched := make([]model.SavedQRCode, 0, len(codes))
	for _, c := range codes {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.Data), q) ||
			tagsMatch(c.Tags, q) {
			matched = append(matched, c)
		}
	}
	return matched, attempt
}

func tagsMatch(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// FilterByType returns the user's entities of one payload type.
func (s *Service) FilterByType(ctx context.Context, userID string, t model.QRType) ([]model.SavedQRCode, Attempt) {
	codes, attempt := s.GetUserQRCodes(ctx, userID)
	matched := make([]model.SavedQRCode, 0, len(codes))
	for _, c := range codes {
		if c.Type == t {
			matched = append(matched, c)
		}
	}
	return matched, attempt
}

// FilterByStatus partitions by isActive.
func (s *Service) FilterByStatus(ctx context.Context, userID string, active bool) ([]model.SavedQRCode, Attempt) {
	codes, attempt := s.GetUserQRCodes(ctx, userID)
	matched := make([]model.SavedQRCode, 0, len(codes))
	for _, c := range codes {
		if c.IsActive == active {
			matched = append(matched, c)
		}
	}
	return matched, attempt
}

// Export serializes the user's current entities as a JSON array.
func (s *Service) Export(ctx context.Context, userID string) ([]byte, Attempt) {
	codes, attempt := s.GetUserQRCodes(ctx, userID)
	raw, err := json.MarshalIndent(codes, "", "  ")
	if err != nil {
		// Entities round-trip through JSON in both stores; reaching
		// this means a corrupted in-memory value.
		return []byte("[]"), attempt
	}
	return raw, attempt
}

// ImportResult reports a partial-failure-tolerant batch outcome.
type ImportResult struct {
	SuccessCount int      `json:"success"`
	Errors       []string `json:"errors"`
}

// Import reads a JSON array of drafts and saves each valid, non-
// duplicate entity. Per-item validation errors and duplicates are
// collected, never aborting the batch. A duplicate is an existing
// entity with the same (name, type, data) triple.
func (s *Service) Import(ctx context.Context, userID string, raw []byte) ImportResult {
	var result ImportResult

	var drafts []model.QRCodeDraft
	if err := json.Unmarshal(raw, &drafts); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid import payload: %v", err))
		return result
	}

	existing, _ := s.GetUserQRCodes(ctx, userID)
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[importKey(c.Name, c.Type, c.Data)] = struct{}{}
	}

	for i, draft := range drafts {
		draft.UserID = userID
		if err := utils.ValidateDraft(draft); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %v", i, err))
			continue
		}

		key := importKey(draft.Name, draft.Type, draft.Data)
		if _, dup := seen[key]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %q already exists", i, draft.Name))
			continue
		}

		s.SaveQRCode(ctx, draft)
		seen[key] = struct{}{}
		result.SuccessCount++
	}
	return result
}

func importKey(name string, t model.QRType, data string) string {
	return name + "\x00" + string(t) + "\x00" + data
}
