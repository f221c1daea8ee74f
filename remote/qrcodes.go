package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Nathino/UQRCODE/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Counter field names accepted by IncrementCounter.
const (
	FieldDownloadCount = "downloadCount"
	FieldScanCount     = "scanCount"
)

// SaveQRCode assigns id, timestamps and zeroed counters, persists the
// entity and returns it. An immediate GetQRCode on the returned id
// yields an identical entity.
func (s *Store) SaveQRCode(ctx context.Context, draft model.QRCodeDraft) (*model.SavedQRCode, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	qr := model.SavedQRCode{
		ID:            uuid.NewString(),
		Name:          draft.Name,
		Type:          draft.Type,
		Data:          draft.Data,
		Render:        draft.Render,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
		UserID:        draft.UserID,
		Tags:          draft.Tags,
		Description:   draft.Description,
		SchemaVersion: model.CurrentSchemaVersion,
	}

	if err := s.writeQRCode(ctx, qr); err != nil {
		return nil, err
	}

	s.publishChange(ctx, qr.UserID)
	return &qr, nil
}

// PutQRCode writes an entity as-is, preserving its id and timestamps.
// Used by migration to move cache-resident records without restamping.
func (s *Store) PutQRCode(ctx context.Context, qr model.SavedQRCode) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.writeQRCode(ctx, qr); err != nil {
		return err
	}
	s.publishChange(ctx, qr.UserID)
	return nil
}

func (s *Store) writeQRCode(ctx context.Context, qr model.SavedQRCode) error {
	data, err := json.Marshal(qr)
	if err != nil {
		return fmt.Errorf("marshal QR code: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, qrKeyPrefix+qr.ID, data, 0)
	pipe.SAdd(ctx, qrUserSetPrefix+qr.UserID, qr.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store QR code: %w", err)
	}
	return nil
}

// GetQRCode fetches one entity by id. ErrNotFound when absent.
func (s *Store) GetQRCode(ctx context.Context, id string) (*model.SavedQRCode, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.rdb.Get(ctx, qrKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetch QR code: %w", err)
	}

	var qr model.SavedQRCode
	if err := json.Unmarshal(data, &qr); err != nil {
		return nil, fmt.Errorf("unmarshal QR code: %w", err)
	}
	return &qr, nil
}

// GetUserQRCodes returns the user's entities ordered by UpdatedAt
// descending. Ordering is stable within a single call.
func (s *Store) GetUserQRCodes(ctx context.Context, userID string) ([]model.SavedQRCode, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ids, err := s.rdb.SMembers(ctx, qrUserSetPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch QR code index: %w", err)
	}
	if len(ids) == 0 {
		return []model.SavedQRCode{}, nil
	}
	sort.Strings(ids) // deterministic base order before the timestamp sort

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = qrKeyPrefix + id
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch QR codes: %w", err)
	}

	codes := make([]model.SavedQRCode, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Index entry with no backing blob; skip, the entity was
			// deleted out of band.
			log.Debug().Str("id", ids[i]).Msg("Stale QR code index entry")
			continue
		}
		var qr model.SavedQRCode
		if err := json.Unmarshal([]byte(str), &qr); err != nil {
			log.Warn().Err(err).Str("id", ids[i]).Msg("Skipping undecodable QR code")
			continue
		}
		codes = append(codes, qr)
	}

	sort.SliceStable(codes, func(i, j int) bool {
		return codes[i].UpdatedAt.After(codes[j].UpdatedAt)
	})
	return codes, nil
}

// QRCodeIDs returns the set of ids the remote store currently holds for
// a user. Used by migration to diff against the local mirror.
func (s *Store) QRCodeIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ids, err := s.rdb.SMembers(ctx, qrUserSetPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch QR code index: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// UpdateQRCode merges the partial update into the stored entity and
// restamps UpdatedAt. ErrNotFound when the id is absent.
func (s *Store) UpdateQRCode(ctx context.Context, id string, upd model.QRCodeUpdate) (*model.SavedQRCode, error) {
	qr, err := s.GetQRCode(ctx, id)
	if err != nil {
		return nil, err
	}

	upd.Apply(qr)
	qr.UpdatedAt = time.Now().UTC()

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.writeQRCode(ctx, *qr); err != nil {
		return nil, err
	}
	s.publishChange(ctx, qr.UserID)
	return qr, nil
}

// DeleteQRCode removes the entity and its index entry. ErrNotFound when
// the id is absent; callers treat that as a no-op.
func (s *Store) DeleteQRCode(ctx context.Context, id string) error {
	qr, err := s.GetQRCode(ctx, id)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, qrKeyPrefix+id)
	pipe.SRem(ctx, qrUserSetPrefix+qr.UserID, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete QR code: %w", err)
	}
	s.publishChange(ctx, qr.UserID)
	return nil
}

// IncrementCounter adds 1 to the named counter and restamps UpdatedAt.
// Read-modify-write: two sessions incrementing concurrently can lose an
// update under last-write-wins. Accepted trade-off; see DESIGN.md.
func (s *Store) IncrementCounter(ctx context.Context, id, field string) (*model.SavedQRCode, error) {
	qr, err := s.GetQRCode(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch field {
	case FieldDownloadCount:
		qr.DownloadCount++
		qr.LastAccessed = &now
	case FieldScanCount:
		qr.ScanCount++
		qr.LastScanned = &now
		qr.LastAccessed = &now
	default:
		return nil, fmt.Errorf("unknown counter field %q", field)
	}
	qr.UpdatedAt = now

	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.writeQRCode(ctx, *qr); err != nil {
		return nil, err
	}
	s.publishChange(ctx, qr.UserID)
	return qr, nil
}

// FindByDocumentID resolves scan attribution for document-type codes:
// it scans the user's document-type QR codes for one whose payload
// contains the document's URL (or, when the document record is gone,
// the raw document id). ErrNotFound when nothing matches.
func (s *Store) FindByDocumentID(ctx context.Context, documentID, userID string) (*model.SavedQRCode, error) {
	needle := documentID
	if doc, err := s.GetDocument(ctx, documentID); err == nil && doc.URL != "" {
		needle = doc.URL
	}

	codes, err := s.GetUserQRCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range codes {
		if codes[i].Type != model.TypeDocument {
			continue
		}
		if strings.Contains(codes[i].Data, needle) || strings.Contains(codes[i].Data, documentID) {
			return &codes[i], nil
		}
	}
	return nil, ErrNotFound
}
