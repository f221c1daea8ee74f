package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Nathino/UQRCODE/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SaveDocument persists document metadata. The url, publicId and size
// fields come from the upload collaborator and are stored unchanged.
// An empty id is assigned; a caller-supplied id is kept (migration).
func (s *Store) SaveDocument(ctx context.Context, doc model.DocumentMetadata) (*model.DocumentMetadata, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, docKeyPrefix+doc.ID, data, 0)
	pipe.SAdd(ctx, docUserSetPrefix+doc.UserID, doc.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	return &doc, nil
}

// GetDocument fetches document metadata by id. ErrNotFound when absent.
func (s *Store) GetDocument(ctx context.Context, id string) (*model.DocumentMetadata, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.rdb.Get(ctx, docKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	var doc model.DocumentMetadata
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &doc, nil
}

// GetUserDocuments returns the user's documents, most recently uploaded
// first.
func (s *Store) GetUserDocuments(ctx context.Context, userID string) ([]model.DocumentMetadata, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ids, err := s.rdb.SMembers(ctx, docUserSetPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch document index: %w", err)
	}
	if len(ids) == 0 {
		return []model.DocumentMetadata{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKeyPrefix + id
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	docs := make([]model.DocumentMetadata, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			log.Debug().Str("id", ids[i]).Msg("Stale document index entry")
			continue
		}
		var doc model.DocumentMetadata
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			log.Warn().Err(err).Str("id", ids[i]).Msg("Skipping undecodable document")
			continue
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// DocumentIDs returns the set of document ids held remotely for a user.
func (s *Store) DocumentIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ids, err := s.rdb.SMembers(ctx, docUserSetPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch document index: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// DeleteDocument removes the metadata record. ErrNotFound when absent.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, docKeyPrefix+id)
	pipe.SRem(ctx, docUserSetPrefix+doc.UserID, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
