package persistence

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SaveDocument persists uploaded document metadata. The url, publicId
// and size fields are stored exactly as the upload collaborator
// produced them.
func (s *Service) SaveDocument(ctx context.Context, doc model.DocumentMetadata) (*model.DocumentMetadata, Attempt) {
	s.ensureMigrated(ctx, doc.UserID)

	saved, err := s.remote.SaveDocument(ctx, doc)
	if err == nil {
		s.upsertLocalDocument(saved.UserID, *saved)
		return saved, remoteAttempt()
	}

	log.Warn().Err(err).Str("userID", doc.UserID).Msg("Remote document save failed, writing cache-only")
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	s.upsertLocalDocument(doc.UserID, doc)
	return &doc, cacheAttempt(err)
}

// GetUserDocuments lists the user's documents, most recent first.
func (s *Service) GetUserDocuments(ctx context.Context, userID string) ([]model.DocumentMetadata, Attempt) {
	s.ensureMigrated(ctx, userID)

	docs, err := s.remote.GetUserDocuments(ctx, userID)
	if err == nil {
		s.local.PutDocuments(userID, docs)
		return docs, remoteAttempt()
	}

	log.Warn().Err(err).Str("userID", userID).Msg("Remote document list failed, serving local mirror")
	docs = s.local.Documents(userID)
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, cacheAttempt(err)
}

// GetDocument resolves one document; nil when neither tier has it.
func (s *Service) GetDocument(ctx context.Context, id, userID string) (*model.DocumentMetadata, Attempt) {
	s.ensureMigrated(ctx, userID)

	doc, err := s.remote.GetDocument(ctx, id)
	if err == nil {
		return doc, remoteAttempt()
	}

	attempt := remoteAttempt()
	if !errors.Is(err, remote.ErrNotFound) {
		attempt = cacheAttempt(err)
	}
	for _, d := range s.local.Documents(userID) {
		if d.ID == id {
			copied := d
			return &copied, attempt
		}
	}
	return nil, attempt
}

// DeleteDocument hard-deletes from both tiers and drops any public
// registry entry pointing at the document. Absent ids succeed.
func (s *Service) DeleteDocument(ctx context.Context, id, userID string) bool {
	s.ensureMigrated(ctx, userID)

	err := s.remote.DeleteDocument(ctx, id)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		log.Warn().Err(err).Str("id", id).Msg("Remote document delete failed, removing from local mirror only")
	}

	docs := s.local.Documents(userID)
	kept := docs[:0]
	for _, d := range docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.local.PutDocuments(userID, kept)
	s.UnpublishDocument(id)
	return true
}

func (s *Service) upsertLocalDocument(userID string, doc model.DocumentMetadata) {
	docs := s.local.Documents(userID)
	replaced := false
	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		docs = append(docs, doc)
	}
	s.local.PutDocuments(userID, docs)
}

// PublishDocument registers a document in the shared public registry so
// an unauthenticated scan on the same client can resolve its metadata.
// The registry is one global key, not namespaced by user.
func (s *Service) PublishDocument(doc model.DocumentMetadata) {
	entries := s.local.PublicRegistry()
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].DocumentID == doc.ID {
			entries[i].DocumentMetadata = doc
			entries[i].IsPublic = true
			entries[i].LastAccessed = now
			s.local.PutPublicRegistry(entries)
			return
		}
	}
	entries = append(entries, model.PublicDocumentEntry{
		DocumentID:       doc.ID,
		DocumentMetadata: doc,
		IsPublic:         true,
		CreatedAt:        now,
		LastAccessed:     now,
	})
	s.local.PutPublicRegistry(entries)
}

// GetPublicDocument resolves a public registry entry and stamps its
// lastAccessed time. Returns nil when the document was never published
// or has been unpublished.
func (s *Service) GetPublicDocument(documentID string) *model.PublicDocumentEntry {
	entries := s.local.PublicRegistry()
	for i := range entries {
		if entries[i].DocumentID == documentID && entries[i].IsPublic {
			entries[i].LastAccessed = time.Now().UTC()
			s.local.PutPublicRegistry(entries)
			copied := entries[i]
			return &copied
		}
	}
	return nil
}

// UnpublishDocument removes a document from the public registry.
func (s *Service) UnpublishDocument(documentID string) {
	entries := s.local.PublicRegistry()
	kept := entries[:0]
	for _, e := range entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	s.local.PutPublicRegistry(kept)
}
