package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/utils"

	"github.com/gorilla/mux"
)

// CreateDocument handles POST /api/documents - persists metadata the
// upload collaborator produced. The service never touches the bytes.
// @Summary Save document metadata
// @Tags Documents
// @Accept json
// @Produce json
// @Param document body model.DocumentMetadata true "Document metadata"
// @Success 201 {object} model.DocumentMetadata "Saved metadata"
// @Failure 400 {object} ErrorResponse "Validation failure"
// @Router /api/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var doc model.DocumentMetadata
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid JSON format")
		return
	}
	if doc.UserID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID is required")
		return
	}
	if doc.Filename == "" || doc.URL == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing required fields"), "filename and url are required")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	saved, _ := h.svc.SaveDocument(ctx, doc)
	SendJSONSuccess(w, http.StatusCreated, saved)
}

// ListDocuments handles GET /api/documents?userID=
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID query parameter is required")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	docs, _ := h.svc.GetUserDocuments(ctx, userID)
	SendJSONSuccess(w, http.StatusOK, docs)
}

// GetDocument handles GET /api/documents/{id}?userID=
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	doc, _ := h.svc.GetDocument(ctx, id, userID)
	if doc == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("document not found"), "Unknown id")
		return
	}
	SendJSONSuccess(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}?userID=
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	h.svc.DeleteDocument(ctx, id, userID)
	SendJSONSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// PublishDocument handles POST /api/documents/{id}/publish?userID= -
// adds the document to the client-wide public registry.
func (h *Handler) PublishDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	doc, _ := h.svc.GetDocument(ctx, id, userID)
	if doc == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("document not found"), "Unknown id")
		return
	}
	h.svc.PublishDocument(*doc)
	SendJSONSuccess(w, http.StatusOK, map[string]bool{"published": true})
}

// UnpublishDocument handles DELETE /api/documents/{id}/publish
func (h *Handler) UnpublishDocument(w http.ResponseWriter, r *http.Request) {
	h.svc.UnpublishDocument(mux.Vars(r)["id"])
	SendJSONSuccess(w, http.StatusOK, map[string]bool{"published": false})
}

// GetPublicDocument handles GET /api/public/documents/{documentId} -
// unauthenticated access used by QR scans. Resolving the entry counts
// as a scan of the QR code that references the document.
// @Summary Resolve a public document
// @Tags Documents
// @Produce json
// @Param documentId path string true "Document id"
// @Success 200 {object} model.PublicDocumentEntry "Registry entry"
// @Failure 404 {object} ErrorResponse "Not published"
// @Router /api/public/documents/{documentId} [get]
func (h *Handler) GetPublicDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	entry := h.svc.GetPublicDocument(documentID)
	if entry == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("document not published"), "Unknown or private document")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	h.tracker.TrackDocument(ctx, documentID, entry.DocumentMetadata.UserID, scanContext(r))
	SendJSONSuccess(w, http.StatusOK, entry)
}
