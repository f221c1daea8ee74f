package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// CreateQRCode handles POST /api/qrcodes
// @Summary Save a QR code
// @Description Persists a new QR code; degrades to the local mirror when the remote store is unreachable
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param draft body model.QRCodeDraft true "QR code draft"
// @Success 201 {object} model.SavedQRCode "Saved entity"
// @Failure 400 {object} ErrorResponse "Validation failure"
// @Router /api/qrcodes [post]
func (h *Handler) CreateQRCode(w http.ResponseWriter, r *http.Request) {
	var draft model.QRCodeDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid JSON format")
		return
	}
	if err := utils.ValidateDraft(draft); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid QR code draft")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	qr, attempt := h.svc.SaveQRCode(ctx, draft)
	if attempt.Degraded() {
		log.Info().Str("id", qr.ID).Msg("QR code saved to local mirror only")
	}
	SendJSONSuccess(w, http.StatusCreated, qr)
}

// ListQRCodes handles GET /api/qrcodes?userID=
// Optional filters: type, status (active|inactive), q (substring search).
// @Summary List a user's QR codes
// @Tags QRCodes
// @Produce json
// @Param userID query string true "Owner"
// @Param type query string false "Filter by payload type"
// @Param status query string false "Filter by status (active|inactive)"
// @Param q query string false "Substring search"
// @Success 200 {array} model.SavedQRCode "Codes, most recently updated first"
// @Failure 400 {object} ErrorResponse "Missing userID"
// @Router /api/qrcodes [get]
func (h *Handler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID query parameter is required")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	query := r.URL.Query()
	var codes []model.SavedQRCode
	switch {
	case query.Get("q") != "":
		codes, _ = h.svc.Search(ctx, userID, query.Get("q"))
	case query.Get("type") != "":
		t := model.QRType(query.Get("type"))
		if !model.IsValidType(t) {
			SendJSONError(w, http.StatusBadRequest, utils.ErrInvalidType, "Unknown type filter")
			return
		}
		codes, _ = h.svc.FilterByType(ctx, userID, t)
	case query.Get("status") != "":
		switch query.Get("status") {
		case "active":
			codes, _ = h.svc.FilterByStatus(ctx, userID, true)
		case "inactive":
			codes, _ = h.svc.FilterByStatus(ctx, userID, false)
		default:
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid status filter"), "Status must be active or inactive")
			return
		}
	default:
		codes, _ = h.svc.GetUserQRCodes(ctx, userID)
	}

	SendJSONSuccess(w, http.StatusOK, codes)
}

// GetQRCode handles GET /api/qrcodes/{id}?userID=
func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	qr, _ := h.svc.GetQRCode(ctx, id, userID)
	if qr == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "Unknown id")
		return
	}
	SendJSONSuccess(w, http.StatusOK, qr)
}

// UpdateQRCode handles PUT /api/qrcodes/{id}?userID=
// @Summary Update a QR code
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param id path string true "QR code id"
// @Param userID query string true "Owner"
// @Param update body model.QRCodeUpdate true "Partial update"
// @Success 200 {object} model.SavedQRCode "Updated entity"
// @Failure 404 {object} ErrorResponse "Unknown id"
// @Router /api/qrcodes/{id} [put]
func (h *Handler) UpdateQRCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	var upd model.QRCodeUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid JSON format")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	qr, _ := h.svc.UpdateQRCode(ctx, id, userID, upd)
	if qr == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "Unknown id")
		return
	}
	SendJSONSuccess(w, http.StatusOK, qr)
}

// DeleteQRCode handles DELETE /api/qrcodes/{id}?userID=
// Deleting an absent id succeeds; the end state is the same.
func (h *Handler) DeleteQRCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	h.svc.DeleteQRCode(ctx, id, userID)
	SendJSONSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ToggleQRCode handles POST /api/qrcodes/{id}/toggle?userID=
func (h *Handler) ToggleQRCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	qr, _ := h.svc.ToggleStatus(ctx, id, userID)
	if qr == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "Unknown id")
		return
	}
	SendJSONSuccess(w, http.StatusOK, qr)
}

// DownloadQRCode handles POST /api/qrcodes/{id}/download?userID=
// Records one download against the entity's counter.
func (h *Handler) DownloadQRCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	qr, _ := h.svc.IncrementDownload(ctx, id, userID)
	if qr == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "Unknown id")
		return
	}
	SendJSONSuccess(w, http.StatusOK, qr)
}

// GetQRCodeStats handles GET /api/qrcodes/stats?userID=
// @Summary Summary statistics for a user's QR codes
// @Tags QRCodes
// @Produce json
// @Param userID query string true "Owner"
// @Success 200 {object} model.QRCodeStats "Derived statistics"
// @Router /api/qrcodes/stats [get]
func (h *Handler) GetQRCodeStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID query parameter is required")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	summary, _ := h.svc.GetStats(ctx, userID)
	SendJSONSuccess(w, http.StatusOK, summary)
}

// ExportQRCodes handles GET /api/qrcodes/export?userID=
func (h *Handler) ExportQRCodes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID query parameter is required")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	raw, _ := h.svc.Export(ctx, userID)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="qrcodes.json"`)
	if _, err := w.Write(raw); err != nil {
		log.Error().Err(err).Msg("Failed to write export response")
	}
}

// ImportQRCodes handles POST /api/qrcodes/import?userID=
// @Summary Import QR codes from a JSON array
// @Description Partial-failure tolerant: invalid or duplicate items are reported without aborting the batch
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param userID query string true "Owner"
// @Success 200 {object} persistence.ImportResult "Per-item outcome"
// @Router /api/qrcodes/import [post]
func (h *Handler) ImportQRCodes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID query parameter is required")
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Failed to read request body")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	SendJSONSuccess(w, http.StatusOK, h.svc.Import(ctx, userID, raw))
}
