package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// QRCodeImage handles GET /api/qrcodes/{id}/image?userID= - renders the
// saved payload as a PNG. Size and error-correction level come from the
// entity's stored render config, overridable by query parameters.
func (h *Handler) QRCodeImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userID")

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	qr, _ := h.svc.GetQRCode(ctx, id, userID)
	if qr == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "Unknown id")
		return
	}

	query := r.URL.Query()

	// Size: stored config, then query override (default 256, 128-1024).
	size := 256
	if qr.Render.Size > 0 {
		size = qr.Render.Size
	}
	if sizeStr := query.Get("size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid size parameter"), "Size must be a number")
			return
		}
		size = parsed
	}
	if size < 128 || size > 1024 {
		SendJSONError(w, http.StatusBadRequest, errors.New("size out of range"), "Size must be between 128 and 1024")
		return
	}

	levelName := qr.Render.Level
	if q := query.Get("level"); q != "" {
		levelName = q
	}
	level, err := recoveryLevel(levelName)
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Level must be: low, medium, high, or highest")
		return
	}

	png, err := qrcode.Encode(qr.Data, level, size)
	if err != nil {
		log.Error().Err(err).Str("id", qr.ID).Msg("Failed to render QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	if _, err := w.Write(png); err != nil {
		log.Error().Err(err).Msg("Failed to write QR image response")
	}
}

func recoveryLevel(name string) (qrcode.RecoveryLevel, error) {
	switch name {
	case "", "medium":
		return qrcode.Medium, nil
	case "low":
		return qrcode.Low, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, errors.New("invalid level parameter")
	}
}
