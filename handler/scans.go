package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Nathino/UQRCODE/model"
	"github.com/Nathino/UQRCODE/scan"
	"github.com/Nathino/UQRCODE/utils"

	"github.com/gorilla/mux"
)

// TrackScanRequest identifies the scanned code and its owner.
type TrackScanRequest struct {
	QRCodeID   string `json:"qrCodeId"`
	UserID     string `json:"userID"`
	DocumentID string `json:"documentId,omitempty"`
}

func scanContext(r *http.Request) scan.Context {
	return scan.Context{
		UserAgent: r.Header.Get("User-Agent"),
		Referrer:  r.Header.Get("Referer"),
		IPAddress: r.RemoteAddr,
	}
}

// TrackScan handles POST /api/scans
// @Summary Record a QR code scan
// @Description Increments the entity's scan counter and appends an immutable event; the increment gates the event
// @Tags Scans
// @Accept json
// @Produce json
// @Param scan body TrackScanRequest true "Scan identification"
// @Success 200 {object} map[string]bool "tracked flag"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /api/scans [post]
func (h *Handler) TrackScan(w http.ResponseWriter, r *http.Request) {
	var req TrackScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid JSON format")
		return
	}
	if req.UserID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID is required")
		return
	}
	if req.QRCodeID == "" && req.DocumentID == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing identifier"), "qrCodeId or documentId is required")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	sc := scanContext(r)
	var tracked bool
	if req.QRCodeID != "" {
		sc.DocumentID = req.DocumentID
		tracked = h.tracker.Track(ctx, req.QRCodeID, req.UserID, sc)
	} else {
		tracked = h.tracker.TrackDocument(ctx, req.DocumentID, req.UserID, sc)
	}
	SendJSONSuccess(w, http.StatusOK, map[string]bool{"tracked": tracked})
}

// ScanAnalytics handles GET /api/scans/analytics?userID=
// @Summary Scan analytics for a user
// @Description Totals, trailing 24h/7d windows relative to call time, and the top scanned codes
// @Tags Scans
// @Produce json
// @Param userID query string true "Owner"
// @Success 200 {object} model.ScanAnalytics "Aggregated analytics"
// @Router /api/scans/analytics [get]
func (h *Handler) ScanAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyUserID, "userID query parameter is required")
		return
	}

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	SendJSONSuccess(w, http.StatusOK, h.tracker.Analytics(ctx, userID))
}

// GetProfile handles GET /api/profile/{uid}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	p := h.svc.GetProfile(ctx, uid)
	if p == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("profile not found"), "Unknown uid")
		return
	}
	SendJSONSuccess(w, http.StatusOK, p)
}

// SaveProfile handles PUT /api/profile/{uid}
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var p model.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid JSON format")
		return
	}
	p.UID = uid

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	if !h.svc.SaveProfile(ctx, p) {
		SendJSONError(w, http.StatusServiceUnavailable, errors.New("profile store unavailable"), "Try again later")
		return
	}
	SendJSONSuccess(w, http.StatusOK, map[string]bool{"saved": true})
}

// RefreshProfile handles POST /api/profile/{uid}/refresh - recomputes
// the denormalized counters from the live QR code snapshot.
func (h *Handler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	ctx, cancel := h.requestCtx(r)
	defer cancel()

	p := h.svc.RefreshProfileStats(ctx, uid)
	if p == nil {
		SendJSONError(w, http.StatusNotFound, errors.New("profile not found"), "Unknown uid")
		return
	}
	SendJSONSuccess(w, http.StatusOK, p)
}
