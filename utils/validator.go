package utils

import (
	"net/url"

	"github.com/Nathino/UQRCODE/model"
)

// ValidateDraft checks the caller-supplied fields of a QR code before it
// is handed to the store. Server-assigned fields (id, timestamps,
// counters) are not the caller's business and are not checked here.
func ValidateDraft(d model.QRCodeDraft) error {
	if d.Name == "" {
		return ErrEmptyName
	}
	if d.Data == "" {
		return ErrEmptyData
	}
	if d.UserID == "" {
		return ErrEmptyUserID
	}
	if !model.IsValidType(d.Type) {
		return ErrInvalidType
	}
	if d.Type == model.TypeURL {
		return ValidateURL(d.Data)
	}
	return nil
}

// ValidateURL checks that a URL payload is well-formed and reachable in
// principle. Applied to url-type QR codes only; other payload kinds
// (vcard, wifi, ...) carry free-form data.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return ErrEmptyURL
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return ErrInvalidURL
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return ErrInvalidScheme
	}

	if parsedURL.Host == "" {
		return ErrEmptyHost
	}

	return nil
}
