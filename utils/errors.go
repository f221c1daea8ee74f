package utils

import "errors"

var (
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrEmptyData       = errors.New("data payload cannot be empty")
	ErrEmptyUserID     = errors.New("userID is required")
	ErrInvalidType     = errors.New("unknown QR code type")
	ErrEmptyURL        = errors.New("URL cannot be empty")
	ErrInvalidURL      = errors.New("invalid URL format")
	ErrInvalidScheme   = errors.New("URL scheme must be http or https")
	ErrEmptyHost       = errors.New("URL host cannot be empty")
	ErrEmptyDocumentID = errors.New("documentId is required")
)
