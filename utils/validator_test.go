package utils

import (
	"testing"

	"github.com/Nathino/UQRCODE/model"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{
			name:    "Valid HTTP URL",
			url:     "http://example.com",
			wantErr: nil,
		},
		{
			name:    "Valid HTTPS URL",
			url:     "https://www.example.com/path?query=value",
			wantErr: nil,
		},
		{
			name:    "Empty URL",
			url:     "",
			wantErr: ErrEmptyURL,
		},
		{
			name:    "Invalid URL format",
			url:     "not a url",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "Invalid scheme - FTP",
			url:     "ftp://example.com",
			wantErr: ErrInvalidScheme,
		},
		{
			name:    "Invalid scheme - JavaScript",
			url:     "javascript:alert('xss')",
			wantErr: ErrInvalidScheme,
		},
		{
			name:    "Valid URL with path and query",
			url:     "https://github.com/user/repo?tab=readme",
			wantErr: nil,
		},
		{
			name:    "Valid URL with port",
			url:     "https://example.com:8080/api",
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if err != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDraft(t *testing.T) {
	valid := model.QRCodeDraft{
		Name:   "homepage",
		Type:   model.TypeURL,
		Data:   "https://example.com",
		UserID: "u1",
	}

	tests := []struct {
		name    string
		mutate  func(*model.QRCodeDraft)
		wantErr error
	}{
		{
			name:    "Valid URL draft",
			mutate:  func(d *model.QRCodeDraft) {},
			wantErr: nil,
		},
		{
			name:    "Missing name",
			mutate:  func(d *model.QRCodeDraft) { d.Name = "" },
			wantErr: ErrEmptyName,
		},
		{
			name:    "Missing data",
			mutate:  func(d *model.QRCodeDraft) { d.Data = "" },
			wantErr: ErrEmptyData,
		},
		{
			name:    "Missing userID",
			mutate:  func(d *model.QRCodeDraft) { d.UserID = "" },
			wantErr: ErrEmptyUserID,
		},
		{
			name:    "Unknown type",
			mutate:  func(d *model.QRCodeDraft) { d.Type = "barcode" },
			wantErr: ErrInvalidType,
		},
		{
			name: "URL type with bad payload",
			mutate: func(d *model.QRCodeDraft) {
				d.Data = "not a url"
			},
			wantErr: ErrInvalidURL,
		},
		{
			name: "Free-form payload skips URL check",
			mutate: func(d *model.QRCodeDraft) {
				d.Type = model.TypeVCard
				d.Data = "BEGIN:VCARD\nVERSION:3.0\nEND:VCARD"
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			tt.mutate(&draft)
			if err := ValidateDraft(draft); err != tt.wantErr {
				t.Errorf("ValidateDraft() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
