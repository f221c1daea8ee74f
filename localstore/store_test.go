package localstore

import (
	"path/filepath"
	"testing"

	"github.com/Nathino/UQRCODE/config"
	"github.com/Nathino/UQRCODE/model"
)

func TestBlobOperations(t *testing.T) {
	s := New(config.LocalStoreConfig{})

	t.Run("Get_Missing", func(t *testing.T) {
		if _, ok := s.Get("nope"); ok {
			t.Error("Expected miss for absent key")
		}
	})

	t.Run("Set_and_Get", func(t *testing.T) {
		s.Set("k", `["a"]`)
		v, ok := s.Get("k")
		if !ok || v != `["a"]` {
			t.Errorf("Get() = %q, %v", v, ok)
		}
	})

	t.Run("Set_Replaces", func(t *testing.T) {
		s.Set("k", `["a"]`)
		s.Set("k", `["b"]`)
		v, _ := s.Get("k")
		if v != `["b"]` {
			t.Errorf("Writes must replace whole value, got %q", v)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		s.Set("gone", "x")
		s.Remove("gone")
		if _, ok := s.Get("gone"); ok {
			t.Error("Key still present after Remove")
		}
		s.Remove("never-existed") // must not panic
	})
}

func TestKeyLayout(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"QR codes", QRCodesKey("u1"), "qr_codes_u1"},
		{"Documents", DocumentsKey("u1"), "documents_u1"},
		{"Scan events", ScanEventsKey("u1"), "qr_scan_events_u1"},
		{"Public registry", PublicRegistryKey, "public_documents_registry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestCollectionSnapshotReplace(t *testing.T) {
	s := New(config.LocalStoreConfig{})

	s.PutQRCodes("u1", []model.SavedQRCode{{ID: "a"}, {ID: "b"}})
	s.PutQRCodes("u1", []model.SavedQRCode{{ID: "c"}})

	codes := s.QRCodes("u1")
	if len(codes) != 1 || codes[0].ID != "c" {
		t.Errorf("Snapshot-replace violated: %+v", codes)
	}
}

func TestCollectionsAreIsolatedPerUser(t *testing.T) {
	s := New(config.LocalStoreConfig{})

	s.PutQRCodes("u1", []model.SavedQRCode{{ID: "a", UserID: "u1"}})
	s.PutQRCodes("u2", []model.SavedQRCode{{ID: "b", UserID: "u2"}})

	if got := s.QRCodes("u1"); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("u1 collection = %+v", got)
	}
	if got := s.QRCodes("u2"); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("u2 collection = %+v", got)
	}
}

func TestCorruptCollectionYieldsEmpty(t *testing.T) {
	s := New(config.LocalStoreConfig{})
	s.Set(QRCodesKey("u1"), "{not json")

	if got := s.QRCodes("u1"); len(got) != 0 {
		t.Errorf("Corrupt blob should decode to empty, got %+v", got)
	}
}

func TestFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	cfg := config.LocalStoreConfig{Path: path}

	s := New(cfg)
	s.PutQRCodes("u1", []model.SavedQRCode{{ID: "persisted", UserID: "u1"}})
	s.Set("raw", "blob")

	// A fresh store over the same file sees the data.
	reopened := New(cfg)
	if got := reopened.QRCodes("u1"); len(got) != 1 || got[0].ID != "persisted" {
		t.Errorf("Reopened collection = %+v", got)
	}
	if v, ok := reopened.Get("raw"); !ok || v != "blob" {
		t.Errorf("Reopened blob = %q, %v", v, ok)
	}
}

func TestMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.json")
	s := New(config.LocalStoreConfig{Path: path})
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}
