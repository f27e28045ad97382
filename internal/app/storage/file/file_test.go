package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "stores.json"), logger.NewNop())
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	dir := s.Load(context.Background())
	if len(dir) != 0 {
		t.Fatalf("expected empty directory, got %d records", len(dir))
	}
}

func TestLoadCorruptFileReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := s.Load(context.Background())
	if len(dir) != 0 {
		t.Fatalf("expected empty directory, got %d records", len(dir))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := store.Directory{
		"meat": {
			ID:         "meat",
			Name:       "Meat Shop",
			Phone:      "01012345678",
			Info:       "연중무휴 / 10:00 ~ 22:00",
			MenuText:   "갈비살 - 34000원",
			ImageFiles: []string{"front.jpg"},
			Password:   "secret-hash",
		},
	}
	if err := s.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := s.Load(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	rec := got["meat"]
	if rec.ID != "meat" || rec.Name != "Meat Shop" || rec.MenuText != "갈비살 - 34000원" {
		t.Fatalf("record mismatch: %+v", rec)
	}
	if len(rec.ImageFiles) != 1 || rec.ImageFiles[0] != "front.jpg" {
		t.Fatalf("image files mismatch: %v", rec.ImageFiles)
	}
	if rec.Password != "secret-hash" {
		t.Fatalf("password mismatch: %q", rec.Password)
	}
}

func TestSaveIsIdempotentByteForByte(t *testing.T) {
	s := newTestStore(t)
	seed := store.Directory{
		"a": {ID: "a", Name: "가게", Phone: "01011112222"},
		"b": {ID: "b", Name: "분식", Phone: "01033334444"},
	}
	if err := s.Save(context.Background(), seed); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	if err := s.Save(context.Background(), s.Load(context.Background())); err != nil {
		t.Fatalf("first save(load()): %v", err)
	}
	first, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save(context.Background(), s.Load(context.Background())); err != nil {
		t.Fatalf("second save(load()): %v", err)
	}
	second, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("serialized content differs between saves:\n%s\n---\n%s", first, second)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(context.Background(), store.Directory{"x": {ID: "x"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only the directory file, found %v", names)
	}
}

func TestLoadLegacyDocument(t *testing.T) {
	s := newTestStore(t)
	legacy := `{
    "meat": {
        "name": "Meat Shop",
        "phone": "01012345678",
        "info": "",
        "menu_text": "갈비살 - 34000원",
        "img_files": "front.jpg, menu.jpg",
        "password": "1234"
    }
}`
	if err := os.WriteFile(s.Path(), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := s.Load(context.Background())
	rec, ok := dir["meat"]
	if !ok {
		t.Fatalf("legacy document did not load: %v", dir)
	}
	if len(rec.ImageFiles) != 2 || rec.ImageFiles[0] != "front.jpg" || rec.ImageFiles[1] != "menu.jpg" {
		t.Fatalf("comma-joined image list not decoded: %v", rec.ImageFiles)
	}
	if rec.Password != "1234" {
		t.Fatalf("pre-hash password lost: %q", rec.Password)
	}

	// Once rewritten, the list form round-trips.
	if err := s.Save(context.Background(), dir); err != nil {
		t.Fatalf("save: %v", err)
	}
	again := s.Load(context.Background())
	if len(again["meat"].ImageFiles) != 2 {
		t.Fatalf("image list lost on rewrite: %v", again["meat"].ImageFiles)
	}
}

func TestLoadPopulatesRecordIDs(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(context.Background(), store.Directory{"meat": {ID: "meat", Name: "Meat Shop"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	dir := s.Load(context.Background())
	if dir["meat"].ID != "meat" {
		t.Fatalf("expected id populated from map key, got %q", dir["meat"].ID)
	}
}
