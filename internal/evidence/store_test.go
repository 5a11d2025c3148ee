package evidence

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllowed(t *testing.T) {
	for _, name := range []string{"photo.png", "scan.PDF", "site.JPeG", "img.jpg"} {
		if !Allowed(name) {
			t.Errorf("%q rejected", name)
		}
	}
	for _, name := range []string{"run.exe", "notes.txt", "archive.zip", "noext"} {
		if Allowed(name) {
			t.Errorf("%q accepted", name)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), 1<<20)
	content := "fake png bytes"

	rel, err := store.Save("MIBAAAA0001", "burst main.png", int64(len(content)), strings.NewReader(content))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(rel, "MIBAAAA0001"+string(os.PathSeparator)) {
		t.Fatalf("path not grouped by tracking id: %q", rel)
	}
	if !strings.HasSuffix(rel, ".png") {
		t.Fatalf("extension lost: %q", rel)
	}
	if strings.Contains(filepath.Base(rel), " ") {
		t.Fatalf("unsafe characters kept: %q", rel)
	}

	f, err := store.Open(rel)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	buf := make([]byte, len(content))
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != content {
		t.Fatalf("content mismatch: %q", buf)
	}
}

func TestSave_RejectsUnsupportedType(t *testing.T) {
	store := NewStore(t.TempDir(), 1<<20)
	_, err := store.Save("MIBAAAA0001", "malware.exe", 4, strings.NewReader("data"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestSave_RejectsOversizedDeclaredAndActual(t *testing.T) {
	store := NewStore(t.TempDir(), 8)

	if _, err := store.Save("MIBAAAA0001", "big.png", 100, strings.NewReader("x")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("declared size: expected ErrTooLarge, got %v", err)
	}

	// Declared size lies; the stream itself is over the cap.
	if _, err := store.Save("MIBAAAA0001", "big.png", 4, strings.NewReader(strings.Repeat("x", 64))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("actual size: expected ErrTooLarge, got %v", err)
	}
}

func TestRemove_RefusesEscapingPaths(t *testing.T) {
	store := NewStore(t.TempDir(), 1<<20)
	if err := store.Remove("../../etc/passwd"); err == nil {
		t.Fatal("path escape not rejected")
	}
}

func TestSafeName_UniqueAndSanitized(t *testing.T) {
	a := safeName("../..//weird name?.pdf")
	b := safeName("../..//weird name?.pdf")
	if a == b {
		t.Fatal("names not unique")
	}
	if strings.ContainsAny(a, "/?") {
		t.Fatalf("unsafe characters kept: %q", a)
	}
	if !strings.HasSuffix(a, ".pdf") {
		t.Fatalf("extension lost: %q", a)
	}
}
