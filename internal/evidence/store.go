// Package evidence stores citizen-uploaded attachments on local disk.
// Files are grouped per complaint and renamed to defeat path tricks.
package evidence

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// allowedExtensions lists the attachment types intake accepts.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
}

// Store writes evidence files under a base directory, one subfolder
// per complaint tracking ID.
type Store struct {
	baseDir  string
	maxBytes int64
}

func NewStore(baseDir string, maxBytes int64) *Store {
	return &Store{baseDir: baseDir, maxBytes: maxBytes}
}

// Allowed reports whether the original filename has an accepted
// extension.
func Allowed(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// safeName keeps only the base name, strips characters that are not
// filesystem-friendly and prefixes a UUID so uploads never collide.
func safeName(original string) string {
	base := filepath.Base(original)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		cleaned = "upload"
	}
	return uuid.NewString() + "_" + cleaned + ext
}

// Save writes the upload for the given tracking ID and returns the
// path relative to the base directory, suitable for storing on the
// complaint record.
func (s *Store) Save(trackingID, filename string, size int64, r io.Reader) (string, error) {
	if !Allowed(filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
	if size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, s.maxBytes)
	}

	dir := filepath.Join(s.baseDir, trackingID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create evidence dir: %w", err)
	}

	name := safeName(filename)
	dst := filepath.Join(dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create evidence file: %w", err)
	}
	defer f.Close()

	// The declared size is not trusted; cap the copy as well.
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write evidence file: %w", err)
	}
	if n > s.maxBytes {
		os.Remove(dst)
		return "", fmt.Errorf("%w: stream exceeded %d bytes", ErrTooLarge, s.maxBytes)
	}
	return filepath.Join(trackingID, name), nil
}

// Remove deletes a previously saved file by its relative path. Paths
// escaping the base directory are rejected.
func (s *Store) Remove(relPath string) error {
	full := filepath.Join(s.baseDir, relPath)
	if !strings.HasPrefix(full, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to remove path outside base dir: %s", relPath)
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove evidence file: %w", err)
	}
	return nil
}

// Open returns a reader for a previously saved file.
func (s *Store) Open(relPath string) (io.ReadCloser, error) {
	full := filepath.Join(s.baseDir, relPath)
	if !strings.HasPrefix(full, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return nil, fmt.Errorf("refusing to open path outside base dir: %s", relPath)
	}
	return os.Open(full)
}
