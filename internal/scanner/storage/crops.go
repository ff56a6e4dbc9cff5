// Package storage persists card crops that passed the confidence gate.
// Crops are written once under the upload directory with timestamped
// names and are never rewritten.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/licenseguard/licenseguard-backend/pkg/logger"
)

// CropStore writes card crop images to the local filesystem
type CropStore struct {
	dir string
	log *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewCropStore creates a crop store rooted at dir, creating it if needed
func NewCropStore(dir string, log *logger.Logger) (*CropStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &CropStore{
		dir: dir,
		log: log.WithComponent("crops"),
		now: time.Now,
	}, nil
}

// Dir returns the upload directory the store writes to
func (s *CropStore) Dir() string {
	return s.dir
}

// Save writes encoded JPEG bytes as a new crop file and returns its path.
// Files are created exclusively; a same-second collision gets a numeric
// suffix instead of overwriting the earlier crop.
func (s *CropStore) Save(jpeg []byte) (string, error) {
	stamp := s.now().Format("20060102150405")

	for attempt := 0; attempt < 100; attempt++ {
		name := fmt.Sprintf("cropped_%s.jpg", stamp)
		if attempt > 0 {
			name = fmt.Sprintf("cropped_%s_%d.jpg", stamp, attempt)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create crop file: %w", err)
		}

		if _, err := f.Write(jpeg); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("failed to write crop file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close crop file: %w", err)
		}

		s.log.Debug().Str("path", path).Int("bytes", len(jpeg)).Msg("crop saved")
		return path, nil
	}

	return "", fmt.Errorf("failed to allocate crop filename for stamp %s", stamp)
}

// Read returns the bytes of a previously saved crop. The path must sit
// inside the upload directory.
func (s *CropStore) Read(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("path %q is outside the upload directory", path)
	}

	return os.ReadFile(abs)
}
