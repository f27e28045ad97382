// Package images manages the store photo file area.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dongnae-labs/storefront/internal/errors"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// Service writes uploaded photos into a flat directory. Records reference
// photos by filename only; no content-type or size validation is performed
// on upload.
type Service struct {
	dir string
	log *logger.Logger
}

// New creates the image service, ensuring the file area exists.
func New(dir string, log *logger.Logger) (*Service, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("image directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	if log == nil {
		log = logger.NewDefault("images")
	}
	return &Service{dir: dir, log: log}, nil
}

// Save writes the upload under its submitted filename and returns the stored
// name. Path separators are rejected so uploads cannot escape the file area.
func (s *Service) Save(filename string, data []byte) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.Validation("image filename is required")
	}
	if name != filename {
		return "", errors.Validation("image filename must not contain path separators")
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", errors.Persistence(err)
	}
	s.log.WithFields(map[string]interface{}{"file": name, "bytes": len(data)}).Debug("image stored")
	return name, nil
}

// Open returns the stored bytes for a referenced filename.
func (s *Service) Open(filename string) ([]byte, error) {
	name := filepath.Base(filename)
	if name != filename {
		return nil, errors.Validation("image filename must not contain path separators")
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(filename)
		}
		return nil, errors.Internal("read image", err)
	}
	return data, nil
}
