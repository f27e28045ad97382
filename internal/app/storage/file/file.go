// Package file implements the directory store over a single JSON document.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// Store persists the directory as one pretty-printed UTF-8 JSON file. The
// whole file is the unit of consistency: Load reads the full document and
// Save rewrites it. Writes go through a temp file followed by a rename so a
// crash mid-write cannot leave a corrupt document behind.
type Store struct {
	path string
	log  *logger.Logger
}

// New creates a file store at the given path.
func New(path string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("directory-file")
	}
	return &Store{path: path, log: log}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load reads the full directory. Any read or parse error is logged and
// swallowed: callers always get a usable, possibly empty, mapping.
func (s *Store) Load(_ context.Context) store.Directory {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("read directory file; starting empty")
		}
		return store.Directory{}
	}

	var raw map[string]store.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.WithError(err).Warn("parse directory file; starting empty")
		return store.Directory{}
	}

	dir := make(store.Directory, len(raw))
	for id, rec := range raw {
		rec.ID = id
		dir[id] = rec
	}
	return dir
}

// Save serializes the full mapping and atomically replaces the prior
// document. Errors propagate: there is no safe fallback for a failed save.
func (s *Store) Save(_ context.Context, dir store.Directory) error {
	data, err := json.MarshalIndent(dir, "", "    ")
	if err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}
	data = append(data, '\n')

	parent := filepath.Dir(s.path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create directory parent: %w", err)
	}

	tmp, err := os.CreateTemp(parent, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write directory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace directory file: %w", err)
	}
	return nil
}
