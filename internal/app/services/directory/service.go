// Package directory implements operations over the store directory.
package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
	"github.com/dongnae-labs/storefront/internal/app/storage"
	"github.com/dongnae-labs/storefront/internal/errors"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// Service performs load-mutate-save sequences over the directory store.
// A single-writer mutex serializes mutations so two concurrent sequences
// cannot clobber each other's changes.
type Service struct {
	mu    sync.Mutex
	store storage.DirectoryStore
	log   *logger.Logger
}

// New creates the directory service.
func New(st storage.DirectoryStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("directory")
	}
	return &Service{store: st, log: log}
}

// Get returns the record for id, or UnknownID.
func (s *Service) Get(ctx context.Context, id string) (store.Record, error) {
	dir := s.store.Load(ctx)
	rec, ok := dir[id]
	if !ok {
		return store.Record{}, errors.UnknownID(id)
	}
	return rec, nil
}

// List returns all records sorted by id.
func (s *Service) List(ctx context.Context) ([]store.Record, error) {
	dir := s.store.Load(ctx)
	out := make([]store.Record, 0, len(dir))
	for _, rec := range dir {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create inserts a new record and persists. Fails with DuplicateID before
// any mutation if the id is already taken.
func (s *Service) Create(ctx context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.store.Load(ctx)
	if _, exists := dir[rec.ID]; exists {
		return errors.DuplicateID(rec.ID)
	}
	dir[rec.ID] = rec
	if err := s.store.Save(ctx, dir); err != nil {
		return errors.Persistence(err)
	}
	s.log.WithFields(map[string]interface{}{"store_id": rec.ID, "name": rec.Name}).Info("store registered")
	return nil
}

// Update overwrites an existing record and persists. Fails with NotFound if
// the id is absent.
func (s *Service) Update(ctx context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.store.Load(ctx)
	if _, ok := dir[rec.ID]; !ok {
		return errors.NotFound(rec.ID)
	}
	dir[rec.ID] = rec
	if err := s.store.Save(ctx, dir); err != nil {
		return errors.Persistence(err)
	}
	return nil
}

// Delete removes each present id; absent ids are silently ignored. The
// directory is persisted once after all removals.
func (s *Service) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.store.Load(ctx)
	removed := 0
	for _, id := range ids {
		if _, ok := dir[id]; ok {
			delete(dir, id)
			removed++
		}
	}
	if err := s.store.Save(ctx, dir); err != nil {
		return errors.Persistence(err)
	}
	s.log.WithFields(map[string]interface{}{"requested": len(ids), "removed": removed}).Info("stores deleted")
	return nil
}

// SetPassword overwrites the stored password hash for id and persists.
// Fails with NotFound if the id is absent.
func (s *Service) SetPassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.store.Load(ctx)
	rec, ok := dir[id]
	if !ok {
		return errors.NotFound(id)
	}
	rec.Password = passwordHash
	dir[id] = rec
	if err := s.store.Save(ctx, dir); err != nil {
		return errors.Persistence(err)
	}
	s.log.WithField("store_id", id).Info("password updated")
	return nil
}

// AppendImages appends filenames to a record's image list and persists.
func (s *Service) AppendImages(ctx context.Context, id string, filenames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.store.Load(ctx)
	rec, ok := dir[id]
	if !ok {
		return errors.NotFound(id)
	}
	rec.ImageFiles = append(rec.ImageFiles, filenames...)
	dir[id] = rec
	if err := s.store.Save(ctx, dir); err != nil {
		return errors.Persistence(err)
	}
	return nil
}
