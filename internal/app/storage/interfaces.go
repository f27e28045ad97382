// Package storage defines persistence interfaces for the store directory.
package storage

import (
	"context"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
)

// DirectoryStore persists the full store directory as one document.
//
// Load fails soft: any read or parse problem yields an empty directory, so
// callers always receive a usable mapping. Save overwrites the prior
// document in full; a failed save is the one error class that propagates.
type DirectoryStore interface {
	Load(ctx context.Context) store.Directory
	Save(ctx context.Context, dir store.Directory) error
}
