package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IndexStore persists the vector index produced by the index builder.
// Save must replace the previous snapshot atomically: a concurrent Load
// sees either the old snapshot or the new one, never a partial write.
type IndexStore interface {
	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snapshot *domain.IndexSnapshot) error

	// Load reads the persisted snapshot.
	// Returns domain.ErrIndexNotFound if none exists and domain.ErrIndexCorrupt
	// if it cannot be decoded.
	Load(ctx context.Context) (*domain.IndexSnapshot, error)

	// SaveMetadata writes the build metadata record.
	SaveMetadata(ctx context.Context, meta *domain.BuildMetadata) error

	// LoadMetadata reads the build metadata record.
	// Returns domain.ErrNotFound if none exists.
	LoadMetadata(ctx context.Context) (*domain.BuildMetadata, error)

	// Path returns the location of the index file.
	Path() string
}
