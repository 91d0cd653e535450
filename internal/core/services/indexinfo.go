package services

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure IndexInfoService implements the interface.
var _ driving.IndexInspector = (*IndexInfoService)(nil)

// IndexInfoService exposes the build metadata of an index store.
type IndexInfoService struct {
	store driven.IndexStore
}

// NewIndexInfoService creates an inspector over store.
func NewIndexInfoService(store driven.IndexStore) *IndexInfoService {
	return &IndexInfoService{store: store}
}

// Metadata returns the record written by the last successful build.
func (s *IndexInfoService) Metadata(ctx context.Context) (*domain.BuildMetadata, error) {
	return s.store.LoadMetadata(ctx)
}

// Location returns the index file path.
func (s *IndexInfoService) Location() string {
	return s.store.Path()
}
