package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IndexBuilder builds the vector index from source text.
type IndexBuilder interface {
	// Build cleans, chunks and embeds the source, then replaces the persisted index.
	Build(ctx context.Context, req domain.BuildRequest) (*domain.BuildMetadata, error)
}

// Retriever finds the chunks most similar to a query.
type Retriever interface {
	// Retrieve returns up to topK chunk texts, most similar first.
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)

	// Search is Retrieve with similarity scores and ordinals.
	Search(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)
}

// IndexInspector reports on the persisted index without loading it.
type IndexInspector interface {
	// Metadata returns the record written by the last successful build.
	// Returns domain.ErrNotFound if no build has completed.
	Metadata(ctx context.Context) (*domain.BuildMetadata, error)

	// Location returns the index file path.
	Location() string
}
