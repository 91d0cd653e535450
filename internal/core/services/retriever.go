package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure both retrievers implement the interface.
var (
	_ driving.Retriever = (*Retriever)(nil)
	_ driving.Retriever = (*ReloadableRetriever)(nil)
)

// Retriever scores a query against every chunk of a loaded index.
// The snapshot is never mutated after load, so any number of
// goroutines may search concurrently.
type Retriever struct {
	snapshot *domain.IndexSnapshot
	embedder driven.EmbeddingService
	norms    []float64
}

// NewRetriever loads the index from store and checks that it was built
// with the same embedding model.
func NewRetriever(ctx context.Context, store driven.IndexStore, embedder driven.EmbeddingService) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service", domain.ErrEmbeddingUnavailable)
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if dims := embedder.Dimensions(); dims > 0 && snapshot.Len() > 0 && dims != snapshot.Dimensions {
		return nil, fmt.Errorf("%w: index has %d dimensions, embedder produces %d",
			domain.ErrDimensionMismatch, snapshot.Dimensions, dims)
	}
	if snapshot.ModelID != embedder.ModelName() {
		return nil, fmt.Errorf("%w: index built with %q, configured model is %q",
			domain.ErrModelMismatch, snapshot.ModelID, embedder.ModelName())
	}

	norms := make([]float64, len(snapshot.Vectors))
	for i, v := range snapshot.Vectors {
		norms[i] = norm(v.Vector)
	}

	logger.Debug("Loaded index %s: %d chunks, %d dimensions, model %s",
		store.Path(), snapshot.Len(), snapshot.Dimensions, snapshot.ModelID)

	return &Retriever{snapshot: snapshot, embedder: embedder, norms: norms}, nil
}

// ChunkCount returns the number of indexed chunks.
func (r *Retriever) ChunkCount() int {
	return r.snapshot.Len()
}

// ModelID returns the embedding model the index was built with.
func (r *Retriever) ModelID() string {
	return r.snapshot.ModelID
}

// Retrieve returns up to topK chunk texts, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	scored, err := r.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	docs := make([]string, len(scored))
	for i, s := range scored {
		docs[i] = s.Chunk.Text
	}
	return docs, nil
}

// Search returns up to topK chunks with their cosine similarity to the query.
// Equal similarities are ordered by chunk ordinal.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if r.snapshot.Len() == 0 {
		return []domain.ScoredChunk{}, nil
	}

	qvec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qvec) != r.snapshot.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(qvec), r.snapshot.Dimensions)
	}
	qnorm := norm(qvec)

	scored := make([]domain.ScoredChunk, len(r.snapshot.Chunks))
	for i, c := range r.snapshot.Chunks {
		scored[i] = domain.ScoredChunk{
			Chunk:      c,
			Similarity: cosine(qvec, qnorm, r.snapshot.Vectors[i].Vector, r.norms[i]),
		}
	}

	slices.SortStableFunc(scored, func(a, b domain.ScoredChunk) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return a.Chunk.Ordinal - b.Chunk.Ordinal
		}
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine treats a zero vector as orthogonal to everything.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}

// ReloadableRetriever serves searches from the current Retriever and
// swaps in a freshly loaded one on Reload.
type ReloadableRetriever struct {
	store    driven.IndexStore
	embedder driven.EmbeddingService
	current  atomic.Pointer[Retriever]
}

// NewReloadableRetriever loads the index once; it fails like NewRetriever.
func NewReloadableRetriever(
	ctx context.Context,
	store driven.IndexStore,
	embedder driven.EmbeddingService,
) (*ReloadableRetriever, error) {
	r, err := NewRetriever(ctx, store, embedder)
	if err != nil {
		return nil, err
	}
	rr := &ReloadableRetriever{store: store, embedder: embedder}
	rr.current.Store(r)
	return rr, nil
}

// Reload loads the index again. On failure the previous index keeps serving.
func (rr *ReloadableRetriever) Reload(ctx context.Context) error {
	r, err := NewRetriever(ctx, rr.store, rr.embedder)
	if err != nil {
		logger.Warn("Index reload failed, keeping %d chunks: %v", rr.Current().ChunkCount(), err)
		return err
	}
	rr.current.Store(r)
	logger.Info("Index reloaded: %d chunks", r.ChunkCount())
	return nil
}

// Current returns the retriever serving requests right now.
func (rr *ReloadableRetriever) Current() *Retriever {
	return rr.current.Load()
}

// Retrieve delegates to the current retriever.
func (rr *ReloadableRetriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	return rr.Current().Retrieve(ctx, query, topK)
}

// Search delegates to the current retriever.
func (rr *ReloadableRetriever) Search(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	return rr.Current().Search(ctx, query, topK)
}
