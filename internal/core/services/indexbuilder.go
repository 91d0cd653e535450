package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
	"github.com/custodia-labs/ragchat/internal/postprocessors"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
	"github.com/custodia-labs/ragchat/internal/postprocessors/cleaner"
)

// Ensure IndexBuilder implements the interface.
var _ driving.IndexBuilder = (*IndexBuilder)(nil)

// Defaults for IndexBuilderOptions.
const (
	DefaultBatchSize   = 32
	DefaultConcurrency = 4
	DefaultMaxTries    = 3
)

// IndexBuilderOptions tunes how chunks are cleaned and embedded.
type IndexBuilderOptions struct {
	// BatchSize is the number of chunks per EmbedBatch call.
	BatchSize int

	// Concurrency is the number of batches embedded at once.
	Concurrency int

	// Blocklist holds boilerplate lines dropped by the cleaner.
	Blocklist []string

	// Filters run after the cleaner and before chunking.
	Filters []postprocessors.TextFilter

	// MaxTries bounds attempts per batch, the first one included.
	MaxTries int

	// NewBackOff overrides the retry schedule. Tests use a constant one.
	NewBackOff func() backoff.BackOff
}

func (o IndexBuilderOptions) withDefaults() IndexBuilderOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxTries <= 0 {
		o.MaxTries = DefaultMaxTries
	}
	if o.NewBackOff == nil {
		o.NewBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	return o
}

// IndexBuilder turns a source text file into a persisted vector index.
type IndexBuilder struct {
	store    driven.IndexStore
	embedder driven.EmbeddingService
	opts     IndexBuilderOptions
	now      func() time.Time
}

// NewIndexBuilder creates an index builder writing to store.
func NewIndexBuilder(
	store driven.IndexStore,
	embedder driven.EmbeddingService,
	opts IndexBuilderOptions,
) *IndexBuilder {
	return &IndexBuilder{
		store:    store,
		embedder: embedder,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// Build cleans, chunks and embeds the source, then replaces the persisted index.
// The previous index stays in place if any step fails.
func (b *IndexBuilder) Build(ctx context.Context, req domain.BuildRequest) (*domain.BuildMetadata, error) {
	if b.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service", domain.ErrEmbeddingUnavailable)
	}

	if req.EmbeddingModelID != "" && req.EmbeddingModelID != b.embedder.ModelName() {
		return nil, fmt.Errorf("%w: build asks for %q, embedding service runs %q",
			domain.ErrModelMismatch, req.EmbeddingModelID, b.embedder.ModelName())
	}

	start := b.now()
	logger.Section("Index Build")
	logger.Debug("Source: %s", req.SourcePath)
	logger.Debug("Output: %s", b.store.Path())

	split, err := chunker.New(chunker.WithChunkSize(req.ChunkSize), chunker.WithOverlap(req.ChunkOverlap))
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrSourceUnreadable, req.SourcePath)
	}

	pipeline := postprocessors.NewPipeline(split, cleaner.New(b.opts.Blocklist))
	for _, f := range b.opts.Filters {
		pipeline.Add(f)
	}

	logger.Section("Cleaning text")
	logger.Debug("Running %d filters", pipeline.Len())
	cleaned, err := pipeline.Filter(ctx, string(raw))
	if err != nil {
		return nil, err
	}
	logger.Debug("Cleaned text: %d characters", utf8.RuneCountInString(cleaned))

	logger.Section("Splitting into chunks")
	logger.Debug("Splitter: %s", split.Name())
	chunks, err := pipeline.Split(cleaned)
	if err != nil {
		return nil, err
	}
	logger.Info("Created %d chunks (size %d, overlap %d)", len(chunks), req.ChunkSize, req.ChunkOverlap)

	logger.Section("Creating embeddings")
	embedStart := b.now()
	vectors, err := b.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}
	embedDuration := b.now().Sub(embedStart)

	dims, err := b.checkDimensions(vectors)
	if err != nil {
		return nil, err
	}

	modelID := b.embedder.ModelName()

	snapshot := &domain.IndexSnapshot{
		ModelID:    modelID,
		Dimensions: dims,
		Chunks:     chunks,
		Vectors:    make([]domain.EmbeddingVector, len(chunks)),
		BuiltAt:    b.now(),
	}
	for i, c := range chunks {
		snapshot.Vectors[i] = domain.EmbeddingVector{ChunkOrdinal: c.Ordinal, Vector: vectors[i]}
	}

	meta := &domain.BuildMetadata{
		Timestamp:   b.now().Format(domain.MetadataTimeLayout),
		TotalChunks: len(chunks),
		ChunkSettings: domain.ChunkSettings{
			ChunkSize:    req.ChunkSize,
			ChunkOverlap: req.ChunkOverlap,
		},
		EmbeddingModel: modelID,
		Timing: domain.BuildTiming{
			EmbeddingDuration: domain.FormatSeconds(embedDuration),
			TotalDuration:     domain.FormatSeconds(b.now().Sub(start)),
		},
		ChunksPreview: make([]domain.ChunkPreview, len(chunks)),
	}
	for i, c := range chunks {
		meta.ChunksPreview[i] = domain.NewChunkPreview(c)
	}

	logger.Section("Saving vector store")
	if err := b.persist(ctx, snapshot, meta); err != nil {
		return nil, err
	}

	logger.Info("Total chunks: %d", meta.TotalChunks)
	logger.Info("Embedding time: %s", meta.Timing.EmbeddingDuration)
	logger.Info("Total time: %s", meta.Timing.TotalDuration)
	logger.Info("Vector store saved to %s", b.store.Path())

	return meta, nil
}

// persist writes the metadata and then the index. The index is the record
// the answer path loads, so it is replaced last. When replacing it fails the
// previous metadata is written back.
func (b *IndexBuilder) persist(ctx context.Context, snapshot *domain.IndexSnapshot, meta *domain.BuildMetadata) error {
	prev, err := b.store.LoadMetadata(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Previous build metadata unreadable: %v", err)
		}
		prev = nil
	}

	if err := b.store.SaveMetadata(ctx, meta); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	if err := b.store.Save(ctx, snapshot); err != nil {
		if prev != nil {
			if rerr := b.store.SaveMetadata(context.WithoutCancel(ctx), prev); rerr != nil {
				logger.Warn("Could not restore previous build metadata: %v", rerr)
			}
		} else {
			logger.Warn("Build metadata at %s describes an index that was not saved", b.store.Path())
		}
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// embedAll embeds chunks in batches with bounded parallelism.
// The result is in chunk order regardless of completion order.
func (b *IndexBuilder) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	if len(chunks) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)

	batches := (len(chunks) + b.opts.BatchSize - 1) / b.opts.BatchSize
	for start := 0; start < len(chunks); start += b.opts.BatchSize {
		end := min(start+b.opts.BatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		g.Go(func() error {
			out, err := b.embedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("%w: batch at chunk %d: %w", domain.ErrEmbeddingUnavailable, start, err)
			}
			copy(vectors[start:end], out)
			logger.Debug("Embedded chunks %d-%d", start, end-1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("Embedded %d chunks in %d batches", len(chunks), batches)
	return vectors, nil
}

// embedBatch calls the embedder, retrying transient failures.
func (b *IndexBuilder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	op := func() error {
		vecs, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if errors.Is(err, domain.ErrEmbeddingRejected) {
				return backoff.Permanent(err)
			}
			logger.Debug("Embedding batch failed, retrying: %v", err)
			return err
		}
		if len(vecs) != len(texts) {
			return backoff.Permanent(fmt.Errorf("got %d vectors for %d texts", len(vecs), len(texts)))
		}
		out = vecs
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(b.opts.NewBackOff(), uint64(b.opts.MaxTries-1)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}
	return out, nil
}

// checkDimensions requires every vector to have the embedder's size.
// An embedder that reports zero is held to the size of the first vector.
func (b *IndexBuilder) checkDimensions(vectors [][]float32) (int, error) {
	dims := b.embedder.Dimensions()
	if dims <= 0 && len(vectors) > 0 {
		dims = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dims {
			return 0, fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, i, len(v), dims)
		}
	}
	return dims, nil
}
