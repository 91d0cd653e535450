package domain

// Chunk is a contiguous, bounded-length slice of cleaned source text.
// Chunks are created once by the index builder and never mutated.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Ordinal is the creation order of the chunk, starting at zero.
	Ordinal int
}

// EmbeddingVector is the embedding of exactly one chunk.
type EmbeddingVector struct {
	// ChunkOrdinal identifies the chunk this vector belongs to.
	ChunkOrdinal int

	// Vector is the embedding. Its length is fixed by the embedding model.
	Vector []float32
}

// ScoredChunk is a chunk paired with its similarity to a query.
type ScoredChunk struct {
	Chunk      Chunk
	Similarity float64
}
