package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The same service, with the same model, must be used to build the index
// and to embed queries against it.
//
// Implementations include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - text-embeddings-inference serving sentence-transformers models
//   - the built-in hashing embedder
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	// Failures worth retrying wrap domain.ErrEmbeddingUnavailable; requests
	// the provider refuses outright wrap domain.ErrEmbeddingRejected.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	// Zero means the size is only known after the first embedding.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping checks the provider and model without embedding anything.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
