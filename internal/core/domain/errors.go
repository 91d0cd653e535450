package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuery indicates an answer was requested for a blank query.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// Index Errors.

	// ErrSourceUnreadable indicates the source text could not be read.
	ErrSourceUnreadable = errors.New("source text unreadable")

	// ErrIndexNotFound indicates no persisted index exists at the configured path.
	// Run the index builder first.
	ErrIndexNotFound = errors.New("vector index not found")

	// ErrIndexCorrupt indicates the persisted index could not be decoded
	// or does not satisfy its structural invariants.
	ErrIndexCorrupt = errors.New("vector index corrupt")

	// ErrDimensionMismatch indicates vectors of different lengths were mixed.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelMismatch indicates the index was built with a different embedding model
	// than the one configured for retrieval.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// Provider Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingRejected indicates the embedding service refused the request
	// itself, such as an unknown model or a bad key. Retrying cannot succeed.
	ErrEmbeddingRejected = errors.New("embedding request rejected")

	// ErrLLMUnavailable indicates the completion service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrCompletionFailed indicates a completion request failed in flight.
	// No exchange is persisted when this is returned.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrAnswerFormat indicates the completion text did not match the expected
	// structured answer format.
	ErrAnswerFormat = errors.New("answer format invalid")
)
