// Package domain defines the core entities of ragchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: a bounded slice of cleaned source text, the unit of retrieval
//   - IndexSnapshot: the persisted vector index over all chunks
//   - BuildMetadata: the audit record written next to the index
//   - Exchange: one recorded query/answer pair within a session
//   - ParsedAnswer: the structured output of the completion service
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
