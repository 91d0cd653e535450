package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Index file names inside the vector store directory.
const (
	IndexFileName    = "index.gob"
	MetadataFileName = "embedding_info.json"
)

// MetadataTimeLayout is the timestamp format used in BuildMetadata.
const MetadataTimeLayout = "2006-01-02 15:04:05"

// previewLength is the number of characters kept in a chunk preview.
const previewLength = 100

// IndexSnapshot is the searchable structure over all chunk embeddings.
// It is immutable once built and replaced wholesale on rebuild.
type IndexSnapshot struct {
	// ModelID is the embedding model the vectors were produced with.
	ModelID string

	// Dimensions is the length of every vector.
	Dimensions int

	// Chunks holds the chunk texts in ordinal order.
	Chunks []Chunk

	// Vectors holds one embedding per chunk, in the same order as Chunks.
	Vectors []EmbeddingVector

	// BuiltAt is when the index builder produced the snapshot.
	BuiltAt time.Time
}

// Len returns the number of indexed chunks.
func (s *IndexSnapshot) Len() int {
	return len(s.Chunks)
}

// Validate checks that every vector maps to exactly one chunk and that
// all vectors share the snapshot's dimensionality.
func (s *IndexSnapshot) Validate() error {
	if len(s.Chunks) != len(s.Vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", ErrIndexCorrupt, len(s.Chunks), len(s.Vectors))
	}
	for i, c := range s.Chunks {
		if c.Ordinal != i {
			return fmt.Errorf("%w: chunk %d has ordinal %d", ErrIndexCorrupt, i, c.Ordinal)
		}
		v := s.Vectors[i]
		if v.ChunkOrdinal != c.Ordinal {
			return fmt.Errorf("%w: vector %d belongs to chunk %d", ErrIndexCorrupt, i, v.ChunkOrdinal)
		}
		if len(v.Vector) != s.Dimensions {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				ErrDimensionMismatch, i, len(v.Vector), s.Dimensions)
		}
	}
	return nil
}

// BuildMetadata is the human-readable record written alongside the index.
// Nothing in the request path reads it.
type BuildMetadata struct {
	Timestamp      string         `json:"timestamp"`
	TotalChunks    int            `json:"total_chunks"`
	ChunkSettings  ChunkSettings  `json:"chunk_settings"`
	EmbeddingModel string         `json:"embedding_model"`
	Timing         BuildTiming    `json:"timing"`
	ChunksPreview  []ChunkPreview `json:"chunks_preview"`
}

// ChunkSettings records the chunking parameters of a build.
type ChunkSettings struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
}

// BuildTiming records how long a build took, formatted as "%.2f seconds".
type BuildTiming struct {
	EmbeddingDuration string `json:"embedding_duration"`
	TotalDuration     string `json:"total_duration"`
}

// ChunkPreview is a truncated view of one chunk for auditing.
type ChunkPreview struct {
	ID      int    `json:"id"`
	Length  int    `json:"length"`
	Preview string `json:"preview"`
}

// NewChunkPreview builds the preview entry for a chunk. Length counts characters.
func NewChunkPreview(c Chunk) ChunkPreview {
	n := utf8.RuneCountInString(c.Text)
	preview := c.Text
	if n > previewLength {
		preview = string([]rune(c.Text)[:previewLength]) + "..."
	}
	return ChunkPreview{ID: c.Ordinal, Length: n, Preview: preview}
}

// FormatSeconds renders a duration the way BuildTiming stores it.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f seconds", d.Seconds())
}

// BuildRequest configures one index build.
type BuildRequest struct {
	// SourcePath is the raw text file to index.
	SourcePath string

	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive chunks.
	ChunkOverlap int

	// EmbeddingModelID, when set, must equal the embedding service's model
	// name. The retriever refuses an index stamped with any other model.
	EmbeddingModelID string
}
