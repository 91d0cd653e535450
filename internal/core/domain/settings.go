package domain

import (
	"fmt"
	"path/filepath"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderHuggingFace is a text-embeddings-inference server
	// hosting a sentence-transformers model.
	AIProviderHuggingFace AIProvider = "huggingface"

	// AIProviderLocal is the built-in hashing embedder. No network.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderHuggingFace, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderHuggingFace || p == AIProviderLocal
}

// SupportsCompletion returns true if the provider can generate answers.
func (p AIProvider) SupportsCompletion() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderHuggingFace:
		return "Hugging Face text-embeddings-inference"
	case AIProviderLocal:
		return "Built-in hashing embedder"
	default:
		return unknownDescription
	}
}

// PathSettings holds filesystem locations.
type PathSettings struct {
	// DataPath is the source text file the index is built from.
	DataPath string

	// VectorDir is the directory holding the index and its metadata.
	VectorDir string

	// IndexPath is the index file. Defaults to VectorDir/index.gob.
	IndexPath string

	// HistoryFile is the conversation database.
	HistoryFile string

	// PromptsDir holds editable prompt templates.
	PromptsDir string
}

// MetadataPath returns the location of the build metadata file.
func (p PathSettings) MetadataPath() string {
	return filepath.Join(filepath.Dir(p.IndexPath), MetadataFileName)
}

// IndexSettings holds index builder configuration.
type IndexSettings struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive chunks.
	ChunkOverlap int

	// BatchSize is the number of chunks sent per embedding request.
	BatchSize int

	// Concurrency is the number of embedding batches in flight.
	Concurrency int

	// Blocklist holds boilerplate lines removed during cleaning.
	Blocklist []string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name. It is stamped into the index.
	Model string

	// BaseURL is the API endpoint (Ollama, text-embeddings-inference, OpenAI-compatible).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size for providers that cannot report it up front.
	Dimensions int

	// RequestsPerSecond throttles outbound calls. Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature controls randomness.
	Temperature float64

	// MaxTokens caps the answer length. Zero uses the provider default.
	MaxTokens int

	// RequestsPerSecond throttles outbound calls. Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.SupportsCompletion() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChatSettings holds answer pipeline configuration.
type ChatSettings struct {
	// TopK is the number of chunks retrieved per query.
	TopK int

	// ShortTermHistory is the number of recent exchanges shown to the completion service.
	ShortTermHistory int

	// MaxSessions bounds how many sessions the short-term cache tracks.
	MaxSessions int
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address for the chat API.
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Paths     PathSettings
	Index     IndexSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chat      ChatSettings
	Server    ServerSettings
}

// DefaultBlocklist returns the boilerplate lines stripped from the source text.
func DefaultBlocklist() []string {
	return []string{
		"HSC 26",
		"অনলাইন ব্যাচ",
		"বাংলা ইংরেজি আইসিটি",
		"শিখনফল",
		"MINUTE",
		"SCHOOL",
		"শিক্ষা বোর্ড",
		"প্রশ্ন",
		"উত্তর",
		"নম্বর",
		"মার্ক",
		"পৃষ্ঠা",
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// The completion provider still needs an API key before answers can be generated.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Paths: PathSettings{
			DataPath:    filepath.Join("data", "New_10m.txt"),
			VectorDir:   "vector_store",
			IndexPath:   filepath.Join("vector_store", IndexFileName),
			HistoryFile: "chat_data.db",
		},
		Index: IndexSettings{
			ChunkSize:    512,
			ChunkOverlap: 128,
			BatchSize:    32,
			Concurrency:  4,
			Blocklist:    DefaultBlocklist(),
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderHuggingFace,
			Model:    "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-3.5-turbo",
		},
		Chat: ChatSettings{
			TopK:             5,
			ShortTermHistory: 25,
			MaxSessions:      1024,
		},
		Server: ServerSettings{
			Addr: ":8000",
		},
	}
}

// Validate checks the settings for values no component can work with.
func (s AppSettings) Validate() error {
	if s.Index.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, s.Index.ChunkSize)
	}
	if s.Index.ChunkOverlap < 0 || s.Index.ChunkOverlap >= s.Index.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d",
			ErrInvalidInput, s.Index.ChunkSize, s.Index.ChunkOverlap)
	}
	if s.Index.BatchSize <= 0 || s.Index.Concurrency <= 0 {
		return fmt.Errorf("%w: batch size and concurrency must be positive", ErrInvalidInput)
	}
	if s.Chat.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, s.Chat.TopK)
	}
	if s.Chat.ShortTermHistory < 0 {
		return fmt.Errorf("%w: short-term history must not be negative", ErrInvalidInput)
	}
	if s.Chat.MaxSessions <= 0 {
		return fmt.Errorf("%w: max sessions must be positive", ErrInvalidInput)
	}
	if !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: %q cannot provide embeddings", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.LLM.Provider.SupportsCompletion() {
		return fmt.Errorf("%w: %q cannot provide completions", ErrInvalidInput, s.LLM.Provider)
	}
	if s.Paths.IndexPath == "" || s.Paths.HistoryFile == "" {
		return fmt.Errorf("%w: index path and history file are required", ErrInvalidInput)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHuggingFace: "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
		AIProviderOllama:      "nomic-embed-text",
		AIProviderOpenAI:      "text-embedding-3-small",
		AIProviderLocal:       "local/hashing-256",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-3.5-turbo",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2": 384,
		"sentence-transformers/all-MiniLM-L6-v2":                      384,
		"nomic-embed-text":                                            768,
		"mxbai-embed-large":                                           1024,
		"all-minilm":                                                  384,
		"text-embedding-3-small":                                      1536,
		"text-embedding-3-large":                                      3072,
		"text-embedding-ada-002":                                      1536,
	}
}
