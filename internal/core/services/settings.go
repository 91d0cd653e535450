package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataPath    = "paths.data_path"
	keyVectorDir   = "paths.vector_dir"
	keyIndexPath   = "paths.index_path"
	keyHistoryFile = "paths.history_file"
	keyPromptsDir  = "paths.prompts_dir"

	keyChunkSize    = "index.chunk_size"
	keyChunkOverlap = "index.chunk_overlap"
	keyBatchSize    = "index.batch_size"
	keyConcurrency  = "index.concurrency"
	keyBlocklist    = "index.blocklist"

	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedRPS        = "embedding.requests_per_second"

	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyAnthropicAPIKey = "llm.anthropic_api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMRPS          = "llm.requests_per_second"

	keyTopK             = "chat.top_k"
	keyShortTermHistory = "chat.short_term_history"
	keyMaxSessions      = "chat.max_sessions"

	keyServerAddr = "server.addr"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindList
)

// knownKeys lists every settable key with the type it is stored as.
var knownKeys = map[string]valueKind{
	keyDataPath:         kindString,
	keyVectorDir:        kindString,
	keyIndexPath:        kindString,
	keyHistoryFile:      kindString,
	keyPromptsDir:       kindString,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyBatchSize:        kindInt,
	keyConcurrency:      kindInt,
	keyBlocklist:        kindList,
	keyEmbedProvider:    kindString,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedDimensions:  kindInt,
	keyEmbedRPS:         kindFloat,
	keyLLMProvider:      kindString,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyAnthropicAPIKey:  kindString,
	keyLLMTemperature:   kindFloat,
	keyLLMMaxTokens:     kindInt,
	keyLLMRPS:           kindFloat,
	keyTopK:             kindInt,
	keyShortTermHistory: kindInt,
	keyMaxSessions:      kindInt,
	keyServerAddr:       kindString,
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecretKey reports whether a key holds a credential that should be masked.
func IsSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key")
}

// SettingsService resolves settings from defaults, the config file and
// environment overrides, in that order.
type SettingsService struct {
	configStore driven.ConfigStore
	env         map[string]string
}

// NewSettingsService creates a new settings service.
// env holds dotted keys taken from the environment; it may be nil.
func NewSettingsService(configStore driven.ConfigStore, env map[string]string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		env:         env,
	}
}

// ConfigPath returns the configuration file location.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	r := resolver{svc: s}

	settings := &domain.AppSettings{
		Paths: domain.PathSettings{
			DataPath:    r.str(keyDataPath, defaults.Paths.DataPath),
			VectorDir:   r.str(keyVectorDir, defaults.Paths.VectorDir),
			HistoryFile: r.str(keyHistoryFile, defaults.Paths.HistoryFile),
			PromptsDir:  r.str(keyPromptsDir, defaults.Paths.PromptsDir),
		},
		Index: domain.IndexSettings{
			ChunkSize:    r.integer(keyChunkSize, defaults.Index.ChunkSize),
			ChunkOverlap: r.integer(keyChunkOverlap, defaults.Index.ChunkOverlap),
			BatchSize:    r.integer(keyBatchSize, defaults.Index.BatchSize),
			Concurrency:  r.integer(keyConcurrency, defaults.Index.Concurrency),
			Blocklist:    r.list(keyBlocklist, defaults.Index.Blocklist),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          r.provider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:           r.str(keyEmbedBaseURL, ""),
			APIKey:            r.str(keyEmbedAPIKey, ""),
			Dimensions:        r.integer(keyEmbedDimensions, 0),
			RequestsPerSecond: r.float(keyEmbedRPS, 0),
		},
		LLM: domain.LLMSettings{
			Provider:          r.provider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:           r.str(keyLLMBaseURL, ""),
			APIKey:            r.str(keyLLMAPIKey, ""),
			Temperature:       r.float(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:         r.integer(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			RequestsPerSecond: r.float(keyLLMRPS, 0),
		},
		Chat: domain.ChatSettings{
			TopK:             r.integer(keyTopK, defaults.Chat.TopK),
			ShortTermHistory: r.integer(keyShortTermHistory, defaults.Chat.ShortTermHistory),
			MaxSessions:      r.integer(keyMaxSessions, defaults.Chat.MaxSessions),
		},
		Server: domain.ServerSettings{
			Addr: r.str(keyServerAddr, defaults.Server.Addr),
		},
	}

	// The index lives in the vector directory unless placed explicitly.
	settings.Paths.IndexPath = r.str(keyIndexPath,
		filepath.Join(settings.Paths.VectorDir, domain.IndexFileName))

	// A provider chosen without a model gets that provider's default model.
	settings.Embedding.Model = r.str(keyEmbedModel,
		modelFor(domain.DefaultEmbeddingModels(), settings.Embedding.Provider, defaults.Embedding.Model))
	settings.LLM.Model = r.str(keyLLMModel,
		modelFor(domain.DefaultLLMModels(), settings.LLM.Provider, defaults.LLM.Model))

	if settings.LLM.Provider == domain.AIProviderAnthropic {
		if key := r.str(keyAnthropicAPIKey, ""); key != "" {
			settings.LLM.APIKey = key
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set validates and writes a key to the configuration file.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, key)
	}

	typed, err := convert(key, kind, value)
	if err != nil {
		return err
	}
	if key == keyEmbedProvider || key == keyLLMProvider {
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q for %s", domain.ErrInvalidInput, value, key)
		}
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func modelFor(models map[domain.AIProvider]string, provider domain.AIProvider, fallback string) string {
	if m, ok := models[provider]; ok {
		return m
	}
	return fallback
}

// resolver reads one key at a time and remembers the first bad value.
type resolver struct {
	svc *SettingsService
	err error
}

// raw returns the environment value if set, else the config file value.
func (r *resolver) raw(key string) (any, bool) {
	if v, ok := r.svc.env[key]; ok {
		return v, true
	}
	return r.svc.configStore.Get(key)
}

func (r *resolver) fail(key string, val any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s has invalid value %v", domain.ErrInvalidInput, key, val)
	}
}

func (r *resolver) str(key, def string) string {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	s, ok := val.(string)
	if !ok {
		r.fail(key, val)
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func (r *resolver) integer(key string, def int) int {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	r.fail(key, val)
	return def
}

func (r *resolver) float(key string, def float64) float64 {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	r.fail(key, val)
	return def
}

func (r *resolver) list(key string, def []string) []string {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				r.fail(key, val)
				return def
			}
			out = append(out, s)
		}
		return out
	case string:
		return splitList(v)
	}
	r.fail(key, val)
	return def
}

func (r *resolver) provider(key string, def domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(r.str(key, string(def)))
	if !p.IsValid() {
		r.fail(key, p)
		return def
	}
	return p
}

// convert turns a command-line value into the type stored for key.
func convert(key string, kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidInput, key, value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidInput, key, value)
		}
		return f, nil
	case kindList:
		return splitList(value), nil
	default:
		return value, nil
	}
}

// splitList parses a comma-separated list, dropping blank entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
