package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Paths, settings.Paths)
	assert.Equal(t, defaults.Index, settings.Index)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.Equal(t, defaults.Chat, settings.Chat)
	assert.Equal(t, ":8000", settings.Server.Addr)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"index.chunk_size":   int64(256),
		"index.blocklist":    []any{"HEADER", "FOOTER"},
		"embedding.provider": "openai",
		"embedding.model":    "text-embedding-3-large",
		"llm.temperature":    0.2,
		"paths.vector_dir":   "store",
	})
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, 256, settings.Index.ChunkSize)
	assert.Equal(t, []string{"HEADER", "FOOTER"}, settings.Index.Blocklist)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.InDelta(t, 0.2, settings.LLM.Temperature, 1e-9)
	assert.Equal(t, filepath.Join("store", domain.IndexFileName), settings.Paths.IndexPath)
}

func TestSettingsService_Get_EnvOverridesFile(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"index.chunk_size": int64(256),
		"chat.top_k":       int64(3),
	})
	env := map[string]string{
		"index.chunk_size": "300",
		"llm.api_key":      "sk-env",
		"index.blocklist":  "A, B,,C",
	}
	service := NewSettingsService(store, env)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, 300, settings.Index.ChunkSize)
	assert.Equal(t, 3, settings.Chat.TopK)
	assert.Equal(t, "sk-env", settings.LLM.APIKey)
	assert.Equal(t, []string{"A", "B", "C"}, settings.Index.Blocklist)
}

func TestSettingsService_Get_InvalidNumberNamesKey(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), map[string]string{
		"index.chunk_overlap": "lots",
	})

	_, err := service.Get()

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "index.chunk_overlap")
}

func TestSettingsService_Get_InvalidProvider(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(map[string]any{
		"llm.provider": "skynet",
	}), nil)

	_, err := service.Get()

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestSettingsService_Get_ValidatesResult(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), map[string]string{
		"index.chunk_size":    "100",
		"index.chunk_overlap": "100",
	})

	_, err := service.Get()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_ProviderDefaultModel(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantEmbed string
		wantLLM   string
	}{
		{
			name:      "ollama for both",
			env:       map[string]string{"embedding.provider": "ollama", "llm.provider": "ollama"},
			wantEmbed: "nomic-embed-text",
			wantLLM:   "llama3.2",
		},
		{
			name:      "explicit model wins",
			env:       map[string]string{"embedding.provider": "local", "embedding.model": "custom"},
			wantEmbed: "custom",
			wantLLM:   "gpt-3.5-turbo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := NewSettingsService(memory.NewConfigStore(), tt.env).Get()
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmbed, settings.Embedding.Model)
			assert.Equal(t, tt.wantLLM, settings.LLM.Model)
		})
	}
}

func TestSettingsService_Get_AnthropicKey(t *testing.T) {
	env := map[string]string{
		"llm.provider":          "anthropic",
		"llm.api_key":           "sk-openai",
		"llm.anthropic_api_key": "sk-ant",
	}

	settings, err := NewSettingsService(memory.NewConfigStore(), env).Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-ant", settings.LLM.APIKey)
	assert.Equal(t, "claude-3-5-haiku-latest", settings.LLM.Model)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.Set("index.chunk_size", "400"))
	require.NoError(t, service.Set("llm.temperature", "0.5"))
	require.NoError(t, service.Set("index.blocklist", "X,Y"))
	require.NoError(t, service.Set("llm.provider", "ollama"))

	assert.Equal(t, 400, store.GetInt("index.chunk_size"))
	assert.InDelta(t, 0.5, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, []string{"X", "Y"}, store.GetStringSlice("index.blocklist"))
	assert.Equal(t, 4, store.Saves())

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 400, settings.Index.ChunkSize)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "search.mode", "hybrid"},
		{"not an integer", "chat.top_k", "five"},
		{"not a number", "llm.temperature", "warm"},
		{"unknown provider", "embedding.provider", "skynet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			err := NewSettingsService(store, nil).Set(tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, 0, store.Saves())
		})
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()

	assert.Contains(t, keys, "index.chunk_size")
	assert.Contains(t, keys, "llm.anthropic_api_key")
	assert.IsIncreasing(t, keys)
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, IsSecretKey("llm.api_key"))
	assert.True(t, IsSecretKey("llm.anthropic_api_key"))
	assert.False(t, IsSecretKey("llm.model"))
}
