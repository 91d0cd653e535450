package ai

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantErr     bool
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "huggingface provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderHuggingFace,
				Model:    "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
			},
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name:     "local provider creates service",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderLocal},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
		{
			name: "anthropic cannot embed",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil: true,
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantNil && svc != nil {
				t.Error("expected nil service, got non-nil")
			}
			if !tt.wantNil && svc == nil {
				t.Error("expected non-nil service, got nil")
			}
			if svc != nil {
				svc.Close()
			}
		})
	}
}

func TestCreateEmbeddingService_Dimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderHuggingFace,
		Model:    "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.Dimensions(); got != 384 {
		t.Errorf("Dimensions() = %d, want 384", got)
	}

	local, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderLocal,
		Dimensions: 64,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := local.Dimensions(); got != 64 {
		t.Errorf("Dimensions() = %d, want 64", got)
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.LLMSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "llama3.2",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "gpt-3.5-turbo",
			},
		},
		{
			name: "anthropic provider creates service",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-haiku-latest",
			},
		},
		{
			name: "huggingface cannot complete",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderHuggingFace,
			},
			wantNil: true,
		},
		{
			name: "unknown provider returns nil (not configured)",
			settings: &domain.LLMSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantNil && svc != nil {
				t.Error("expected nil service, got non-nil")
			}
			if !tt.wantNil && svc == nil {
				t.Error("expected non-nil service, got nil")
			}
			if svc != nil {
				svc.Close()
			}
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("nil settings returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(nil)
		if err != nil || svc != nil {
			t.Errorf("expected nil, nil; got %v, %v", svc, err)
		}
	})

	t.Run("local provider validates offline", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderLocal})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc == nil {
			t.Fatal("expected non-nil service")
		}
		svc.Close()
	})

	t.Run("unreachable server returns error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderHuggingFace,
			BaseURL:  srv.URL,
			Model:    "m",
		})
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Errorf("expected ErrEmbeddingUnavailable, got %v", err)
		}
		if svc != nil {
			t.Error("expected nil service")
		}
	})
}

func TestCreateAndValidateLLMService(t *testing.T) {
	t.Run("unconfigured settings returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateLLMService(&domain.LLMSettings{})
		if err != nil || svc != nil {
			t.Errorf("expected nil, nil; got %v, %v", svc, err)
		}
	})

	t.Run("unreachable server returns error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		svc, err := CreateAndValidateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			t.Errorf("expected ErrLLMUnavailable, got %v", err)
		}
		if svc != nil {
			t.Error("expected nil service")
		}
	})
}

func TestInitialise(t *testing.T) {
	t.Run("nil settings", func(t *testing.T) {
		_, err := Initialise(nil, InitOptions{})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("embedding only", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderLocal}

		result, err := Initialise(&settings, InitOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()
		if result.EmbeddingService == nil {
			t.Error("expected embedding service")
		}
		if result.LLMService != nil {
			t.Error("expected no LLM service")
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderLocal}
		settings.LLM.APIKey = ""

		_, err := Initialise(&settings, InitOptions{WithLLM: true})
		if !errors.Is(err, domain.ErrLLMUnavailable) {
			t.Errorf("expected ErrLLMUnavailable, got %v", err)
		}
	})

	t.Run("rate limits applied", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderLocal, RequestsPerSecond: 10}
		settings.LLM.APIKey = "test-key"
		settings.LLM.RequestsPerSecond = 2

		result, err := Initialise(&settings, InitOptions{WithLLM: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()
		if _, ok := result.EmbeddingService.(*RateLimitedEmbedding); !ok {
			t.Errorf("expected rate-limited embedding, got %T", result.EmbeddingService)
		}
		if _, ok := result.LLMService.(*RateLimitedLLM); !ok {
			t.Errorf("expected rate-limited LLM, got %T", result.LLMService)
		}
		if len(result.Warnings) != 1 {
			t.Errorf("expected a local embedder warning, got %v", result.Warnings)
		}
	})
}
