package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/cache/ring"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/env"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/indexfile"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Driving ports used by the commands. Tests set them directly.
var (
	settingsService  driving.SettingsService
	indexBuilder     driving.IndexBuilder
	indexInspector   driving.IndexInspector
	retrieverService driving.Retriever
	answerService    driving.AnswerService
	historyService   driving.HistoryService

	// reloadIndex swaps a rebuilt index into retrieverService.
	reloadIndex func(ctx context.Context) error
)

var (
	conversationStore driven.ConversationStore
	closers           []func() error
)

func onClose(fn func() error) {
	closers = append(closers, fn)
}

// closeAll releases resources in reverse order of creation.
func closeAll() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("closing: %v", err)
		}
	}
	closers = nil
}

// loadSettings resolves the effective settings: defaults, the config
// file, .env and the process environment.
func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		if err := env.LoadDotEnv(); err != nil {
			return nil, fmt.Errorf("loading %s: %w", env.DefaultDotEnv, err)
		}

		var (
			store *file.ConfigStore
			err   error
		)
		if configPath != "" {
			store, err = file.NewConfigStoreAt(configPath)
		} else {
			store, err = file.NewConfigStore("")
		}
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		settingsService = services.NewSettingsService(store, env.Overrides(nil))
	}
	return settingsService.Get()
}

// initAI creates the embedding service, and the completion service when
// withLLM is set.
func initAI(settings *domain.AppSettings, withLLM bool) (*ai.InitResult, error) {
	result, err := ai.Initialise(settings, ai.InitOptions{WithLLM: withLLM})
	if err != nil {
		return nil, err
	}
	onClose(func() error {
		result.Close()
		return nil
	})
	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// ensureIndexBuilder returns the builder. A non-empty outputDir writes the
// index there instead of the configured index path.
func ensureIndexBuilder(settings *domain.AppSettings, outputDir string) (driving.IndexBuilder, error) {
	if indexBuilder != nil {
		return indexBuilder, nil
	}

	result, err := initAI(settings, false)
	if err != nil {
		return nil, err
	}
	indexBuilder = services.NewIndexBuilder(indexStoreFor(settings, outputDir), result.EmbeddingService,
		services.IndexBuilderOptions{
			BatchSize:   settings.Index.BatchSize,
			Concurrency: settings.Index.Concurrency,
			Blocklist:   settings.Index.Blocklist,
		})
	return indexBuilder, nil
}

func indexStoreFor(settings *domain.AppSettings, outputDir string) *indexfile.Store {
	if outputDir != "" {
		return indexfile.NewStoreInDir(outputDir)
	}
	return indexfile.NewStore(settings.Paths.IndexPath)
}

func ensureIndexInspector(settings *domain.AppSettings) driving.IndexInspector {
	if indexInspector == nil {
		indexInspector = services.NewIndexInfoService(indexStoreFor(settings, ""))
	}
	return indexInspector
}

// ensureRetriever loads the index. It fails when no index was built or the
// index was built with another embedding model.
func ensureRetriever(ctx context.Context, settings *domain.AppSettings, embedder driven.EmbeddingService) (driving.Retriever, error) {
	if retrieverService != nil {
		return retrieverService, nil
	}

	if embedder == nil {
		result, err := initAI(settings, false)
		if err != nil {
			return nil, err
		}
		embedder = result.EmbeddingService
	}

	rr, err := services.NewReloadableRetriever(ctx, indexStoreFor(settings, ""), embedder)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w at %s. Run 'ragchat index build' first", err, settings.Paths.IndexPath)
		}
		return nil, err
	}
	logger.Info("Loaded %d chunks from %s", rr.Current().ChunkCount(), settings.Paths.IndexPath)

	retrieverService = rr
	reloadIndex = rr.Reload
	return retrieverService, nil
}

func ensureConversationStore(settings *domain.AppSettings) (driven.ConversationStore, error) {
	if conversationStore != nil {
		return conversationStore, nil
	}

	if ephemeral {
		conversationStore = memory.NewConversationStore()
	} else {
		store, err := sqlite.NewStore(settings.Paths.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		conversationStore = store
	}
	store := conversationStore
	onClose(func() error {
		conversationStore = nil
		return store.Close()
	})
	return conversationStore, nil
}

func ensureHistory(settings *domain.AppSettings) (driving.HistoryService, error) {
	if historyService != nil {
		return historyService, nil
	}
	store, err := ensureConversationStore(settings)
	if err != nil {
		return nil, err
	}
	historyService = services.NewHistoryService(store)
	return historyService, nil
}

// ensureChat builds the answer pipeline together with the retriever and
// history it shares.
func ensureChat(ctx context.Context, settings *domain.AppSettings) (driving.AnswerService, error) {
	if answerService != nil {
		return answerService, nil
	}

	result, err := initAI(settings, true)
	if err != nil {
		return nil, err
	}
	retriever, err := ensureRetriever(ctx, settings, result.EmbeddingService)
	if err != nil {
		return nil, err
	}
	store, err := ensureConversationStore(settings)
	if err != nil {
		return nil, err
	}
	if _, err := ensureHistory(settings); err != nil {
		return nil, err
	}
	cache, err := ring.New(settings.Chat.ShortTermHistory, settings.Chat.MaxSessions)
	if err != nil {
		return nil, err
	}
	prompts, err := file.NewPromptStore(settings.Paths.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	answerService = services.NewAnswerService(retriever, store, cache, prompts, result.LLMService,
		services.AnswerOptions{
			TopK:        settings.Chat.TopK,
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		})
	return answerService, nil
}
