package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// DefaultTopK is the number of chunks placed in the prompt.
const DefaultTopK = 5

// AnswerOptions tunes retrieval and generation.
type AnswerOptions struct {
	// TopK is the number of chunks retrieved per query.
	TopK int

	// MaxTokens caps the completion. Zero uses the provider default.
	MaxTokens int

	// Temperature is passed to the completion service.
	Temperature float64
}

// AnswerService answers queries from retrieved context and recent history.
type AnswerService struct {
	retriever driving.Retriever
	store     driven.ConversationStore
	cache     driven.HistoryCache
	prompts   driven.PromptStore
	llm       driven.LLMService
	opts      AnswerOptions
	now       func() time.Time
}

// NewAnswerService creates the answer pipeline.
func NewAnswerService(
	retriever driving.Retriever,
	store driven.ConversationStore,
	cache driven.HistoryCache,
	prompts driven.PromptStore,
	llm driven.LLMService,
	opts AnswerOptions,
) *AnswerService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &AnswerService{
		retriever: retriever,
		store:     store,
		cache:     cache,
		prompts:   prompts,
		llm:       llm,
		opts:      opts,
		now:       time.Now,
	}
}

// Answer runs retrieval and history lookup concurrently, asks the
// completion service, and records the exchange.
// Nothing is persisted unless an answer was produced.
func (s *AnswerService) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.AnswerResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = domain.DefaultUserID
	}

	logger.Section("Answer")
	logger.Debug("Session: %s, user: %s, query: %q", sessionID, userID, query)

	if s.llm == nil {
		return nil, fmt.Errorf("%w: no completion service", domain.ErrLLMUnavailable)
	}

	var (
		wg          sync.WaitGroup
		docs        []string
		history     []domain.Exchange
		retrieveErr error
		historyErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		docs, retrieveErr = s.retriever.Retrieve(ctx, query, s.opts.TopK)
	}()
	go func() {
		defer wg.Done()
		history, historyErr = s.recentHistory(ctx, sessionID)
	}()
	wg.Wait()

	if retrieveErr != nil {
		return nil, fmt.Errorf("retrieve: %w", retrieveErr)
	}
	if historyErr != nil {
		return nil, fmt.Errorf("load history: %w", historyErr)
	}
	logger.Debug("Retrieved %d chunks, %d history entries", len(docs), len(history))

	prompt, err := s.buildPrompt(query, docs, history)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		JSONMode:    true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("Completion failed for session %s: %v", sessionID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err)
	}

	var parsed domain.ParsedAnswer
	if strings.TrimSpace(raw) == "" {
		logger.Warn("Blank completion for session %s, answering with the no-context marker", sessionID)
		parsed = domain.ParsedAnswer{Response: domain.NoContextMarker, Source: domain.SourceUnknown}
	} else if parsed, err = ParseAnswer(raw); err != nil {
		var perr *domain.ParseError
		if errors.As(err, &perr) {
			logger.Warn("Using raw completion for session %s: %s", sessionID, perr.Reason)
		} else {
			logger.Warn("Using raw completion for session %s: %v", sessionID, err)
		}
		parsed = domain.ParsedAnswer{Response: strings.TrimSpace(raw), Source: domain.SourceUnknown}
	}
	logger.Debug("Answer source: %s", parsed.Source)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exchange := domain.Exchange{
		SessionID: sessionID,
		UserID:    userID,
		Query:     query,
		Answer:    parsed.Response,
		Timestamp: s.now(),
	}
	if err := s.store.Append(ctx, exchange); err != nil {
		return nil, fmt.Errorf("append exchange: %w", err)
	}
	if !s.cache.Add(sessionID, exchange) {
		logger.Debug("Session %s left the history cache during completion", sessionID)
	}

	return &domain.AnswerResponse{Answer: parsed.Response, SessionID: sessionID}, nil
}

// recentHistory returns the cached window, seeding it from the durable
// store on a miss.
func (s *AnswerService) recentHistory(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	if recent, ok := s.cache.Recent(sessionID); ok {
		return recent, nil
	}

	all, err := s.store.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.cache.Seed(sessionID, all)

	if n := s.cache.Capacity(); len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *AnswerService) buildPrompt(query string, docs []string, history []domain.Exchange) (string, error) {
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", driven.PromptAnswer, err)
	}
	format, err := s.prompts.Load(driven.PromptAnswerFormat)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", driven.PromptAnswerFormat, err)
	}

	r := strings.NewReplacer(
		"{{context}}", renderContext(docs),
		"{{history}}", renderHistory(history),
		"{{question}}", query,
		"{{format}}", strings.TrimSpace(format),
	)
	return r.Replace(tmpl), nil
}

func renderContext(docs []string) string {
	if len(docs) == 0 {
		return domain.NoContextMarker
	}
	lines := make([]string, len(docs))
	for i, d := range docs {
		lines[i] = "- " + d
	}
	return strings.Join(lines, "\n")
}

func renderHistory(history []domain.Exchange) string {
	lines := make([]string, len(history))
	for i, ex := range history {
		lines[i] = "User: " + ex.Query + "\nBot: " + ex.Answer
	}
	return strings.Join(lines, "\n")
}
