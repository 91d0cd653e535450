package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/cache/ring"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/indexfile"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

type answerFixture struct {
	svc   *AnswerService
	llm   *mockLLM
	store *memory.ConversationStore
	cache *ring.Cache
}

func newAnswerFixture(t *testing.T, retriever *mockRetriever, llm *mockLLM) answerFixture {
	t.Helper()
	cache, err := ring.New(25, 16)
	require.NoError(t, err)
	store := memory.NewConversationStore()
	svc := NewAnswerService(retriever, store, cache, newMockPrompts(), llm, AnswerOptions{})
	return answerFixture{svc: svc, llm: llm, store: store, cache: cache}
}

func TestAnswerService_Answer(t *testing.T) {
	retriever := &mockRetriever{docs: []string{"Dhaka is the capital.", "It is large."}}
	f := newAnswerFixture(t, retriever, &mockLLM{response: `{"response": "Dhaka", "source": "knowledge_base"}`})

	resp, err := f.svc.Answer(context.Background(), domain.AnswerRequest{
		Query:     "  What is the capital?  ",
		SessionID: "s1",
	})

	require.NoError(t, err)
	assert.Equal(t, "Dhaka", resp.Answer)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, DefaultTopK, retriever.topK)

	prompt := f.llm.lastPrompt()
	assert.Contains(t, prompt, "- Dhaka is the capital.\n- It is large.")
	assert.Contains(t, prompt, "Q: What is the capital?")
	assert.Contains(t, prompt, "Reply in JSON.")
	assert.NotContains(t, prompt, "{{")
	assert.True(t, f.llm.opts[0].JSONMode)

	history, err := f.store.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "What is the capital?", history[0].Query)
	assert.Equal(t, "Dhaka", history[0].Answer)
	assert.Equal(t, domain.DefaultUserID, history[0].UserID)
	assert.False(t, history[0].Timestamp.IsZero())

	cached, ok := f.cache.Recent("s1")
	require.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestAnswerService_Answer_EmptyQuery(t *testing.T) {
	f := newAnswerFixture(t, &mockRetriever{}, &mockLLM{response: "{}"})

	_, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "   "})

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	assert.Equal(t, 0, f.llm.calls())
}

func TestAnswerService_Answer_GeneratesSessionID(t *testing.T) {
	f := newAnswerFixture(t, &mockRetriever{}, &mockLLM{response: `{"response": "ok", "source": "knowledge_base"}`})

	resp, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "hi"})

	require.NoError(t, err)
	assert.Len(t, resp.SessionID, 8)
	history, err := f.store.History(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAnswerService_Answer_EmptyRetrieval(t *testing.T) {
	f := newAnswerFixture(t, &mockRetriever{docs: []string{}}, &mockLLM{response: `{"response": "I don't know", "source": "knowledge_base"}`})

	resp, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "unknown", SessionID: "s"})

	require.NoError(t, err)
	assert.Equal(t, "I don't know", resp.Answer)
	assert.Contains(t, f.llm.lastPrompt(), domain.NoContextMarker)
}

func TestAnswerService_Answer_ParseFallback(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer logger.SetOutput(io.Discard)

	f := newAnswerFixture(t, &mockRetriever{docs: []string{"doc"}}, &mockLLM{response: "not valid json"})

	resp, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "q", SessionID: "s"})

	require.NoError(t, err)
	assert.Equal(t, "not valid json", resp.Answer)
	assert.Contains(t, logs.String(), "[WARN]")

	history, err := f.store.History(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "not valid json", history[0].Answer)
}

func TestAnswerService_Answer_MissingSourceFallsBack(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer logger.SetOutput(io.Discard)

	raw := ` {"response": "Dhaka"} `
	f := newAnswerFixture(t, &mockRetriever{docs: []string{"doc"}}, &mockLLM{response: raw})

	resp, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "q", SessionID: "s"})

	require.NoError(t, err)
	assert.Equal(t, `{"response": "Dhaka"}`, resp.Answer)
	assert.Contains(t, logs.String(), "source field is missing")

	history, err := f.store.History(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, `{"response": "Dhaka"}`, history[0].Answer)
}

func TestAnswerService_Answer_BlankCompletion(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer logger.SetOutput(io.Discard)

	f := newAnswerFixture(t, &mockRetriever{}, &mockLLM{response: "  \n "})

	resp, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "q", SessionID: "s"})

	require.NoError(t, err)
	assert.Equal(t, domain.NoContextMarker, resp.Answer)
	assert.Contains(t, logs.String(), "Blank completion for session s")
	assert.NotContains(t, logs.String(), "Using raw completion")
}

func TestAnswerService_Answer_CompletionFailurePersistsNothing(t *testing.T) {
	boom := errors.New("503 from provider")
	f := newAnswerFixture(t, &mockRetriever{docs: []string{"doc"}}, &mockLLM{err: boom})

	_, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "q", SessionID: "s"})

	assert.ErrorIs(t, err, domain.ErrCompletionFailed)
	assert.ErrorIs(t, err, boom)

	history, err := f.store.History(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, history)
	_, cached := f.cache.Recent("s")
	assert.True(t, cached, "history lookup seeds the cache")
	recent, _ := f.cache.Recent("s")
	assert.Empty(t, recent)
}

func TestAnswerService_Answer_CancelledPersistsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := &mockLLM{generate: func(context.Context, string) (string, error) {
		cancel()
		return `{"response": "late", "source": "knowledge_base"}`, nil
	}}
	f := newAnswerFixture(t, &mockRetriever{}, llm)

	_, err := f.svc.Answer(ctx, domain.AnswerRequest{Query: "q", SessionID: "s"})

	assert.ErrorIs(t, err, context.Canceled)
	history, err := f.store.History(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAnswerService_Answer_CancelledDuringCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := &mockLLM{generate: func(ctx context.Context, _ string) (string, error) {
		cancel()
		<-ctx.Done()
		return "", fmt.Errorf("send request: %w", ctx.Err())
	}}
	f := newAnswerFixture(t, &mockRetriever{}, llm)

	_, err := f.svc.Answer(ctx, domain.AnswerRequest{Query: "q", SessionID: "s"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrCompletionFailed)
}

func TestAnswerService_Answer_RetrievalError(t *testing.T) {
	f := newAnswerFixture(t, &mockRetriever{err: domain.ErrDimensionMismatch}, &mockLLM{response: "{}"})

	_, err := f.svc.Answer(context.Background(), domain.AnswerRequest{Query: "q"})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, f.llm.calls())
}

func TestAnswerService_Answer_HistoryError(t *testing.T) {
	cache, err := ring.New(5, 4)
	require.NoError(t, err)
	boom := errors.New("database locked")
	store := &failingConversationStore{historyErr: boom}
	llm := &mockLLM{response: `{"response": "x", "source": "knowledge_base"}`}
	svc := NewAnswerService(&mockRetriever{}, store, cache, newMockPrompts(), llm, AnswerOptions{})

	_, err = svc.Answer(context.Background(), domain.AnswerRequest{Query: "q", SessionID: "s"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, llm.calls())
	assert.Equal(t, 0, store.appends)
}

func TestAnswerService_Answer_LLMUnavailable(t *testing.T) {
	cache, err := ring.New(5, 4)
	require.NoError(t, err)
	svc := NewAnswerService(&mockRetriever{}, memory.NewConversationStore(), cache, newMockPrompts(), nil, AnswerOptions{})

	_, err = svc.Answer(context.Background(), domain.AnswerRequest{Query: "q"})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAnswerService_Answer_HistoryInPrompt(t *testing.T) {
	llm := &mockLLM{}
	n := 0
	llm.generate = func(context.Context, string) (string, error) {
		n++
		return fmt.Sprintf(`{"response": "answer %d", "source": "knowledge_base"}`, n), nil
	}
	f := newAnswerFixture(t, &mockRetriever{}, llm)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := f.svc.Answer(ctx, domain.AnswerRequest{Query: fmt.Sprintf("question %d", i), SessionID: "s"})
		require.NoError(t, err)
	}

	want := "HISTORY:\nUser: question 1\nBot: answer 1\nUser: question 2\nBot: answer 2\nQ: question 3"
	assert.Contains(t, llm.lastPrompt(), want)
}

func TestAnswerService_Answer_SeedsCacheFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewConversationStore()
	for i := range 4 {
		require.NoError(t, store.Append(ctx, domain.Exchange{
			SessionID: "old",
			Query:     fmt.Sprintf("q%d", i),
			Answer:    fmt.Sprintf("a%d", i),
		}))
	}
	cache, err := ring.New(2, 4)
	require.NoError(t, err)
	llm := &mockLLM{response: `{"response": "new", "source": "knowledge_base"}`}
	svc := NewAnswerService(&mockRetriever{}, store, cache, newMockPrompts(), llm, AnswerOptions{TopK: 3})

	_, err = svc.Answer(ctx, domain.AnswerRequest{Query: "next", SessionID: "old"})
	require.NoError(t, err)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "User: q2\nBot: a2\nUser: q3\nBot: a3\nQ: next")
	assert.NotContains(t, prompt, "q1")

	recent, ok := cache.Recent("old")
	require.True(t, ok)
	require.Len(t, recent, 2)
	assert.Equal(t, "next", recent[1].Query)

	all, err := store.History(ctx, "old")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestAnswerService_Answer_EvictedDuringCompletion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewConversationStore()
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Append(ctx, domain.Exchange{
			SessionID: "a",
			Query:     fmt.Sprintf("q%d", i),
			Answer:    fmt.Sprintf("a%d", i),
		}))
	}
	cache, err := ring.New(25, 1)
	require.NoError(t, err)

	llm := &mockLLM{}
	n := 0
	llm.generate = func(context.Context, string) (string, error) {
		n++
		if n == 1 {
			// another session takes the only slot while "a" waits on the model
			cache.Seed("b", nil)
		}
		return fmt.Sprintf(`{"response": "a%d", "source": "knowledge_base"}`, n+3), nil
	}
	svc := NewAnswerService(&mockRetriever{}, store, cache, newMockPrompts(), llm, AnswerOptions{})

	_, err = svc.Answer(ctx, domain.AnswerRequest{Query: "q4", SessionID: "a"})
	require.NoError(t, err)
	_, ok := cache.Recent("a")
	assert.False(t, ok)

	_, err = svc.Answer(ctx, domain.AnswerRequest{Query: "q5", SessionID: "a"})
	require.NoError(t, err)

	want := "User: q1\nBot: a1\nUser: q2\nBot: a2\nUser: q3\nBot: a3\nUser: q4\nBot: a4\nQ: q5"
	assert.Contains(t, llm.lastPrompt(), want)

	recent, ok := cache.Recent("a")
	require.True(t, ok)
	assert.Len(t, recent, 5)
}

func TestAnswerService_Answer_ConcurrentSameSession(t *testing.T) {
	f := newAnswerFixture(t, &mockRetriever{docs: []string{"doc"}}, &mockLLM{response: `{"response": "ok", "source": "knowledge_base"}`})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Answer(ctx, domain.AnswerRequest{Query: fmt.Sprintf("q%d", i), SessionID: "shared"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := f.store.History(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, history, 50)
}

func TestAnswerService_Answer_PromptMissing(t *testing.T) {
	cache, err := ring.New(5, 4)
	require.NoError(t, err)
	prompts := &mockPrompts{prompts: map[string]string{}}
	llm := &mockLLM{response: "{}"}
	svc := NewAnswerService(&mockRetriever{}, memory.NewConversationStore(), cache, prompts, llm, AnswerOptions{})

	_, err = svc.Answer(context.Background(), domain.AnswerRequest{Query: "q"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, llm.calls())
}

// TestAnswerService_Dhaka runs the whole pipeline with the local embedder:
// build an index, retrieve, answer, and check the exchange is recorded.
func TestAnswerService_Dhaka(t *testing.T) {
	ctx := context.Background()
	indexStore := indexfile.NewStoreInDir(t.TempDir())
	embedder := local.NewEmbeddingService(256)

	src := writeSource(t, "Dhaka is the capital of Bangladesh.\n"+
		"The Padma is one of the major rivers of the country.\n")
	_, err := NewIndexBuilder(indexStore, embedder, IndexBuilderOptions{}).
		Build(ctx, domain.BuildRequest{SourcePath: src, ChunkSize: 40, ChunkOverlap: 5})
	require.NoError(t, err)

	retriever, err := NewRetriever(ctx, indexStore, embedder)
	require.NoError(t, err)

	llm := &mockLLM{generate: func(_ context.Context, prompt string) (string, error) {
		ctxBlock := prompt[strings.Index(prompt, "CONTEXT:"):strings.Index(prompt, "HISTORY:")]
		first := strings.SplitN(ctxBlock, "\n", 3)[1]
		if strings.Contains(first, "Dhaka") {
			return "```json\n{\"response\": \"Dhaka\", \"source\": \"knowledge_base\"}\n```", nil
		}
		return `{"response": "unknown", "source": "knowledge_base"}`, nil
	}}
	cache, err := ring.New(25, 16)
	require.NoError(t, err)
	store := memory.NewConversationStore()
	svc := NewAnswerService(retriever, store, cache, newMockPrompts(), llm, AnswerOptions{TopK: 1})

	resp, err := svc.Answer(ctx, domain.AnswerRequest{Query: "What is the capital of Bangladesh?", UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, "Dhaka", resp.Answer)

	history, err := store.History(ctx, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "u1", history[0].UserID)
	assert.Equal(t, "Dhaka", history[0].Answer)
}
