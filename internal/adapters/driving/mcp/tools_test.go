package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the answer", func(t *testing.T) {
		answer := &mockAnswerService{resp: &domain.AnswerResponse{Answer: "Dhaka", SessionID: "s1"}}
		ports := validPorts()
		ports.Answer = answer
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "capital?", SessionID: "s1", UserID: "u"})

		require.NoError(t, err)
		assert.Equal(t, "Dhaka", output.Answer)
		assert.Equal(t, "s1", output.SessionID)
		assert.Equal(t, domain.AnswerRequest{Query: "capital?", SessionID: "s1", UserID: "u"}, answer.last)
	})

	t.Run("empty query", func(t *testing.T) {
		ports := validPorts()
		ports.Answer = &mockAnswerService{err: domain.ErrEmptyQuery}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "query must not be empty")
	})

	t.Run("completion failure", func(t *testing.T) {
		ports := validPorts()
		ports.Answer = &mockAnswerService{err: errors.Join(domain.ErrCompletionFailed, errors.New("timeout"))}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Query: "q"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCompletionFailed)
		assert.Contains(t, err.Error(), "try again")
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns scored chunks", func(t *testing.T) {
		retriever := &mockRetriever{results: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Text: "Dhaka is the capital.", Ordinal: 3}, Similarity: 0.91},
		}}
		ports := validPorts()
		ports.Retriever = retriever
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "capital", TopK: 2})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, 3, output.Chunks[0].Ordinal)
		assert.InDelta(t, 0.91, output.Chunks[0].Similarity, 1e-9)
		assert.Equal(t, 2, retriever.topK)
	})

	t.Run("default top k", func(t *testing.T) {
		retriever := &mockRetriever{}
		ports := validPorts()
		ports.Retriever = retriever
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, defaultTopK, retriever.topK)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		ports := validPorts()
		ports.Retriever = &mockRetriever{err: errors.New("embedder down")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedder down")
	})
}

func TestServer_handleHistory(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	ports := validPorts()
	ports.History = &mockHistoryService{exchanges: []domain.Exchange{
		{SessionID: "s1", UserID: "u", Query: "q1", Answer: "a1", Timestamp: at},
		{SessionID: "s1", UserID: "u", Query: "q2", Answer: "a2", Timestamp: at.Add(time.Minute)},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, output, err := server.handleHistory(ctx, nil, HistoryInput{SessionID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "q1", output.Exchanges[0].User)
	assert.Equal(t, "a2", output.Exchanges[1].Bot)
	assert.Equal(t, "2024-03-01T09:30:00Z", output.Exchanges[0].Timestamp)
}
