package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// defaultTopK is used by the retrieve tool when no limit is given.
const defaultTopK = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query     string `json:"query" jsonschema:"the question to answer from the knowledge base"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation to continue; a new one is started when empty"`
	UserID    string `json:"user_id,omitempty" jsonschema:"caller identity recorded with the exchange"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// HistoryInput is the input schema for the history tool.
type HistoryInput struct {
	SessionID string `json:"session_id" jsonschema:"the conversation to read"`
}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	SessionID string           `json:"session_id"`
	Exchanges []ExchangeOutput `json:"exchanges"`
	Count     int              `json:"count"`
}

// ExchangeOutput represents one recorded exchange.
type ExchangeOutput struct {
	User      string `json:"user"`
	Bot       string `json:"bot"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find similar chunks for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	Ordinal    int     `json:"ordinal"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed knowledge base, continuing a conversation",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the knowledge base chunks most similar to a query",
	}, s.handleRetrieve)

	if s.ports.History != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "history",
			Description: "Read every exchange of a conversation, oldest first",
		}, s.handleHistory)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Answer.Answer(ctx, domain.AnswerRequest{
		Query:     input.Query,
		SessionID: input.SessionID,
		UserID:    input.UserID,
	})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}
	return nil, AskOutput{Answer: resp.Answer, SessionID: resp.SessionID}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	scored, err := s.ports.Retriever.Search(ctx, input.Query, topK)
	if err != nil {
		return nil, RetrieveOutput{}, toolError(err)
	}

	output := RetrieveOutput{
		Chunks: make([]ChunkOutput, len(scored)),
		Count:  len(scored),
	}
	for i, sc := range scored {
		output.Chunks[i] = ChunkOutput{
			Ordinal:    sc.Chunk.Ordinal,
			Similarity: sc.Similarity,
			Text:       sc.Chunk.Text,
		}
	}
	return nil, output, nil
}

// handleHistory handles the history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	exchanges, err := s.ports.History.History(ctx, input.SessionID)
	if err != nil {
		return nil, HistoryOutput{}, toolError(err)
	}

	output := HistoryOutput{
		SessionID: input.SessionID,
		Exchanges: make([]ExchangeOutput, len(exchanges)),
		Count:     len(exchanges),
	}
	for i, ex := range exchanges {
		output.Exchanges[i] = ExchangeOutput{
			User:      ex.Query,
			Bot:       ex.Answer,
			UserID:    ex.UserID,
			Timestamp: ex.Timestamp.Format(time.RFC3339),
		}
	}
	return nil, output, nil
}

// toolError rewrites domain failures into messages an assistant can act on.
func toolError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return errors.New("query must not be empty")
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("invalid arguments: %w", err)
	case errors.Is(err, domain.ErrCompletionFailed):
		return fmt.Errorf("the completion service failed, try again: %w", err)
	default:
		return err
	}
}
