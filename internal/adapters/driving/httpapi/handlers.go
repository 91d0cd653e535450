package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// ExchangeResponse is one entry of GET /history/:session_id.
type ExchangeResponse struct {
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is the body returned by GET /history/:session_id.
type HistoryResponse struct {
	SessionID string             `json:"session_id"`
	Exchanges []ExchangeResponse `json:"exchanges"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	resp, err := s.ports.Answer.Answer(c.Request.Context(), domain.AnswerRequest{
		Query:     req.Query,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Answer: resp.Answer, SessionID: resp.SessionID})
}

func (s *Server) handleHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	exchanges, err := s.ports.History.History(c.Request.Context(), sessionID)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := HistoryResponse{SessionID: sessionID, Exchanges: make([]ExchangeResponse, len(exchanges))}
	for i, ex := range exchanges {
		out.Exchanges[i] = ExchangeResponse{
			User:      ex.Query,
			Bot:       ex.Answer,
			UserID:    ex.UserID,
			Timestamp: ex.Timestamp,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleIndex(c *gin.Context) {
	if s.ports.Index == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "index metadata not available"})
		return
	}

	meta, err := s.ports.Index.Metadata(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail writes an error response. Server-side failures are logged.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
