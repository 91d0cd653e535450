// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// AnswerReceived carries the pipeline's reply to a question.
type AnswerReceived struct {
	Query     string
	Answer    string
	SessionID string
	Err       error
}

// SessionsLoaded carries the known conversations.
type SessionsLoaded struct {
	Sessions []domain.SessionSummary
	Err      error
}

// SessionSelected asks the chat view to continue a past conversation.
type SessionSelected struct {
	SessionID string
}

// HistoryLoaded carries the exchanges of a resumed conversation.
type HistoryLoaded struct {
	SessionID string
	Exchanges []domain.Exchange
	Err       error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewSessions lists past conversations.
	ViewSessions
	// ViewHelp shows the keybindings.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewSessions:
		return "sessions"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
