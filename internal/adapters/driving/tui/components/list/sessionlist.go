// Package list provides the session list for the chat TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04"

// SessionList displays conversations in a navigable list.
type SessionList struct {
	sessions []domain.SessionSummary
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSessionList creates an empty list.
func NewSessionList(s *styles.Styles) *SessionList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &SessionList{styles: s, width: 80, height: 10}
}

// Update handles list navigation messages.
func (l *SessionList) Update(msg tea.Msg) (*SessionList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SessionList) View() string {
	if len(l.sessions) == 0 {
		return l.styles.Muted.Render("No conversations yet")
	}

	lines := make([]string, 0, len(l.sessions)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sessions (%d)", len(l.sessions))), "")

	visible := max(l.height-4, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.sessions))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSession(i))
	}
	return strings.Join(lines, "\n")
}

func (l *SessionList) renderSession(i int) string {
	s := l.sessions[i]
	line := fmt.Sprintf("%-10s %3d exchanges  last %s", s.SessionID, s.ExchangeCount, s.LastAt.Local().Format(timeLayout))
	if i == l.selected {
		return l.styles.Selected.Render("> " + line)
	}
	return l.styles.Normal.Render("  " + line)
}

// SetSessions replaces the list and selects the first entry.
func (l *SessionList) SetSessions(sessions []domain.SessionSummary) {
	l.sessions = sessions
	l.selected = 0
}

// Sessions returns the listed sessions.
func (l *SessionList) Sessions() []domain.SessionSummary {
	return l.sessions
}

// Selected returns the selected session, or nil if the list is empty.
func (l *SessionList) Selected() *domain.SessionSummary {
	if l.selected < 0 || l.selected >= len(l.sessions) {
		return nil
	}
	return &l.sessions[l.selected]
}

// MoveUp moves selection up.
func (l *SessionList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SessionList) MoveDown() {
	if l.selected < len(l.sessions)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SessionList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}
