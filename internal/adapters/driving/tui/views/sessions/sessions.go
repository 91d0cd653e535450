// Package sessions provides the list of past conversations.
package sessions

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// View lists sessions and hands the selected one back to the chat view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.SessionList
	statusbar *status.Bar

	historyService driving.HistoryService
	ctx            context.Context

	err   error
	ready bool
}

// NewView creates a sessions view.
func NewView(s *styles.Styles, km *keymap.KeyMap, historyService driving.HistoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	bar := status.NewBar(s, km)
	bar.SetState(status.StateSessions)

	return &View{
		styles:         s,
		keymap:         km,
		list:           list.NewSessionList(s),
		statusbar:      bar,
		historyService: historyService,
		ctx:            context.Background(),
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load fetches the session list.
func (v *View) Load() tea.Cmd {
	if v.historyService == nil {
		return nil
	}
	ctx, history := v.ctx, v.historyService
	return func() tea.Msg {
		sessions, err := history.Sessions(ctx)
		return messages.SessionsLoaded{Sessions: sessions, Err: err}
	}
}

// Update handles messages for the sessions view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.SessionsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.list.SetSessions(msg.Sessions)
		}
		return v, nil

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
		case keymap.Matches(k, v.keymap.Select):
			selected := v.list.Selected()
			if selected == nil {
				return v, nil
			}
			id := selected.SessionID
			return v, func() tea.Msg { return messages.SessionSelected{SessionID: id} }
		}
		v.list, _ = v.list.Update(msg)
		return v, nil
	}
	return v, nil
}

// View renders the sessions view.
func (v *View) View() string {
	body := v.list.View()
	if v.err != nil {
		body = v.styles.Error.Render("Error: " + v.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("ragchat"),
		"",
		body,
		"",
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.ready = true
	v.list.SetDimensions(width, height-4)
	v.statusbar.SetWidth(width)
}

// List returns the underlying list.
func (v *View) List() *list.SessionList {
	return v.list
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
