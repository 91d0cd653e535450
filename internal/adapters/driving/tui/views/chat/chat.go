// Package chat provides the conversation view of the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// reserved is the number of rows taken by the header, input and status bar.
const reserved = 7

// Turn is one question and its answer as shown in the transcript.
type Turn struct {
	Query  string
	Answer string
	Err    error
}

// View shows the transcript above the question input.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.ChatInput
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	answerService  driving.AnswerService
	historyService driving.HistoryService
	ctx            context.Context

	sessionID string
	userID    string
	turns     []Turn
	pending   bool

	width  int
	height int
	ready  bool
}

// NewView creates a chat view. historyService may be nil, in which case
// past sessions cannot be resumed.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answerService driving.AnswerService,
	historyService driving.HistoryService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Bot

	return &View{
		styles:         s,
		keymap:         km,
		input:          input.NewChatInput(s),
		viewport:       viewport.New(80, 24-reserved),
		spinner:        sp,
		statusbar:      status.NewBar(s, km),
		answerService:  answerService,
		historyService: historyService,
		ctx:            context.Background(),
		userID:         domain.DefaultUserID,
		width:          80,
		height:         24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithUser sets the user id recorded with each exchange.
func (v *View) WithUser(userID string) *View {
	if userID != "" {
		v.userID = userID
	}
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.HistoryLoaded:
		v.handleHistory(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.pending {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Send):
		query := strings.TrimSpace(v.input.Value())
		if query == "" || v.pending {
			return v, nil
		}
		v.input.Reset()
		v.turns = append(v.turns, Turn{Query: query})
		v.pending = true
		v.statusbar.SetState(status.StateThinking)
		v.refresh()
		return v, tea.Batch(v.spinner.Tick, v.ask(query))

	case keymap.Matches(k, v.keymap.NewSession):
		if v.pending {
			return v, nil
		}
		v.Reset()
		return v, nil

	case keymap.Matches(k, v.keymap.ScrollUp):
		v.viewport.HalfViewUp()
		return v, nil

	case keymap.Matches(k, v.keymap.ScrollDown):
		v.viewport.HalfViewDown()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask runs the answer pipeline off the event loop.
func (v *View) ask(query string) tea.Cmd {
	ctx, sessionID, userID := v.ctx, v.sessionID, v.userID
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.AnswerReceived{Query: query, Err: ErrNoAnswerService}
		}
		resp, err := v.answerService.Answer(ctx, domain.AnswerRequest{
			Query:     query,
			SessionID: sessionID,
			UserID:    userID,
		})
		if err != nil {
			return messages.AnswerReceived{Query: query, SessionID: sessionID, Err: err}
		}
		return messages.AnswerReceived{Query: query, Answer: resp.Answer, SessionID: resp.SessionID}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false
	if n := len(v.turns); n > 0 {
		v.turns[n-1].Answer = msg.Answer
		v.turns[n-1].Err = msg.Err
	}

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else {
		v.sessionID = msg.SessionID
		v.statusbar.Clear()
		v.statusbar.SetSessionID(msg.SessionID)
	}
	v.refresh()
}

// LoadSession switches to a past conversation and fetches its exchanges.
func (v *View) LoadSession(sessionID string) tea.Cmd {
	v.Reset()
	v.sessionID = sessionID
	v.statusbar.SetSessionID(sessionID)
	if v.historyService == nil {
		return nil
	}
	ctx, history := v.ctx, v.historyService
	return func() tea.Msg {
		exchanges, err := history.History(ctx, sessionID)
		return messages.HistoryLoaded{SessionID: sessionID, Exchanges: exchanges, Err: err}
	}
}

func (v *View) handleHistory(msg messages.HistoryLoaded) {
	if msg.SessionID != v.sessionID {
		return
	}
	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}
	v.turns = make([]Turn, len(msg.Exchanges))
	for i, ex := range msg.Exchanges {
		v.turns[i] = Turn{Query: ex.Query, Answer: ex.Answer}
	}
	v.refresh()
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask anything about the indexed text.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-6, 20))
	blocks := make([]string, 0, len(v.turns))
	for i, t := range v.turns {
		var b strings.Builder
		b.WriteString(v.styles.User.Render("You: "))
		b.WriteString(wrap.Render(t.Query))
		b.WriteString("\n")
		b.WriteString(v.styles.Bot.Render("Bot: "))
		switch {
		case t.Err != nil:
			b.WriteString(v.styles.Error.Render(t.Err.Error()))
		case v.pending && i == len(v.turns)-1:
			b.WriteString(v.spinner.View())
		default:
			b.WriteString(wrap.Render(t.Answer))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("ragchat"),
		"",
		v.viewport.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.viewport.Width = width
	v.viewport.Height = max(height-reserved, 3)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Turns returns the transcript.
func (v *View) Turns() []Turn {
	return v.turns
}

// SessionID returns the current conversation, empty before the first answer.
func (v *View) SessionID() string {
	return v.sessionID
}

// Pending reports whether an answer is in flight.
func (v *View) Pending() bool {
	return v.pending
}

// Input returns the current input text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput sets the input text.
func (v *View) SetInput(text string) {
	v.input.SetValue(text)
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Reset starts a new conversation.
func (v *View) Reset() {
	v.sessionID = ""
	v.turns = nil
	v.pending = false
	v.input.Reset()
	v.statusbar.Clear()
	v.statusbar.SetSessionID("")
	v.refresh()
}
