// Package chat provides the conversation view: a scrolling transcript with
// cited sources above a question prompt.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// reservedLines is the space taken by header, prompt and status bar.
const reservedLines = 8

// View is the chat view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	chat      driving.ChatService
	userID    string
	ctx       context.Context
	prompt    *input.Prompt
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	session    *domain.ChatSession
	transcript []domain.ChatMessage
	waiting    bool
	err        error

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, chat driving.ChatService, userID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Assistant

	bar := status.NewBar(s, km)
	bar.SetHints(km.ChatHelp())

	return &View{
		styles:    s,
		keymap:    km,
		chat:      chat,
		userID:    userID,
		ctx:       context.Background(),
		prompt:    input.NewPrompt(s),
		viewport:  viewport.New(80, 24-reservedLines),
		spinner:   sp,
		statusbar: bar,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.prompt.Init()
}

// Start creates a new session scoped to documentIDs.
func (v *View) Start(documentIDs []string) tea.Cmd {
	v.reset()
	return func() tea.Msg {
		if v.chat == nil {
			return messages.SessionStarted{Err: fmt.Errorf("chat service not available")}
		}
		session, err := v.chat.CreateSession(v.ctx, driving.CreateSessionRequest{
			UserID:      v.userID,
			DocumentIDs: documentIDs,
		})
		return messages.SessionStarted{Session: session, Err: err}
	}
}

// Resume reopens an existing session with its transcript.
func (v *View) Resume(sessionID string) tea.Cmd {
	v.reset()
	return func() tea.Msg {
		if v.chat == nil {
			return messages.SessionStarted{Err: fmt.Errorf("chat service not available")}
		}
		session, err := v.chat.GetSession(v.ctx, sessionID)
		if err != nil {
			return messages.SessionStarted{Err: err}
		}
		msgs, err := v.chat.Messages(v.ctx, sessionID)
		return messages.SessionStarted{Session: session, Messages: msgs, Err: err}
	}
}

func (v *View) reset() {
	v.session = nil
	v.transcript = nil
	v.waiting = false
	v.err = nil
	v.prompt.SetValue("")
	v.statusbar.Clear()
	v.refresh()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SessionStarted:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.session = msg.Session
		v.transcript = msg.Messages
		v.err = nil
		v.statusbar.Clear()
		v.refresh()
		return v, v.prompt.Focus()

	case messages.ReplyReceived:
		v.waiting = false
		if msg.Err != nil {
			// The turn was not persisted, so drop the pending question.
			if n := len(v.transcript); n > 0 && v.transcript[n-1].Role == domain.RoleUser {
				v.prompt.SetValue(v.transcript[n-1].Content)
				v.transcript = v.transcript[:n-1]
			}
			v.fail(msg.Err)
			v.refresh()
			return v, nil
		}
		v.transcript = append(v.transcript, *msg.Reply)
		v.statusbar.Clear()
		v.statusbar.SetMessage(sourceSummary(msg.Reply.Sources))
		v.refresh()
		return v, nil

	case spinner.TickMsg:
		if !v.waiting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(key, v.keymap.Send):
		if v.waiting || v.session == nil {
			return v, nil
		}
		content := v.prompt.Submit()
		if content == "" {
			return v, nil
		}
		v.transcript = append(v.transcript, domain.ChatMessage{Role: domain.RoleUser, Content: content})
		v.waiting = true
		v.err = nil
		v.statusbar.SetState(status.StateThinking)
		v.refresh()
		return v, tea.Batch(v.send(v.session.ID, content), v.spinner.Tick)
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) send(sessionID, content string) tea.Cmd {
	return func() tea.Msg {
		reply, err := v.chat.Send(v.ctx, sessionID, content)
		return messages.ReplyReceived{Reply: reply, Err: err}
	}
}

func (v *View) fail(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 {
		return v.styles.Muted.Render("Ask a question to get started.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	var b strings.Builder
	for i, m := range v.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		if m.Role == domain.RoleUser {
			b.WriteString(v.styles.User.Render("You"))
		} else {
			b.WriteString(v.styles.Assistant.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(m.Content))
		b.WriteString("\n")
		for n, src := range m.Sources {
			b.WriteString(v.styles.Citation.Render(formatSource(n+1, src)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatSource(n int, src domain.Source) string {
	return fmt.Sprintf("[%d] %s, chunk %d (%.2f)", n, src.DocumentTitle, src.ChunkIndex, src.Similarity)
}

func sourceSummary(sources []domain.Source) string {
	switch len(sources) {
	case 0:
		return "No sources matched"
	case 1:
		return "1 source"
	default:
		return fmt.Sprintf("%d sources", len(sources))
	}
}

// View renders the chat view.
func (v *View) View() string {
	title := "New chat"
	if v.session != nil && v.session.Title != nil {
		title = *v.session.Title
	}

	scope := "All documents"
	if v.session != nil && len(v.session.DocumentIDs) > 0 {
		scope = fmt.Sprintf("Scoped to %d document(s)", len(v.session.DocumentIDs))
	}

	sections := []string{
		v.styles.Title.Render(title) + "  " + v.styles.Muted.Render(scope),
		"",
		v.viewport.View(),
	}

	if v.waiting {
		sections = append(sections, v.spinner.View()+v.styles.Muted.Render(" Thinking..."))
	} else {
		sections = append(sections, "")
	}

	sections = append(sections, v.prompt.View(), v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.viewport.Width = width
	v.viewport.Height = max(height-reservedLines, 3)
	v.prompt.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Session returns the active session, or nil.
func (v *View) Session() *domain.ChatSession {
	return v.session
}

// Transcript returns the messages shown.
func (v *View) Transcript() []domain.ChatMessage {
	return v.transcript
}

// Waiting returns true while an answer is pending.
func (v *View) Waiting() bool {
	return v.waiting
}

// Prompt returns the question input.
func (v *View) Prompt() *input.Prompt {
	return v.prompt
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
