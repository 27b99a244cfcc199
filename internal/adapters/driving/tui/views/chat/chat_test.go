package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	created  []driving.CreateSessionRequest
	sent     []string
	session  *domain.ChatSession
	history  []domain.ChatMessage
	reply    *domain.ChatMessage
	sendErr  error
	startErr error
}

func (m *MockChatService) CreateSession(_ context.Context, req driving.CreateSessionRequest) (*domain.ChatSession, error) {
	m.created = append(m.created, req)
	if m.startErr != nil {
		return nil, m.startErr
	}
	return &domain.ChatSession{ID: "s1", UserID: req.UserID, DocumentIDs: req.DocumentIDs}, nil
}

func (m *MockChatService) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	if m.session == nil || m.session.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.session, nil
}

func (m *MockChatService) ListSessions(_ context.Context, _ string) ([]domain.ChatSession, error) {
	return nil, nil
}

func (m *MockChatService) Messages(_ context.Context, _ string) ([]domain.ChatMessage, error) {
	return m.history, nil
}

func (m *MockChatService) Send(_ context.Context, sessionID, content string) (*domain.ChatMessage, error) {
	m.sent = append(m.sent, sessionID+": "+content)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return m.reply, nil
}

func startedView(t *testing.T, svc *MockChatService) *View {
	t.Helper()
	view := NewView(nil, svc, "u1")
	view.SetDimensions(100, 30)
	msg := view.Start([]string{"doc-1"})()
	view.Update(msg)
	require.NotNil(t, view.Session())
	return view
}

// ask types a question, presses enter and returns the send command's message.
func ask(t *testing.T, view *View, question string) tea.Msg {
	t.Helper()
	view.Prompt().SetValue(question)
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	return view.send(view.Session().ID, question)()
}

func TestNewView(t *testing.T) {
	view := NewView(nil, &MockChatService{}, "u1")

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Nil(t, view.Session())
	assert.False(t, view.Waiting())
	assert.NotNil(t, view.Init())
}

func TestView_Start(t *testing.T) {
	svc := &MockChatService{}
	view := startedView(t, svc)

	require.Len(t, svc.created, 1)
	assert.Equal(t, "u1", svc.created[0].UserID)
	assert.Equal(t, []string{"doc-1"}, svc.created[0].DocumentIDs)
	assert.Equal(t, "s1", view.Session().ID)
	assert.Contains(t, view.View(), "Scoped to 1 document(s)")
	assert.Contains(t, view.View(), "New chat")
}

func TestView_Start_Error(t *testing.T) {
	view := NewView(nil, &MockChatService{startErr: errors.New("db down")}, "u1")

	view.Update(view.Start(nil)())

	assert.Nil(t, view.Session())
	assert.EqualError(t, view.Err(), "db down")
	assert.Equal(t, status.StateError, view.statusbar.State())
}

func TestView_Start_NoService(t *testing.T) {
	view := NewView(nil, nil, "u1")

	msg, ok := view.Start(nil)().(messages.SessionStarted)
	require.True(t, ok)
	assert.Error(t, msg.Err)
}

func TestView_Resume(t *testing.T) {
	title := "Quarterly numbers"
	svc := &MockChatService{
		session: &domain.ChatSession{ID: "s9", Title: &title},
		history: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "What was revenue?"},
			{Role: domain.RoleAssistant, Content: "Revenue was 10M."},
		},
	}
	view := NewView(nil, svc, "u1")
	view.SetDimensions(100, 30)

	view.Update(view.Resume("s9")())

	assert.Equal(t, "s9", view.Session().ID)
	assert.Len(t, view.Transcript(), 2)
	out := view.View()
	assert.Contains(t, out, "Quarterly numbers")
	assert.Contains(t, out, "All documents")
	assert.Contains(t, out, "Revenue was 10M.")
}

func TestView_Resume_Unknown(t *testing.T) {
	view := NewView(nil, &MockChatService{}, "u1")

	view.Update(view.Resume("nope")())

	assert.ErrorIs(t, view.Err(), domain.ErrNotFound)
}

func TestView_Send(t *testing.T) {
	svc := &MockChatService{
		reply: &domain.ChatMessage{
			Role:    domain.RoleAssistant,
			Content: "The report covers Q3.",
			Sources: []domain.Source{
				{DocumentID: "doc-1", DocumentTitle: "Report", ChunkIndex: 2, Similarity: 0.91},
			},
		},
	}
	view := startedView(t, svc)

	reply := ask(t, view, "  what does it cover?  ")

	assert.True(t, view.Waiting())
	assert.Equal(t, "", view.Prompt().Value())
	require.Len(t, view.Transcript(), 1)
	assert.Equal(t, "what does it cover?", view.Transcript()[0].Content)
	assert.Contains(t, view.View(), "Thinking...")

	view.Update(reply)

	assert.False(t, view.Waiting())
	require.Len(t, view.Transcript(), 2)
	assert.Equal(t, []string{"s1: what does it cover?"}, svc.sent)
	assert.Equal(t, "1 source", view.statusbar.Message())

	out := view.View()
	assert.Contains(t, out, "The report covers Q3.")
	assert.Contains(t, out, "[1] Report, chunk 2 (0.91)")
}

func TestView_Send_Failure(t *testing.T) {
	svc := &MockChatService{sendErr: errors.New("llm unavailable")}
	view := startedView(t, svc)

	view.Update(ask(t, view, "hello"))

	assert.False(t, view.Waiting())
	assert.Empty(t, view.Transcript())
	assert.Equal(t, "hello", view.Prompt().Value(), "question restored for retry")
	assert.EqualError(t, view.Err(), "llm unavailable")
}

func TestView_Send_Ignored(t *testing.T) {
	t.Run("blank", func(t *testing.T) {
		view := startedView(t, &MockChatService{})
		view.Prompt().SetValue("   ")

		_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd)
		assert.Empty(t, view.Transcript())
	})

	t.Run("no session", func(t *testing.T) {
		view := NewView(nil, &MockChatService{}, "u1")
		view.Prompt().SetValue("hello")

		_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd)
	})

	t.Run("while waiting", func(t *testing.T) {
		svc := &MockChatService{reply: &domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"}}
		view := startedView(t, svc)
		ask(t, view, "first")

		view.Prompt().SetValue("second")
		_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd)
		assert.Len(t, view.Transcript(), 1)
	})
}

func TestView_NoSourcesSummary(t *testing.T) {
	svc := &MockChatService{reply: &domain.ChatMessage{Role: domain.RoleAssistant, Content: "I don't know."}}
	view := startedView(t, svc)

	view.Update(ask(t, view, "anything?"))

	assert.Equal(t, "No sources matched", view.statusbar.Message())
}

func TestView_Back(t *testing.T) {
	view := startedView(t, &MockChatService{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_TypingGoesToPrompt(t *testing.T) {
	view := startedView(t, &MockChatService{})

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.Equal(t, "q", view.Prompt().Value())
}

func TestSourceSummary(t *testing.T) {
	assert.Equal(t, "No sources matched", sourceSummary(nil))
	assert.Equal(t, "1 source", sourceSummary(make([]domain.Source, 1)))
	assert.Equal(t, "3 sources", sourceSummary(make([]domain.Source, 3)))
}
