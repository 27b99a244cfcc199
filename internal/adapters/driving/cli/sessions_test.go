package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

func TestSessions_Empty(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "", "sessions")

	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")
}

func TestSessions_CreateAndList(t *testing.T) {
	env := setupTestServices(t)

	out, _, err := execute(t, "", "sessions", "create", "--title", "Budget", "--doc", "doc-1", "--doc", "doc-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Created session ")

	sessions, err := env.ports.Chat.ListSessions(context.Background(), defaultUserID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{"doc-1", "doc-2"}, sessions[0].DocumentIDs)

	out, _, err = execute(t, "", "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, sessions[0].ID)
	assert.Contains(t, out, "Budget")
	assert.Contains(t, out, "Total: 1 sessions")
}

func TestSessions_Messages(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()
	session, err := env.ports.Chat.CreateSession(ctx, driving.CreateSessionRequest{UserID: defaultUserID})
	require.NoError(t, err)
	_, err = env.ports.Chat.Send(ctx, session.ID, "What does the report cover?")
	require.NoError(t, err)

	out, _, err := execute(t, "", "sessions", "messages", session.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "You: What does the report cover?")
	assert.Contains(t, out, "Assistant: The report covers Q3 revenue.")
	assert.Contains(t, out, "[1] Report, chunk 2 (0.87)")
}

func TestSessions_MessagesUnknown(t *testing.T) {
	setupTestServices(t)

	_, _, err := execute(t, "", "sessions", "messages", "missing")

	assert.Error(t, err)
}

func TestSessionLabel(t *testing.T) {
	title := "Budget"
	env := setupTestServices(t)
	ctx := context.Background()

	titled, err := env.ports.Chat.CreateSession(ctx, driving.CreateSessionRequest{UserID: "u", Title: title})
	require.NoError(t, err)
	scoped, err := env.ports.Chat.CreateSession(ctx, driving.CreateSessionRequest{UserID: "u", DocumentIDs: []string{"a", "b"}})
	require.NoError(t, err)
	plain, err := env.ports.Chat.CreateSession(ctx, driving.CreateSessionRequest{UserID: "u"})
	require.NoError(t, err)

	assert.Equal(t, "Budget", sessionLabel(titled))
	assert.Equal(t, "(untitled, 2 documents)", sessionLabel(scoped))
	assert.Equal(t, "(untitled)", sessionLabel(plain))
}
