package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	sessionsJSON  bool
	sessionTitle  string
	sessionDocIDs []string
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Manage chat sessions",
	Long:    `List, create and inspect chat sessions.`,
	RunE:    runSessionList,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session",
	Long:  `Creates an empty session. Repeat --doc to scope retrieval to specific documents.`,
	Args:  cobra.NoArgs,
	RunE:  runSessionCreate,
}

var sessionMessagesCmd = &cobra.Command{
	Use:   "messages [session-id]",
	Short: "Print a session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionMessages,
}

func init() {
	sessionsCmd.PersistentFlags().BoolVar(&sessionsJSON, "json", false, "output as JSON")
	sessionCreateCmd.Flags().StringVarP(&sessionTitle, "title", "t", "", "session title")
	sessionCreateCmd.Flags().StringSliceVarP(&sessionDocIDs, "doc", "d", nil, "document id to scope the session to")

	sessionsCmd.AddCommand(sessionListCmd)
	sessionsCmd.AddCommand(sessionCreateCmd)
	sessionsCmd.AddCommand(sessionMessagesCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}

	sessions, err := p.Chat.ListSessions(commandContext(cmd), userID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if sessionsJSON {
		return printJSON(cmd, sessions)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions found.")
		return nil
	}

	for i := range sessions {
		cmd.Printf("  %s  %s  %s\n",
			sessions[i].ID,
			sessions[i].UpdatedAt.Format(timeLayout),
			sessionLabel(&sessions[i]))
	}
	cmd.Printf("\nTotal: %d sessions\n", len(sessions))
	return nil
}

func runSessionCreate(cmd *cobra.Command, _ []string) error {
	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}

	session, err := p.Chat.CreateSession(commandContext(cmd), driving.CreateSessionRequest{
		UserID:      userID,
		Title:       sessionTitle,
		DocumentIDs: sessionDocIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if sessionsJSON {
		return printJSON(cmd, session)
	}
	cmd.Printf("Created session %s\n", session.ID)
	return nil
}

func runSessionMessages(cmd *cobra.Command, args []string) error {
	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}

	msgs, err := p.Chat.Messages(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get messages: %w", err)
	}

	if sessionsJSON {
		return printJSON(cmd, msgs)
	}

	if len(msgs) == 0 {
		cmd.Println("No messages yet.")
		return nil
	}
	for i := range msgs {
		printMessage(cmd, &msgs[i])
	}
	return nil
}

// sessionLabel is the title, or the scope when the session is untitled.
func sessionLabel(s *domain.ChatSession) string {
	if s.Title != nil && *s.Title != "" {
		return *s.Title
	}
	if len(s.DocumentIDs) > 0 {
		return fmt.Sprintf("(untitled, %d documents)", len(s.DocumentIDs))
	}
	return "(untitled)"
}

// printMessage writes one transcript entry with its citations.
func printMessage(cmd *cobra.Command, m *domain.ChatMessage) {
	label := "You"
	if m.Role == domain.RoleAssistant {
		label = "Assistant"
	}
	cmd.Printf("%s: %s\n", label, m.Content)
	printSources(cmd, m.Sources)
	cmd.Println()
}

func printSources(cmd *cobra.Command, sources []domain.Source) {
	for i, src := range sources {
		cmd.Printf("  [%d] %s, chunk %d (%.2f)\n", i+1, src.DocumentTitle, src.ChunkIndex, src.Similarity)
	}
}
