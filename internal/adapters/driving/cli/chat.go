package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	chatSession string
	chatDocIDs  []string
	chatPlain   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents",
	Long: `Opens a chat session. Every turn is answered from the indexed chunks
and saved with its sources.

On a terminal this starts the interactive UI, beginning at the document list
unless --session or --doc is given. When input is piped, or with --plain,
each input line is one question and answers are printed as they arrive.

Controls (interactive UI):
  ↑/k, ↓/j - Navigate documents
  Enter    - Chat about the selected document / send
  a        - Chat about all documents
  Esc      - Back to documents
  ?        - Help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume an existing session")
	chatCmd.Flags().StringSliceVarP(&chatDocIDs, "doc", "d", nil, "document id to scope a new session to")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use the line-based interface")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatSession != "" && len(chatDocIDs) > 0 {
		return errors.New("--session and --doc cannot be combined")
	}

	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}

	if !chatPlain && isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
		return runChatTUI(cmd, p)
	}
	return runChatREPL(cmd, p)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runChatTUI(cmd *cobra.Command, p *Ports) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in chat UI: %v\n%s", r, debug.Stack())
		}
	}()

	sessionID := chatSession
	if sessionID == "" && len(chatDocIDs) > 0 {
		session, err := p.Chat.CreateSession(commandContext(cmd), driving.CreateSessionRequest{
			UserID:      userID,
			DocumentIDs: chatDocIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = session.ID
	}

	app, err := tui.NewApp(&tui.Ports{
		Documents: p.Documents,
		Chat:      p.Chat,
		Ingestion: p.Ingestion,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat UI: %w", err)
	}
	app.WithContext(commandContext(cmd)).WithSession(sessionID)

	if err := app.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

// runChatREPL reads one question per line until EOF or /quit.
func runChatREPL(cmd *cobra.Command, p *Ports) error {
	ctx := commandContext(cmd)

	session, err := openSession(cmd, p)
	if err != nil {
		return err
	}
	cmd.PrintErrf("Session %s (%s). Type /quit to exit.\n", session.ID, sessionLabel(session))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		cmd.PrintErr("> ")
		if !scanner.Scan() {
			cmd.PrintErrln()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		reply, err := p.Chat.Send(ctx, session.ID, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		printMessage(cmd, reply)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func openSession(cmd *cobra.Command, p *Ports) (*domain.ChatSession, error) {
	ctx := commandContext(cmd)
	if chatSession != "" {
		session, err := p.Chat.GetSession(ctx, chatSession)
		if err != nil {
			return nil, fmt.Errorf("failed to open session: %w", err)
		}
		return session, nil
	}

	session, err := p.Chat.CreateSession(ctx, driving.CreateSessionRequest{
		UserID:      userID,
		DocumentIDs: chatDocIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}
