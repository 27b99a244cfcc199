package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	askDocIDs  []string
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask a single question",
	Long: `Answers one question from the indexed chunks and prints the cited sources.

Nothing is saved. Use --session to include a session's history as context,
or 'docrag chat' for a conversation that is persisted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askDocIDs, "doc", "d", nil, "document id to restrict retrieval to")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session whose history to include")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question is empty")
	}

	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}

	result, err := p.RAG.Query(commandContext(cmd), driving.QueryRequest{
		SessionID:   askSession,
		Message:     question,
		DocumentIDs: askDocIDs,
	})
	if err != nil {
		return err
	}

	if askJSON {
		return printJSON(cmd, result)
	}

	cmd.Println(result.Content)
	if len(result.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		printSources(cmd, result.Sources)
	}
	return nil
}
