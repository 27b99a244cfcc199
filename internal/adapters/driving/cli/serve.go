package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docrag/internal/logger"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the document, ingestion and chat endpoints over HTTP.

  GET    /health
  POST   /process/:documentId
  POST   /chat
  POST   /documents            (multipart: file, userId, name)
  GET    /documents?userId=
  GET    /documents/:id
  GET    /documents/:id/chunks
  DELETE /documents/:id
  POST   /sessions
  GET    /sessions?userId=
  GET    /sessions/:id/messages

The listen address comes from server.addr unless --addr is given.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "CORS origins (default all)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.SetTimestamps(true)

	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		addr = settings.Server.Addr
	}

	server := httpapi.New(httpapi.Ports{
		Documents: p.Documents,
		Ingestion: p.Ingestion,
		Chat:      p.Chat,
		Vectors:   p.Vectors,
	}, httpapi.Config{
		Addr:         addr,
		AllowOrigins: serveOrigins,
	})

	cmd.PrintErrf("docrag API listening on %s\n", server.Addr())
	return server.Start(commandContext(cmd))
}
