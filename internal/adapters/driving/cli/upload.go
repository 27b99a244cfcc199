package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	uploadName   string
	uploadIngest bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload documents",
	Long: `Uploads PDF, DOCX or TXT files. Documents start as pending; pass --ingest
to chunk, embed and index them immediately.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [doc-id...]",
	Short: "Process uploaded documents",
	Long: `Runs the ingestion pipeline for each document: extract text, chunk it,
embed the chunks and index them. The document ends completed or failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "display name (single file only)")
	uploadCmd.Flags().BoolVar(&uploadIngest, "ingest", false, "ingest after uploading")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadName != "" && len(args) > 1 {
		return errors.New("--name can only be used with a single file")
	}

	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	var failed int
	for _, path := range args {
		doc, err := uploadFile(ctx, p, path, uploadName)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}
		cmd.Printf("Uploaded %s as %s\n", doc.FileName, doc.ID)

		if uploadIngest {
			if err := ingestOne(cmd, p, doc.ID); err != nil {
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}

	var failed int
	for _, id := range args {
		if err := ingestOne(cmd, p, id); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}

// uploadFile reads path and uploads it for the current user.
func uploadFile(ctx context.Context, p *Ports, path, name string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Documents.Upload(ctx, driving.UploadRequest{
		UserID:   userID,
		Name:     name,
		FileName: filepath.Base(path),
		Data:     data,
	})
}

// ingestOne processes a document synchronously and reports the outcome.
func ingestOne(cmd *cobra.Command, p *Ports, documentID string) error {
	ctx := commandContext(cmd)
	cmd.Printf("Ingesting %s...\n", documentID)

	if err := p.Ingestion.Process(ctx, documentID); err != nil {
		cmd.PrintErrf("  %s failed: %v\n", documentID, err)
		return err
	}

	doc, err := p.Documents.Get(ctx, documentID)
	if err != nil {
		return err
	}
	cmd.Printf("  %s %s (%d chunks)\n", doc.Name, doc.Status, doc.ChunkCount)
	return nil
}
