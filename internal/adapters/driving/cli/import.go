package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

var (
	importInclude []string
	importExclude []string
	importWatch   bool
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Upload and ingest every document in a directory",
	Long: `Walks a directory, uploading and ingesting every PDF, DOCX and TXT file
that matches the include patterns. Hidden files and directories are skipped.

With --watch, keeps running and re-imports files as they are created or
changed. A changed file replaces the document imported from it earlier.`,
	Example: `  docrag import ./papers
  docrag import ./notes --include "**/*.txt" --exclude "drafts/**"
  docrag import ./inbox --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringSliceVar(&importInclude, "include", nil, "glob patterns to include (default import.include, else "+filesystem.DefaultInclude+")")
	importCmd.Flags().StringSliceVar(&importExclude, "exclude", nil, "glob patterns to exclude")
	importCmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "watch for new and changed files")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	include := importInclude
	if len(include) == 0 && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			include = settings.Ingestion.Include
		}
	}

	src, err := filesystem.New(args[0], filesystem.Options{
		Include: include,
		Exclude: importExclude,
	})
	if err != nil {
		return err
	}

	p, err := requirePorts(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	cmd.Printf("Scanning %s...\n", src.Root())
	paths, err := src.Scan(ctx)
	if err != nil {
		return err
	}

	imp := &importer{ports: p, imported: make(map[string]string)}
	var failed int
	if len(paths) > 0 {
		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Importing[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(cmd.ErrOrStderr())
			}),
		)
		for _, path := range paths {
			if _, err := imp.importFile(ctx, path); err != nil {
				logger.Warn("%s: %v", path, err)
				failed++
			}
			_ = bar.Add(1)
		}
	}
	cmd.Printf("Imported %d of %d files\n", len(paths)-failed, len(paths))

	if importWatch {
		cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", src.Root())
		return src.Watch(ctx, func(path string) {
			doc, err := imp.importFile(ctx, path)
			if err != nil {
				cmd.PrintErrf("  %s: %v\n", path, err)
				return
			}
			cmd.Printf("  %s %s (%d chunks)\n", doc.FileName, doc.Status, doc.ChunkCount)
		})
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

// importer uploads and ingests files, remembering which document each path
// produced so a re-import replaces it.
type importer struct {
	ports    *Ports
	imported map[string]string
}

func (i *importer) importFile(ctx context.Context, path string) (*domain.Document, error) {
	if prev, ok := i.imported[path]; ok {
		if err := i.ports.Documents.Delete(ctx, prev); err != nil {
			logger.Warn("Replacing %s: %v", prev, err)
		}
		delete(i.imported, path)
	}

	doc, err := uploadFile(ctx, i.ports, path, "")
	if err != nil {
		return nil, err
	}
	i.imported[path] = doc.ID
	logger.Debug("Uploaded %s as %s", filepath.Base(path), doc.ID)

	if err := i.ports.Ingestion.Process(ctx, doc.ID); err != nil {
		return nil, err
	}
	return i.ports.Documents.Get(ctx, doc.ID)
}
