// Package cli provides the docrag command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time.
var version = "dev"

// annotationStandalone marks commands that run without loading configuration.
const annotationStandalone = "standalone"

// defaultUserID owns documents and sessions created from the command line.
const defaultUserID = "local"

// HealthChecker reports whether a backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Ports holds the pipeline services commands drive.
type Ports struct {
	Documents driving.DocumentService
	Ingestion driving.IngestionService
	RAG       driving.RAGService
	Chat      driving.ChatService
	Vectors   HealthChecker

	// Close releases stores and clients. Optional.
	Close func() error
}

// Loader builds the pipeline from resolved settings.
type Loader func(ctx context.Context, settings *domain.AppSettings) (*Ports, error)

var (
	configPath string
	verbose    bool
	userID     string

	settingsService driving.SettingsService
	loader          Loader
	ports           *Ports

	// ownsPorts is true when ports were built by loader and must be closed.
	ownsPorts bool
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Chat with your documents",
	Long: `docrag ingests PDF, DOCX and text documents into a vector index and
answers questions about them with citations.

Upload files, then ask questions or open an interactive chat session.
The same pipeline is available over HTTP (docrag serve) and MCP (docrag mcp serve).`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.docrag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", defaultUserID, "user that owns uploads and sessions")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetLoader sets the function that builds the pipeline on first use.
func SetLoader(l Loader) {
	loader = l
}

// SetServices installs ready-made services and skips configuration loading.
// Ports installed this way are never closed by the CLI.
func SetServices(settings driving.SettingsService, p *Ports) {
	settingsService = settings
	ports = p
	ownsPorts = false
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// setup loads .env and the config file, applies environment overrides and
// builds the settings service.
func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if cmd.Annotations[annotationStandalone] == "true" || settingsService != nil {
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Could not load .env: %v", err)
	}

	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyEnv(store, os.Getenv); err != nil {
		return err
	}
	if store.GetBool(services.KeyLogVerbose) {
		logger.SetVerbose(true)
	}
	logger.Debug("Using config %s", store.Path())

	settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if !ownsPorts || ports == nil {
		return nil
	}
	p := ports
	ports = nil
	ownsPorts = false

	if p.Ingestion != nil {
		if err := p.Ingestion.Close(); err != nil {
			logger.Warn("Stopping ingestion: %v", err)
		}
	}
	if p.Close != nil {
		return p.Close()
	}
	return nil
}

// requirePorts returns the pipeline services, building them on first use.
func requirePorts(cmd *cobra.Command) (*Ports, error) {
	if ports != nil {
		return ports, nil
	}
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	if loader == nil {
		return nil, errors.New("services not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return nil, fmt.Errorf("%w\nRun 'docrag settings wizard' to fix configuration issues", err)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	p, err := loader(commandContext(cmd), settings)
	if err != nil {
		return nil, fmt.Errorf("failed to start services: %w", err)
	}
	ports = p
	ownsPorts = true
	return p, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
