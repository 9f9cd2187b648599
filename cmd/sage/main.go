// Command sage is the entry point for the Sage CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sage-labs/sage-cli/internal/adapters/driven/ai"
	"github.com/sage-labs/sage-cli/internal/adapters/driven/config/file"
	"github.com/sage-labs/sage-cli/internal/adapters/driven/storage/sqlite"
	"github.com/sage-labs/sage-cli/internal/adapters/driven/websearch/duckduckgo"
	"github.com/sage-labs/sage-cli/internal/adapters/driving/cli"
	"github.com/sage-labs/sage-cli/internal/connectors/filesystem"
	"github.com/sage-labs/sage-cli/internal/core/services"
	"github.com/sage-labs/sage-cli/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}
	settings := services.NewSettings(configStore)
	cfg := settings.Get()

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening chunk store: %w", err)
	}
	defer store.Close()

	embedSvc, err := ai.CreateAndValidateEmbeddingService(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}
	defer embedSvc.Close()

	web := duckduckgo.NewSearchService(duckduckgo.Config{})
	defer web.Close()

	assistant, err := services.NewAssistant(
		settings,
		store,
		services.NewEmbeddingGateway(embedSvc),
		filesystem.NewLoader(),
		chunker.New(),
		web,
		ai.CreateAndValidateLLMService,
	)
	if err != nil {
		return err
	}

	return cli.Execute(cli.Deps{
		Assistant: assistant,
		Memory:    assistant,
		Settings:  settings,
	}, version)
}
