package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-labs/sage-cli/internal/core/domain"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Show or switch the LLM provider",
	RunE:  runProviderShow,
}

var providerSetCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Switch the LLM provider",
	Long: `Switches the language model provider used for answering.

Available providers:
  ollama     - Local models via Ollama (default, fully private)
  openai     - OpenAI API (requires llm.openai.api_key)
  anthropic  - Anthropic API (requires llm.anthropic.api_key)

The switch takes effect on the next question; a question already being
answered finishes on the provider it started with.`,
	Args: cobra.ExactArgs(1),
	RunE: runProviderSet,
}

func init() {
	providerCmd.AddCommand(providerSetCmd)
	rootCmd.AddCommand(providerCmd)
}

func runProviderShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg := settingsService.Get()
	cmd.Printf("LLM provider:       %s (model %s)\n", cfg.LLM.Provider.Description(), cfg.LLM.Model)
	cmd.Printf("Embedding provider: %s (model %s)\n", cfg.Embedding.Provider.Description(), cfg.Embedding.Model)
	cmd.Println()
	cmd.Println("Available LLM providers:")
	for _, p := range domain.AllLLMProviders() {
		marker := " "
		if p == cfg.LLM.Provider {
			marker = "*"
		}
		cmd.Printf("  %s %s\n", marker, p.Description())
	}
	return nil
}

func runProviderSet(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	name := args[0]
	if err := assistantService.SetProvider(context.Background(), name); err != nil {
		return fmt.Errorf("switching provider: %w", err)
	}

	cmd.Printf("LLM provider set to %s\n", name)
	return nil
}
