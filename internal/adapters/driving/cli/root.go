// Package cli implements the sage command-line interface using cobra.
// Services are injected once through Execute; commands reach them via
// package-level variables, which keeps command files declarative.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/sage-labs/sage-cli/internal/core/ports/driving"
	"github.com/sage-labs/sage-cli/internal/logger"
)

// version is the build version, set via Execute.
var version = "dev"

// Injected services. Nil checks guard commands run without wiring
// (mainly in tests).
var (
	assistantService driving.AssistantService
	memoryService    driving.MemoryService
	settingsService  driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Local question answering over your own documents",
	Long: `Sage is a local, privacy-preserving question-answering assistant.

Ask questions against documents you have ingested; when local knowledge
is insufficient, Sage falls back to web search and finally to the model
itself, always telling you which source the answer came from.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Deps carries the services the CLI commands depend on.
type Deps struct {
	Assistant driving.AssistantService
	Memory    driving.MemoryService
	Settings  driving.SettingsService
}

// Execute wires the dependencies and runs the root command.
func Execute(deps Deps, buildVersion string) error {
	assistantService = deps.Assistant
	memoryService = deps.Memory
	settingsService = deps.Settings
	if buildVersion != "" {
		version = buildVersion
	}
	return rootCmd.Execute()
}
