package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var memorySession string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage conversation memory",
	Long: `Controls conversation memory.

Recent turns always live in an in-process buffer. With long-term memory
enabled, turns are also persisted and survive restarts.`,
}

var memoryOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable long-term conversation memory",
	RunE:  func(cmd *cobra.Command, _ []string) error { return toggleMemory(cmd, true) },
}

var memoryOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable long-term conversation memory",
	RunE:  func(cmd *cobra.Command, _ []string) error { return toggleMemory(cmd, false) },
}

var memoryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a session's conversation history as JSON",
	RunE:  runMemoryExport,
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete a session's conversation history",
	RunE:  runMemoryClear,
}

func init() {
	memoryCmd.PersistentFlags().StringVarP(&memorySession, "session", "s", "default", "conversation session")
	memoryCmd.AddCommand(memoryOnCmd)
	memoryCmd.AddCommand(memoryOffCmd)
	memoryCmd.AddCommand(memoryExportCmd)
	memoryCmd.AddCommand(memoryClearCmd)
	rootCmd.AddCommand(memoryCmd)
}

func toggleMemory(cmd *cobra.Command, enabled bool) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}
	if err := assistantService.MemoryToggle(context.Background(), enabled); err != nil {
		return fmt.Errorf("toggling memory: %w", err)
	}
	if enabled {
		cmd.Println("Long-term memory enabled")
	} else {
		cmd.Println("Long-term memory disabled")
	}
	return nil
}

func runMemoryExport(cmd *cobra.Command, _ []string) error {
	if memoryService == nil {
		return errors.New("memory service not configured")
	}
	data, err := memoryService.Export(context.Background(), memorySession)
	if err != nil {
		return fmt.Errorf("exporting session %s: %w", memorySession, err)
	}
	cmd.Println(string(data))
	return nil
}

func runMemoryClear(cmd *cobra.Command, _ []string) error {
	if memoryService == nil {
		return errors.New("memory service not configured")
	}
	if err := memoryService.Clear(context.Background(), memorySession); err != nil {
		return fmt.Errorf("clearing session %s: %w", memorySession, err)
	}
	cmd.Printf("Cleared session %s\n", memorySession)
	return nil
}
