package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Answers a question using your ingested documents.

Local retrieval is tried first; if nothing relevant is found the query
falls back to web search (when enabled) and finally to the model's own
knowledge. The answer always reports which source it came from.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "default", "conversation session")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant service not configured")
	}

	answer, err := assistantService.Ask(context.Background(), args[0], askSession)
	if err != nil {
		cmd.PrintErrln(errorStyle.Render("Could not answer: " + err.Error()))
		return err
	}

	if askJSON {
		return outputAskJSON(cmd, answer)
	}

	cmd.Println(answerStyle.Render(answer.Text))
	cmd.Println()
	cmd.Println(sourceStyle.Render("Source: " + string(answer.Source)))

	for _, t := range answer.Transitions {
		cmd.Println(fallbackStyle.Render("  fallback: " + t.String()))
	}

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Citations:")
		for i, c := range answer.Citations {
			cmd.Println(citationStyle.Render(fmt.Sprintf("  [%d] %s", i+1, c)))
		}
	}

	return nil
}

func outputAskJSON(cmd *cobra.Command, answer any) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
