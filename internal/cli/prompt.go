package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	promptQuestion string
	promptTopK     int
	promptBudget   int
	promptOutput   string
	promptJSON     bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the prompt an answer would be generated from",
	Long: `Retrieve context for a question, pack it into the token budget and print
the rendered prompt without calling the language model. Use --json to print the
packed context instead.

Examples:
  rag prompt -q "When is Layla's trip?"
  rag prompt -q "dinner plans" -b 1000 -o prompt.txt
  rag prompt -q "dinner plans" --json`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuestion, "query", "q", "", "question (required)")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "messages to retrieve (default from config)")
	promptCmd.Flags().IntVarP(&promptBudget, "budget", "b", 0, "token budget (default from config)")
	promptCmd.Flags().StringVarP(&promptOutput, "output", "o", "", "output file (default: stdout)")
	promptCmd.Flags().BoolVar(&promptJSON, "json", false, "output packed context as JSON")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if promptBudget > 0 {
		cfg.Pack.TokenBudget = promptBudget
	}

	engine, cleanup, err := buildEngine(context.Background(), cfg, GetRootDir(), logger, engineOptions{})
	defer cleanup()
	if err != nil {
		return err
	}

	topK := engine.DefaultTopK()
	if cmd.Flags().Changed("top-k") {
		topK = promptTopK
	}

	packed, prompt, err := engine.Prompt(cmd.Context(), promptQuestion, topK)
	if err != nil {
		return err
	}

	output := prompt
	if promptJSON {
		data, err := json.MarshalIndent(packed, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode context: %w", err)
		}
		output = string(data) + "\n"
	}

	if promptOutput == "" {
		fmt.Print(output)
		return nil
	}
	if err := os.WriteFile(promptOutput, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Printf("Packed %d messages (%d/%d tokens, %d dropped) to %s\n",
		len(packed.Lines), packed.UsedTokens, packed.BudgetTokens, packed.Dropped, promptOutput)
	return nil
}
