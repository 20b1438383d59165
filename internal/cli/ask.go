package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askQuestion string
	askTopK     int
	askJSON     bool
	askSources  bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question about the chat history",
	Long: `Build the index, retrieve the messages most similar to the question and
ask the configured language model to answer from them.

The API key is read from the environment variable named by llm.api_key_env
(GROQ_API_KEY by default), or from a .env file in the root directory.

Examples:
  rag ask -q "When is Layla planning her trip to London?"
  rag ask -q "What restaurants did Amira mention?" -k 20 --sources`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "query", "q", "", "question (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "messages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the messages the answer was grounded on")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	opts := engineOptions{requireLLM: true}
	if !askJSON {
		opts.progress = newProgress("Embedding")
	}
	engine, cleanup, err := buildEngine(context.Background(), cfg, GetRootDir(), logger, opts)
	defer cleanup()
	if err != nil {
		return err
	}

	topK := engine.DefaultTopK()
	if cmd.Flags().Changed("top-k") {
		topK = askTopK
	}

	ans, err := engine.Answer(cmd.Context(), askQuestion, topK)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(ans, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(ans.Text)
	if askSources {
		fmt.Printf("\nSources (%d):\n", len(ans.Sources))
		for i, s := range ans.Sources {
			fmt.Printf("  [%d] %s %s: %s\n", i+1, s.Timestamp, s.UserName, s.Text)
		}
	}
	return nil
}
