package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"chatrag/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the messages most similar to a query",
	Long: `Build the index and print the top-k messages ranked by cosine similarity
to the query. No language model is called.

Examples:
  rag query -q "Layla's trip to London"
  rag query -q "dinner reservation" --top-k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	opts := engineOptions{}
	if !queryJSON {
		opts.progress = newProgress("Embedding")
	}
	engine, cleanup, err := buildEngine(context.Background(), cfg, GetRootDir(), logger, opts)
	defer cleanup()
	if err != nil {
		return err
	}

	topK := engine.DefaultTopK()
	if cmd.Flags().Changed("top-k") {
		topK = queryTopK
	}

	results, err := engine.Retrieve(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	flat := usecase.Flatten(results)

	if queryJSON {
		output, _ := json.MarshalIndent(flat, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(flat) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(flat), queryText)
	for _, r := range flat {
		fmt.Printf("--- [%d] %s @ %s (id: %s, score: %.3f) ---\n", r.Rank, r.UserName, r.Timestamp, r.ID, r.Score)
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
	return nil
}
