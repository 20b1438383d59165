package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch, embed and index the chat corpus",
	Long: `Fetch every message from the configured corpus source, embed it and
build the in-memory similarity index, then print a summary. The index is not
persisted; this command checks that startup would succeed and warms the
embedding cache when embedding.cache is enabled.

Examples:
  rag build
  rag build --config rag.yaml -v`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	fmt.Printf("Loading corpus from %s source...\n", cfg.Corpus.Source)

	engine, cleanup, err := buildEngine(context.Background(), cfg, GetRootDir(), logger, engineOptions{
		progress: newProgress("Embedding"),
	})
	defer cleanup()
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	stats := engine.Stats()
	fmt.Printf("\nBuild complete:\n")
	fmt.Printf("  Messages indexed: %d\n", stats.Messages)
	fmt.Printf("  Embedding model:  %s\n", stats.Model)
	fmt.Printf("  Dimension:        %d\n", stats.Dimension)
	fmt.Printf("  Took:             %s\n", formatDuration(engine.BuildDuration()))
	if cfg.Embedding.Cache {
		fmt.Printf("\nEmbedding cache at: %s\n", cfg.EmbeddingCachePath(GetRootDir()))
	}
	return nil
}

// newProgress renders index build progress with an ETA. The bar is created
// on the first callback, once the corpus size is known.
func newProgress(label string) func(processed, total int) {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(processed, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
