package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatrag/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the index and serve the HTTP API",
	Long: `Load the embedding model, fetch the corpus and build the index, then
serve the question form on / and the JSON API on /ask, /retrieve and /stats.
Any startup failure exits without serving.

Examples:
  rag serve
  rag serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, cleanup, err := buildEngine(ctx, cfg, GetRootDir(), logger, engineOptions{
		requireLLM: true,
		progress:   newProgress("Embedding"),
	})
	defer cleanup()
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	stats := engine.Stats()
	logger.Info("engine ready",
		"messages", stats.Messages,
		"model", stats.Model,
		"took", engine.BuildDuration().Round(time.Millisecond))

	return api.NewServer(addr, engine, logger).Run(ctx)
}
