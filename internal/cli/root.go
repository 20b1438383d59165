package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chatrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Chat RAG - answer questions about a chat history",
	Long: `RAG fetches a corpus of chat messages, embeds every message into an
in-memory similarity index and answers natural-language questions about the
conversation with a language model grounded on the most similar messages.

Example usage:
  rag serve                          # Build the index and serve HTTP on :8001
  rag query -q "Layla's trip"        # Show the most similar messages
  rag ask -q "When is Layla's trip?" # Answer a question on the terminal
  rag build                          # Fetch, embed and report index stats`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := config.LoadEnv(rootDir); err != nil {
			return err
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger = newLogger(cfg.Logging, verbose)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./rag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// newLogger builds the process logger. Logs go to stderr so command output
// on stdout stays machine readable.
func newLogger(lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(lc.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
