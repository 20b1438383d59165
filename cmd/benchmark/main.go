package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"chatrag/config"
	"chatrag/internal/adapter/analyzer"
	"chatrag/internal/adapter/corpus"
	"chatrag/internal/adapter/embedding"
	"chatrag/internal/port"
	"chatrag/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding rag.yaml")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	runs := flag.Int("n", 20, "Timed search repetitions")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Startup cost (model load, corpus fetch, embedding)")
		fmt.Println("  2. Semantic similarity of the top matches")
		fmt.Println("  3. Search latency over repeated queries")
		os.Exit(1)
	}

	if err := config.LoadEnv(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}

	source := port.CorpusSource(corpus.NewFileSource(*dir, cfg.Corpus.Pattern))
	if cfg.Corpus.Source == "http" {
		source = corpus.NewHTTPSource(corpus.HTTPSourceConfig{
			URL:      cfg.Corpus.URL,
			PageSize: cfg.Corpus.PageSize,
			Timeout:  cfg.Corpus.Timeout,
		})
	}

	ctx := context.Background()
	engine, err := usecase.NewEngine(ctx, usecase.EngineConfig{
		Embedder: embedder,
		Source:   source,
		Index: usecase.IndexOptions{
			BatchSize:       cfg.Embedding.BatchSize,
			IncludeMetadata: cfg.Index.IncludeMetadata,
		},
		TopK: *topK,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}

	stats := engine.Stats()
	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Messages indexed: %d\n", stats.Messages)
	fmt.Printf("Model: %s (%s)\n", stats.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", stats.Dimension)
	fmt.Printf("Startup: %s\n", engine.BuildDuration().Round(time.Millisecond))
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := engine.Retrieve(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No messages indexed.")
		return
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := r.Message.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		totalScore += r.Score

		fmt.Printf("%d. [%s %.3f] %s @ %s\n", i+1, rating(r.Score), r.Score, r.Message.UserName, r.Message.Timestamp)
		fmt.Printf("   %s\n\n", preview)
	}

	var elapsed time.Duration
	for i := 0; i < *runs; i++ {
		start := time.Now()
		if _, err := engine.Retrieve(ctx, *query, *topK); err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		elapsed += time.Since(start)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	if *runs > 0 {
		fmt.Printf("  Search latency:     %s (mean of %d)\n", (elapsed / time.Duration(*runs)).Round(time.Microsecond), *runs)
	}

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - consider a neural embedding provider")
	}
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	}
	return "LOW"
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	var opts []embedding.Option
	if cfg.Embedding.BaseURL != "" {
		opts = append(opts, embedding.WithBaseURL(cfg.Embedding.BaseURL))
	}

	switch cfg.Embedding.Provider {
	case "local":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension, analyzer.NewTokenizer(cfg.Index.Stemming)), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, opts...), nil
	case "openai":
		e, err := embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("embedder init failed: %w", err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
}
