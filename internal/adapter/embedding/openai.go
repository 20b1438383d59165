package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"chatrag/internal/domain"
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. It serves
// OpenAI, Jina, DeepSeek and Ollama's /v1 API.
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	batchSize int
	client    *http.Client

	loadMu  sync.Mutex
	loaded  bool
	loadErr error
}

// Option configures an OpenAIEmbedder.
type Option func(*OpenAIEmbedder)

// WithBaseURL overrides the provider's default endpoint.
func WithBaseURL(url string) Option {
	return func(e *OpenAIEmbedder) {
		if url != "" {
			e.baseURL = url
		}
	}
}

// WithDimension sets the expected vector size. Zero keeps the size known for
// the model, or adopts whatever the endpoint returns on Load.
func WithDimension(dim int) Option {
	return func(e *OpenAIEmbedder) {
		if dim > 0 {
			e.dimension = dim
		}
	}
}

// WithBatchSize caps how many texts go into one request.
func WithBatchSize(n int) Option {
	return func(e *OpenAIEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *OpenAIEmbedder) {
		if c != nil {
			e.client = c
		}
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// knownDimensions lists output sizes of common embedding models.
var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"jina-embeddings-v3":     1024,
	"jina-embeddings-v4":     2048,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

func NewOpenAIEmbedder(apiKeyEnv, model string, opts ...Option) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, "https://api.openai.com/v1", opts...)
}

func NewDeepSeekEmbedder(apiKeyEnv, model string, opts ...Option) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, "https://api.deepseek.com/v1", opts...)
}

func NewJinaEmbedder(apiKeyEnv, model string, opts ...Option) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, "https://api.jina.ai/v1", opts...)
}

// NewOllamaEmbedder talks to a local Ollama server, which needs no API key.
func NewOllamaEmbedder(model string, opts ...Option) *OpenAIEmbedder {
	e := newEmbedder("ollama", model, "http://localhost:11434/v1", 120*time.Second)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL string, opts ...Option) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	e := newEmbedder(apiKey, model, baseURL, 60*time.Second)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func newEmbedder(apiKey, model, baseURL string, timeout time.Duration) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: knownDimensions[model],
		batchSize: 100,
		client:    &http.Client{Timeout: timeout},
	}
}

// Load sends one probe request and checks the vector size. Once the probe
// completes, later calls return its result without a request. A probe cut
// short by ctx is not remembered, so a later call tries again.
func (e *OpenAIEmbedder) Load(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if e.loaded {
		return e.loadErr
	}

	err := e.probe(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}
	e.loaded = true
	e.loadErr = err
	return err
}

func (e *OpenAIEmbedder) probe(ctx context.Context) error {
	vecs, err := e.embedBatch(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, e.model, err)
	}
	got := len(vecs[0])
	switch {
	case got == 0:
		return fmt.Errorf("%w: %s returned an empty vector", domain.ErrModelUnavailable, e.model)
	case e.dimension == 0:
		e.dimension = got
	case got != e.dimension:
		return fmt.Errorf("%w: %s returned %d dimensions, expected %d",
			domain.ErrModelUnavailable, e.model, got, e.dimension)
	}
	return nil
}

// Embed returns one vector per text, in input order. Empty texts map to the
// zero vector without a request, since most endpoints reject empty input.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var pending []int
	for i, t := range texts {
		if t == "" {
			out[i] = make([]float32, e.dimension)
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += e.batchSize {
		end := min(start+e.batchSize, len(pending))
		idx := pending[start:end]

		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}

		vecs, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for j, i := range idx {
			if len(vecs[j]) != e.dimension {
				return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(vecs[j]), e.dimension)
			}
			out[i] = vecs[j]
		}
	}

	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Input: texts,
		Model: e.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	// Providers may return data out of order; place each by its index.
	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, v := range embeddings {
		if v == nil {
			return nil, fmt.Errorf("API returned no embedding for input %d", i)
		}
	}

	return embeddings, nil
}

func preview(body []byte) string {
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
