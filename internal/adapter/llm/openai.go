// Package llm provides a chat-completions client for OpenAI-compatible APIs
// such as Groq, OpenAI and Ollama.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"chatrag/internal/port"
)

var _ port.LLM = (*Client)(nil)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the chat client.
type Config struct {
	// APIKey authenticates against the API (required).
	APIKey string

	// BaseURL is the API root, without /chat/completions.
	BaseURL string

	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client calls POST {BaseURL}/chat/completions.
type Client struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"` // 0 is meaningful, always sent
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates a chat client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// NewFromEnv reads the API key from the environment variable apiKeyEnv.
func NewFromEnv(apiKeyEnv string, cfg Config) (*Client, error) {
	cfg.APIKey = os.Getenv(apiKeyEnv)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key not found in environment variable: %s", apiKeyEnv)
	}
	return New(cfg)
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, []chatMessage{{Role: "user", Content: prompt}})
}

func (c *Client) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.chat(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) chat(ctx context.Context, messages []chatMessage) (string, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body))
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("api error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func truncate(body []byte) string {
	if len(body) > 300 {
		return string(body[:300]) + "..."
	}
	return string(body)
}
