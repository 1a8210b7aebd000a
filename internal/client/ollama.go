package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"locode/internal/logging"
)

// OllamaConfig holds configuration for the Ollama API client.
type OllamaConfig struct {
	BaseURL     string        // Default: "http://localhost:11434"
	Model       string        // e.g., "llama3.2", "qwen2.5-coder"
	Temperature float32       // Temperature for generation
	MaxTokens   int32         // Max output tokens
	HTTPTimeout time.Duration // HTTP request timeout (default: 120s)
}

// OllamaClient implements Client against a local Ollama server.
type OllamaClient struct {
	client *api.Client
	config OllamaConfig
}

// NewOllamaClient creates a new Ollama API client.
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 8192
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 120 * time.Second
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	httpClient := &http.Client{Timeout: config.HTTPTimeout}

	return &OllamaClient{
		client: api.NewClient(baseURL, httpClient),
		config: config,
	}, nil
}

// Chat sends the message sequence and returns the assistant reply.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message) (*Message, error) {
	apiMessages := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	req := &api.ChatRequest{
		Model:    c.config.Model,
		Messages: apiMessages,
		Stream:   ptr(false),
		Options: map[string]interface{}{
			"num_predict": c.config.MaxTokens,
		},
	}
	if c.config.Temperature > 0 {
		req.Options["temperature"] = c.config.Temperature
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			logging.Debug("chat completed",
				"model", c.config.Model,
				"input_tokens", resp.PromptEvalCount,
				"output_tokens", resp.EvalCount)
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapError(err)
	}

	return &Message{Role: "assistant", Content: content.String()}, nil
}

// Healthcheck verifies that the Ollama server is accessible.
// The SDK has no explicit ping, so List serves as the healthcheck.
func (c *OllamaClient) Healthcheck(ctx context.Context) error {
	if _, err := c.client.List(ctx); err != nil {
		return c.wrapError(err)
	}
	return nil
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.config.Model
}

// ListModels returns the models installed on the server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, c.wrapError(err)
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

func ptr[T any](v T) *T {
	return &v
}
