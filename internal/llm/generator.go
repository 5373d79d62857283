// Package llm provides answer generation over an assembled prompt.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Generator produces an answer for a fully assembled prompt. Implementations
// never fail hard on provider problems: a disabled or unreachable provider
// yields a descriptive plain string so the HTTP layer always has something
// to return.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// StubGenerator is used when no chat provider is configured.
type StubGenerator struct{}

// Generate reports that generation is disabled. Retrieval itself still ran.
func (StubGenerator) Generate(ctx context.Context, prompt string) string {
	return "Answer generation is disabled. Retrieval completed successfully; configure a chat provider to generate answers."
}

// RemoteConfig configures the remote answer generator.
type RemoteConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// RemoteGenerator calls an OpenAI-compatible chat-completions endpoint.
type RemoteGenerator struct {
	client      *http.Client
	baseURL     string
	model       string
	apiKey      string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// RemoteOption configures a RemoteGenerator.
type RemoteOption func(*RemoteGenerator)

// WithLogger sets a logger for provider failures.
func WithLogger(l *zap.Logger) RemoteOption {
	return func(g *RemoteGenerator) { g.logger = l }
}

// NewRemoteGenerator creates a remote generator.
func NewRemoteGenerator(cfg RemoteConfig, opts ...RemoteOption) *RemoteGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 600
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	g := &RemoteGenerator{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt as a single user message. Provider failure is
// reported as a descriptive string, never an error.
func (g *RemoteGenerator) Generate(ctx context.Context, prompt string) string {
	answer, err := g.request(ctx, prompt)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("answer generation failed", zap.Error(err))
		}
		return "Answer generation failed. Check the chat provider configuration and credentials."
	}
	return answer
}

func (g *RemoteGenerator) request(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat request: status %d: %s", resp.StatusCode, data)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
