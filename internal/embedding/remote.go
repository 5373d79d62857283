package embedding

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

// RemoteConfig configures the remote embedding provider.
type RemoteConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	Dimensions int
	Timeout    time.Duration
}

// RemoteEmbedder calls an OpenAI-compatible /embeddings endpoint. A provider
// failure never reaches the caller as an error: the affected texts get
// deterministic HashEmbedder vectors instead and Result.Fallback is set, so
// ingestion and retrieval keep working in degraded mode.
type RemoteEmbedder struct {
	client   *http.Client
	baseURL  string
	model    string
	apiKey   string
	fallback *HashEmbedder
	logger   *zap.Logger
}

// RemoteOption configures a RemoteEmbedder.
type RemoteOption func(*RemoteEmbedder)

// WithLogger sets a logger for fallback events.
func WithLogger(l *zap.Logger) RemoteOption {
	return func(e *RemoteEmbedder) { e.logger = l }
}

// NewRemoteEmbedder creates a remote embedder with an offline fallback of the
// same dimension.
func NewRemoteEmbedder(cfg RemoteConfig, opts ...RemoteOption) *RemoteEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	e := &RemoteEmbedder{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.BaseURL,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		fallback: NewHashEmbedder(cfg.Dimensions),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch requests embeddings for all texts in one call. Any transport,
// status, decode, or shape problem degrades to fallback vectors.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) (Result, error) {
	if len(texts) == 0 {
		return Result{Vectors: [][]float32{}}, nil
	}
	vectors, err := e.request(ctx, texts)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("remote embedding failed, using offline fallback", zap.Error(err))
		}
		res, _ := e.fallback.EmbedBatch(ctx, texts)
		res.Fallback = true
		return res, nil
	}
	return Result{Vectors: vectors}, nil
}

func (e *RemoteEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings request: status %d: %s", resp.StatusCode, data)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(decoded.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != e.fallback.Dimensions() {
			return nil, fmt.Errorf("embedding dimension %d does not match configured %d",
				len(d.Embedding), e.fallback.Dimensions())
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return vectors, nil
}

// Dimensions returns the configured embedding dimension.
func (e *RemoteEmbedder) Dimensions() int {
	return e.fallback.Dimensions()
}

// Close is a no-op for RemoteEmbedder.
func (e *RemoteEmbedder) Close() error {
	return nil
}
