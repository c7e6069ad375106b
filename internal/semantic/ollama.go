package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
)

// Ollama API constants.
const (
	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model. General text
	// models suit guidance prose better than code-tuned ones.
	DefaultOllamaModel = "nomic-embed-text"

	// ollamaConnectTimeout bounds the initial availability probe.
	ollamaConnectTimeout = 5 * time.Second
)

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434).
	Host string

	// Model is the embedding model to use.
	Model string

	// Dimensions overrides auto-detection when non-zero.
	Dimensions int

	// BatchSize for batch embedding requests (default: 32).
	BatchSize int

	// Timeout for API requests (default: 60s).
	Timeout time.Duration

	// MaxRetries for transient failures (default: 3).
	MaxRetries int
}

// ollamaEmbedRequest is the Ollama /api/embed request body.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string for batch
}

// ollamaEmbedResponse is the Ollama /api/embed response body.
type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaEmbedder generates embeddings using Ollama's HTTP API. Transient
// failures are retried with exponential backoff; sustained failures trip
// a circuit breaker so that search latency is not dominated by a dead
// provider.
type OllamaEmbedder struct {
	client  *http.Client
	config  OllamaConfig
	breaker *apperrors.CircuitBreaker
	dims    int

	mu     sync.RWMutex
	closed bool
}

// Verify interface implementation at compile time.
var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates an Ollama embedder and probes the host. It
// fails fast when the host is unreachable so that callers can fall back
// to the static embedder.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	e := &OllamaEmbedder{
		client:  &http.Client{Timeout: cfg.Timeout},
		config:  cfg,
		breaker: apperrors.NewCircuitBreaker("ollama-embed"),
	}

	probeCtx, cancel := context.WithTimeout(ctx, ollamaConnectTimeout)
	defer cancel()
	if !e.Available(probeCtx) {
		return nil, apperrors.New(apperrors.ErrCodeEmbedderUnavailable,
			"ollama host is unreachable", nil).WithDetail("host", cfg.Host)
	}

	if cfg.Dimensions > 0 {
		e.dims = cfg.Dimensions
	} else {
		dims, err := e.detectDimensions(ctx)
		if err != nil {
			return nil, fmt.Errorf("detect embedding dimensions: %w", err)
		}
		e.dims = dims
	}

	return e, nil
}

// detectDimensions embeds a probe text and reads the vector length.
func (e *OllamaEmbedder) detectDimensions(ctx context.Context) (int, error) {
	vectors, err := e.doEmbed(ctx, []string{"dimension detection"})
	if err != nil {
		return 0, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("empty embedding returned")
	}
	return len(vectors[0]), nil
}

// Embed generates an embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dims), nil
	}

	vectors, err := e.doEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts using the batch API.
// Blank texts become zero vectors without a provider round trip.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var pendingIdx []int
	var pending []string
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = make([]float32, e.dims)
		} else {
			pendingIdx = append(pendingIdx, i)
			pending = append(pending, text)
		}
	}

	for start := 0; start < len(pending); start += e.config.BatchSize {
		end := min(start+e.config.BatchSize, len(pending))

		vectors, err := e.doEmbed(ctx, pending[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(vectors), end-start)
		}
		for i, vec := range vectors {
			results[pendingIdx[start+i]] = vec
		}
	}

	return results, nil
}

// doEmbed performs one provider call with retry and circuit breaking.
func (e *OllamaEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.breaker.Allow() {
		return nil, apperrors.New(apperrors.ErrCodeEmbedderUnavailable,
			"embedding provider circuit is open", nil)
	}

	var vectors [][]float32
	op := func() error {
		v, err := e.embedOnce(ctx, texts)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(e.config.MaxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		e.breaker.RecordFailure()
		return nil, apperrors.New(apperrors.ErrCodeEmbeddingFailed, "embedding request failed", err).
			WithDetail("model", e.config.Model)
	}

	e.breaker.RecordSuccess()
	return vectors, nil
}

// embedOnce performs a single /api/embed request.
func (e *OllamaEmbedder) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.config.Model, Input: input})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("embedding failed with status %d: %s", resp.StatusCode, string(respBody))
		// Client errors will not improve with retries.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.config.Model
}

// Available reports whether the Ollama host responds.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Close releases resources.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.client.CloseIdleConnections()
	return nil
}
