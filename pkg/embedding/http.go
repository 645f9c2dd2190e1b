package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/vecmath"
)

// DefaultTimeout is used when a provider config leaves Timeout at zero.
const DefaultTimeout = 30 * time.Second

// HTTPConfig holds settings for a plain embedding service.
type HTTPConfig struct {
	URL       string
	Model     string
	Dimension int
	Timeout   time.Duration
	Logger    *slog.Logger
}

// HTTP talks to an embedding service exposing POST /batch_embed and
// GET /health, e.g. a sentence-transformers server.
//
// HTTP is safe for concurrent use.
type HTTP struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTP creates a provider for the service at cfg.URL.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &HTTP{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

type batchEmbedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

type batchEmbedResponse struct {
	Model   string      `json:"model"`
	Vectors [][]float32 `json:"vectors"`
	Dim     int         `json:"dim"`
}

// Name returns "http".
func (h *HTTP) Name() string { return "http" }

// Dimension returns the configured dimension.
func (h *HTTP) Dimension() int { return h.dimension }

// IsAvailable checks GET /health.
func (h *HTTP) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Embed embeds a single text.
func (h *HTTP) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := h.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch sends all texts in one request.
func (h *HTTP) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(batchEmbedRequest{Texts: texts, Model: h.model})
	if err != nil {
		return nil, lerrors.WrapInternal(err, lerrors.ErrInternal, "failed to encode embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/batch_embed", bytes.NewReader(body))
	if err != nil {
		return nil, lerrors.WrapEmbedding(err, lerrors.ErrProviderRequestFailed, "failed to create embedding request").
			WithContext("url", h.baseURL)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, lerrors.WrapEmbedding(err, lerrors.ErrProviderRequestFailed, "embedding service request failed").
			WithContext("url", h.baseURL).
			WithSuggestion("Check that the embedding service is running")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, lerrors.EmbeddingErrorf(lerrors.ErrProviderRequestFailed,
			"embedding service returned status %d", resp.StatusCode).
			WithContext("url", h.baseURL).
			WithContext("body", strings.TrimSpace(string(msg)))
	}

	var out batchEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, lerrors.WrapEmbedding(err, lerrors.ErrProviderBadResponse, "failed to decode embedding response")
	}
	if len(out.Vectors) != len(texts) {
		return nil, lerrors.EmbeddingErrorf(lerrors.ErrProviderBadResponse,
			"embedding service returned %d vectors for %d texts", len(out.Vectors), len(texts))
	}

	vectors := make([][]float64, len(out.Vectors))
	for i, v := range out.Vectors {
		vectors[i] = vecmath.ToFloat64(v)
	}

	h.logger.Debug("embedded batch",
		"provider", h.Name(),
		"texts", len(texts),
		"dim", out.Dim,
		"elapsed", time.Since(start))
	return vectors, nil
}

// String implements fmt.Stringer.
func (h *HTTP) String() string {
	return fmt.Sprintf("http(%s)", h.baseURL)
}
