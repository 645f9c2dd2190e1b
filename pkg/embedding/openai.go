package embedding

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/vecmath"
)

// OpenAIConfig holds settings for the OpenAI embeddings API or a
// compatible server.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
	Logger    *slog.Logger
}

// OpenAI embeds through the /embeddings endpoint of an OpenAI-compatible API.
type OpenAI struct {
	client    *openai.Client
	model     string
	dimension int
	logger    *slog.Logger
}

// NewOpenAI creates an OpenAI provider. An API key is required unless a
// custom BaseURL points at a local server.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, lerrors.EmbeddingError(lerrors.ErrProviderNotConfigured, "OpenAI API key is not set").
			WithSuggestion("Export the key in the environment variable named by embedding.api_key_env")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	cfg.Logger.Info("initializing OpenAI embedding provider", "model", cfg.Model, "base_url", clientCfg.BaseURL)
	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		logger:    cfg.Logger,
	}, nil
}

// Name returns "openai".
func (o *OpenAI) Name() string { return "openai" }

// Dimension returns the requested dimension.
func (o *OpenAI) Dimension() int { return o.dimension }

// IsAvailable lists models as a cheap connectivity check.
func (o *OpenAI) IsAvailable(ctx context.Context) bool {
	_, err := o.client.ListModels(ctx)
	return err == nil
}

// Embed embeds a single text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one API call. Results are placed by the index
// the API reports, not by response order.
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: o.dimension,
	})
	if err != nil {
		o.logger.Error("OpenAI embedding call failed", "model", o.model, "error", err)
		return nil, lerrors.WrapEmbedding(err, lerrors.ErrProviderRequestFailed, "OpenAI embedding request failed").
			WithContext("model", o.model)
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, lerrors.EmbeddingErrorf(lerrors.ErrProviderBadResponse,
				"OpenAI response has unexpected embedding index %d", d.Index)
		}
		vectors[d.Index] = vecmath.ToFloat64(d.Embedding)
	}
	for i, v := range vectors {
		if v == nil {
			return nil, lerrors.EmbeddingErrorf(lerrors.ErrProviderBadResponse,
				"OpenAI response is missing the embedding for text %d", i)
		}
	}

	o.logger.Debug("embedded batch", "provider", o.Name(), "model", o.model, "texts", len(texts),
		"prompt_tokens", resp.Usage.PromptTokens)
	return vectors, nil
}
