// Package embedding turns move text into embedding vectors.
// The analytics engine never calls a provider itself; callers embed every
// move first (EmbedMoves) and then hand the graph to linkograph.Analyze.
package embedding

import (
	"context"
	"log/slog"

	"github.com/r3d91ll/fuzzylink/pkg/config"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// Provider is the interface every embedding source implements.
type Provider interface {
	Name() string

	// Dimension is the vector length the provider returns, 0 if unknown
	// until the first response.
	Dimension() int

	IsAvailable(ctx context.Context) bool
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// NewFromConfig builds the configured provider, wrapped in an LRU cache
// when cfg.CacheSize > 0.
func NewFromConfig(cfg config.EmbeddingConfig, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var p Provider
	switch cfg.Provider {
	case config.ProviderHTTP:
		p = NewHTTP(HTTPConfig{
			URL:       cfg.URL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout,
			Logger:    logger,
		})
	case config.ProviderOpenAI:
		op, err := NewOpenAI(OpenAIConfig{
			APIKey:    cfg.APIKey(),
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout,
			Logger:    logger,
		})
		if err != nil {
			if le, ok := lerrors.AsLinkographError(err); ok && cfg.APIKeyEnv != "" {
				le.WithContext("api_key_env", cfg.APIKeyEnv)
			}
			return nil, err
		}
		p = op
	case config.ProviderNone, "":
		return nil, lerrors.EmbeddingError(lerrors.ErrProviderNotConfigured, "no embedding provider is configured").
			WithSuggestion("Set embedding.provider to 'http' or 'openai' in the config").
			WithSuggestion("Or supply sessions that already carry embeddings or links")
	default:
		return nil, lerrors.EmbeddingErrorf(lerrors.ErrProviderNotFound, "unknown embedding provider %q", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		return NewCached(p, cfg.CacheSize)
	}
	return p, nil
}
