package embed

import (
	"context"
	"fmt"

	"github.com/openauslaw/oale/internal/config"
)

// NewFromConfig constructs the embedder selected by the run configuration,
// wrapped in the LRU cache.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Embedder, error) {
	var inner Embedder
	switch cfg.Backend {
	case "static":
		inner = NewStaticEmbedder()
	case "ollama":
		e, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:  cfg.OllamaHost,
			Model: cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
