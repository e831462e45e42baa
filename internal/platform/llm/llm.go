// Package llm selects the generation provider named in configuration.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/platform/gemini"
	"github.com/phrazzld/studyquest/internal/platform/ollama"
)

// NewGenerator creates the generator for cfg.Provider. An empty provider
// means ollama.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (generation.Generator, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.Provider {
	case "gemini":
		g, err := gemini.NewGenerator(ctx, log, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini generator: %w", err)
		}
		log.Info("Generator initialized", "provider", "gemini", "model", cfg.Model)
		return g, nil
	case "ollama", "":
		g, err := ollama.NewGenerator(log, cfg, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama generator: %w", err)
		}
		log.Info("Generator initialized", "provider", "ollama", "endpoint", g.Endpoint(), "model", cfg.Model)
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", generation.ErrInvalidConfig, cfg.Provider)
	}
}
