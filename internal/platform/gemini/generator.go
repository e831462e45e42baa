package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"google.golang.org/genai"
)

const apiEndpoint = "https://generativelanguage.googleapis.com"

// ContentGenerator is the subset of the genai Models service the generator
// uses. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements the generation.Generator interface using
// Google's Gemini API.
type Generator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// models performs the API calls
	models ContentGenerator

	// model is the name of the Gemini model to use
	model string

	temperature float32
	prompts     *generation.PromptBuilder
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator backed by a genai client.
//
// Parameters:
//   - ctx: Context for client construction
//   - log: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name, and prompt settings
//
// Returns:
//   - A properly initialized Generator or an error if initialization fails
func NewGenerator(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return NewGeneratorWithModels(log, cfg, client.Models)
}

// NewGeneratorWithModels creates a Generator around an existing
// ContentGenerator. Tests use it to substitute the API.
func NewGeneratorWithModels(log *slog.Logger, cfg config.LLMConfig, models ContentGenerator) (*Generator, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if models == nil {
		return nil, fmt.Errorf("%w: content generator cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	prompts, err := generation.NewPromptBuilder(cfg.PromptTemplatePath, cfg.MaxInputChars)
	if err != nil {
		return nil, err
	}

	return &Generator{
		logger:      log.With("component", "gemini"),
		models:      models,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		prompts:     prompts,
	}, nil
}

// Endpoint returns the API host requests are sent to.
func (g *Generator) Endpoint() string {
	return apiEndpoint
}

// GenerateFlashcards implements generation.Generator.
func (g *Generator) GenerateFlashcards(ctx context.Context, text string) (domain.FlashcardBatch, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	prompt, err := g.prompts.Build(text)
	if err != nil {
		return nil, err
	}

	temperature := g.temperature
	log.InfoContext(ctx, "making Gemini API call", "model", g.model, "prompt_chars", len(prompt))

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		classified := classifyAPIError(err)
		log.ErrorContext(ctx, "Gemini API call failed", "error", classified)
		return nil, classified
	}

	reply, err := candidateText(resp)
	if err != nil {
		log.WarnContext(ctx, "Gemini API returned no usable content", "error", err)
		return nil, err
	}

	batch, err := generation.ParseBatch(reply)
	if err != nil {
		log.WarnContext(ctx, "unparseable generation reply", "error", err, "bytes", len(reply))
		return nil, err
	}

	log.InfoContext(ctx, "flashcards generated", "model", g.model, "cards", len(batch))
	return batch, nil
}

// candidateText joins the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &generation.ParseError{Reason: "no candidates in response"}
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", &generation.ParseError{Reason: "content blocked by safety filters"}
	}
	if candidate.Content == nil {
		return "", &generation.ParseError{Reason: "empty content in response"}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &generation.ParseError{Reason: "empty content in response"}
	}
	return sb.String(), nil
}

// classifyAPIError maps genai errors onto the generation taxonomy. API
// status errors are recognized by their rendered code; everything else is
// treated as a transport failure.
func classifyAPIError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Error 404") || strings.Contains(msg, "NOT_FOUND"):
		return fmt.Errorf("%w: %v", generation.ErrModelNotInstalled, err)
	case strings.Contains(msg, "Error 503") || strings.Contains(msg, "UNAVAILABLE"):
		return fmt.Errorf("%w: %v", generation.ErrServiceUnavailable, err)
	case strings.Contains(msg, "Error 504") || strings.Contains(msg, "DEADLINE_EXCEEDED"):
		return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
	default:
		return generation.ClassifyTransportError(err)
	}
}
