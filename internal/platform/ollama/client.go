package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/platform/logger"
)

// maxResponseBytes bounds how much of a reply is read into memory.
const maxResponseBytes = 4 << 20

// Generator implements generation.Generator using an Ollama server.
type Generator struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint string
	model    string
	opts     options
	prompts  *generation.PromptBuilder
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator from LLM configuration. A nil client gets
// a default one whose timeout is cfg.Timeout().
func NewGenerator(log *slog.Logger, cfg config.LLMConfig, client *http.Client) (*Generator, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", generation.ErrInvalidConfig, cfg.BaseURL)
	}

	prompts, err := generation.NewPromptBuilder(cfg.PromptTemplatePath, cfg.MaxInputChars)
	if err != nil {
		return nil, err
	}

	if client == nil {
		timeout := cfg.Timeout()
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Generator{
		logger:   log.With("component", "ollama"),
		client:   client,
		endpoint: base.JoinPath("api", "generate").String(),
		model:    cfg.Model,
		opts: options{
			Temperature: cfg.Temperature,
			NumCtx:      cfg.NumCtx,
			NumPredict:  cfg.NumPredict,
		},
		prompts: prompts,
	}, nil
}

// Endpoint returns the URL requests are sent to.
func (g *Generator) Endpoint() string {
	return g.endpoint
}

// GenerateFlashcards implements generation.Generator.
func (g *Generator) GenerateFlashcards(ctx context.Context, text string) (domain.FlashcardBatch, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	prompt, err := g.prompts.Build(text)
	if err != nil {
		return nil, err
	}

	body, err := g.send(ctx, log, generateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: g.opts,
	})
	if err != nil {
		return nil, err
	}

	batch, err := generation.ParseBatch(replyText(body))
	if err != nil {
		log.WarnContext(ctx, "unparseable generation reply",
			"error", err,
			"bytes", len(body))
		return nil, err
	}

	log.InfoContext(ctx, "flashcards generated", "model", g.model, "cards", len(batch))
	return batch, nil
}

func (g *Generator) send(ctx context.Context, log *slog.Logger, payload generateRequest) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, &generation.TransportError{Msg: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	log.InfoContext(ctx, "generation request",
		"req_id", reqID,
		"model", g.model,
		"prompt_chars", len(payload.Prompt))

	resp, err := g.client.Do(req)
	if err != nil {
		classified := generation.ClassifyTransportError(err)
		log.ErrorContext(ctx, "generation request failed",
			"req_id", reqID,
			"error", classified,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, classified
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WarnContext(ctx, "failed to close response body", "req_id", reqID, "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, generation.ClassifyTransportError(err)
	}

	log.InfoContext(ctx, "generation response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		return nil, generation.ClassifyStatus(resp.StatusCode, string(raw))
	}
	return raw, nil
}

// replyText unwraps the envelope's response field. Bodies that are not an
// envelope are parsed as-is.
func replyText(body []byte) string {
	var envelope generateResponse
	if err := json.Unmarshal(body, &envelope); err == nil && strings.TrimSpace(envelope.Response) != "" {
		return envelope.Response
	}
	return string(body)
}
