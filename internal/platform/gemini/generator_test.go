package gemini

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockModels records calls and returns a canned response.
type mockModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	calls  int
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (m *mockModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.model = model
	m.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		m.prompt = contents[0].Parts[0].Text
	}
	return m.resp, m.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content, FinishReason: genai.FinishReasonStop}},
	}
}

func newTestGenerator(t *testing.T, models ContentGenerator) *Generator {
	t.Helper()
	log, _ := logger.NewTestLogger()
	g, err := NewGeneratorWithModels(log, config.LLMConfig{
		Provider:      "gemini",
		Model:         "gemini-2.0-flash",
		Temperature:   0.4,
		MaxInputChars: 2000,
	}, models)
	require.NoError(t, err)
	return g
}

func TestGenerateFlashcards_Success(t *testing.T) {
	models := &mockModels{resp: textResponse(`[{"question":"What is osmosis?",`, `"answer":"Diffusion of water."}]`)}
	g := newTestGenerator(t, models)

	batch, err := g.GenerateFlashcards(context.Background(), "Membrane transport")
	require.NoError(t, err)
	require.Len(t, batch, domain.BatchSize)
	assert.Equal(t, "What is osmosis?", batch[0].Question)
	assert.Equal(t, "Diffusion of water.", batch[0].Answer)
	assert.Equal(t, domain.PlaceholderCard(1), batch[1])

	assert.Equal(t, 1, models.calls)
	assert.Equal(t, "gemini-2.0-flash", models.model)
	assert.Equal(t, "application/json", models.config.ResponseMIMEType)
	require.NotNil(t, models.config.Temperature)
	assert.InDelta(t, 0.4, *models.config.Temperature, 0.0001)
	assert.Contains(t, models.prompt, "Membrane transport")
}

func TestGenerateFlashcards_NoCandidates(t *testing.T) {
	g := newTestGenerator(t, &mockModels{resp: &genai.GenerateContentResponse{}})

	_, err := g.GenerateFlashcards(context.Background(), "text")
	assert.ErrorIs(t, err, generation.ErrParse)
}

func TestGenerateFlashcards_SafetyBlocked(t *testing.T) {
	resp := textResponse("")
	resp.Candidates[0].FinishReason = genai.FinishReasonSafety
	g := newTestGenerator(t, &mockModels{resp: resp})

	_, err := g.GenerateFlashcards(context.Background(), "text")
	var parseErr *generation.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Reason, "safety")
}

func TestGenerateFlashcards_ErrorClassification(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", errors.New("Error 404, Message: models/foo is not found, Status: NOT_FOUND"), generation.ErrModelNotInstalled},
		{"unavailable", errors.New("Error 503, Message: overloaded, Status: UNAVAILABLE"), generation.ErrServiceUnavailable},
		{"deadline", context.DeadlineExceeded, generation.ErrTimeout},
		{"refused", refused, generation.ErrServiceUnavailable},
		{"other", errors.New("Error 400, Message: bad request, Status: INVALID_ARGUMENT"), generation.ErrUnknownTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, &mockModels{err: tt.err})
			_, err := g.GenerateFlashcards(context.Background(), "text")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerateFlashcards_EmptyTextSkipsCall(t *testing.T) {
	models := &mockModels{}
	g := newTestGenerator(t, models)

	_, err := g.GenerateFlashcards(context.Background(), "")
	assert.ErrorIs(t, err, generation.ErrEmptyText)
	assert.Zero(t, models.calls)
}

func TestNewGenerator_RequiresAPIKey(t *testing.T) {
	log, _ := logger.NewTestLogger()
	_, err := NewGenerator(context.Background(), log, config.LLMConfig{Model: "gemini-2.0-flash"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestNewGeneratorWithModels_Validation(t *testing.T) {
	log, _ := logger.NewTestLogger()

	_, err := NewGeneratorWithModels(log, config.LLMConfig{Model: "m"}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewGeneratorWithModels(log, config.LLMConfig{}, &mockModels{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewGeneratorWithModels(nil, config.LLMConfig{Model: "m"}, &mockModels{})
	assert.Error(t, err)
}
