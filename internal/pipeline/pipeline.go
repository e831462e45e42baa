package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/events"
	"github.com/phrazzld/studyquest/internal/extract"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/platform/metrics"
	"github.com/phrazzld/studyquest/internal/study"
	"golang.org/x/sync/singleflight"
)

// FileSource resolves file ids to records and in-memory content.
type FileSource interface {
	Record(id string) (domain.FileRecord, bool)
	Content(id string) (domain.FileContent, bool)
}

// TextExtractor turns file content into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, content domain.FileContent) (extract.Result, error)
}

// Result is the outcome of a successful run.
type Result struct {
	Occupant string                `json:"occupant"`
	Method   extract.Method        `json:"method,omitempty"`
	Batch    domain.FlashcardBatch `json:"cards"`
	Study    study.Snapshot        `json:"study"`
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithEmitter publishes state transitions.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(p *Pipeline) { p.emitter = emitter }
}

// WithMetrics records runs on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithEndpoint sets the service location shown in user messages. By default
// it is taken from the generator when it exposes Endpoint().
func WithEndpoint(endpoint string) Option {
	return func(p *Pipeline) { p.endpoint = endpoint }
}

// Pipeline sequences extraction and generation behind one Slot.
type Pipeline struct {
	files     FileSource
	extractor TextExtractor
	generator generation.Generator
	navigator *study.Navigator
	emitter   events.EventEmitter
	metrics   *metrics.Collector
	endpoint  string
	logger    *slog.Logger

	slot  *Slot
	group singleflight.Group

	mu    sync.RWMutex
	state domain.PipelineState
}

// New wires a Pipeline.
func New(
	files FileSource,
	extractor TextExtractor,
	generator generation.Generator,
	navigator *study.Navigator,
	log *slog.Logger,
	opts ...Option,
) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if navigator == nil {
		navigator = study.NewNavigator()
	}
	p := &Pipeline{
		files:     files,
		extractor: extractor,
		generator: generator,
		navigator: navigator,
		logger:    log.With("component", "pipeline"),
		slot:      NewSlot(),
		state:     domain.StateIdle,
	}
	if e, ok := generator.(interface{ Endpoint() string }); ok {
		p.endpoint = e.Endpoint()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current pipeline state.
func (p *Pipeline) State() domain.PipelineState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Occupant reports what the slot is processing, if anything.
func (p *Pipeline) Occupant() (string, bool) {
	return p.slot.Occupant()
}

// Navigator returns the navigator runs load into.
func (p *Pipeline) Navigator() *study.Navigator {
	return p.navigator
}

// UserMessage renders err for display using the configured endpoint.
func (p *Pipeline) UserMessage(err error) string {
	return UserMessage(err, p.endpoint)
}

// ProcessFile extracts text from the file's content and generates a batch.
func (p *Pipeline) ProcessFile(ctx context.Context, fileID string) (*Result, error) {
	if _, ok := p.files.Record(fileID); !ok {
		return nil, ErrFileNotFound
	}
	content, ok := p.files.Content(fileID)
	if !ok {
		return nil, ErrContentUnavailable
	}

	occupant := "file:" + fileID
	return p.do(ctx, occupant, func(runCtx context.Context, lease *Lease) (*Result, error) {
		return p.run(runCtx, lease, &content, "")
	})
}

// ProcessText generates a batch from pasted text, skipping extraction.
func (p *Pipeline) ProcessText(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, generation.ErrEmptyText
	}

	occupant := "text:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(text)).String()
	return p.do(ctx, occupant, func(runCtx context.Context, lease *Lease) (*Result, error) {
		return p.run(runCtx, lease, nil, text)
	})
}

// do joins or starts the run for occupant. The run continues on a context
// detached from ctx; a caller whose ctx ends stops waiting but does not stop
// the run.
func (p *Pipeline) do(
	ctx context.Context,
	occupant string,
	fn func(context.Context, *Lease) (*Result, error),
) (*Result, error) {
	runCtx := context.WithoutCancel(ctx)

	ch := p.group.DoChan(occupant, func() (val any, err error) {
		lease, err := p.slot.TryAcquire(occupant)
		if err != nil {
			return nil, err
		}
		defer lease.Release()
		defer func() {
			if rec := recover(); rec != nil {
				val, err = nil, &PanicError{Value: rec}
			}
		}()
		return fn(runCtx, lease)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var busy *BusyError
			if errors.As(res.Err, &busy) {
				logger.FromContextOrDefault(ctx, p.logger).InfoContext(ctx, "request rejected, pipeline busy",
					"requested", occupant,
					"occupant", busy.Occupant)
			}
			return nil, res.Err
		}
		result := *res.Val.(*Result)
		result.Batch = result.Batch.Clone()
		return &result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run executes one pass through the state machine while holding lease.
// content is nil for pasted text.
func (p *Pipeline) run(ctx context.Context, lease *Lease, content *domain.FileContent, text string) (result *Result, err error) {
	log := logger.FromContextOrDefault(ctx, p.logger).With("occupant", lease.Occupant())
	start := time.Now()

	defer func() {
		outcome := p.State()
		p.setState(ctx, lease, domain.StateIdle, "")
		if p.metrics != nil {
			p.metrics.PipelineRuns.WithLabelValues(string(outcome)).Inc()
			p.metrics.RunDuration.Observe(time.Since(start).Seconds())
		}
		log.InfoContext(ctx, "pipeline run finished",
			"outcome", outcome,
			"duration_ms", time.Since(start).Milliseconds(),
			"error_class", errorClass(err))
	}()

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		result, err = nil, &PanicError{Value: rec}
		failed := domain.StateGenerationFailed
		if p.State() == domain.StateExtracting {
			failed = domain.StateExtractionFailed
		}
		log.ErrorContext(ctx, "pipeline run panicked", "error", err, "stack", string(debug.Stack()))
		p.setState(ctx, lease, failed, p.UserMessage(err))
	}()

	result = &Result{Occupant: lease.Occupant()}

	if content != nil {
		p.setState(ctx, lease, domain.StateExtracting, "")
		extracted, exErr := p.extractor.Extract(ctx, *content)
		if exErr != nil {
			p.countExtraction("unknown", "failed")
			log.WarnContext(ctx, "extraction failed", "error", exErr)
			p.setState(ctx, lease, domain.StateExtractionFailed, p.UserMessage(exErr))
			return nil, exErr
		}
		p.countExtraction(extracted.Method, "ok")
		result.Method = extracted.Method
		text = extracted.Text
		p.setState(ctx, lease, domain.StateExtracted, "")
	}

	p.setState(ctx, lease, domain.StateGenerating, "")
	batch, genErr := p.generator.GenerateFlashcards(ctx, text)
	if genErr != nil {
		if p.metrics != nil {
			p.metrics.GenerationFailures.WithLabelValues(errorClass(genErr)).Inc()
		}
		log.WarnContext(ctx, "generation failed", "error", genErr, "error_class", errorClass(genErr))
		p.setState(ctx, lease, domain.StateGenerationFailed, p.UserMessage(genErr))
		return nil, genErr
	}

	result.Batch = batch.Clone()
	result.Study = p.navigator.Load(batch)
	p.setState(ctx, lease, domain.StateGenerated, "")
	return result, nil
}

func (p *Pipeline) setState(ctx context.Context, lease *Lease, state domain.PipelineState, message string) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	payload := events.PipelineStatePayload{State: state, Occupant: lease.Occupant(), Message: message}
	if err := events.Emit(ctx, p.emitter, events.TypePipelineState, payload); err != nil {
		logger.FromContextOrDefault(ctx, p.logger).WarnContext(ctx, "failed to publish pipeline state",
			"state", state,
			"error", err)
	}
}

func (p *Pipeline) countExtraction(method extract.Method, result string) {
	if p.metrics != nil {
		p.metrics.Extractions.WithLabelValues(string(method), result).Inc()
	}
}
