package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/domain"
)

// Config holds the tesseract toolchain settings.
type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	TessdataDir string
	DPI         int    // rasterization DPI for PDFs, default 300
	TempDir     string // parent of engine workspaces; empty -> os.TempDir()
}

// ConfigFromApp maps application configuration onto Config.
func ConfigFromApp(cfg config.OCRConfig) Config {
	return Config{
		Tesseract:   cfg.TesseractPath,
		Pdftoppm:    cfg.PdftoppmPath,
		TessdataDir: cfg.TessdataDir,
		DPI:         cfg.DPI,
	}
}

// TesseractFactory acquires tesseract-backed engines.
type TesseractFactory struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

var _ Factory = (*TesseractFactory)(nil)

// NewTesseractFactory applies defaults to cfg. A nil runner executes real
// commands.
func NewTesseractFactory(cfg Config, runner Runner, logger *slog.Logger) *TesseractFactory {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &TesseractFactory{cfg: cfg, runner: runner, logger: logger.With("component", "ocr")}
}

// Acquire creates an engine with a fresh scratch workspace.
func (f *TesseractFactory) Acquire(ctx context.Context) (Engine, error) {
	dir, err := os.MkdirTemp(f.cfg.TempDir, "studyquest-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create ocr workspace: %w", err)
	}
	f.logger.DebugContext(ctx, "ocr engine acquired", "workspace", dir)
	return &tesseractEngine{factory: f, workspace: dir}, nil
}

type tesseractEngine struct {
	factory   *TesseractFactory
	workspace string
	lang      string

	mu       sync.Mutex
	released bool
}

func (e *tesseractEngine) LoadLanguage(ctx context.Context, lang string) error {
	if err := e.checkActive(); err != nil {
		return err
	}
	if lang == "" {
		lang = "eng"
	}

	args := []string{"--list-langs"}
	if dir := e.factory.cfg.TessdataDir; dir != "" {
		args = append([]string{"--tessdata-dir", dir}, args...)
	}
	out, errb, err := e.factory.runner.Run(ctx, e.factory.cfg.Tesseract, args...)
	if err != nil {
		return fmt.Errorf("tesseract --list-langs: %w: %s", err, truncate(string(errb), 512))
	}

	available := parseLanguages(string(out))
	for _, want := range strings.Split(lang, "+") {
		if _, ok := available[want]; !ok {
			return fmt.Errorf("%w: %s", ErrLanguageUnavailable, want)
		}
	}

	e.lang = lang
	return nil
}

func (e *tesseractEngine) Recognize(ctx context.Context, content domain.FileContent) (string, error) {
	if err := e.checkActive(); err != nil {
		return "", err
	}
	if e.lang == "" {
		return "", fmt.Errorf("%w: no language loaded", ErrLanguageUnavailable)
	}

	if content.Extension() == "pdf" || content.MediaType == "application/pdf" {
		return e.recognizePDF(ctx, content.Data)
	}
	return e.recognizeImage(ctx, content)
}

func (e *tesseractEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil
	}
	e.released = true
	if err := os.RemoveAll(e.workspace); err != nil {
		return fmt.Errorf("remove ocr workspace: %w", err)
	}
	e.factory.logger.Debug("ocr engine released", "workspace", e.workspace)
	return nil
}

func (e *tesseractEngine) checkActive() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return ErrEngineReleased
	}
	return nil
}

func (e *tesseractEngine) recognizeImage(ctx context.Context, content domain.FileContent) (string, error) {
	path := filepath.Join(e.workspace, "input.png")

	img, err := normalizeImage(content.Data)
	if err != nil {
		// Formats imaging cannot decode go to tesseract untouched.
		e.factory.logger.DebugContext(ctx, "image preprocessing skipped", "error", err)
		ext := content.Extension()
		if ext == "" {
			ext = "bin"
		}
		path = filepath.Join(e.workspace, "input."+ext)
		if err := os.WriteFile(path, content.Data, 0o600); err != nil {
			return "", fmt.Errorf("write ocr input: %w", err)
		}
	} else if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("write ocr input: %w", err)
	}

	return e.tesseract(ctx, path)
}

func (e *tesseractEngine) recognizePDF(ctx context.Context, data []byte) (string, error) {
	input := filepath.Join(e.workspace, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return "", fmt.Errorf("write ocr input: %w", err)
	}

	prefix := filepath.Join(e.workspace, "page")
	// pdftoppm -r 300 -png <in.pdf> <workspace/page>
	_, errb, err := e.factory.runner.Run(ctx, e.factory.cfg.Pdftoppm,
		"-r", strconv.Itoa(e.factory.cfg.DPI), "-png", input, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	if len(pages) == 0 {
		return "", ErrNoPages
	}
	sortPages(pages)

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		txt, err := e.tesseract(ctx, page)
		if err != nil {
			return "", err
		}
		if t := strings.TrimSpace(txt); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

// tesseract <file> stdout -l <lang>
func (e *tesseractEngine) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.lang}
	if dir := e.factory.cfg.TessdataDir; dir != "" {
		args = append(args, "--tessdata-dir", dir)
	}
	out, errb, err := e.factory.runner.Run(ctx, e.factory.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// parseLanguages reads `tesseract --list-langs` output, skipping the header.
func parseLanguages(out string) map[string]struct{} {
	langs := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of available languages") {
			continue
		}
		langs[line] = struct{}{}
	}
	return langs
}

// sortPages orders pdftoppm outputs (page-1.png, page-2.png, ..., page-10.png)
// by page number.
func sortPages(pages []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, err := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		if err != nil {
			return 0
		}
		return n
	}
	sort.SliceStable(pages, func(i, j int) bool { return num(pages[i]) < num(pages[j]) })
}
