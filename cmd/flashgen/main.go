// Command flashgen runs the flashcard pipeline once from the command line.
//
//	flashgen -file notes.txt [-deck Midterm] [-format json|xlsx]
//	flashgen -text "Mitochondria produce ATP..."
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/deck"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/extract"
	"github.com/phrazzld/studyquest/internal/ocr"
	"github.com/phrazzld/studyquest/internal/pipeline"
	"github.com/phrazzld/studyquest/internal/platform/llm"
	"github.com/phrazzld/studyquest/internal/platform/logger"
)

type options struct {
	configPath string
	file       string
	text       string
	deckName   string
	format     string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a config file")
	flag.StringVar(&opts.file, "file", "", "file to generate flashcards from")
	flag.StringVar(&opts.text, "text", "", "text to generate flashcards from")
	flag.StringVar(&opts.deckName, "deck", "", "save the cards as a deck with this name")
	flag.StringVar(&opts.format, "format", "", "deck format: json or xlsx (default from config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "flashgen:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if (opts.file == "") == (opts.text == "") {
		return errors.New("exactly one of -file or -text is required")
	}

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.SetupWithWriter(cfg.Server, os.Stderr)
	if err != nil {
		return err
	}

	generator, err := llm.NewGenerator(ctx, cfg.LLM, log)
	if err != nil {
		return err
	}
	factory := ocr.NewTesseractFactory(ocr.ConfigFromApp(cfg.OCR), nil, log)
	extractor := extract.NewExtractor(factory, cfg.OCR.Language, log)

	src := &localFile{}
	if opts.file != "" {
		if err := src.load(opts.file); err != nil {
			return err
		}
	}
	p := pipeline.New(src, extractor, generator, nil, log)

	var result *pipeline.Result
	if opts.text != "" {
		result, err = p.ProcessText(ctx, opts.text)
	} else {
		result, err = p.ProcessFile(ctx, src.record.ID)
	}
	if err != nil {
		return errors.New(p.UserMessage(err))
	}
	printBatch(out, result)

	if opts.deckName == "" {
		return nil
	}
	return saveDeck(ctx, cfg.Deck, opts, result.Batch, out, log)
}

func saveDeck(ctx context.Context, cfg config.DeckConfig, opts options, batch domain.FlashcardBatch, out io.Writer, log *slog.Logger) error {
	fallback, err := deck.ParseFormat(cfg.Format, deck.FormatJSON)
	if err != nil {
		return err
	}
	format, err := deck.ParseFormat(opts.format, fallback)
	if err != nil {
		return err
	}
	sink, err := deck.NewDirSink(cfg.ExportDir, log)
	if err != nil {
		return err
	}

	artifact, err := deck.NewExporter(sink, format, log).SaveDeck(ctx, opts.deckName, batch)
	if err != nil {
		return err
	}
	if artifact != nil {
		fmt.Fprintf(out, "\nSaved %s\n", sink.Path(artifact.FileName))
	}
	return nil
}

func printBatch(out io.Writer, result *pipeline.Result) {
	if result.Method != "" {
		fmt.Fprintf(out, "Extracted with %s\n\n", result.Method)
	}
	for i, card := range result.Batch {
		fmt.Fprintf(out, "%d. Q: %s\n   A: %s\n", i+1, card.Question, card.Answer)
	}
}

// localFile serves one file read from disk as the pipeline's file source.
type localFile struct {
	record  domain.FileRecord
	content domain.FileContent
}

func (f *localFile) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	record, err := domain.NewFileRecord("local", name, int64(len(data)), time.Now())
	if err != nil {
		return err
	}
	f.record = *record
	f.content = domain.FileContent{FileID: record.ID, Name: name, Data: data}
	return nil
}

func (f *localFile) Record(id string) (domain.FileRecord, bool) {
	return f.record, f.record.ID != "" && id == f.record.ID
}

func (f *localFile) Content(id string) (domain.FileContent, bool) {
	return f.content, f.content.FileID != "" && id == f.content.FileID
}

var _ pipeline.FileSource = (*localFile)(nil)
