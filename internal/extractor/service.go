package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/GonzoDMX/modextract/internal/config"
	"github.com/GonzoDMX/modextract/internal/ipc"
	"github.com/GonzoDMX/modextract/internal/models"
	"github.com/GonzoDMX/modextract/internal/pipeline"
	"github.com/GonzoDMX/modextract/internal/reconcile"
)

// Tokenizer encodes page texts. Implemented by ipc.TokenizerClient.
type Tokenizer interface {
	Tokenize(ctx context.Context, texts []string) ([]ipc.Encoding, error)
}

// Classifier labels a padded batch. Implemented by ipc.ClassifierClient.
type Classifier interface {
	Classify(ctx context.Context, batch pipeline.Batch) ([]reconcile.RawWindow, error)
}

// Result is an extraction plus the bookkeeping the caller may persist.
type Result struct {
	models.ExtractionResult
	Pages    int
	Windows  int
	Warnings []reconcile.Warning
}

// Service runs the inference path for whole documents. It holds no
// per-document state and may be used concurrently.
type Service struct {
	tok       Tokenizer
	cls       Classifier
	windower  *pipeline.Windower
	decoder   *reconcile.Decoder
	batchSize int
	log       *slog.Logger
}

// New builds a service from the running configuration. A nil logger
// discards output.
func New(tok Tokenizer, cls Classifier, cfg config.SystemConfig, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	table, err := cfg.LabelTable()
	if err != nil {
		return nil, err
	}
	windower, err := cfg.Windower()
	if err != nil {
		return nil, err
	}
	return &Service{
		tok:       tok,
		cls:       cls,
		windower:  windower,
		decoder:   reconcile.NewDecoder(table, cfg.Markers, cfg.Vocabulary),
		batchSize: cfg.Inference.BatchSize,
		log:       logger.With("component", "extractor"),
	}, nil
}

// ExtractFile reads a document from disk, skipping pages before startPage.
func (s *Service) ExtractFile(ctx context.Context, path, name string, startPage int) (Result, error) {
	pages, err := pipeline.ExtractPages(path, startPage)
	if err != nil {
		return Result{}, err
	}
	return s.Extract(ctx, name, pages)
}

// Extract labels the given pages and groups the predictions into fields.
func (s *Service) Extract(ctx context.Context, name string, pages []pipeline.PageText) (Result, error) {
	res := Result{Pages: len(pages)}
	res.Name = name
	res.Extractions = []models.PageExtraction{}
	if len(pages) == 0 {
		return res, nil
	}

	// 1. Tokenize every page in one call
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	encodings, err := s.tok.Tokenize(ctx, texts)
	if err != nil {
		return res, err
	}
	if len(encodings) != len(pages) {
		return res, &pipeline.ShapeError{Stage: "tokenize", Page: -1, Window: -1, Field: "encodings", Got: len(encodings), Want: len(pages)}
	}

	// 2. Window
	streams := make([]pipeline.PageTokens, len(pages))
	for i, p := range pages {
		streams[i] = pipeline.PageTokens{Page: p.Page, IDs: encodings[i].IDs}
	}
	batch := s.windower.Prepare(streams)
	res.Windows = batch.Len()
	s.log.Debug("windowed document", "name", name, "pages", len(pages), "windows", batch.Len())

	// 3. Classify in order, feeding the accumulator as results arrive
	acc := reconcile.NewAccumulator(s.windower.Overlap)
	size := s.batchSize
	if size <= 0 {
		size = batch.Len()
	}
	for from := 0; from < batch.Len(); from += size {
		to := min(from+size, batch.Len())
		sub := batch.Slice(from, to)

		raws, err := s.cls.Classify(ctx, sub)
		if err != nil {
			return res, fmt.Errorf("classify windows %d-%d: %w", from, to-1, err)
		}
		if len(raws) != sub.Len() {
			return res, &pipeline.ShapeError{Stage: "classify", Page: -1, Window: from, Field: "windows", Got: len(raws), Want: sub.Len()}
		}
		for i, raw := range raws {
			out, err := s.decoder.Decode(sub.Windows[i], raw)
			if err != nil {
				return res, err
			}
			if err := acc.Add(out); err != nil {
				return res, err
			}
		}
	}

	// 4. Group
	records, warnings := acc.Finish()
	for _, w := range warnings {
		s.log.Warn("subword piece without a word to attach to",
			"name", name, "page", w.Page, "window", w.Window, "token", w.Token)
	}
	res.ExtractionResult = models.FromRecords(name, records)
	res.Warnings = warnings
	s.log.Info("extracted document", "name", name, "pages", len(pages),
		"pages_with_fields", len(records), "warnings", len(warnings))
	return res, nil
}
