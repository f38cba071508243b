package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/GonzoDMX/modextract/internal/ipc"
	"github.com/GonzoDMX/modextract/internal/labels"
	"github.com/GonzoDMX/modextract/internal/models"
	"github.com/GonzoDMX/modextract/internal/pipeline"
)

// Tokenizer encodes texts without structural markers and reports the
// token strings alongside the ids.
type Tokenizer interface {
	Tokenize(ctx context.Context, texts []string) ([]ipc.Encoding, error)
}

// Builder turns annotated modules into fixed-size training records.
type Builder struct {
	tok     Tokenizer
	table   *labels.Table
	aliases *labels.Aliases
	chunker *pipeline.Chunker
	log     *slog.Logger
}

// NewBuilder wires a builder. A nil logger discards output.
func NewBuilder(tok Tokenizer, table *labels.Table, aliases *labels.Aliases, chunker *pipeline.Chunker, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{tok: tok, table: table, aliases: aliases, chunker: chunker, log: logger.With("component", "dataset")}
}

// Label tokenizes the known entries of a module and tags each entry's
// tokens B-X, I-X, I-X, ... Entries with unknown headers are skipped.
func (b *Builder) Label(ctx context.Context, m Module) (pipeline.LabeledSequence, error) {
	var seq pipeline.LabeledSequence

	var texts, categories []string
	for _, e := range m.Entries {
		category, ok := b.aliases.Lookup(e.Header)
		if !ok {
			b.log.Debug("skipping unmapped header", "header", e.Header)
			continue
		}
		texts = append(texts, e.Header+" "+e.Value)
		categories = append(categories, category)
	}
	if len(texts) == 0 {
		return seq, nil
	}

	encodings, err := b.tok.Tokenize(ctx, texts)
	if err != nil {
		return seq, err
	}
	if len(encodings) != len(texts) {
		return seq, &pipeline.ShapeError{Stage: "tokenize", Page: -1, Window: -1, Field: "encodings", Got: len(encodings), Want: len(texts)}
	}

	for i, enc := range encodings {
		if len(enc.Tokens) != len(enc.IDs) {
			return seq, &pipeline.ShapeError{Stage: "tokenize", Page: -1, Window: i, Field: "tokens", Got: len(enc.Tokens), Want: len(enc.IDs)}
		}
		start, err := b.table.ID(labels.StartTag(categories[i]))
		if err != nil {
			return seq, fmt.Errorf("entry %d: %w", i, err)
		}
		for j, id := range enc.IDs {
			tag, label := labels.StartTag(categories[i]), start
			if j > 0 {
				tag, label = labels.ContinueTag(categories[i]), start+1
			}
			seq.Append(id, enc.Tokens[j], label, tag)
		}
	}
	return seq, nil
}

// Records labels and chunks one module.
func (b *Builder) Records(ctx context.Context, m Module) ([]models.TrainingRecord, int, error) {
	seq, err := b.Label(ctx, m)
	if err != nil {
		return nil, 0, err
	}
	windows, err := b.chunker.Split(seq)
	if err != nil {
		return nil, 0, err
	}

	repaired := 0
	out := make([]models.TrainingRecord, len(windows))
	for i, w := range windows {
		if w.BoundaryRepaired {
			repaired++
		}
		out[i] = ToRecord(w, m.Lang)
	}
	return out, repaired, nil
}

// Build writes the records of every module and returns the tallies.
func (b *Builder) Build(ctx context.Context, modules []Module, w *Writer) (Stats, error) {
	stats := NewStats()
	for i, m := range modules {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		recs, repaired, err := b.Records(ctx, m)
		if err != nil {
			return stats, fmt.Errorf("module %d: %w", i, err)
		}
		stats.Modules++
		stats.Repaired += repaired
		if len(recs) == 0 {
			b.log.Warn("module produced no samples", "module", i, "lang", m.Lang)
		}
		for _, rec := range recs {
			if err := w.Write(rec); err != nil {
				return stats, err
			}
			stats.Add(rec)
		}
		b.log.Debug("module chunked", "module", i, "samples", len(recs), "repaired", repaired)
	}
	return stats, nil
}

// ToRecord converts a training window into its persisted form.
func ToRecord(w pipeline.TrainingWindow, lang string) models.TrainingRecord {
	textLabels := make([]string, len(w.Tags))
	for i, t := range w.Tags {
		textLabels[i] = t.String()
	}
	return models.TrainingRecord{
		InputIDs:      w.IDs,
		Tokens:        w.Tokens,
		Labels:        w.Labels,
		TextLabels:    textLabels,
		AttentionMask: w.Attention,
		TextLang:      lang,
	}
}
