package dataset

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/GonzoDMX/modextract/internal/labels"
	"github.com/GonzoDMX/modextract/internal/models"
	"github.com/GonzoDMX/modextract/internal/pipeline"
)

// Stats summarizes a training dataset.
type Stats struct {
	Modules  int
	Samples  int
	Repaired int
	Attended int            // tokens with attention 1, markers included
	ByLang   map[string]int // samples per text_lang
	Tokens   map[string]int // labeled tokens per category, O excluded
}

func NewStats() Stats {
	return Stats{ByLang: make(map[string]int), Tokens: make(map[string]int)}
}

// Add counts one record.
func (s *Stats) Add(rec models.TrainingRecord) {
	s.Samples++
	s.ByLang[rec.TextLang]++
	for _, a := range rec.AttentionMask {
		s.Attended += a
	}
	for _, l := range rec.TextLabels {
		tag, err := labels.ParseTag(l)
		if err != nil || tag.Kind == labels.Outside {
			continue
		}
		s.Tokens[tag.Category]++
	}
}

// Check verifies that every array of a record has the chunk size.
func Check(rec models.TrainingRecord, chunkSize int) error {
	fields := []struct {
		name string
		n    int
	}{
		{"input_ids", len(rec.InputIDs)},
		{"tokens", len(rec.Tokens)},
		{"labels", len(rec.Labels)},
		{"text_labels", len(rec.TextLabels)},
		{"attention_mask", len(rec.AttentionMask)},
	}
	for _, f := range fields {
		if f.n != chunkSize {
			return &pipeline.ShapeError{Stage: "dataset", Page: -1, Window: -1, Field: f.name, Got: f.n, Want: chunkSize}
		}
	}
	return nil
}

// Collect reads a dataset file, checking and counting every record.
func Collect(path string, chunkSize int) (Stats, error) {
	stats := NewStats()
	r, err := Open(path)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if err := Check(rec, chunkSize); err != nil {
			return stats, fmt.Errorf("record %d: %w", stats.Samples+1, err)
		}
		stats.Add(rec)
	}
}

// String renders the summary the CLI prints.
func (s Stats) String() string {
	var b strings.Builder
	if s.Modules > 0 {
		fmt.Fprintf(&b, "modules:          %d\n", s.Modules)
	}
	fmt.Fprintf(&b, "samples:          %d\n", s.Samples)
	fmt.Fprintf(&b, "EN samples:       %d\n", s.ByLang["EN"])
	fmt.Fprintf(&b, "DE samples:       %d\n", s.ByLang["DE"])
	if s.Repaired > 0 {
		fmt.Fprintf(&b, "boundary repairs: %d\n", s.Repaired)
	}
	fmt.Fprintf(&b, "attended tokens:  %d\n", s.Attended)

	categories := make([]string, 0, len(s.Tokens))
	for c := range s.Tokens {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(&b, "  %-28s %d\n", c, s.Tokens[c])
	}
	return b.String()
}
