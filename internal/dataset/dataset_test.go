package dataset

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/GonzoDMX/modextract/internal/ipc"
	"github.com/GonzoDMX/modextract/internal/labels"
	"github.com/GonzoDMX/modextract/internal/models"
	"github.com/GonzoDMX/modextract/internal/pipeline"
)

const sample = `[
  {
    "TEXT_LANG": "DE",
    "SOURCE": "handbook-2023.pdf",
    "MODULE_DETAILS": {
      "Modulname": "Analysis I",
      "Interne Notiz": "nicht gelabelt",
      "SUB_MODULE_DETAILS": [
        {"Kursname": "Übung", "SWS": 2}
      ],
      "Leistungspunkte": "6"
    }
  },
  {"TEXT_LANG": "EN", "MODULE_DETAILS": {"Module Name": "Algebra", "SUB_MODULE_DETAILS": []}}
]`

// splitTokenizer emits one token per word with ids counting from 1000.
type splitTokenizer struct{ next int }

func (s *splitTokenizer) Tokenize(ctx context.Context, texts []string) ([]ipc.Encoding, error) {
	out := make([]ipc.Encoding, len(texts))
	for i, text := range texts {
		for _, w := range strings.Fields(text) {
			out[i].IDs = append(out[i].IDs, 1000+s.next)
			out[i].Tokens = append(out[i].Tokens, w)
			s.next++
		}
	}
	return out, nil
}

func TestDecodeModulesKeepsOrder(t *testing.T) {
	modules, err := DecodeModules(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(modules) != 2 || modules[0].Lang != "DE" || modules[1].Lang != "EN" {
		t.Fatalf("modules = %+v", modules)
	}
	want := []Entry{
		{"Modulname", "Analysis I"},
		{"Interne Notiz", "nicht gelabelt"},
		{"Kursname", "Übung"},
		{"SWS", "2"},
		{"Leistungspunkte", "6"},
	}
	if !reflect.DeepEqual(modules[0].Entries, want) {
		t.Fatalf("entries = %+v", modules[0].Entries)
	}
}

func TestDecodeModulesRejectsMalformed(t *testing.T) {
	for _, in := range []string{`{}`, `[{"MODULE_DETAILS": {"a": {"b": 1}}}]`, `[{"MODULE_DETAILS": {"SUB_MODULE_DETAILS": 3}}]`} {
		if _, err := DecodeModules(strings.NewReader(in)); !errors.Is(err, ErrFormat) {
			t.Fatalf("%s: expected ErrFormat, got %v", in, err)
		}
	}
}

func newTestBuilder(t *testing.T, chunkSize, stride int) *Builder {
	t.Helper()
	chunker, err := pipeline.NewChunker(chunkSize, stride, pipeline.BertMarkers)
	if err != nil {
		t.Fatal(err)
	}
	return NewBuilder(&splitTokenizer{}, labels.Default(), labels.DefaultAliases(), chunker, nil)
}

func TestLabelTagsEntries(t *testing.T) {
	b := newTestBuilder(t, 512, 128)
	m := Module{Lang: "DE", Entries: []Entry{
		{"Modulname", "Analysis I"},
		{"Interne Notiz", "x"},
		{"Leistungspunkte", "6"},
	}}
	seq, err := b.Label(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	var tags []string
	for _, tag := range seq.Tags {
		tags = append(tags, tag.String())
	}
	wantTags := []string{"B-MODULE_NAME", "I-MODULE_NAME", "I-MODULE_NAME", "B-MODULE_CREDITS", "I-MODULE_CREDITS"}
	if !reflect.DeepEqual(tags, wantTags) {
		t.Fatalf("tags = %v", tags)
	}
	if !reflect.DeepEqual(seq.Labels, []int{1, 2, 2, 7, 8}) {
		t.Fatalf("labels = %v", seq.Labels)
	}
	if seq.Tokens[0] != "Modulname" || seq.Tokens[3] != "Leistungspunkte" {
		t.Fatalf("tokens = %v", seq.Tokens)
	}
}

func TestRecordsRepairBoundaries(t *testing.T) {
	b := newTestBuilder(t, 5, 1)
	m := Module{Lang: "EN", Entries: []Entry{{"Modulname", "Analysis I"}, {"Leistungspunkte", "6"}}}

	recs, repaired, err := b.Records(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 || repaired != 2 {
		t.Fatalf("records %d repaired %d", len(recs), repaired)
	}
	second := recs[1]
	if second.TextLabels[1] != "B-MODULE_NAME" || second.Labels[1] != 1 {
		t.Fatalf("second window starts %s/%d", second.TextLabels[1], second.Labels[1])
	}
	for i, rec := range recs {
		if err := Check(rec, 5); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if rec.TextLang != "EN" {
			t.Fatalf("record %d lang %q", i, rec.TextLang)
		}
	}
}

func TestBuildWritesAndCollects(t *testing.T) {
	modules, err := DecodeModules(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"train.jsonl", "train.jsonl.zst"} {
		path := filepath.Join(t.TempDir(), name)
		w, err := Create(path)
		if err != nil {
			t.Fatal(err)
		}
		built, err := newTestBuilder(t, 16, 4).Build(context.Background(), modules, w)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if built.Modules != 2 || built.Samples != w.Count() {
			t.Fatalf("%s: built %+v, written %d", name, built, w.Count())
		}

		read, err := Collect(path, 16)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if read.Samples != built.Samples || read.ByLang["DE"] != 1 || read.ByLang["EN"] != 1 {
			t.Fatalf("%s: read %+v", name, read)
		}
		if read.Tokens["COURSE_SWS"] != 2 {
			t.Fatalf("%s: token counts %v", name, read.Tokens)
		}
	}
}

func TestReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.jsonl.zst")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := models.TrainingRecord{
		InputIDs: []int{101, 5, 102}, Tokens: []string{"[CLS]", "Prüfung", "[SEP]"},
		Labels: []int{-100, 1, -100}, TextLabels: []string{"O", "B-MODULE_NAME", "O"},
		AttentionMask: []int{1, 1, 1}, TextLang: "DE",
	}
	if err := w.Write(rec); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Fatalf("got %+v", got)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("second read: %v", err)
	}
}

func TestCheckRejectsShortRecord(t *testing.T) {
	rec := models.TrainingRecord{InputIDs: make([]int, 4)}
	if err := Check(rec, 4); !errors.Is(err, pipeline.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}
