package reconcile

import (
	"fmt"
	"strings"

	"github.com/GonzoDMX/modextract/internal/labels"
	"github.com/GonzoDMX/modextract/internal/pipeline"
)

// Piece classifies a predicted token once, at decode time.
type Piece uint8

const (
	WholePiece   Piece = iota // starts a new word
	SubwordPiece              // continues the previous word
	UnknownPiece              // the tokenizer's unknown-token sentinel
)

func (p Piece) String() string {
	switch p {
	case SubwordPiece:
		return "subword"
	case UnknownPiece:
		return "unknown"
	default:
		return "whole"
	}
}

// Prediction is one classified token. Text never carries the subword
// marker; Piece records whether it had one.
type Prediction struct {
	Text       string
	Piece      Piece
	Category   string
	Confidence float64
}

// RawWindow is the classifier's output for one window, aligned with the
// window's non-padding tokens. TokenIDs may be empty when the worker only
// reports token strings.
type RawWindow struct {
	TokenIDs    []int
	Tokens      []string
	LabelIDs    []int
	Confidences []float64
}

// Vocabulary describes the tokenizer conventions the decoder relies on.
type Vocabulary struct {
	SubwordPrefix string `yaml:"subword_prefix"`
	UnknownToken  string `yaml:"unknown_token"`
}

// WordPiece is the BERT WordPiece convention.
var WordPiece = Vocabulary{SubwordPrefix: "##", UnknownToken: "[UNK]"}

// Decoder turns raw classifier output into predictions. It is read-only
// after construction.
type Decoder struct {
	table     *labels.Table
	vocab     Vocabulary
	markerIDs map[int]bool
	markerTok map[string]bool
}

// NewDecoder builds a decoder over an injected label table.
func NewDecoder(table *labels.Table, markers pipeline.Markers, vocab Vocabulary) *Decoder {
	return &Decoder{
		table: table,
		vocab: vocab,
		markerIDs: map[int]bool{
			markers.StartID: true,
			markers.EndID:   true,
			markers.PadID:   true,
		},
		markerTok: map[string]bool{
			markers.StartToken: true,
			markers.EndToken:   true,
			markers.PadToken:   true,
		},
	}
}

// Classify decides the piece kind of a token and strips the subword
// marker.
func (d *Decoder) Classify(token string) (string, Piece) {
	if token == d.vocab.UnknownToken {
		return token, UnknownPiece
	}
	if d.vocab.SubwordPrefix != "" && strings.HasPrefix(token, d.vocab.SubwordPrefix) {
		return strings.TrimPrefix(token, d.vocab.SubwordPrefix), SubwordPiece
	}
	return token, WholePiece
}

// isMarker reports whether token i is structural. Ids decide when the
// worker sends them; a literal "[SEP]" in page text is not a marker.
func (d *Decoder) isMarker(raw RawWindow, i int) bool {
	if len(raw.TokenIDs) > 0 {
		return d.markerIDs[raw.TokenIDs[i]]
	}
	return d.markerTok[raw.Tokens[i]]
}

// Decode validates one window's raw output against the window it was
// produced from and drops structural and padding tokens.
func (d *Decoder) Decode(w pipeline.Window, raw RawWindow) (WindowOutput, error) {
	n := len(raw.Tokens)
	shape := func(field string, got, want int) error {
		return &pipeline.ShapeError{Stage: "decode", Page: w.Page, Window: w.Index, Field: field, Got: got, Want: want}
	}
	if len(raw.LabelIDs) != n {
		return WindowOutput{}, shape("label_ids", len(raw.LabelIDs), n)
	}
	if len(raw.Confidences) != n {
		return WindowOutput{}, shape("confidences", len(raw.Confidences), n)
	}
	if len(raw.TokenIDs) != 0 && len(raw.TokenIDs) != n {
		return WindowOutput{}, shape("token_ids", len(raw.TokenIDs), n)
	}

	out := WindowOutput{
		Page:           w.Page,
		Index:          w.Index,
		IsContinuation: w.IsContinuation,
		Tokens:         make([]Prediction, 0, len(w.IDs)),
	}
	for i, tok := range raw.Tokens {
		if d.isMarker(raw, i) {
			continue
		}
		category, err := d.table.Category(raw.LabelIDs[i])
		if err != nil {
			return WindowOutput{}, fmt.Errorf("decode page %d window %d token %d: %w", w.Page, w.Index, i, err)
		}
		text, piece := d.Classify(tok)
		out.Tokens = append(out.Tokens, Prediction{
			Text:       text,
			Piece:      piece,
			Category:   category,
			Confidence: raw.Confidences[i],
		})
	}

	if len(out.Tokens) != len(w.IDs) {
		return WindowOutput{}, shape("tokens", len(out.Tokens), len(w.IDs))
	}
	return out, nil
}
