package pipeline

import (
	"errors"
	"fmt"

	"github.com/GonzoDMX/modextract/internal/labels"
)

// ErrShapeMismatch is matched by every ShapeError via errors.Is.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeError reports parallel sequences of unequal length. It is fatal for
// the call that produced it; nothing is truncated.
type ShapeError struct {
	Stage  string // "training", "inference", "decode", ...
	Page   int    // -1 when not applicable
	Window int    // -1 when not applicable
	Field  string
	Got    int
	Want   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s length %d, want %d (page %d, window %d)",
		e.Stage, e.Field, e.Got, e.Want, e.Page, e.Window)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShapeMismatch }

// Markers are the classifier's structural tokens.
type Markers struct {
	StartID    int    `yaml:"start_id"`
	EndID      int    `yaml:"end_id"`
	PadID      int    `yaml:"pad_id"`
	StartToken string `yaml:"start_token"`
	EndToken   string `yaml:"end_token"`
	PadToken   string `yaml:"pad_token"`
}

// BertMarkers are the markers of BERT-style WordPiece vocabularies.
var BertMarkers = Markers{
	StartID:    101,
	EndID:      102,
	PadID:      0,
	StartToken: "[CLS]",
	EndToken:   "[SEP]",
	PadToken:   "[PAD]",
}

// LabeledSequence is a token stream with one label per token. IDs, Tokens,
// Labels and Tags must all have the same length.
type LabeledSequence struct {
	IDs    []int
	Tokens []string
	Labels []int
	Tags   []labels.Tag
}

// Len returns the length of the id sequence.
func (s LabeledSequence) Len() int { return len(s.IDs) }

func (s LabeledSequence) validate() error {
	n := len(s.IDs)
	fields := []struct {
		name string
		got  int
	}{
		{"tokens", len(s.Tokens)},
		{"labels", len(s.Labels)},
		{"tags", len(s.Tags)},
	}
	for _, f := range fields {
		if f.got != n {
			return &ShapeError{Stage: "training", Page: -1, Window: -1, Field: f.name, Got: f.got, Want: n}
		}
	}
	return nil
}

// Append adds one labeled token.
func (s *LabeledSequence) Append(id int, token string, label int, tag labels.Tag) {
	s.IDs = append(s.IDs, id)
	s.Tokens = append(s.Tokens, token)
	s.Labels = append(s.Labels, label)
	s.Tags = append(s.Tags, tag)
}
