package reconcile

import (
	"errors"
	"fmt"
)

// ErrOutOfOrder is returned when window outputs are not fed in the order
// the windower produced them.
var ErrOutOfOrder = errors.New("window output out of order")

// WindowOutput is the decoded prediction list of one window.
type WindowOutput struct {
	Page           int
	Index          int
	IsContinuation bool
	Tokens         []Prediction
}

// fresh returns the predictions of a window that were not already seen at
// the end of the previous window.
func fresh(w WindowOutput, overlap int) []Prediction {
	if !w.IsContinuation {
		return w.Tokens
	}
	if overlap >= len(w.Tokens) {
		return nil
	}
	return w.Tokens[overlap:]
}

// WarningKind names a data-quality defect found while reconciling.
type WarningKind string

const UnresolvableSubwordContinuation WarningKind = "unresolvable_subword_continuation"

// Warning is reported to the caller rather than failing the document.
type Warning struct {
	Kind   WarningKind
	Page   int
	Window int
	Token  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: page %d window %d token %q", w.Kind, w.Page, w.Window, w.Token)
}

// Accumulator threads reconciliation state across windows: the current
// page's stitched words, which later windows may still extend, and the
// records of pages already closed.
type Accumulator struct {
	overlap int

	started  bool
	page     int
	index    int
	stitch   Stitcher
	records  []FieldRecord
	warnings []Warning
}

// NewAccumulator returns an accumulator for windows built with the given
// overlap.
func NewAccumulator(overlap int) *Accumulator {
	return &Accumulator{overlap: overlap}
}

// Add consumes the next window output. Subword pieces at the start of a
// continuation window merge into the last word of the previous window of
// the same page.
func (a *Accumulator) Add(w WindowOutput) error {
	if a.started && w.Index <= a.index {
		return fmt.Errorf("%w: window %d after %d", ErrOutOfOrder, w.Index, a.index)
	}
	if !a.started || w.Page != a.page {
		a.closePage()
		a.page = w.Page
		a.started = true
	}
	a.index = w.Index

	for _, p := range fresh(w, a.overlap) {
		if !a.stitch.Push(p) {
			a.warnings = append(a.warnings, Warning{
				Kind:   UnresolvableSubwordContinuation,
				Page:   w.Page,
				Window: w.Index,
				Token:  p.Text,
			})
		}
	}
	return nil
}

func (a *Accumulator) closePage() {
	if !a.started {
		return
	}
	if rec, ok := Group(a.page, a.stitch.Units()); ok {
		a.records = append(a.records, rec)
	}
	a.stitch = Stitcher{}
}

// Finish closes the last page and returns all records in page order
// together with the warnings raised along the way. The accumulator must not
// be used afterwards.
func (a *Accumulator) Finish() ([]FieldRecord, []Warning) {
	a.closePage()
	a.started = false
	return a.records, a.warnings
}

// Run reconciles, stitches and groups a complete ordered list of window
// outputs.
func Run(windows []WindowOutput, overlap int) ([]FieldRecord, []Warning, error) {
	acc := NewAccumulator(overlap)
	for _, w := range windows {
		if err := acc.Add(w); err != nil {
			return nil, nil, err
		}
	}
	recs, warns := acc.Finish()
	return recs, warns, nil
}
