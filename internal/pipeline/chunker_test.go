package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/GonzoDMX/modextract/internal/labels"
)

var testMarkers = Markers{
	StartID: -1, EndID: -2, PadID: 0,
	StartToken: "<s>", EndToken: "</s>", PadToken: "<pad>",
}

func testTable(t *testing.T) *labels.Table {
	t.Helper()
	tbl, err := labels.NewTable([]string{"X", "FOO"})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

// labeled builds a sequence with ids 1..n and the given tag strings,
// cycled when shorter than n.
func labeled(t *testing.T, n int, tags ...string) LabeledSequence {
	t.Helper()
	tbl := testTable(t)
	var seq LabeledSequence
	for i := 0; i < n; i++ {
		tag, err := labels.ParseTag(tags[i%len(tags)])
		if err != nil {
			t.Fatal(err)
		}
		id, err := tbl.ID(tag)
		if err != nil {
			t.Fatal(err)
		}
		seq.Append(i+1, fmt.Sprintf("t%d", i+1), id, tag)
	}
	return seq
}

func TestChunkerSingleWindowRoundTrip(t *testing.T) {
	c, err := NewChunker(9, 2, testMarkers)
	if err != nil {
		t.Fatal(err)
	}
	tbl := testTable(t)
	var seq LabeledSequence
	for i, s := range []string{"I-X", "I-X", "O", "O", "O"} {
		tag, _ := labels.ParseTag(s)
		id, _ := tbl.ID(tag)
		seq.Append(5+i, fmt.Sprintf("w%d", i), id, tag)
	}

	windows, err := c.Split(seq)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	w := windows[0]

	wantIDs := []int{-1, 5, 6, 7, 8, 9, -2, 0, 0}
	if fmt.Sprint(w.IDs) != fmt.Sprint(wantIDs) {
		t.Fatalf("ids = %v, want %v", w.IDs, wantIDs)
	}
	wantTags := "[O B-X I-X O O O O O O]"
	if got := fmt.Sprint(w.Tags); got != wantTags {
		t.Fatalf("tags = %s, want %s", got, wantTags)
	}
	iX, _ := tbl.ID(labels.ContinueTag("X"))
	if w.Labels[1] != iX-1 {
		t.Fatalf("labels[1] = %d, want %d", w.Labels[1], iX-1)
	}
	wantLabels := []int{-100, 1, 2, 0, 0, 0, -100, -100, -100}
	if fmt.Sprint(w.Labels) != fmt.Sprint(wantLabels) {
		t.Fatalf("labels = %v, want %v", w.Labels, wantLabels)
	}
	wantMask := []int{1, 1, 1, 1, 1, 1, 1, 0, 0}
	if fmt.Sprint(w.Attention) != fmt.Sprint(wantMask) {
		t.Fatalf("attention = %v, want %v", w.Attention, wantMask)
	}
	if !w.BoundaryRepaired {
		t.Fatal("expected boundary repair flag")
	}
	if w.Tokens[0] != "<s>" || w.Tokens[6] != "</s>" || w.Tokens[8] != "<pad>" {
		t.Fatalf("unexpected marker tokens: %v", w.Tokens)
	}
}

func TestChunkerShortSequencesKeepTokensVerbatim(t *testing.T) {
	c, _ := NewChunker(16, 4, testMarkers)
	for n := 1; n <= 14; n++ {
		seq := labeled(t, n, "B-X", "I-X", "O")
		windows, err := c.Split(seq)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(windows) != 1 {
			t.Fatalf("n=%d: expected 1 window, got %d", n, len(windows))
		}
		w := windows[0]
		if len(w.IDs) != 16 {
			t.Fatalf("n=%d: window length %d", n, len(w.IDs))
		}
		for i := 0; i < n; i++ {
			if w.IDs[i+1] != seq.IDs[i] {
				t.Fatalf("n=%d: position %d = %d, want %d", n, i+1, w.IDs[i+1], seq.IDs[i])
			}
		}
	}
}

func TestChunkerLongSequencesCoverInputExactly(t *testing.T) {
	const size, stride = 12, 3
	c, _ := NewChunker(size, stride, testMarkers)
	for _, n := range []int{11, 12, 17, 25, 40, 41, 100} {
		seq := labeled(t, n, "B-FOO", "I-FOO", "I-FOO", "O")
		windows, err := c.Split(seq)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		covered := 0
		prevEnd := 0
		for i, w := range windows {
			if len(w.IDs) != size || len(w.Tokens) != size || len(w.Labels) != size ||
				len(w.Tags) != size || len(w.Attention) != size {
				t.Fatalf("n=%d window %d: not exactly %d long", n, i, size)
			}
			attended := 0
			for _, a := range w.Attention {
				attended += a
			}
			content := attended - 2
			start := w.IDs[1] - 1 // ids are 1-based positions
			end := start + content
			overlap := 0
			if i > 0 {
				overlap = min(prevEnd, end) - start
			}
			covered += content - overlap
			if end > prevEnd {
				prevEnd = end
			}
		}
		if covered != n {
			t.Fatalf("n=%d: covered %d tokens", n, covered)
		}
	}
}

func TestChunkerRepairsEveryMidSpanStart(t *testing.T) {
	c, _ := NewChunker(12, 3, testMarkers)
	seq := labeled(t, 60, "B-FOO", "I-FOO", "I-FOO", "I-FOO", "I-FOO", "I-FOO")
	windows, err := c.Split(seq)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range windows {
		start := w.IDs[1] - 1
		pre := seq.Tags[start]
		if pre.Kind == labels.Continue {
			if w.Tags[1].String() != "B-FOO" {
				t.Fatalf("window %d: first tag %s, want B-FOO", i, w.Tags[1])
			}
			if w.Labels[1] != seq.Labels[start]-1 {
				t.Fatalf("window %d: label %d, want %d", i, w.Labels[1], seq.Labels[start]-1)
			}
			if !w.BoundaryRepaired {
				t.Fatalf("window %d: repair flag not set", i)
			}
		} else if w.BoundaryRepaired {
			t.Fatalf("window %d: unexpected repair", i)
		}
	}
	// The input must not be touched.
	if seq.Tags[7].String() != "I-FOO" {
		t.Fatal("input sequence was modified")
	}
}

func TestChunkerEmptyInput(t *testing.T) {
	c, _ := NewChunker(512, 128, BertMarkers)
	windows, err := c.Split(LabeledSequence{})
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 0 {
		t.Fatalf("expected no windows, got %d", len(windows))
	}
}

func TestChunkerShapeMismatch(t *testing.T) {
	c, _ := NewChunker(512, 128, BertMarkers)
	seq := labeled(t, 4, "O")
	seq.Labels = seq.Labels[:3]
	_, err := c.Split(seq)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
	var se *ShapeError
	if !errors.As(err, &se) || se.Field != "labels" || se.Got != 3 || se.Want != 4 {
		t.Fatalf("unexpected error detail: %#v", err)
	}
}

func TestNewChunkerRejectsBadGeometry(t *testing.T) {
	if _, err := NewChunker(10, 8, BertMarkers); err == nil {
		t.Fatal("expected error for non-positive step")
	}
	if _, err := NewChunker(2, 0, BertMarkers); err == nil {
		t.Fatal("expected error for tiny chunk size")
	}
}

func TestRepairBoundaryLeavesStartTags(t *testing.T) {
	tags := []labels.Tag{labels.StartTag("X")}
	ids := []int{1}
	if RepairBoundary(tags, ids) {
		t.Fatal("start tag must not be repaired")
	}
	if ids[0] != 1 {
		t.Fatal("label changed")
	}
}
