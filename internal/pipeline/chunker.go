package pipeline

import (
	"fmt"

	"github.com/GonzoDMX/modextract/internal/labels"
)

// TrainingWindow is one fixed-size training sample. All slices have
// exactly the chunker's ChunkSize elements.
type TrainingWindow struct {
	IDs       []int
	Tokens    []string
	Labels    []int
	Tags      []labels.Tag
	Attention []int

	// BoundaryRepaired is set when the window started inside a span and
	// its first tag was rewritten from I-X to B-X.
	BoundaryRepaired bool
}

// Chunker splits labeled sequences into fixed-size training windows.
type Chunker struct {
	ChunkSize int // C, including the two structural markers
	Stride    int // S, overlap between consecutive windows
	Markers   Markers
}

// NewChunker validates the window geometry.
func NewChunker(chunkSize, stride int, markers Markers) (*Chunker, error) {
	if chunkSize < 3 {
		return nil, fmt.Errorf("chunker: chunk size %d leaves no room for content", chunkSize)
	}
	if stride < 0 || chunkSize-2-stride <= 0 {
		return nil, fmt.Errorf("chunker: stride %d too large for chunk size %d", stride, chunkSize)
	}
	return &Chunker{ChunkSize: chunkSize, Stride: stride, Markers: markers}, nil
}

// contentSize is the number of real tokens a window can hold.
func (c *Chunker) contentSize() int { return c.ChunkSize - 2 }

// step is the distance between consecutive window starts.
func (c *Chunker) step() int { return c.ChunkSize - 2 - c.Stride }

// Split turns one labeled sequence into padded training windows.
// An empty sequence yields no windows.
func (c *Chunker) Split(seq LabeledSequence) ([]TrainingWindow, error) {
	if err := seq.validate(); err != nil {
		return nil, err
	}
	n := seq.Len()
	if n == 0 {
		return nil, nil
	}

	// Short sequences are emitted whole.
	if n <= c.contentSize() {
		return []TrainingWindow{c.finish(seq, 0, n)}, nil
	}

	var windows []TrainingWindow
	for i := 0; i < n; i += c.step() {
		end := i + c.contentSize()
		if end > n {
			end = n
		}
		windows = append(windows, c.finish(seq, i, end))
	}
	return windows, nil
}

// finish copies seq[from:to], repairs the boundary tag, wraps the slice in
// markers and pads it to ChunkSize.
func (c *Chunker) finish(seq LabeledSequence, from, to int) TrainingWindow {
	size := c.ChunkSize
	w := TrainingWindow{
		IDs:       make([]int, 0, size),
		Tokens:    make([]string, 0, size),
		Labels:    make([]int, 0, size),
		Tags:      make([]labels.Tag, 0, size),
		Attention: make([]int, 0, size),
	}

	w.push(c.Markers.StartID, c.Markers.StartToken, labels.IgnoreID, labels.OutsideTag(), 1)
	for i := from; i < to; i++ {
		w.push(seq.IDs[i], seq.Tokens[i], seq.Labels[i], seq.Tags[i], 1)
	}
	w.push(c.Markers.EndID, c.Markers.EndToken, labels.IgnoreID, labels.OutsideTag(), 1)

	// Position 0 is the start marker; the first real token sits at 1.
	if to > from {
		w.BoundaryRepaired = RepairBoundary(w.Tags[1:], w.Labels[1:])
	}

	for len(w.IDs) < size {
		w.push(c.Markers.PadID, c.Markers.PadToken, labels.IgnoreID, labels.OutsideTag(), 0)
	}
	return w
}

func (w *TrainingWindow) push(id int, token string, label int, tag labels.Tag, attention int) {
	w.IDs = append(w.IDs, id)
	w.Tokens = append(w.Tokens, token)
	w.Labels = append(w.Labels, label)
	w.Tags = append(w.Tags, tag)
	w.Attention = append(w.Attention, attention)
}

// RepairBoundary rewrites a leading continuation tag into the start tag of
// the same category and decrements its label id (B-X is always I-X minus
// one). It reports whether a repair was made. tags and ids are modified in
// place.
func RepairBoundary(tags []labels.Tag, ids []int) bool {
	if len(tags) == 0 || len(ids) == 0 || tags[0].Kind != labels.Continue {
		return false
	}
	tags[0] = tags[0].AsStart()
	ids[0]--
	return true
}
