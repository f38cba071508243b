package pipeline

import "fmt"

// PageTokens is the raw token stream of one page, without structural
// markers.
type PageTokens struct {
	Page int
	IDs  []int
}

// Window is a slice of one page's tokens prepared for the classifier.
type Window struct {
	Page  int
	Index int // position in the batch

	// IsContinuation marks windows whose first Overlap tokens repeat the
	// tail of the previous window of the same page.
	IsContinuation bool

	IDs []int // raw tokens, markers not included
}

// Batch is a set of windows padded to a common length.
type Batch struct {
	Windows       []Window
	InputIDs      [][]int // markers + tokens + padding
	AttentionMask [][]int // 1 for markers and tokens, 0 for padding
}

// Len returns the number of windows in the batch.
func (b Batch) Len() int { return len(b.Windows) }

// Windower splits page token streams into overlapping inference windows.
type Windower struct {
	MaxTokens int // M, raw tokens per window, markers excluded
	Overlap   int // O
	Markers   Markers
}

// NewWindower validates the window geometry.
func NewWindower(maxTokens, overlap int, markers Markers) (*Windower, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("windower: max tokens must be > 0, got %d", maxTokens)
	}
	if overlap < 0 || overlap >= maxTokens {
		return nil, fmt.Errorf("windower: overlap %d must be in [0, %d)", overlap, maxTokens)
	}
	return &Windower{MaxTokens: maxTokens, Overlap: overlap, Markers: markers}, nil
}

// Split windows every page in order. Empty pages produce no windows.
func (w *Windower) Split(pages []PageTokens) []Window {
	var out []Window
	for _, p := range pages {
		for _, win := range w.splitPage(p) {
			win.Index = len(out)
			out = append(out, win)
		}
	}
	return out
}

func (w *Windower) splitPage(p PageTokens) []Window {
	total := len(p.IDs)
	if total == 0 {
		return nil
	}

	// 1. Short pages fit in a single window.
	if total <= w.MaxTokens {
		return []Window{{Page: p.Page, IDs: clone(p.IDs)}}
	}

	// 2. Slide with step M - O.
	var windows []Window
	step := w.MaxTokens - w.Overlap
	for start := 0; start < total; start += step {
		end := start + w.MaxTokens
		if end > total {
			end = total
		}
		chunk := clone(p.IDs[start:end])
		windows = append(windows, Window{
			Page:           p.Page,
			IsContinuation: !(start == 0 && len(chunk) == w.MaxTokens),
			IDs:            chunk,
		})

		if end == total {
			break
		}
	}

	// 3. A tail shorter than the overlap borrows context from its
	// predecessor instead of being classified on its own.
	return absorbShortTail(windows, w.Overlap)
}

func absorbShortTail(windows []Window, overlap int) []Window {
	if len(windows) < 2 {
		return windows
	}
	last := &windows[len(windows)-1]
	if len(last.IDs) >= overlap {
		return windows
	}
	prev := windows[len(windows)-2].IDs
	from := len(prev) - overlap
	if from < 0 {
		from = 0
	}
	ids := make([]int, 0, len(prev)-from+len(last.IDs))
	ids = append(ids, prev[from:]...)
	ids = append(ids, last.IDs...)
	last.IDs = ids
	last.IsContinuation = true
	return windows
}

// Pad wraps every window in structural markers and right-pads all of them
// to the longest window in the batch.
func (w *Windower) Pad(windows []Window) Batch {
	b := Batch{
		Windows:       windows,
		InputIDs:      make([][]int, len(windows)),
		AttentionMask: make([][]int, len(windows)),
	}

	longest := 0
	for _, win := range windows {
		if n := len(win.IDs) + 2; n > longest {
			longest = n
		}
	}

	for i, win := range windows {
		ids := make([]int, 0, longest)
		ids = append(ids, w.Markers.StartID)
		ids = append(ids, win.IDs...)
		ids = append(ids, w.Markers.EndID)

		mask := make([]int, longest)
		for j := range ids {
			mask[j] = 1
		}
		for len(ids) < longest {
			ids = append(ids, w.Markers.PadID)
		}
		b.InputIDs[i] = ids
		b.AttentionMask[i] = mask
	}
	return b
}

// Prepare is Split followed by Pad.
func (w *Windower) Prepare(pages []PageTokens) Batch {
	return w.Pad(w.Split(pages))
}

func clone(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// Slice returns windows [from, to) of the batch, keeping their padding.
func (b Batch) Slice(from, to int) Batch {
	return Batch{
		Windows:       b.Windows[from:to],
		InputIDs:      b.InputIDs[from:to],
		AttentionMask: b.AttentionMask[from:to],
	}
}
