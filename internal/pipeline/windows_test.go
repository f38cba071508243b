package pipeline

import (
	"fmt"
	"testing"
)

func seqIDs(from, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = from + i
	}
	return ids
}

func TestWindowerShortPage(t *testing.T) {
	w, _ := NewWindower(510, 50, BertMarkers)
	for _, n := range []int{1, 300, 510} {
		windows := w.Split([]PageTokens{{Page: 3, IDs: seqIDs(1000, n)}})
		if len(windows) != 1 {
			t.Fatalf("n=%d: expected 1 window, got %d", n, len(windows))
		}
		if windows[0].IsContinuation || windows[0].Page != 3 || len(windows[0].IDs) != n {
			t.Fatalf("n=%d: unexpected window %+v", n, windows[0])
		}
	}
}

func TestWindowerSlidesWithOverlap(t *testing.T) {
	w, _ := NewWindower(510, 50, BertMarkers)
	windows := w.Split([]PageTokens{{Page: 1, IDs: seqIDs(0, 1000)}})

	wantStarts := []int{0, 460, 920}
	wantLens := []int{510, 510, 80}
	if len(windows) != len(wantStarts) {
		t.Fatalf("expected %d windows, got %d", len(wantStarts), len(windows))
	}
	for i, win := range windows {
		if win.IDs[0] != wantStarts[i] || len(win.IDs) != wantLens[i] {
			t.Fatalf("window %d: start %d len %d", i, win.IDs[0], len(win.IDs))
		}
		if win.IsContinuation != (i > 0) {
			t.Fatalf("window %d: continuation=%v", i, win.IsContinuation)
		}
		if i > 0 {
			prev := windows[i-1].IDs
			for j := 0; j < 50; j++ {
				if win.IDs[j] != prev[len(prev)-50+j] {
					t.Fatalf("window %d: overlap token %d mismatch", i, j)
				}
			}
		}
	}
}

func TestWindowerJustOverBudget(t *testing.T) {
	w, _ := NewWindower(510, 50, BertMarkers)
	windows := w.Split([]PageTokens{{Page: 1, IDs: seqIDs(0, 511)}})
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[0].IsContinuation || !windows[1].IsContinuation {
		t.Fatal("unexpected continuation flags")
	}
	if len(windows[1].IDs) != 51 || windows[1].IDs[0] != 460 {
		t.Fatalf("tail window: start %d len %d", windows[1].IDs[0], len(windows[1].IDs))
	}
}

func TestWindowerSkipsEmptyPagesAndNumbersWindows(t *testing.T) {
	w, _ := NewWindower(8, 2, BertMarkers)
	windows := w.Split([]PageTokens{
		{Page: 1, IDs: seqIDs(0, 5)},
		{Page: 2, IDs: nil},
		{Page: 3, IDs: seqIDs(100, 12)},
	})
	got := ""
	for _, win := range windows {
		got += fmt.Sprintf("%d:%d:%v ", win.Index, win.Page, win.IsContinuation)
	}
	if want := "0:1:false 1:3:false 2:3:true "; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAbsorbShortTail(t *testing.T) {
	windows := []Window{
		{Page: 1, IDs: seqIDs(1, 10)},
		{Page: 1, IDs: []int{11, 12}},
	}
	out := absorbShortTail(windows, 4)
	last := out[1]
	if fmt.Sprint(last.IDs) != "[7 8 9 10 11 12]" {
		t.Fatalf("tail = %v", last.IDs)
	}
	if !last.IsContinuation {
		t.Fatal("absorbed tail must be a continuation")
	}

	long := []Window{{IDs: seqIDs(1, 10)}, {IDs: seqIDs(11, 5)}}
	if out := absorbShortTail(long, 4); len(out[1].IDs) != 5 {
		t.Fatal("tail at least as long as the overlap must be left alone")
	}
}

func TestPadBuildsUniformBatch(t *testing.T) {
	w, _ := NewWindower(510, 50, BertMarkers)
	b := w.Prepare([]PageTokens{
		{Page: 1, IDs: []int{7, 8, 9}},
		{Page: 2, IDs: []int{4}},
	})
	if b.Len() != 2 {
		t.Fatalf("expected 2 windows, got %d", b.Len())
	}
	if fmt.Sprint(b.InputIDs[0]) != "[101 7 8 9 102]" {
		t.Fatalf("row 0 = %v", b.InputIDs[0])
	}
	if fmt.Sprint(b.InputIDs[1]) != "[101 4 102 0 0]" {
		t.Fatalf("row 1 = %v", b.InputIDs[1])
	}
	if fmt.Sprint(b.AttentionMask[1]) != "[1 1 1 0 0]" {
		t.Fatalf("mask 1 = %v", b.AttentionMask[1])
	}
	for i := range b.InputIDs {
		if len(b.InputIDs[i]) != len(b.AttentionMask[i]) {
			t.Fatalf("row %d: ids and mask differ in length", i)
		}
	}

	sub := b.Slice(1, 2)
	if sub.Len() != 1 || sub.Windows[0].Page != 2 {
		t.Fatalf("slice = %+v", sub.Windows)
	}
}

func TestPadDoesNotAliasPageTokens(t *testing.T) {
	w, _ := NewWindower(510, 50, BertMarkers)
	ids := []int{1, 2, 3}
	b := w.Prepare([]PageTokens{{Page: 1, IDs: ids}})
	b.Windows[0].IDs[0] = 99
	if ids[0] != 1 {
		t.Fatal("window shares backing array with the page")
	}
}

func TestNewWindowerValidates(t *testing.T) {
	if _, err := NewWindower(0, 0, BertMarkers); err == nil {
		t.Fatal("expected error for zero budget")
	}
	if _, err := NewWindower(10, 10, BertMarkers); err == nil {
		t.Fatal("expected error for overlap >= budget")
	}
}
