package reconcile

// Unit is a whole word with the label it was assigned.
type Unit struct {
	Text       string
	Category   string
	Confidence float64

	// Degraded marks a word that began with a subword piece nothing could
	// be merged into.
	Degraded bool
}

// Stitcher joins subword pieces of one page into whole words. Its output
// only ever grows or has its last unit replaced.
type Stitcher struct {
	units []Unit
}

// Push feeds the next prediction of the page. It returns false when a
// subword piece had no preceding unit to merge into; the piece is then
// kept as a standalone degraded unit.
func (s *Stitcher) Push(p Prediction) bool {
	switch p.Piece {
	case UnknownPiece:
		// Zero width: a following subword merges into the unit before it.
		return true
	case SubwordPiece:
		if len(s.units) == 0 {
			s.units = append(s.units, Unit{
				Text:       p.Text,
				Category:   p.Category,
				Confidence: p.Confidence,
				Degraded:   true,
			})
			return false
		}
		last := len(s.units) - 1
		s.units[last] = merge(s.units[last], p)
		return true
	default:
		s.units = append(s.units, Unit{Text: p.Text, Category: p.Category, Confidence: p.Confidence})
		return true
	}
}

// Units returns the stitched words so far.
func (s *Stitcher) Units() []Unit { return s.units }

// merge appends a subword piece to its target. The spelling is always the
// concatenation; only the label is contested, and the target keeps it on
// a tie.
func merge(target Unit, piece Prediction) Unit {
	merged := target
	merged.Text = target.Text + piece.Text
	if piece.Confidence > target.Confidence {
		merged.Category = piece.Category
		merged.Confidence = piece.Confidence
	}
	return merged
}
