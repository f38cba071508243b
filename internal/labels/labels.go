package labels

import (
	"errors"
	"fmt"
	"strings"
)

// IgnoreID marks positions that must not contribute to the training loss
// (structural markers and padding).
const IgnoreID = -100

// OutsideCategory is the category reported for tokens outside any span.
const OutsideCategory = "O"

var (
	ErrUnknownLabel = errors.New("unknown label")
	ErrBadTag       = errors.New("malformed tag")
)

// Kind distinguishes the three BIO positions.
type Kind uint8

const (
	Outside Kind = iota
	Start
	Continue
)

// Tag is a parsed BIO tag. The zero value is Outside.
type Tag struct {
	Kind     Kind
	Category string
}

func OutsideTag() Tag              { return Tag{Kind: Outside} }
func StartTag(category string) Tag { return Tag{Kind: Start, Category: category} }
func ContinueTag(category string) Tag {
	return Tag{Kind: Continue, Category: category}
}

// String renders the tag in its text form ("O", "B-X", "I-X").
func (t Tag) String() string {
	switch t.Kind {
	case Start:
		return "B-" + t.Category
	case Continue:
		return "I-" + t.Category
	default:
		return OutsideCategory
	}
}

// CategoryName is the tag's category, or "O" for outside tags.
func (t Tag) CategoryName() string {
	if t.Kind == Outside {
		return OutsideCategory
	}
	return t.Category
}

// AsStart converts a continuation tag into the start tag of the same span.
func (t Tag) AsStart() Tag {
	if t.Kind == Continue {
		return StartTag(t.Category)
	}
	return t
}

// ParseTag parses "O", "B-X" or "I-X".
func ParseTag(s string) (Tag, error) {
	if s == OutsideCategory {
		return OutsideTag(), nil
	}
	prefix, category, ok := strings.Cut(s, "-")
	if !ok || category == "" {
		return Tag{}, fmt.Errorf("%w: %q", ErrBadTag, s)
	}
	switch prefix {
	case "B":
		return StartTag(category), nil
	case "I":
		return ContinueTag(category), nil
	}
	return Tag{}, fmt.Errorf("%w: %q", ErrBadTag, s)
}

// Table maps tags to the classifier's numeric label ids and back.
// Ids are laid out as O=0, B-X=2k+1, I-X=2k+2, so a start id is always
// its continuation id minus one. A Table is immutable after construction
// and safe for concurrent use.
type Table struct {
	categories []string
	index      map[string]int
}

// NewTable builds a table for the given categories in id order.
func NewTable(categories []string) (*Table, error) {
	t := &Table{
		categories: make([]string, 0, len(categories)),
		index:      make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || c == OutsideCategory || strings.Contains(c, "-") {
			return nil, fmt.Errorf("labels: invalid category %q", c)
		}
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("labels: duplicate category %q", c)
		}
		t.index[c] = len(t.categories)
		t.categories = append(t.categories, c)
	}
	return t, nil
}

// Categories returns a copy of the category list in id order.
func (t *Table) Categories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}

// Len is the number of label ids, including O.
func (t *Table) Len() int { return 2*len(t.categories) + 1 }

// ID returns the label id of a tag.
func (t *Table) ID(tag Tag) (int, error) {
	if tag.Kind == Outside {
		return 0, nil
	}
	k, ok := t.index[tag.Category]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLabel, tag)
	}
	if tag.Kind == Start {
		return 2*k + 1, nil
	}
	return 2*k + 2, nil
}

// Tag returns the tag for a label id.
func (t *Table) Tag(id int) (Tag, error) {
	if id == 0 {
		return OutsideTag(), nil
	}
	if id < 0 || id >= t.Len() {
		return Tag{}, fmt.Errorf("%w: id %d", ErrUnknownLabel, id)
	}
	c := t.categories[(id-1)/2]
	if id%2 == 1 {
		return StartTag(c), nil
	}
	return ContinueTag(c), nil
}

// Category returns the category name for a label id with the B-/I- prefix
// stripped.
func (t *Table) Category(id int) (string, error) {
	tag, err := t.Tag(id)
	if err != nil {
		return "", err
	}
	return tag.CategoryName(), nil
}
