package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/GonzoDMX/modextract/internal/labels"
)

// punctuation attaches to the preceding text without a space.
var punctuation = map[string]bool{".": true, ":": true, ",": true, ";": true}

// Fields is an insertion-ordered mapping from category to text.
type Fields struct {
	keys   []string
	values map[string]string
}

// Get returns the text of a category.
func (f *Fields) Get(category string) (string, bool) {
	v, ok := f.values[category]
	return v, ok
}

// Keys returns categories in first-seen order.
func (f *Fields) Keys() []string { return f.keys }

// Len returns the number of categories.
func (f *Fields) Len() int { return len(f.keys) }

// Set stores text for a category, appending it to the key order when new.
func (f *Fields) Set(category, text string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[category]; !ok {
		f.keys = append(f.keys, category)
	}
	f.values[category] = text
}

// MarshalJSON writes the object with keys in first-seen order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object preserving key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object")
	}
	*f = Fields{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("fields: expected string key")
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("fields: value of %q: %w", key, err)
		}
		f.Set(key, val)
	}
	_, err = dec.Token()
	return err
}

// FieldRecord holds the fields found on one page.
type FieldRecord struct {
	Page     int
	Fields   Fields
	Warnings map[string][]string // category -> annotations
}

// Group accumulates a page's words into per-category text. Words labeled
// outside any span are not fields. ok is false when the page yielded no
// field at all.
func Group(page int, units []Unit) (rec FieldRecord, ok bool) {
	rec.Page = page
	for _, u := range units {
		if u.Category == labels.OutsideCategory {
			continue
		}
		if prev, seen := rec.Fields.Get(u.Category); seen {
			if punctuation[u.Text] {
				rec.Fields.Set(u.Category, prev+u.Text)
			} else {
				rec.Fields.Set(u.Category, prev+" "+u.Text)
			}
		} else {
			rec.Fields.Set(u.Category, u.Text)
		}

		if u.Degraded {
			if rec.Warnings == nil {
				rec.Warnings = make(map[string][]string)
			}
			rec.Warnings[u.Category] = append(rec.Warnings[u.Category],
				fmt.Sprintf("word %q starts with an unattached subword piece", u.Text))
		}
	}
	return rec, rec.Fields.Len() > 0
}
