package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	keyLang       = "TEXT_LANG"
	keyDetails    = "MODULE_DETAILS"
	keySubModules = "SUB_MODULE_DETAILS"
)

var ErrFormat = errors.New("invalid module dataset")

// Entry is one header/value pair of a module description.
type Entry struct {
	Header string
	Value  string
}

// Module is one annotated module with its entries in document order.
// Entries of sub-modules are flattened in at the position of their key.
type Module struct {
	Lang    string
	Entries []Entry
}

// DecodeModules reads a JSON array of annotated modules. Object key order
// is significant, so the input is walked token by token.
func DecodeModules(r io.Reader) ([]Module, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var modules []Module
	for dec.More() {
		m, err := decodeModule(dec)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", len(modules), err)
		}
		modules = append(modules, m)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return modules, nil
}

func decodeModule(dec *json.Decoder) (Module, error) {
	var m Module
	if err := expectDelim(dec, '{'); err != nil {
		return m, err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return m, err
		}
		switch key {
		case keyLang:
			if err := dec.Decode(&m.Lang); err != nil {
				return m, fmt.Errorf("%w: %s: %v", ErrFormat, keyLang, err)
			}
		case keyDetails:
			if m.Entries, err = decodeEntries(dec, true); err != nil {
				return m, err
			}
		default:
			if err := skipValue(dec); err != nil {
				return m, err
			}
		}
	}
	return m, expectDelim(dec, '}')
}

// decodeEntries reads one object of header/value pairs. Sub-module lists
// are only honoured at the top level.
func decodeEntries(dec *json.Decoder, top bool) ([]Entry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out []Entry
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if top && key == keySubModules {
			subs, err := decodeSubModules(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, subs...)
			continue
		}
		value, err := readScalar(dec)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		out = append(out, Entry{Header: key, Value: value})
	}
	return out, expectDelim(dec, '}')
}

func decodeSubModules(dec *json.Decoder) ([]Entry, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: %s must be a list", ErrFormat, keySubModules)
	}
	var out []Entry
	for dec.More() {
		entries, err := decodeEntries(dec, false)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keySubModules, err)
		}
		out = append(out, entries...)
	}
	return out, expectDelim(dec, ']')
}

// readScalar renders strings and numbers as text; null becomes "".
func readScalar(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	switch v := tok.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return fmt.Sprint(v), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("%w: expected a scalar value", ErrFormat)
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key", ErrFormat)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrFormat, want, tok)
	}
	return nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}
