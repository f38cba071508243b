package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/GonzoDMX/modextract/internal/models"
)

// compressed reports whether a path names a zstd file.
func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Writer writes training records as JSON lines, zstd-compressed when the
// path ends in ".zst".
type Writer struct {
	f   *os.File
	zw  *zstd.Encoder
	buf *bufio.Writer
	enc *json.Encoder
	n   int
}

// Create opens path for writing, truncating it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: f}

	var dst io.Writer = f
	if compressed(path) {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		w.zw = zw
		dst = zw
	}
	w.buf = bufio.NewWriter(dst)
	w.enc = json.NewEncoder(w.buf)
	w.enc.SetEscapeHTML(false)
	return w, nil
}

// Write appends one record.
func (w *Writer) Write(rec models.TrainingRecord) error {
	if err := w.enc.Encode(rec); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int { return w.n }

// Close flushes all layers and closes the file.
func (w *Writer) Close() error {
	err := w.buf.Flush()
	if w.zw != nil {
		err = errors.Join(err, w.zw.Close())
	}
	return errors.Join(err, w.f.Close())
}

// Reader iterates over the records of a JSON lines file.
type Reader struct {
	f   *os.File
	zr  *zstd.Decoder
	dec *json.Decoder
	n   int
}

// Open opens a plain or ".zst" JSON lines file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f}

	var src io.Reader = bufio.NewReader(f)
	if compressed(path) {
		zr, err := zstd.NewReader(src)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		r.zr = zr
		src = zr
	}
	r.dec = json.NewDecoder(src)
	return r, nil
}

// Next returns the next record, or io.EOF at the end.
func (r *Reader) Next() (models.TrainingRecord, error) {
	var rec models.TrainingRecord
	if !r.dec.More() {
		return rec, io.EOF
	}
	if err := r.dec.Decode(&rec); err != nil {
		return rec, fmt.Errorf("record %d: %w", r.n+1, err)
	}
	r.n++
	return rec, nil
}

func (r *Reader) Close() error {
	if r.zr != nil {
		r.zr.Close()
	}
	return r.f.Close()
}
