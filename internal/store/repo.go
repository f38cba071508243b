package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GonzoDMX/modextract/internal/models"
)

var ErrDocNotFound = errors.New("document not found")

const (
	StatusProcessing = "processing"
	StatusExtracted  = "extracted"
	StatusFailed     = "failed"
)

// DB is one open extraction database.
type DB struct {
	Name string
	sql  *sql.DB
}

func (d *DB) Close() error { return d.sql.Close() }

// Document is the metadata row of one processed upload.
type Document struct {
	ID          string
	Name        string
	Checksum    string
	Size        int64
	Type        string
	StartPage   int
	PageCount   int
	WindowCount int
	Status      string
	Error       string
	CreatedAt   time.Time
}

// RequestLog is one row of the audit table.
type RequestLog struct {
	Type         string
	DocID        string
	Params       string // JSON
	ResultCount  int
	WarningCount int
	Latency      time.Duration
}

// CreateDocument inserts a document in the processing state and returns it
// with its generated id.
func (d *DB) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.StartPage < 1 {
		doc.StartPage = 1
	}
	doc.Status = StatusProcessing
	doc.CreatedAt = time.Now().UTC()

	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO documents (id, name, checksum, size, type, start_page, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.Checksum, doc.Size, doc.Type, doc.StartPage, doc.Status, doc.CreatedAt, doc.CreatedAt,
	)
	if err != nil {
		return doc, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// SaveExtraction stores all page fields and warnings of a document and
// marks it extracted, in one transaction.
func (d *DB) SaveExtraction(ctx context.Context, docID string, res models.ExtractionResult, pageCount, windowCount int) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fieldStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO page_fields (doc_id, page_no, position, category, content) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer fieldStmt.Close()

	warnStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO field_warnings (doc_id, page_no, category, message) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer warnStmt.Close()

	for _, page := range res.Extractions {
		for pos, category := range page.ExtractedText.Keys() {
			text, _ := page.ExtractedText.Get(category)
			if _, err := fieldStmt.ExecContext(ctx, docID, page.PageNo, pos, category, text); err != nil {
				return fmt.Errorf("insert field page %d %s: %w", page.PageNo, category, err)
			}
		}
		for category, msgs := range page.Warnings {
			for _, msg := range msgs {
				if _, err := warnStmt.ExecContext(ctx, docID, page.PageNo, category, msg); err != nil {
					return fmt.Errorf("insert warning page %d %s: %w", page.PageNo, category, err)
				}
			}
		}
	}

	r, err := tx.ExecContext(ctx, `
		UPDATE documents SET status = ?, page_count = ?, window_count = ?, updated_at = ?
		WHERE id = ?`,
		StatusExtracted, pageCount, windowCount, time.Now().UTC(), docID,
	)
	if err != nil {
		return err
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDocNotFound, docID)
	}
	return tx.Commit()
}

// MarkFailed records why a document could not be processed.
func (d *DB) MarkFailed(ctx context.Context, docID string, cause error) error {
	_, err := d.sql.ExecContext(ctx,
		`UPDATE documents SET status = ?, error_msg = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, cause.Error(), time.Now().UTC(), docID,
	)
	return err
}

// GetDocument returns a document's metadata.
func (d *DB) GetDocument(ctx context.Context, id string) (Document, error) {
	row := d.sql.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(checksum, ''), COALESCE(size, 0), COALESCE(type, ''),
		       start_page, page_count, window_count, status, COALESCE(error_msg, ''), created_at
		FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, fmt.Errorf("%w: %s", ErrDocNotFound, id)
	}
	return doc, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var doc Document
	err := s.Scan(&doc.ID, &doc.Name, &doc.Checksum, &doc.Size, &doc.Type,
		&doc.StartPage, &doc.PageCount, &doc.WindowCount, &doc.Status, &doc.Error, &doc.CreatedAt)
	return doc, err
}

// ListDocuments returns all documents, newest first.
func (d *DB) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT id, name, COALESCE(checksum, ''), COALESCE(size, 0), COALESCE(type, ''),
		       start_page, page_count, window_count, status, COALESCE(error_msg, ''), created_at
		FROM documents ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetExtraction rebuilds the stored result of a document.
func (d *DB) GetExtraction(ctx context.Context, id string) (models.ExtractionResult, error) {
	doc, err := d.GetDocument(ctx, id)
	if err != nil {
		return models.ExtractionResult{}, err
	}
	res := models.ExtractionResult{ID: doc.ID, Name: doc.Name, Extractions: []models.PageExtraction{}}

	rows, err := d.sql.QueryContext(ctx, `
		SELECT page_no, category, content FROM page_fields
		WHERE doc_id = ? ORDER BY page_no, position`, id)
	if err != nil {
		return res, err
	}
	defer rows.Close()

	index := make(map[int]int) // page -> position in res.Extractions
	for rows.Next() {
		var page int
		var category, text string
		if err := rows.Scan(&page, &category, &text); err != nil {
			return res, err
		}
		i, ok := index[page]
		if !ok {
			i = len(res.Extractions)
			index[page] = i
			res.Extractions = append(res.Extractions, models.PageExtraction{PageNo: page})
		}
		res.Extractions[i].ExtractedText.Set(category, text)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	wrows, err := d.sql.QueryContext(ctx, `
		SELECT page_no, category, message FROM field_warnings
		WHERE doc_id = ? ORDER BY id`, id)
	if err != nil {
		return res, err
	}
	defer wrows.Close()

	for wrows.Next() {
		var page int
		var category, msg string
		if err := wrows.Scan(&page, &category, &msg); err != nil {
			return res, err
		}
		i, ok := index[page]
		if !ok {
			continue
		}
		pe := &res.Extractions[i]
		if pe.Warnings == nil {
			pe.Warnings = make(map[string][]string)
		}
		pe.Warnings[category] = append(pe.Warnings[category], msg)
	}
	return res, wrows.Err()
}

// DeleteDocument removes a document and everything extracted from it.
func (d *DB) DeleteDocument(ctx context.Context, id string) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM page_fields WHERE doc_id = ?`,
		`DELETE FROM field_warnings WHERE doc_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	r, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDocNotFound, id)
	}
	return tx.Commit()
}

// LogRequest appends to the audit table.
func (d *DB) LogRequest(ctx context.Context, l RequestLog) error {
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO request_logs (type, doc_id, query_params, result_count, warning_count, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.Type, l.DocID, l.Params, l.ResultCount, l.WarningCount, l.Latency.Milliseconds(),
	)
	return err
}

// Counts returns the number of documents and stored fields.
func (d *DB) Counts(ctx context.Context) (docs, fields int, err error) {
	if err = d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&docs); err != nil {
		return
	}
	err = d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM page_fields`).Scan(&fields)
	return
}
