package models

import "github.com/GonzoDMX/modextract/internal/reconcile"

// TrainingRecord is one line of a training dataset file. All five arrays
// have the chunk size as their length.
type TrainingRecord struct {
	InputIDs      []int    `json:"input_ids"`
	Tokens        []string `json:"tokens"`
	Labels        []int    `json:"labels"`
	TextLabels    []string `json:"text_labels"`
	AttentionMask []int    `json:"attention_mask"`
	TextLang      string   `json:"text_lang"`
}

// PageExtraction holds the fields found on one page of a document.
type PageExtraction struct {
	PageNo        int                 `json:"pdf_page_no"`
	ExtractedText reconcile.Fields    `json:"extracted_text"`
	Warnings      map[string][]string `json:"warnings,omitempty"`
}

// ExtractionResult is the output for one processed document.
type ExtractionResult struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Extractions []PageExtraction `json:"extractions"`
}

// FromRecords converts grouped field records into the result layout.
func FromRecords(name string, records []reconcile.FieldRecord) ExtractionResult {
	res := ExtractionResult{Name: name, Extractions: make([]PageExtraction, 0, len(records))}
	for _, r := range records {
		res.Extractions = append(res.Extractions, PageExtraction{
			PageNo:        r.Page,
			ExtractedText: r.Fields,
			Warnings:      r.Warnings,
		})
	}
	return res
}
