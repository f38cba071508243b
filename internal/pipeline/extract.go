package pipeline

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GonzoDMX/modextract/internal/ingest"
	"github.com/dslipak/pdf" // Pure Go PDF text extractor
	"golang.org/x/text/unicode/norm"
)

// MaxFileSize - 50MB hard limit for text extraction
const MaxFileSize = 50 * 1024 * 1024

// PageText is the normalized text of one document page. Page numbers are
// 1-based.
type PageText struct {
	Page int
	Text string
}

// ExtractPages is the main entry point.
// It determines the file type, extracts text page by page and drops the
// pages before startPage (handbooks usually open with a table of contents).
func ExtractPages(path string, startPage int) ([]PageText, error) {
	// 1. Size Safety Check
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file exceeds size limit of 50MB")
	}
	if startPage < 1 {
		startPage = 1
	}

	var pages []PageText
	switch fileType := ingest.GetProcessorType(path); fileType {
	case "pdf":
		pages, err = extractPDF(path)
	case "text":
		pages, err = extractText(path)
	case "word":
		pages, err = extractDOCX(path)
	default:
		return nil, fmt.Errorf("no extractor found for %s", fileType)
	}
	if err != nil {
		return nil, err
	}

	out := pages[:0]
	for _, p := range pages {
		if p.Page < startPage {
			continue
		}
		p.Text = NormalizeText(p.Text)
		out = append(out, p)
	}
	return out, nil
}

// NormalizeText collapses all whitespace runs (including newlines) into
// single spaces and applies Unicode NFC so composed umlauts tokenize the
// same way regardless of how the PDF encoded them.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// ---------------------------------------------------------
// 1. PDF EXTRACTOR
// Uses "github.com/dslipak/pdf"
// ---------------------------------------------------------
func extractPDF(path string) ([]PageText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []PageText
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF page %d: %w", i, err)
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}
	return pages, nil
}

// ---------------------------------------------------------
// 2. PLAIN TEXT EXTRACTOR (.txt, .md)
// Form feeds separate pages, as emitted by pdftotext.
// ---------------------------------------------------------
func extractText(path string) ([]PageText, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pages []PageText
	for i, chunk := range strings.Split(string(content), "\f") {
		pages = append(pages, PageText{Page: i + 1, Text: chunk})
	}
	return pages, nil
}

// ---------------------------------------------------------
// 3. DOCX EXTRACTOR (Native Go / No Heavy Libs)
// DOCX is just a ZIP file. We unzip -> find word/document.xml -> strip tags.
// Word has no fixed pagination, explicit page breaks (<w:br w:type="page"/>)
// start a new page.
// ---------------------------------------------------------
func extractDOCX(path string) ([]PageText, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX zip: %w", err)
	}
	defer r.Close()

	var documentXML *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			documentXML = f
			break
		}
	}
	if documentXML == nil {
		return nil, fmt.Errorf("invalid docx: missing word/document.xml")
	}

	rc, err := documentXML.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var pages []PageText
	var page strings.Builder
	flush := func() {
		pages = append(pages, PageText{Page: len(pages) + 1, Text: page.String()})
		page.Reset()
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "tab":
				page.WriteString(" ")
			case "br":
				for _, a := range t.Attr {
					if a.Name.Local == "type" && a.Value == "page" {
						flush()
					}
				}
			}
		case xml.CharData:
			page.Write(t)
		}
	}
	flush()
	return pages, nil
}
