package ingest

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

// SupportedExtensions defines the allow-list for handbook uploads.
var SupportedExtensions = map[string]bool{
	// Handbooks
	".pdf":  true,
	".docx": true,

	// Pre-extracted text, one page per form feed
	".txt": true,
	".md":  true,
}

// IsSupported determines if a handbook upload should be processed based on
// its content (magic numbers) and its name (extension).
func IsSupported(filename string, headerBytes []byte) bool {
	// 1. Extension allow-list
	ext := strings.ToLower(filepath.Ext(filename))
	if !SupportedExtensions[ext] {
		return false
	}

	// 2. Sniff the MIME type from the first 512 bytes
	mime := http.DetectContentType(headerBytes)

	switch ext {
	case ".pdf":
		// Some generators put a BOM or whitespace before the header.
		return mime == "application/pdf" || bytes.Contains(headerBytes, []byte("%PDF-"))
	case ".docx":
		// DOCX files are ZIP archives containing XML.
		return mime == "application/zip"
	default:
		return strings.HasPrefix(mime, "text/plain")
	}
}

// IsDatasetSource reports whether a path looks like an annotated handbook
// export used to build training data.
func IsDatasetSource(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".json"
}

// GetProcessorType returns a standardized string for which extractor to use.
func GetProcessorType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return "pdf"
	case ".docx":
		return "word"
	case ".md", ".txt":
		return "text"
	default:
		return "unknown"
	}
}
