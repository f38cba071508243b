package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/GonzoDMX/modextract/internal/ingest"
	"github.com/GonzoDMX/modextract/internal/pipeline"
	"github.com/GonzoDMX/modextract/internal/store"
)

// ==========================================
// EXTRACTION & DOCUMENT OPERATIONS
// ==========================================

// HandleExtract - POST /api/v1/extract
// Synchronous: Upload -> Extract pages -> Classify -> Store -> Return fields.
func (s *Server) HandleExtract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	db, release := s.acquireDB()
	defer release()
	if db == nil {
		errorResponse(w, http.StatusServiceUnavailable, "No active database")
		return
	}

	// 1. Parse Multipart
	r.Body = http.MaxBytesReader(w, r.Body, pipeline.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		errorResponse(w, http.StatusBadRequest, "File too large or invalid")
		return
	}

	// 2. Get File
	file, header, err := r.FormFile("file")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Missing 'file' field")
		return
	}
	defer file.Close()

	// 3. Validation (Mime Type)
	buffer := make([]byte, 512)
	n, _ := file.Read(buffer)
	if _, err := file.Seek(0, 0); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	if !ingest.IsSupported(header.Filename, buffer[:n]) {
		errorResponse(w, http.StatusUnsupportedMediaType, "Unsupported file type: "+http.DetectContentType(buffer[:n]))
		return
	}

	// 4. First page of the module section
	startPage := 1
	if v := r.FormValue("module_start_page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			errorResponse(w, http.StatusBadRequest, "module_start_page must be a positive integer")
			return
		}
		startPage = p
	}

	// 5. Save to Staging
	path, checksum, err := saveFileToStaging(s.stagingDir, file, header.Filename)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	defer os.Remove(path)

	// 6. Register the document
	doc, err := db.CreateDocument(r.Context(), store.Document{
		Name:      header.Filename,
		Checksum:  checksum,
		Size:      header.Size,
		Type:      ingest.GetProcessorType(header.Filename),
		StartPage: startPage,
	})
	if err != nil {
		s.log.Error("create document", "name", header.Filename, "err", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to register document")
		return
	}

	// 7. PIPELINE
	res, err := s.extractor.ExtractFile(r.Context(), path, header.Filename, startPage)
	if err != nil {
		s.log.Error("extraction failed", "doc", doc.ID, "name", header.Filename, "err", err)
		if mErr := db.MarkFailed(r.Context(), doc.ID, err); mErr != nil {
			s.log.Error("mark failed", "doc", doc.ID, "err", mErr)
		}
		errorResponse(w, http.StatusInternalServerError, "Extraction failed: "+err.Error())
		return
	}
	res.ID = doc.ID

	// 8. Persist
	if err := db.SaveExtraction(r.Context(), doc.ID, res.ExtractionResult, res.Pages, res.Windows); err != nil {
		s.log.Error("save extraction", "doc", doc.ID, "err", err)
		if mErr := db.MarkFailed(r.Context(), doc.ID, err); mErr != nil {
			s.log.Error("mark failed", "doc", doc.ID, "err", mErr)
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to store extraction")
		return
	}

	meta := ExtractMeta{
		DocID:   doc.ID,
		Pages:   res.Pages,
		Windows: res.Windows,
		Took:    time.Since(start).Round(time.Millisecond).String(),
	}
	for _, warn := range res.Warnings {
		meta.Warnings = append(meta.Warnings, warn.String())
	}

	params, _ := json.Marshal(map[string]any{"module_start_page": startPage, "name": header.Filename})
	if err := db.LogRequest(r.Context(), store.RequestLog{
		Type:         "extract",
		DocID:        doc.ID,
		Params:       string(params),
		ResultCount:  len(res.Extractions),
		WarningCount: len(res.Warnings),
		Latency:      time.Since(start),
	}); err != nil {
		s.log.Warn("request log", "err", err)
	}

	jsonResponse(w, http.StatusCreated, StandardResponse{
		Success: true,
		Data:    res.ExtractionResult,
		Meta:    meta,
	})
}

// HandleExtractionGet - GET /api/v1/extractions/{id}
func (s *Server) HandleExtractionGet(w http.ResponseWriter, r *http.Request) {
	db, release := s.acquireDB()
	defer release()
	if db == nil {
		errorResponse(w, http.StatusServiceUnavailable, "No active database")
		return
	}
	res, err := db.GetExtraction(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrDocNotFound) {
		errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Data: res})
}

// HandleDocList - GET /api/v1/docs/list
func (s *Server) HandleDocList(w http.ResponseWriter, r *http.Request) {
	db, release := s.acquireDB()
	defer release()
	if db == nil {
		errorResponse(w, http.StatusServiceUnavailable, "No active database")
		return
	}
	docs, err := db.ListDocuments(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := DocListResponse{Docs: make([]DocResponse, 0, len(docs)), Total: len(docs)}
	for _, d := range docs {
		resp.Docs = append(resp.Docs, DocResponse{
			ID:        d.ID,
			Name:      d.Name,
			Size:      d.Size,
			Type:      d.Type,
			StartPage: d.StartPage,
			PageCount: d.PageCount,
			Status:    d.Status,
			Error:     d.Error,
			CreatedAt: d.CreatedAt.Format(time.RFC3339),
		})
	}
	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Data: resp})
}

// HandleDocRemove - DELETE /api/v1/docs/{id}
func (s *Server) HandleDocRemove(w http.ResponseWriter, r *http.Request) {
	db, release := s.acquireDB()
	defer release()
	if db == nil {
		errorResponse(w, http.StatusServiceUnavailable, "No active database")
		return
	}
	docID := r.PathValue("id")
	err := db.DeleteDocument(r.Context(), docID)
	if errors.Is(err, store.ErrDocNotFound) {
		errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Data: map[string]string{"removed": docID}})
}
