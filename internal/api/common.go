package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// jsonResponse sends a standard JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse sends a standard Error response
func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, StandardResponse{
		Success: false,
		Error:   msg,
	})
}

// saveFileToStaging copies an upload into dir and returns its path and
// SHA256 checksum.
func saveFileToStaging(dir string, file io.Reader, filename string) (path, checksum string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create staging dir: %w", err)
	}

	// Unique name: timestamp_filename
	safeName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	path = filepath.Join(dir, safeName)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	defer dst.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), file); err != nil {
		os.Remove(path)
		return "", "", err
	}
	return path, hex.EncodeToString(h.Sum(nil)), nil
}
