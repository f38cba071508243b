package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/GonzoDMX/modextract/internal/config"
)

// ==========================================
// SERVICE OPERATIONS
// ==========================================

// HandleHealth - GET /health
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleStatus - GET /api/v1/system/status
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := StatusResponse{
		Status:        "healthy",
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		Version:       s.cfg.AppVersion,
		Classifier:    s.cfg.ClassifierModel.ID + "@" + s.cfg.ClassifierModel.Version,
		LabelCount:    2*len(s.cfg.Categories) + 1,
		WindowTokens:  s.cfg.Inference.MaxTokens,
		WindowOverlap: s.cfg.Inference.Overlap,
		GoVersion:     runtime.Version(),
	}

	db, release := s.acquireDB()
	defer release()
	if db != nil {
		status.ActiveDB = db.Name
		if state, err := db.State(r.Context()); err == nil {
			c, _ := config.CheckCompatibility(state, s.cfg)
			status.Compatibility = string(c)
		}
	} else {
		// Extraction needs somewhere to store results
		status.Status = "degraded"
	}

	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Data: status})
}
