package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GonzoDMX/modextract/internal/config"
	"github.com/GonzoDMX/modextract/internal/store"
)

// ==========================================
// DATABASE OPERATIONS
// ==========================================

// HandleDBCreate - POST /api/v1/db/create
func (s *Server) HandleDBCreate(w http.ResponseWriter, r *http.Request) {
	var req DBCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	err := s.manager.CreateDatabase(req.Name, req.Description, s.cfg)
	switch {
	case errors.Is(err, store.ErrDBExists):
		errorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, store.ErrBadName):
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, StandardResponse{Success: true, Message: "Database created"})
}

// HandleDBUse - POST /api/v1/db/use
func (s *Server) HandleDBUse(w http.ResponseWriter, r *http.Request) {
	var req DBUseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	err := s.UseDatabase(r.Context(), req.Name)
	switch {
	case errors.Is(err, store.ErrDBNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, store.ErrBadName):
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		errorResponse(w, http.StatusConflict, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Message: "Switched to database " + req.Name})
}

// HandleDBList - GET /api/v1/db/list
func (s *Server) HandleDBList(w http.ResponseWriter, r *http.Request) {
	names, err := s.manager.ListDatabases()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	active := s.activeName()
	resp := DBListResponse{Databases: make([]DBInfoResponse, 0, len(names))}
	for _, name := range names {
		resp.Databases = append(resp.Databases, DBInfoResponse{Name: name, IsActive: name == active})
	}
	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Data: resp})
}

// HandleDBInfo - GET /api/v1/db/info
func (s *Server) HandleDBInfo(w http.ResponseWriter, r *http.Request) {
	db, release := s.acquireDB()
	defer release()
	if db == nil {
		errorResponse(w, http.StatusServiceUnavailable, "No active database")
		return
	}

	kv, err := db.Config(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	state, err := db.State(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	docs, fields, err := db.Counts(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	size, _ := s.manager.DiskSize(db.Name)
	status, issues := config.CheckCompatibility(state, s.cfg)

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data: DBInfoResponse{
			Name:          db.Name,
			Description:   kv["description"],
			DocCount:      docs,
			FieldCount:    fields,
			DiskSize:      size,
			CreatedAt:     kv["created_at"],
			Compatibility: string(status),
			Issues:        issues,
			IsActive:      true,
		},
	})
}

// HandleDBDelete - DELETE /api/v1/db/{name}
func (s *Server) HandleDBDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == s.activeName() {
		errorResponse(w, http.StatusConflict, "Cannot delete the active database")
		return
	}
	err := s.manager.DeleteDatabase(name)
	switch {
	case errors.Is(err, store.ErrDBNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, store.ErrBadName):
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Message: "Deleted " + name})
}
