package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/GonzoDMX/modextract/internal/config"
	"github.com/GonzoDMX/modextract/internal/extractor"
	"github.com/GonzoDMX/modextract/internal/store"
)

// Extractor runs the inference path on an uploaded file.
// Implemented by extractor.Service.
type Extractor interface {
	ExtractFile(ctx context.Context, path, name string, startPage int) (extractor.Result, error)
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	cfg        config.SystemConfig
	manager    *store.Manager
	extractor  Extractor
	log        *slog.Logger
	started    time.Time
	stagingDir string

	mu      sync.RWMutex
	active  *activeDB
	closing sync.WaitGroup // databases replaced while still in use
}

// activeDB is a database handle plus the requests currently using it. It is
// closed only after every request has released it.
type activeDB struct {
	db    *store.DB
	inUse sync.WaitGroup
}

// NewServer builds a server. No database is active until UseDatabase is
// called. A nil logger discards output.
func NewServer(cfg config.SystemConfig, manager *store.Manager, ext Extractor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		cfg:        cfg,
		manager:    manager,
		extractor:  ext,
		log:        logger,
		started:    time.Now(),
		stagingDir: filepath.Join(manager.RootDir, "staging"),
	}
}

// UseDatabase makes name the active database. The previous one is closed
// once the requests still using it have finished.
// Databases stamped with another label set or tokenizer are refused.
func (s *Server) UseDatabase(ctx context.Context, name string) error {
	db, err := s.manager.OpenDatabase(name)
	if err != nil {
		return err
	}
	state, err := db.State(ctx)
	if err != nil {
		db.Close()
		return err
	}
	status, issues := config.CheckCompatibility(state, s.cfg)
	for _, issue := range issues {
		s.log.Warn("database compatibility", "db", name, "status", status, "issue", issue)
	}
	if status == config.StatusIncompatible {
		db.Close()
		return fmt.Errorf("database %s is incompatible with this configuration", name)
	}

	s.mu.Lock()
	prev := s.active
	s.active = &activeDB{db: db}
	s.mu.Unlock()

	if prev != nil {
		s.closing.Add(1)
		go func() {
			defer s.closing.Done()
			prev.inUse.Wait()
			if err := prev.db.Close(); err != nil {
				s.log.Warn("close database", "db", prev.db.Name, "err", err)
			}
		}()
	}
	s.log.Info("active database", "db", name)
	return nil
}

// acquireDB returns the active database and a release func the caller must
// call when done with it. The database stays open until released even if
// another one is activated meanwhile. db is nil when none is active.
func (s *Server) acquireDB() (db *store.DB, release func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil, func() {}
	}
	a := s.active
	a.inUse.Add(1)
	return a.db, a.inUse.Done
}

// activeName returns the name of the active database, or "".
func (s *Server) activeName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return ""
	}
	return s.active.db.Name
}

// Close waits for in-flight requests and releases every database.
func (s *Server) Close() error {
	s.mu.Lock()
	a := s.active
	s.active = nil
	s.mu.Unlock()

	var err error
	if a != nil {
		a.inUse.Wait()
		err = a.db.Close()
	}
	s.closing.Wait()
	return err
}

// Routes returns the router wrapped in the middleware chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// --- General ---
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /api/v1/system/status", s.HandleStatus)

	// --- Extraction ---
	mux.HandleFunc("POST /api/v1/extract", s.HandleExtract)
	mux.HandleFunc("GET /api/v1/extractions/{id}", s.HandleExtractionGet)

	// --- Documents ---
	mux.HandleFunc("GET /api/v1/docs/list", s.HandleDocList)
	mux.HandleFunc("DELETE /api/v1/docs/{id}", s.HandleDocRemove)

	// --- Database ---
	mux.HandleFunc("POST /api/v1/db/create", s.HandleDBCreate)
	mux.HandleFunc("POST /api/v1/db/use", s.HandleDBUse)
	mux.HandleFunc("GET /api/v1/db/list", s.HandleDBList)
	mux.HandleFunc("GET /api/v1/db/info", s.HandleDBInfo)
	mux.HandleFunc("DELETE /api/v1/db/{name}", s.HandleDBDelete)

	return MiddlewareChain(mux, s.log)
}

// MiddlewareChain wraps the router with Logging and CORS
func MiddlewareChain(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// CORS for browser frontends
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)

		logger.Info("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}
