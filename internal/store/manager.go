package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GonzoDMX/modextract/internal/config"
)

const (
	AppDirName = ".modextract"
	DBDirName  = "databases"
	DBFileName = "modextract.db"
	LogsDir    = "logs"
)

var (
	ErrDBExists   = errors.New("database already exists")
	ErrDBNotFound = errors.New("database not found")
	ErrBadName    = errors.New("invalid database name")
)

// Manager handles the physical file resources and database lifecycle
type Manager struct {
	RootDir string
}

// NewManager creates the directory structure under root, or under
// ~/.modextract when root is empty.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not find user home: %w", err)
		}
		root = filepath.Join(home, AppDirName)
	}

	dirs := []string{
		filepath.Join(root, DBDirName),
		filepath.Join(root, LogsDir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to init dir %s: %w", d, err)
		}
	}

	return &Manager{RootDir: root}, nil
}

// GetDBPath returns the full path to a specific database folder
func (m *Manager) GetDBPath(dbName string) string {
	return filepath.Join(m.RootDir, DBDirName, dbName)
}

func (m *Manager) dbFile(dbName string) string {
	return filepath.Join(m.GetDBPath(dbName), DBFileName)
}

// validName keeps names to a single path element.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func openSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path+"?_foreign_keys=on")
}

// CreateDatabase initializes a new sqlite file, runs the schema and stamps
// the running configuration into the DB.
func (m *Manager) CreateDatabase(name, description string, cfg config.SystemConfig) error {
	if err := validName(name); err != nil {
		return err
	}
	dbPath := m.GetDBPath(name)

	// 1. Check if exists
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrDBExists, name)
	}

	// 2. Create Folder
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return err
	}

	// 3. Init SQLite
	db, err := openSQLite(m.dbFile(name))
	if err != nil {
		return err
	}
	defer db.Close()

	// 4. Run Schema
	if _, err := db.Exec(SchemaSQL); err != nil {
		os.RemoveAll(dbPath)
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// 5. STAMP CONFIGURATION
	// The DB records which tokenizer, classifier and label set produced it.
	_, err = db.Exec(`
		INSERT INTO config (key, value) VALUES
		('description', ?),
		('created_at', ?),
		('app_version', ?),
		('tokenizer_model_id', ?),
		('classifier_model_id', ?),
		('classifier_model_version', ?),
		('label_set', ?)
	`,
		description,
		time.Now().Format(time.RFC3339),
		cfg.AppVersion,
		cfg.TokenizerModel.ID,
		cfg.ClassifierModel.ID,
		cfg.ClassifierModel.Version,
		cfg.LabelSet(),
	)
	if err != nil {
		os.RemoveAll(dbPath)
		return fmt.Errorf("failed to stamp config: %w", err)
	}
	return nil
}

// OpenDatabase opens an existing database for reading and writing.
func (m *Manager) OpenDatabase(name string) (*DB, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	path := m.dbFile(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrDBNotFound, name)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	return &DB{Name: name, sql: db}, nil
}

// DeleteDatabase removes the folder and all contents
func (m *Manager) DeleteDatabase(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	path := filepath.Clean(m.GetDBPath(name))
	base := filepath.Join(m.RootDir, DBDirName)
	if filepath.Dir(path) != base {
		return fmt.Errorf("%w: safety check failed", ErrBadName)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrDBNotFound, name)
	}
	return os.RemoveAll(path)
}

// ListDatabases scans the directory for valid DBs
func (m *Manager) ListDatabases() ([]string, error) {
	base := filepath.Join(m.RootDir, DBDirName)
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}

	var dbs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// Skip folders without a database file
		if _, err := os.Stat(filepath.Join(base, e.Name(), DBFileName)); err == nil {
			dbs = append(dbs, e.Name())
		}
	}
	return dbs, nil
}

// DiskSize returns the size of a database file in bytes.
func (m *Manager) DiskSize(name string) (int64, error) {
	fi, err := os.Stat(m.dbFile(name))
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
